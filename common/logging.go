package common

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared subsystem logger, creating it on first use.
// Output goes to stderr at info level until changed with SetLogLevel or SetLogOutput.
//
// Returns:
//   - *log.Logger: the shared logger
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "oxy-geometry",
		})
		logger.SetLevel(log.InfoLevel)
	})
	return logger
}

// SetLogLevel parses and applies a log level name ("debug", "info", "warn", "error", "fatal").
//
// Parameters:
//   - level: the level name
//
// Returns:
//   - error: an error if the level name is not recognized
func SetLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger().SetLevel(lvl)
	return nil
}

// SetLogOutput redirects the shared logger to w.
//
// Parameters:
//   - w: the writer to log to
func SetLogOutput(w io.Writer) {
	Logger().SetOutput(w)
}

func LogDebug(msg string, args ...any) {
	Logger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...any) {
	Logger().Infof(msg, args...)
}

func LogWarn(msg string, args ...any) {
	Logger().Warnf(msg, args...)
}

func LogError(msg string, args ...any) {
	Logger().Errorf(msg, args...)
}
