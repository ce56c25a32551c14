package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/uploader"
)

// Report is the summary of one profiling interval.
type Report struct {
	Elapsed        time.Duration
	SyncsPerSecond float64
	Uploads        uploader.Stats
	UploadRateMB   float64
	HeapMB         float64
	AllocRateMB    float64
	GCCount        uint32
}

// Profiler tracks upload throughput and memory statistics of a sync loop.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	syncCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastTotalAlloc uint64
	lastStats      uploader.Stats
	now            func() time.Time
	last           Report
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: a variadic list of ProfilerBuilderOption functions to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per sync pass with the uploader's cumulative stats.
// Logs a report when the update interval has elapsed. The report holds the upload work done during the
// interval: allocations, full and partial uploads, writes and bytes, plus heap usage and allocation rate.
//
// Parameters:
//   - stats: the uploader's current cumulative stats
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats uploader.Stats) bool {
	p.syncCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	seconds := elapsed.Seconds()
	delta := diff(stats, p.lastStats)

	r := Report{
		Elapsed:        elapsed,
		SyncsPerSecond: float64(p.syncCount) / seconds,
		Uploads:        delta,
		UploadRateMB:   float64(delta.BytesUploaded) / 1024 / 1024 / seconds,
		HeapMB:         float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB:    float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds,
		GCCount:        p.memStats.NumGC,
	}

	common.LogInfo("[Profiler] Syncs: %.2f/s | Alloc: %d | Full: %d | Partial: %d | Writes: %d | Upload: %.2f MB/s | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d",
		r.SyncsPerSecond, delta.Allocations, delta.FullUploads, delta.PartialUploads, delta.Writes, r.UploadRateMB, r.HeapMB, r.AllocRateMB, r.GCCount)

	p.last = r
	p.syncCount = 0
	p.lastTime = currentTime
	p.lastStats = stats
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recently logged report.
func (p *Profiler) Last() Report {
	return p.last
}

// diff returns the work done between two cumulative snapshots. A reset of the uploader's stats is treated as a
// fresh start.
func diff(cur, prev uploader.Stats) uploader.Stats {
	if cur.BytesUploaded < prev.BytesUploaded || cur.Writes < prev.Writes {
		return cur
	}
	return uploader.Stats{
		Allocations:    cur.Allocations - prev.Allocations,
		FullUploads:    cur.FullUploads - prev.FullUploads,
		PartialUploads: cur.PartialUploads - prev.PartialUploads,
		Writes:         cur.Writes - prev.Writes,
		BytesUploaded:  cur.BytesUploaded - prev.BytesUploaded,
	}
}
