package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-geometry/engine/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func TestTickReportsDeltas(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithUpdateInterval(2*time.Second), WithClock(clock.now))

	clock.t = clock.t.Add(time.Second)
	assert.False(t, p.Tick(uploader.Stats{Allocations: 1, FullUploads: 1, Writes: 1, BytesUploaded: 1 << 20}))

	clock.t = clock.t.Add(time.Second)
	require.True(t, p.Tick(uploader.Stats{Allocations: 2, FullUploads: 2, PartialUploads: 1, Writes: 4, BytesUploaded: 2 << 20}))

	r := p.Last()
	assert.Equal(t, 2*time.Second, r.Elapsed)
	assert.InDelta(t, 1.0, r.SyncsPerSecond, 1e-9)
	assert.Equal(t, uploader.Stats{Allocations: 2, FullUploads: 2, PartialUploads: 1, Writes: 4, BytesUploaded: 2 << 20}, r.Uploads)
	assert.InDelta(t, 1.0, r.UploadRateMB, 1e-9)

	clock.t = clock.t.Add(2 * time.Second)
	require.True(t, p.Tick(uploader.Stats{Allocations: 2, FullUploads: 2, PartialUploads: 3, Writes: 6, BytesUploaded: 3 << 20}))
	r = p.Last()
	assert.Equal(t, uploader.Stats{PartialUploads: 2, Writes: 2, BytesUploaded: 1 << 20}, r.Uploads)
	assert.InDelta(t, 0.5, r.SyncsPerSecond, 1e-9)
}

func TestTickAfterStatsReset(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithUpdateInterval(time.Second), WithClock(clock.now))

	clock.t = clock.t.Add(time.Second)
	require.True(t, p.Tick(uploader.Stats{Writes: 10, BytesUploaded: 4096}))

	clock.t = clock.t.Add(time.Second)
	require.True(t, p.Tick(uploader.Stats{Writes: 1, BytesUploaded: 64}))
	assert.Equal(t, uploader.Stats{Writes: 1, BytesUploaded: 64}, p.Last().Uploads)
}

func TestDefaultInterval(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(-1), WithClock(nil))
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.now)
	assert.False(t, p.Tick(uploader.Stats{}))
}
