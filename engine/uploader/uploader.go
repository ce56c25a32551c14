package uploader

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/geometry"
	"github.com/Carmen-Shannon/oxy-geometry/engine/index_buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/vertex_buffer"
)

// Stats counts the device work done since the uploader was created or the stats were last reset.
type Stats struct {
	Allocations    int
	FullUploads    int
	PartialUploads int
	Writes         int
	BytesUploaded  uint64
}

// resource is the device-side mirror of one Source.
type resource struct {
	handle Handle
	usage  Usage
}

// plan is the staged result of inspecting one Source: an optional reallocation and the writes to issue.
type plan struct {
	source   Source
	usage    Usage
	allocate uint64
	full     bool
	writes   []BufferWrite
}

// uploader is the implementation of the Uploader interface.
type uploader struct {
	mu        sync.RWMutex
	deviceMu  sync.Mutex
	device    Device
	resources map[Source]*resource
	stats     Stats

	pool        worker.DynamicWorkerPool
	workers     int
	queueSize   int
	idleTimeout time.Duration
	alignment   int
	closed      bool
}

// Uploader mirrors vertex and index buffers into device buffers with the least data movement. The first sync of a
// source allocates a device buffer as large as the source's capacity and uploads every used byte, discarding the
// pending dirty ranges. Later syncs upload only the dirty ranges, coalesced and widened to the copy alignment.
// When a source has outgrown its device buffer a larger one is allocated and fully uploaded again.
type Uploader interface {
	// SyncVertexBuffer freezes the vertex buffer and uploads its pending changes.
	//
	// Parameters:
	//   - vb: the vertex buffer to sync
	//
	// Returns:
	//   - error: a freeze, allocation or upload error
	SyncVertexBuffer(vb vertex_buffer.VertexBuffer) error

	// SyncIndexBuffer uploads the pending changes of an index buffer.
	//
	// Parameters:
	//   - ib: the index buffer to sync
	//
	// Returns:
	//   - error: an allocation or upload error
	SyncIndexBuffer(ib index_buffer.IndexBuffer) error

	// SyncGeometry freezes the geometry and syncs all of its buffers.
	//
	// Parameters:
	//   - g: the geometry to sync
	//
	// Returns:
	//   - error: the joined errors of every buffer that failed
	SyncGeometry(g geometry.Geometry) error

	// SyncAll syncs many geometries. Freezing happens on the calling goroutine, the CPU-side staging of each buffer
	// runs on the worker pool, and device calls are issued sequentially once staging is complete.
	//
	// Parameters:
	//   - geometries: the geometries to sync
	//
	// Returns:
	//   - error: the joined errors of every buffer that failed
	SyncAll(geometries []geometry.Geometry) error

	// Handle returns the device buffer currently mirroring src.
	//
	// Parameters:
	//   - src: a previously synced vertex or index buffer
	//
	// Returns:
	//   - Handle: the device buffer
	//   - bool: false if src has never been synced or was forgotten
	Handle(src Source) (Handle, bool)

	// Forget frees the device buffer mirroring src. The next sync of src starts over with a full upload.
	//
	// Parameters:
	//   - src: the source to forget
	Forget(src Source)

	// ForgetGeometry forgets every buffer of a geometry.
	//
	// Parameters:
	//   - g: the geometry to forget
	ForgetGeometry(g geometry.Geometry)

	Stats() Stats
	ResetStats()

	// Close stops the worker pool and frees every device buffer. The uploader cannot be used afterwards.
	Close()
}

var _ Uploader = &uploader{}

// NewUploader creates an Uploader for a device.
//
// Parameters:
//   - device: the device buffers are allocated on
//   - options: a variadic list of UploaderBuilderOption functions to configure the uploader
//
// Returns:
//   - Uploader: the new uploader
//   - error: ErrNilDevice if device is nil
func NewUploader(device Device, options ...UploaderBuilderOption) (Uploader, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	u := &uploader{
		device:      device,
		resources:   make(map[Source]*resource),
		workers:     DefaultWorkers,
		queueSize:   DefaultQueueSize,
		idleTimeout: time.Second,
		alignment:   CopyAlignment,
	}
	for _, opt := range options {
		opt(u)
	}
	u.pool = worker.NewDynamicWorkerPool(u.workers, u.queueSize, u.idleTimeout)
	return u, nil
}

func (u *uploader) SyncVertexBuffer(vb vertex_buffer.VertexBuffer) error {
	if err := vb.Freeze(); err != nil {
		return err
	}
	return u.sync(vb, UsageVertex)
}

func (u *uploader) SyncIndexBuffer(ib index_buffer.IndexBuffer) error {
	if ib.Destroyed() {
		return fmt.Errorf("sync %q: %w", ib.Label(), index_buffer.ErrDestroyed)
	}
	return u.sync(ib, UsageIndex)
}

func (u *uploader) SyncGeometry(g geometry.Geometry) error {
	if err := g.Freeze(); err != nil {
		return err
	}
	var errs []error
	for _, vb := range g.VertexBuffers() {
		errs = append(errs, u.sync(vb, UsageVertex))
	}
	if ib := g.IndexBuffer(); ib != nil {
		errs = append(errs, u.sync(ib, UsageIndex))
	}
	return errors.Join(errs...)
}

func (u *uploader) SyncAll(geometries []geometry.Geometry) error {
	if u.isClosed() {
		return ErrClosed
	}

	// Phase 1: freeze on the caller so the layout cache is only mutated from one goroutine.
	var errs []error
	var sources []Source
	var usages []Usage
	for _, g := range geometries {
		if err := g.Freeze(); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, vb := range g.VertexBuffers() {
			sources = append(sources, vb)
			usages = append(usages, UsageVertex)
		}
		if ib := g.IndexBuffer(); ib != nil {
			sources = append(sources, ib)
			usages = append(usages, UsageIndex)
		}
	}

	// Phase 2: stage in parallel. Each task owns exactly one source and one slot of plans.
	plans := make([]*plan, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		id := i
		srcCap, usage := src, usages[i]
		u.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				plans[id] = u.stage(srcCap, usage)
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Phase 3: device calls in submission order.
	for _, p := range plans {
		errs = append(errs, u.apply(p))
	}
	return errors.Join(errs...)
}

func (u *uploader) Handle(src Source) (Handle, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	r, ok := u.resources[src]
	if !ok {
		return nil, false
	}
	return r.handle, true
}

func (u *uploader) Forget(src Source) {
	u.mu.Lock()
	r, ok := u.resources[src]
	delete(u.resources, src)
	u.mu.Unlock()
	if !ok {
		return
	}
	u.deviceMu.Lock()
	u.device.Free(r.handle)
	u.deviceMu.Unlock()
}

func (u *uploader) ForgetGeometry(g geometry.Geometry) {
	for _, vb := range g.VertexBuffers() {
		u.Forget(vb)
	}
	if ib := g.IndexBuffer(); ib != nil {
		u.Forget(ib)
	}
}

func (u *uploader) Stats() Stats {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.stats
}

func (u *uploader) ResetStats() {
	u.mu.Lock()
	u.stats = Stats{}
	u.mu.Unlock()
}

func (u *uploader) Close() {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.closed = true
	resources := u.resources
	u.resources = make(map[Source]*resource)
	u.mu.Unlock()

	u.pool.Stop()
	u.deviceMu.Lock()
	defer u.deviceMu.Unlock()
	for _, r := range resources {
		u.device.Free(r.handle)
	}
}

func (u *uploader) isClosed() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.closed
}

func (u *uploader) sync(src Source, usage Usage) error {
	if u.isClosed() {
		return ErrClosed
	}
	return u.apply(u.stage(src, usage))
}

// stage drains the source's dirty ranges and decides what to upload. It touches no device state.
func (u *uploader) stage(src Source, usage Usage) *plan {
	data := src.Bytes()
	ranges := src.DrainDirtyRanges()
	p := &plan{source: src, usage: usage}

	u.mu.RLock()
	r, ok := u.resources[src]
	u.mu.RUnlock()

	needed := uint64(common.AlignUp(len(data), u.alignment))
	if !ok || r.handle.Size() < needed {
		if len(data) == 0 {
			return p
		}
		p.allocate = uint64(common.AlignUp(max(src.Capacity(), len(data)), u.alignment))
		p.full = true
		p.writes = []BufferWrite{{Offset: 0, Data: padded(data, 0, int(needed))}}
		return p
	}

	for _, rng := range buffer.Coalesce(ranges, u.alignment, int(r.handle.Size())) {
		if rng.Offset >= len(data) {
			continue
		}
		p.writes = append(p.writes, BufferWrite{
			Offset: uint64(rng.Offset),
			Data:   padded(data, rng.Offset, rng.End()),
		})
	}
	return p
}

// apply performs the device calls of a staged plan and records the outcome.
func (u *uploader) apply(p *plan) error {
	if p.allocate == 0 && len(p.writes) == 0 {
		return nil
	}
	label := p.source.Label()

	u.deviceMu.Lock()
	defer u.deviceMu.Unlock()

	u.mu.RLock()
	r, ok := u.resources[p.source]
	u.mu.RUnlock()

	if p.allocate > 0 {
		h, err := u.device.Allocate(label, p.allocate, p.usage)
		if err != nil {
			return fmt.Errorf("allocate %d bytes for %q: %w", p.allocate, label, err)
		}
		if ok {
			u.device.Free(r.handle)
		}
		r = &resource{handle: h, usage: p.usage}
		u.mu.Lock()
		u.resources[p.source] = r
		u.stats.Allocations++
		u.mu.Unlock()
		common.LogDebug("uploader: allocated %d byte %s buffer for %q", p.allocate, p.usage, label)
	} else if !ok {
		return fmt.Errorf("upload %q: %w", label, ErrNotAllocated)
	}

	var written uint64
	for _, w := range p.writes {
		if err := u.device.Upload(r.handle, w.Offset, w.Data); err != nil {
			// The source's dirty ranges are already drained, so drop the device buffer and let the next sync
			// allocate and upload everything again.
			u.mu.Lock()
			delete(u.resources, p.source)
			u.mu.Unlock()
			u.device.Free(r.handle)
			return fmt.Errorf("upload %d bytes at %d to %q: %w", len(w.Data), w.Offset, label, err)
		}
		written += uint64(len(w.Data))
	}

	u.mu.Lock()
	u.stats.Writes += len(p.writes)
	u.stats.BytesUploaded += written
	if p.full {
		u.stats.FullUploads++
	} else {
		u.stats.PartialUploads++
	}
	u.mu.Unlock()
	return nil
}

// padded copies data[start:end] into a new slice of end-start bytes, zero-filling past the end of data.
func padded(data []byte, start, end int) []byte {
	out := make([]byte, end-start)
	if start < len(data) {
		copy(out, data[start:min(end, len(data))])
	}
	return out
}
