package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/uploader"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuBuffer is a device buffer allocated through a WGPUDevice.
type wgpuBuffer struct {
	buf  *wgpu.Buffer
	size uint64
}

func (b *wgpuBuffer) Size() uint64 {
	return b.size
}

type wgpuDeviceImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	// instance and adapter are only set when the device was requested by this package and must be released with it.
	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	label                string
	forceFallbackAdapter bool
}

// WGPUDevice is the WebGPU implementation of uploader.Device. Every call is serialized behind a mutex so one
// device may be shared by several uploaders.
type WGPUDevice interface {
	uploader.Device

	Device() *wgpu.Device
	Queue() *wgpu.Queue

	// Buffer returns the WebGPU buffer behind a handle allocated by this device, or nil for a foreign handle.
	//
	// Parameters:
	//   - h: the handle returned by Allocate
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer to bind for drawing
	Buffer(h uploader.Handle) *wgpu.Buffer

	// Release releases the device, and the adapter and instance when they were requested by RequestWGPUDevice.
	Release()
}

var _ WGPUDevice = &wgpuDeviceImpl{}

// NewWGPUDevice wraps an existing device and queue, typically those of a renderer that owns a surface.
// Release does not release a wrapped device.
//
// Parameters:
//   - device: the WebGPU device buffers are created on
//   - queue: the queue writes are submitted to
//
// Returns:
//   - WGPUDevice: the wrapped device
func NewWGPUDevice(device *wgpu.Device, queue *wgpu.Queue) WGPUDevice {
	return &wgpuDeviceImpl{
		mu:     &sync.Mutex{},
		device: device,
		queue:  queue,
	}
}

// RequestWGPUDevice acquires a headless device: an instance, an adapter with no compatible surface and a device
// with default limits.
//
// Parameters:
//   - options: a variadic list of DeviceBuilderOption functions to configure the request
//
// Returns:
//   - WGPUDevice: the new device
//   - error: an error if no adapter or device could be acquired
func RequestWGPUDevice(options ...DeviceBuilderOption) (WGPUDevice, error) {
	w := &wgpuDeviceImpl{
		mu:    &sync.Mutex{},
		label: "Geometry Device",
	}
	for _, opt := range options {
		opt(w)
	}

	w.instance = wgpu.CreateInstance(nil)
	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: w.forceFallbackAdapter,
	})
	if err != nil {
		w.instance.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: w.label,
	})
	if err != nil {
		a.Release()
		w.instance.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()
	return w, nil
}

func (w *wgpuDeviceImpl) Allocate(label string, size uint64, usage uploader.Usage) (uploader.Handle, error) {
	var bufferUsage wgpu.BufferUsage
	switch usage {
	case uploader.UsageVertex:
		bufferUsage = wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	case uploader.UsageIndex:
		bufferUsage = wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	default:
		return nil, fmt.Errorf("allocate %q: %w", label, ErrUnsupportedUsage)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	buf, err := w.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            bufferUsage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{buf: buf, size: size}, nil
}

func (w *wgpuDeviceImpl) Upload(h uploader.Handle, offset uint64, data []byte) error {
	b, ok := h.(*wgpuBuffer)
	if !ok || b.buf == nil {
		return ErrForeignHandle
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.WriteBuffer(b.buf, offset, data)
}

func (w *wgpuDeviceImpl) Free(h uploader.Handle) {
	b, ok := h.(*wgpuBuffer)
	if !ok || b.buf == nil {
		common.LogWarn("wgpu device: free of foreign handle %T", h)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	b.buf.Release()
	b.buf = nil
}

func (w *wgpuDeviceImpl) Buffer(h uploader.Handle) *wgpu.Buffer {
	if b, ok := h.(*wgpuBuffer); ok {
		return b.buf
	}
	return nil
}

func (w *wgpuDeviceImpl) Device() *wgpu.Device {
	return w.device
}

func (w *wgpuDeviceImpl) Queue() *wgpu.Queue {
	return w.queue
}

func (w *wgpuDeviceImpl) Release() {
	if w.instance == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queue.Release()
	w.device.Release()
	w.adapter.Release()
	w.instance.Release()
	w.instance = nil
}
