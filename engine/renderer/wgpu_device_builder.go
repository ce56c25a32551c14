package renderer

// DeviceBuilderOption is a functional option applied to a headless device request via RequestWGPUDevice.
type DeviceBuilderOption func(*wgpuDeviceImpl)

// WithDeviceLabel sets the label of the requested device.
//
// Parameters:
//   - label: the device label
//
// Returns:
//   - DeviceBuilderOption: a function that sets the label
func WithDeviceLabel(label string) DeviceBuilderOption {
	return func(w *wgpuDeviceImpl) {
		w.label = label
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). Useful for running uploads in CI.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - DeviceBuilderOption: a function that applies the force software renderer option
func WithForceSoftwareRenderer(force bool) DeviceBuilderOption {
	return func(w *wgpuDeviceImpl) {
		w.forceFallbackAdapter = force
	}
}
