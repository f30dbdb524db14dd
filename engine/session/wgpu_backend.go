package session

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

type wgpuBackend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface
	wrapped  gpu.Device

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode

	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ Backend = &wgpuBackend{}

type backendBuilder struct {
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
	presentMode          wgpu.PresentMode
	limits               *wgpu.Limits
}

// BackendOption is a functional option used to configure the WebGPU backend.
type BackendOption func(*backendBuilder)

// WithSurfaceDescriptor presents to the window the descriptor was made from. Without it the backend is headless.
func WithSurfaceDescriptor(desc *wgpu.SurfaceDescriptor) BackendOption {
	return func(b *backendBuilder) {
		b.surfaceDescriptor = desc
	}
}

// WithForceFallbackAdapter requests the software adapter.
func WithForceFallbackAdapter(force bool) BackendOption {
	return func(b *backendBuilder) {
		b.forceFallbackAdapter = force
	}
}

// WithPresentMode sets the surface present mode. Defaults to Fifo.
func WithPresentMode(mode wgpu.PresentMode) BackendOption {
	return func(b *backendBuilder) {
		b.presentMode = mode
	}
}

// WithLimits replaces the default device limits.
func WithLimits(limits wgpu.Limits) BackendOption {
	return func(b *backendBuilder) {
		b.limits = &limits
	}
}

// NewWGPUBackend creates a WebGPU instance, adapter, device and queue, plus a surface when a descriptor is given.
// The calling goroutine is locked to its OS thread.
//
// Parameters:
//   - options: backend options
//
// Returns:
//   - Backend: the backend
//   - error: error if no adapter or device could be acquired
func NewWGPUBackend(options ...BackendOption) (Backend, error) {
	b := &backendBuilder{presentMode: wgpu.PresentModeFifo}
	for _, opt := range options {
		opt(b)
	}

	runtime.LockOSThread()
	w := &wgpuBackend{
		instance:    wgpu.CreateInstance(nil),
		presentMode: b.presentMode,
	}
	if b.surfaceDescriptor != nil {
		w.surface = w.instance.CreateSurface(b.surfaceDescriptor)
	}

	adapter, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	w.adapter = adapter

	limits := wgpu.DefaultLimits()
	if b.limits != nil {
		limits = *b.limits
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	w.device = device
	w.queue = device.GetQueue()
	w.wrapped = gpu.NewDevice(device, w.queue, limits)

	if w.surface != nil {
		capabilities := w.surface.GetCapabilities(adapter)
		w.surfaceFormat = capabilities.Formats[0]
		w.alphaMode = capabilities.AlphaModes[0]
	}

	log.WithFields(log.Fields{
		"surface":        w.surface != nil,
		"surface_format": w.surfaceFormat,
		"present_mode":   w.presentMode,
		"fallback":       b.forceFallbackAdapter,
	}).Debug("build wgpu backend")

	return w, nil
}

func (w *wgpuBackend) Device() gpu.Device {
	return w.wrapped
}

func (w *wgpuBackend) NewEncoder(label string) (gpu.Encoder, error) {
	return gpu.NewEncoder(w.device, w.queue, label)
}

func (w *wgpuBackend) MapRead(buf *wgpu.Buffer, size uint64, callback func(wgpu.BufferMapAsyncStatus)) error {
	return buf.MapAsync(wgpu.MapModeRead, 0, size, callback)
}

func (w *wgpuBackend) Poll() {
	w.device.Poll(true, nil)
}

func (w *wgpuBackend) MappedRange(buf *wgpu.Buffer, size uint64) []byte {
	return append([]byte(nil), buf.GetMappedRange(0, uint(size))...)
}

func (w *wgpuBackend) Unmap(buf *wgpu.Buffer) {
	buf.Unmap()
}

func (w *wgpuBackend) HasSurface() bool {
	return w.surface != nil
}

func (w *wgpuBackend) SurfaceFormat() wgpu.TextureFormat {
	return w.surfaceFormat
}

func (w *wgpuBackend) ConfigureSurface(size common.Size) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.surface == nil {
		return errs.ErrSurfaceNotConfigured
	}
	w.surface.Configure(w.adapter, w.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      w.surfaceFormat,
		Width:       size.Width,
		Height:      size.Height,
		PresentMode: w.presentMode,
		AlphaMode:   w.alphaMode,
	})
	return nil
}

func (w *wgpuBackend) AcquireSurface() (*wgpu.TextureView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.surface == nil {
		return nil, errs.ErrSurfaceNotConfigured
	}
	if w.frameTexture != nil {
		return w.frameView, nil
	}

	surfaceTexture, err := w.surface.GetCurrentTexture()
	if err != nil {
		return nil, classifyAcquireError(err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, fmt.Errorf("failed to create surface view: %w", err)
	}

	w.frameTexture = surfaceTexture
	w.frameView = view
	return view, nil
}

func (w *wgpuBackend) PresentSurface() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.frameTexture == nil {
		return
	}
	w.surface.Present()

	w.frameView.Release()
	w.frameTexture.Release()
	w.frameView = nil
	w.frameTexture = nil
}

func (w *wgpuBackend) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.frameView != nil {
		w.frameView.Release()
		w.frameView = nil
	}
	if w.frameTexture != nil {
		w.frameTexture.Release()
		w.frameTexture = nil
	}
	if w.queue != nil {
		w.queue.Release()
		w.queue = nil
	}
	if w.device != nil {
		w.device.Release()
		w.device = nil
	}
	if w.adapter != nil {
		w.adapter.Release()
		w.adapter = nil
	}
	if w.surface != nil {
		w.surface.Release()
		w.surface = nil
	}
	if w.instance != nil {
		w.instance.Release()
		w.instance = nil
	}
}
