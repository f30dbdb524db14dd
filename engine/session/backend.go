package session

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

// Backend is the device, queue and optional surface a Session drives.
type Backend interface {
	// Device returns the resource creation surface handed to builders.
	//
	// Returns:
	//   - gpu.Device: the device
	Device() gpu.Device

	// NewEncoder creates a command encoder submitting to the device queue.
	//
	// Parameters:
	//   - label: the debug label of the encoder
	//
	// Returns:
	//   - gpu.Encoder: the encoder
	//   - error: error if the encoder could not be created
	NewEncoder(label string) (gpu.Encoder, error)

	// MapRead starts an asynchronous read map of the first size bytes of buf. callback receives the map status
	// during a later Poll.
	//
	// Parameters:
	//   - buf: a buffer with MAP_READ usage
	//   - size: the number of bytes to map
	//   - callback: receives the map status
	//
	// Returns:
	//   - error: error if the map request was rejected
	MapRead(buf *wgpu.Buffer, size uint64, callback func(wgpu.BufferMapAsyncStatus)) error

	// Poll blocks until the queued device work, including pending maps, has completed.
	Poll()

	// MappedRange copies the first size bytes of a mapped buffer.
	MappedRange(buf *wgpu.Buffer, size uint64) []byte

	// Unmap unmaps a mapped buffer.
	Unmap(buf *wgpu.Buffer)

	// HasSurface reports whether the backend presents to a window surface.
	HasSurface() bool

	// SurfaceFormat returns the texel format of the surface frames.
	SurfaceFormat() wgpu.TextureFormat

	// ConfigureSurface reconfigures the surface for size.
	//
	// Parameters:
	//   - size: the new surface size in pixels
	//
	// Returns:
	//   - error: ErrSurfaceNotConfigured when there is no surface
	ConfigureSurface(size common.Size) error

	// AcquireSurface acquires the next surface frame and creates its view.
	//
	// Returns:
	//   - *wgpu.TextureView: the frame view
	//   - error: ErrSurfaceLost, ErrSurfaceTimeout or ErrOutOfMemory when acquisition fails
	AcquireSurface() (*wgpu.TextureView, error)

	// PresentSurface presents the acquired frame and releases it.
	PresentSurface()

	// Release releases the device, the surface and the instance.
	Release()
}

// classifyAcquireError maps a surface acquisition failure to the transient or fatal sentinel it stands for.
func classifyAcquireError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "outofmemory"), strings.Contains(msg, "out of memory"):
		return fmt.Errorf("%w: %v", errs.ErrOutOfMemory, err)
	case strings.Contains(msg, "timeout"):
		return fmt.Errorf("%w: %v", errs.ErrSurfaceTimeout, err)
	case strings.Contains(msg, "lost"), strings.Contains(msg, "outdated"):
		return fmt.Errorf("%w: %v", errs.ErrSurfaceLost, err)
	default:
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}
}
