// Package sessiontest provides an in-memory session backend built on the gputest fakes.
package sessiontest

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/gputest"
)

// FakeBackend satisfies session.Backend. Buffer maps complete immediately with MapStatus and read the bytes kept
// by GPU; encoders are FakeEncoders that copy buffers on GPU.
type FakeBackend struct {
	mu sync.Mutex

	GPU      *gputest.FakeDevice
	Encoders []*gputest.FakeEncoder
	// EndErr is handed to every new encoder, failing the End of its passes.
	EndErr error

	// Surface makes the backend present to a fake window surface.
	Surface    bool
	AcquireErr error
	Configured []common.Size
	Presented  int

	MapStatus wgpu.BufferMapAsyncStatus
	MapErr    error
	Unmapped  int

	Released bool
}

// NewFakeBackend creates a headless FakeBackend whose maps succeed.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{GPU: gputest.NewFakeDevice(), MapStatus: wgpu.BufferMapAsyncStatusSuccess}
}

func (b *FakeBackend) Device() gpu.Device { return b.GPU }

func (b *FakeBackend) NewEncoder(string) (gpu.Encoder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	enc := &gputest.FakeEncoder{Device: b.GPU, EndErr: b.EndErr}
	b.Encoders = append(b.Encoders, enc)
	return enc, nil
}

func (b *FakeBackend) MapRead(_ *wgpu.Buffer, _ uint64, callback func(wgpu.BufferMapAsyncStatus)) error {
	if b.MapErr != nil {
		return b.MapErr
	}
	callback(b.MapStatus)
	return nil
}

func (b *FakeBackend) Poll() {}

func (b *FakeBackend) MappedRange(buf *wgpu.Buffer, size uint64) []byte {
	return b.GPU.Contents(buf)[:size]
}

func (b *FakeBackend) Unmap(*wgpu.Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Unmapped++
}

func (b *FakeBackend) HasSurface() bool { return b.Surface }

func (b *FakeBackend) SurfaceFormat() wgpu.TextureFormat { return wgpu.TextureFormatBGRA8Unorm }

func (b *FakeBackend) ConfigureSurface(size common.Size) error {
	if !b.Surface {
		return errs.ErrSurfaceNotConfigured
	}
	b.Configured = append(b.Configured, size)
	return nil
}

func (b *FakeBackend) AcquireSurface() (*wgpu.TextureView, error) {
	if b.AcquireErr != nil {
		return nil, b.AcquireErr
	}
	return new(wgpu.TextureView), nil
}

func (b *FakeBackend) PresentSurface() { b.Presented++ }

func (b *FakeBackend) Release() { b.Released = true }
