// Package gputest provides in-memory fakes of the gpu package interfaces. The handles they return are distinct
// zero-valued wgpu objects: they identify resources in assertions but must never be passed to real WebGPU calls,
// including Release.
package gputest

import (
	"errors"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

// ErrInjected is returned by FakeDevice creation calls when Fail or FailAfter applies.
var ErrInjected = errors.New("injected device failure")

// FakeDevice is a gpu.Device that records every descriptor and keeps buffer contents in memory.
type FakeDevice struct {
	mu sync.Mutex

	// Fail makes every creation call return ErrInjected.
	Fail bool
	// FailAfter, when positive, lets that many creation calls succeed and fails every later one.
	FailAfter int
	// DeviceLimits is returned by Limits. Zero values fall back to wgpu.DefaultLimits.
	DeviceLimits *wgpu.Limits

	Buffers          []*wgpu.BufferDescriptor
	Textures         []*wgpu.TextureDescriptor
	Views            []*wgpu.TextureViewDescriptor
	Samplers         []*wgpu.SamplerDescriptor
	BindGroupLayouts []*wgpu.BindGroupLayoutDescriptor
	BindGroups       []*wgpu.BindGroupDescriptor
	PipelineLayouts  []*wgpu.PipelineLayoutDescriptor
	ShaderModules    []*wgpu.ShaderModuleDescriptor
	RenderPipelines  []*wgpu.RenderPipelineDescriptor
	ComputePipelines []*wgpu.ComputePipelineDescriptor
	TextureWrites    int
	BufferWrites     int
	// Released holds the handles passed to Release, in order.
	Released []gpu.Releaser

	created  int

	contents map[*wgpu.Buffer][]byte
	usages   map[*wgpu.Buffer]wgpu.BufferUsage
}

var _ gpu.Device = &FakeDevice{}

// NewFakeDevice creates an empty FakeDevice.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{
		contents: make(map[*wgpu.Buffer][]byte),
		usages:   make(map[*wgpu.Buffer]wgpu.BufferUsage),
	}
}

// Contents returns a copy of the bytes held by buffer, or nil for an unknown buffer.
func (d *FakeDevice) Contents(buffer *wgpu.Buffer) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.contents[buffer]
	if !ok {
		return nil
	}
	return append([]byte(nil), data...)
}

// Usage returns the usage flags buffer was created with.
func (d *FakeDevice) Usage(buffer *wgpu.Buffer) wgpu.BufferUsage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.usages[buffer]
}

// CopyBuffer copies size bytes between two fake buffers, emulating a GPU side copy.
func (d *FakeDevice) CopyBuffer(src *wgpu.Buffer, srcOffset uint64, dst *wgpu.Buffer, dstOffset uint64, size uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.contents[dst][dstOffset:dstOffset+size], d.contents[src][srcOffset:srcOffset+size])
}

// SetContents overwrites the bytes held by buffer, emulating a GPU side write such as a shader store.
func (d *FakeDevice) SetContents(buffer *wgpu.Buffer, offset uint64, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.contents[buffer][offset:], data)
}

// fail reports whether the next creation call fails. Callers hold mu.
func (d *FakeDevice) fail() bool {
	if d.Fail || (d.FailAfter > 0 && d.created >= d.FailAfter) {
		return true
	}
	d.created++
	return false
}

func (d *FakeDevice) CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail() {
		return nil, ErrInjected
	}
	d.Buffers = append(d.Buffers, desc)
	buffer := new(wgpu.Buffer)
	d.contents[buffer] = make([]byte, desc.Size)
	d.usages[buffer] = desc.Usage
	return buffer, nil
}

func (d *FakeDevice) CreateBufferInit(desc *wgpu.BufferInitDescriptor) (*wgpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail() {
		return nil, ErrInjected
	}
	d.Buffers = append(d.Buffers, &wgpu.BufferDescriptor{Label: desc.Label, Usage: desc.Usage, Size: uint64(len(desc.Contents))})
	buffer := new(wgpu.Buffer)
	d.contents[buffer] = append([]byte(nil), desc.Contents...)
	d.usages[buffer] = desc.Usage
	return buffer, nil
}

func (d *FakeDevice) CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail() {
		return nil, ErrInjected
	}
	d.Textures = append(d.Textures, desc)
	return new(wgpu.Texture), nil
}

func (d *FakeDevice) CreateTextureView(_ *wgpu.Texture, desc *wgpu.TextureViewDescriptor) (*wgpu.TextureView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail() {
		return nil, ErrInjected
	}
	d.Views = append(d.Views, desc)
	return new(wgpu.TextureView), nil
}

func (d *FakeDevice) CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail() {
		return nil, ErrInjected
	}
	d.Samplers = append(d.Samplers, desc)
	return new(wgpu.Sampler), nil
}

func (d *FakeDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail() {
		return nil, ErrInjected
	}
	d.BindGroupLayouts = append(d.BindGroupLayouts, desc)
	return new(wgpu.BindGroupLayout), nil
}

func (d *FakeDevice) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail() {
		return nil, ErrInjected
	}
	d.BindGroups = append(d.BindGroups, desc)
	return new(wgpu.BindGroup), nil
}

func (d *FakeDevice) CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail() {
		return nil, ErrInjected
	}
	d.PipelineLayouts = append(d.PipelineLayouts, desc)
	return new(wgpu.PipelineLayout), nil
}

func (d *FakeDevice) CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail() {
		return nil, ErrInjected
	}
	d.ShaderModules = append(d.ShaderModules, desc)
	return new(wgpu.ShaderModule), nil
}

func (d *FakeDevice) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail() {
		return nil, ErrInjected
	}
	d.RenderPipelines = append(d.RenderPipelines, desc)
	return new(wgpu.RenderPipeline), nil
}

func (d *FakeDevice) CreateComputePipeline(desc *wgpu.ComputePipelineDescriptor) (*wgpu.ComputePipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail() {
		return nil, ErrInjected
	}
	d.ComputePipelines = append(d.ComputePipelines, desc)
	return new(wgpu.ComputePipeline), nil
}

func (d *FakeDevice) WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	contents, ok := d.contents[buffer]
	if !ok {
		return errors.New("write to unknown buffer")
	}
	if offset+uint64(len(data)) > uint64(len(contents)) {
		return errors.New("write out of bounds")
	}
	copy(contents[offset:], data)
	d.BufferWrites++
	return nil
}

func (d *FakeDevice) WriteTexture(_ *wgpu.Texture, _ []byte, _ *wgpu.TextureDataLayout, _ *wgpu.Extent3D) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.TextureWrites++
	return nil
}

func (d *FakeDevice) Limits() wgpu.Limits {
	if d.DeviceLimits != nil {
		return *d.DeviceLimits
	}
	return wgpu.DefaultLimits()
}

// Release records handle without freeing it.
func (d *FakeDevice) Release(handle gpu.Releaser) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Released = append(d.Released, handle)
}
