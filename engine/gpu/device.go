// Package gpu narrows the WebGPU device, queue and command encoder down to the calls the resource builders,
// the stage graph and the device session make, so those layers can run against a recording fake in tests.
package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Device is the resource creation and upload surface of a WebGPU device and its queue.
type Device interface {
	// CreateBuffer creates an uninitialized GPU buffer.
	//
	// Parameters:
	//   - desc: buffer descriptor with label, size and usage
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: error if the device rejects the descriptor
	CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error)

	// CreateBufferInit creates a GPU buffer initialized with the descriptor's contents.
	//
	// Parameters:
	//   - desc: descriptor holding label, contents and usage
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: error if the device rejects the descriptor
	CreateBufferInit(desc *wgpu.BufferInitDescriptor) (*wgpu.Buffer, error)

	// CreateTexture creates a GPU texture.
	//
	// Parameters:
	//   - desc: texture descriptor
	//
	// Returns:
	//   - *wgpu.Texture: the created texture
	//   - error: error if the device rejects the descriptor
	CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, error)

	// CreateTextureView creates a view into texture. A nil descriptor creates the default full view.
	//
	// Parameters:
	//   - texture: the texture to view
	//   - desc: optional view descriptor
	//
	// Returns:
	//   - *wgpu.TextureView: the created view
	//   - error: error if the view could not be created
	CreateTextureView(texture *wgpu.Texture, desc *wgpu.TextureViewDescriptor) (*wgpu.TextureView, error)

	// CreateSampler creates a texture sampler.
	CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error)

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error)

	// CreateBindGroup creates a bind group against a layout.
	CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error)

	// CreatePipelineLayout creates a pipeline layout from bind group layouts.
	CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error)

	// CreateShaderModule compiles a shader module.
	CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error)

	// CreateRenderPipeline creates a render pipeline.
	CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error)

	// CreateComputePipeline creates a compute pipeline.
	CreateComputePipeline(desc *wgpu.ComputePipelineDescriptor) (*wgpu.ComputePipeline, error)

	// WriteBuffer schedules a host to device write into buffer at offset.
	//
	// Parameters:
	//   - buffer: destination buffer, must carry COPY_DST usage
	//   - offset: byte offset into the buffer
	//   - data: bytes to write
	//
	// Returns:
	//   - error: error if the write was rejected
	WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error

	// WriteTexture schedules a host to device write of pixel data into mip level 0 of texture.
	//
	// Parameters:
	//   - texture: destination texture, must carry COPY_DST usage
	//   - data: pixel bytes
	//   - layout: layout of data in host memory
	//   - size: extent of the region to write
	//
	// Returns:
	//   - error: error if the write was rejected
	WriteTexture(texture *wgpu.Texture, data []byte, layout *wgpu.TextureDataLayout, size *wgpu.Extent3D) error

	// Limits returns the limits the device was created with.
	Limits() wgpu.Limits

	// Release frees a handle created by this device. Builders use it to drop the handles of a resource whose
	// construction failed part way.
	//
	// Parameters:
	//   - handle: the handle to free
	Release(handle Releaser)
}

// Releaser is a WebGPU handle that can be freed.
type Releaser interface {
	Release()
}

type wgpuDevice struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	limits wgpu.Limits
}

var _ Device = &wgpuDevice{}

// NewDevice wraps a WebGPU device and its queue.
//
// Parameters:
//   - device: the WebGPU device
//   - queue: the device's queue
//   - limits: the limits requested when the device was created
//
// Returns:
//   - Device: the wrapped device
func NewDevice(device *wgpu.Device, queue *wgpu.Queue, limits wgpu.Limits) Device {
	return &wgpuDevice{device: device, queue: queue, limits: limits}
}

func (d *wgpuDevice) CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	return d.device.CreateBuffer(desc)
}

func (d *wgpuDevice) CreateBufferInit(desc *wgpu.BufferInitDescriptor) (*wgpu.Buffer, error) {
	return d.device.CreateBufferInit(desc)
}

func (d *wgpuDevice) CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
	return d.device.CreateTexture(desc)
}

func (d *wgpuDevice) CreateTextureView(texture *wgpu.Texture, desc *wgpu.TextureViewDescriptor) (*wgpu.TextureView, error) {
	return texture.CreateView(desc)
}

func (d *wgpuDevice) CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error) {
	return d.device.CreateSampler(desc)
}

func (d *wgpuDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	return d.device.CreateBindGroupLayout(desc)
}

func (d *wgpuDevice) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	return d.device.CreateBindGroup(desc)
}

func (d *wgpuDevice) CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	return d.device.CreatePipelineLayout(desc)
}

func (d *wgpuDevice) CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error) {
	return d.device.CreateShaderModule(desc)
}

func (d *wgpuDevice) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	return d.device.CreateRenderPipeline(desc)
}

func (d *wgpuDevice) CreateComputePipeline(desc *wgpu.ComputePipelineDescriptor) (*wgpu.ComputePipeline, error) {
	return d.device.CreateComputePipeline(desc)
}

func (d *wgpuDevice) WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error {
	return d.queue.WriteBuffer(buffer, offset, data)
}

func (d *wgpuDevice) WriteTexture(texture *wgpu.Texture, data []byte, layout *wgpu.TextureDataLayout, size *wgpu.Extent3D) error {
	return d.queue.WriteTexture(texture.AsImageCopy(), data, layout, size)
}

func (d *wgpuDevice) Limits() wgpu.Limits {
	return d.limits
}

func (d *wgpuDevice) Release(handle Releaser) {
	handle.Release()
}
