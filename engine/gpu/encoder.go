package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Encoder records the commands of one frame and submits them as a single command buffer.
type Encoder interface {
	// BeginRenderPass starts a render pass.
	//
	// Parameters:
	//   - desc: color and depth attachments of the pass
	//
	// Returns:
	//   - RenderRecorder: recorder for the pass, closed with End
	BeginRenderPass(desc *wgpu.RenderPassDescriptor) RenderRecorder

	// BeginComputePass starts a compute pass.
	//
	// Returns:
	//   - ComputeRecorder: recorder for the pass, closed with End
	BeginComputePass() ComputeRecorder

	// CopyTextureToBuffer records a texture to buffer copy.
	//
	// Parameters:
	//   - src: source texture region origin
	//   - dst: destination buffer and its row layout
	//   - size: extent to copy
	CopyTextureToBuffer(src *wgpu.ImageCopyTexture, dst *wgpu.ImageCopyBuffer, size *wgpu.Extent3D)

	// CopyBufferToBuffer records a buffer to buffer copy.
	CopyBufferToBuffer(src *wgpu.Buffer, srcOffset uint64, dst *wgpu.Buffer, dstOffset uint64, size uint64)

	// Submit finishes the encoder and submits the command buffer to the queue. The encoder cannot be reused.
	//
	// Returns:
	//   - error: error if finishing the command buffer failed
	Submit() error

	// Release drops the encoder without submitting it. It is a no-op after Submit or a previous Release.
	Release()
}

// RenderRecorder records the commands of one render pass.
type RenderRecorder interface {
	SetPipeline(pipeline *wgpu.RenderPipeline)
	SetBindGroup(index uint32, group *wgpu.BindGroup)
	SetVertexBuffer(slot uint32, buffer *wgpu.Buffer)
	SetIndexBuffer(buffer *wgpu.Buffer, format wgpu.IndexFormat)
	SetViewport(x, y, width, height, minDepth, maxDepth float32)
	SetScissorRect(x, y, width, height uint32)
	SetBlendConstant(color wgpu.Color)
	SetStencilReference(reference uint32)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End() error
}

// ComputeRecorder records the commands of one compute pass.
type ComputeRecorder interface {
	SetPipeline(pipeline *wgpu.ComputePipeline)
	SetBindGroup(index uint32, group *wgpu.BindGroup)
	DispatchWorkgroups(x, y, z uint32)
	End() error
}

type wgpuEncoder struct {
	encoder  *wgpu.CommandEncoder
	queue    *wgpu.Queue
	label    string
	released bool
}

var _ Encoder = &wgpuEncoder{}

// NewEncoder creates a command encoder on device whose command buffer is submitted to queue.
//
// Parameters:
//   - device: the WebGPU device
//   - queue: the queue the finished command buffer is submitted to
//   - label: debug label of the encoder
//
// Returns:
//   - Encoder: the encoder
//   - error: error if the device could not create an encoder
func NewEncoder(device *wgpu.Device, queue *wgpu.Queue, label string) (Encoder, error) {
	encoder, err := device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder %q: %w", label, err)
	}
	return &wgpuEncoder{encoder: encoder, queue: queue, label: label}, nil
}

func (e *wgpuEncoder) BeginRenderPass(desc *wgpu.RenderPassDescriptor) RenderRecorder {
	return &wgpuRenderRecorder{pass: e.encoder.BeginRenderPass(desc)}
}

func (e *wgpuEncoder) BeginComputePass() ComputeRecorder {
	return &wgpuComputeRecorder{pass: e.encoder.BeginComputePass(nil)}
}

func (e *wgpuEncoder) CopyTextureToBuffer(src *wgpu.ImageCopyTexture, dst *wgpu.ImageCopyBuffer, size *wgpu.Extent3D) {
	e.encoder.CopyTextureToBuffer(src, dst, size)
}

func (e *wgpuEncoder) CopyBufferToBuffer(src *wgpu.Buffer, srcOffset uint64, dst *wgpu.Buffer, dstOffset uint64, size uint64) {
	e.encoder.CopyBufferToBuffer(src, srcOffset, dst, dstOffset, size)
}

func (e *wgpuEncoder) Submit() error {
	defer e.Release()

	commandBuffer, err := e.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish command encoder %q: %w", e.label, err)
	}
	defer commandBuffer.Release()

	e.queue.Submit(commandBuffer)
	return nil
}

func (e *wgpuEncoder) Release() {
	if e.released {
		return
	}
	e.released = true
	e.encoder.Release()
}

type wgpuRenderRecorder struct {
	pass *wgpu.RenderPassEncoder
}

func (r *wgpuRenderRecorder) SetPipeline(pipeline *wgpu.RenderPipeline) {
	r.pass.SetPipeline(pipeline)
}

func (r *wgpuRenderRecorder) SetBindGroup(index uint32, group *wgpu.BindGroup) {
	r.pass.SetBindGroup(index, group, nil)
}

func (r *wgpuRenderRecorder) SetVertexBuffer(slot uint32, buffer *wgpu.Buffer) {
	r.pass.SetVertexBuffer(slot, buffer, 0, wgpu.WholeSize)
}

func (r *wgpuRenderRecorder) SetIndexBuffer(buffer *wgpu.Buffer, format wgpu.IndexFormat) {
	r.pass.SetIndexBuffer(buffer, format, 0, wgpu.WholeSize)
}

func (r *wgpuRenderRecorder) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	r.pass.SetViewport(x, y, width, height, minDepth, maxDepth)
}

func (r *wgpuRenderRecorder) SetScissorRect(x, y, width, height uint32) {
	r.pass.SetScissorRect(x, y, width, height)
}

func (r *wgpuRenderRecorder) SetBlendConstant(color wgpu.Color) {
	r.pass.SetBlendConstant(&color)
}

func (r *wgpuRenderRecorder) SetStencilReference(reference uint32) {
	r.pass.SetStencilReference(reference)
}

func (r *wgpuRenderRecorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (r *wgpuRenderRecorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	r.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (r *wgpuRenderRecorder) End() error {
	return r.pass.End()
}

type wgpuComputeRecorder struct {
	pass *wgpu.ComputePassEncoder
}

func (r *wgpuComputeRecorder) SetPipeline(pipeline *wgpu.ComputePipeline) {
	r.pass.SetPipeline(pipeline)
}

func (r *wgpuComputeRecorder) SetBindGroup(index uint32, group *wgpu.BindGroup) {
	r.pass.SetBindGroup(index, group, nil)
}

func (r *wgpuComputeRecorder) DispatchWorkgroups(x, y, z uint32) {
	r.pass.DispatchWorkgroups(x, y, z)
}

func (r *wgpuComputeRecorder) End() error {
	return r.pass.End()
}
