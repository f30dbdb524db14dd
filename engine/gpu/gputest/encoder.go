package gputest

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

// Call is one command recorded by a FakeEncoder.
type Call struct {
	Name string
	Args []any
}

// FakeEncoder is a gpu.Encoder that records every command in order.
type FakeEncoder struct {
	Calls     []Call
	Submitted bool
	Released  bool

	// EndErr is returned by the End of every pass recorded on the encoder.
	EndErr error

	// Device, when set, receives buffer to buffer copies so readbacks see the copied bytes.
	Device *FakeDevice
}

var _ gpu.Encoder = &FakeEncoder{}

func (e *FakeEncoder) record(name string, args ...any) {
	e.Calls = append(e.Calls, Call{Name: name, Args: args})
}

// Named returns the recorded calls with the given name.
func (e *FakeEncoder) Named(name string) []Call {
	var out []Call
	for _, c := range e.Calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the names of all recorded calls in order.
func (e *FakeEncoder) Names() []string {
	out := make([]string, len(e.Calls))
	for i, c := range e.Calls {
		out[i] = c.Name
	}
	return out
}

func (e *FakeEncoder) BeginRenderPass(desc *wgpu.RenderPassDescriptor) gpu.RenderRecorder {
	e.record("BeginRenderPass", desc)
	return &fakeRenderRecorder{enc: e}
}

func (e *FakeEncoder) BeginComputePass() gpu.ComputeRecorder {
	e.record("BeginComputePass")
	return &fakeComputeRecorder{enc: e}
}

func (e *FakeEncoder) CopyTextureToBuffer(src *wgpu.ImageCopyTexture, dst *wgpu.ImageCopyBuffer, size *wgpu.Extent3D) {
	e.record("CopyTextureToBuffer", src, dst, size)
}

func (e *FakeEncoder) CopyBufferToBuffer(src *wgpu.Buffer, srcOffset uint64, dst *wgpu.Buffer, dstOffset uint64, size uint64) {
	e.record("CopyBufferToBuffer", src, srcOffset, dst, dstOffset, size)
	if e.Device != nil {
		e.Device.CopyBuffer(src, srcOffset, dst, dstOffset, size)
	}
}

func (e *FakeEncoder) Submit() error {
	e.record("Submit")
	e.Submitted = true
	return nil
}

// Release marks the encoder released. It is not recorded as a call.
func (e *FakeEncoder) Release() {
	e.Released = true
}

type fakeRenderRecorder struct {
	enc *FakeEncoder
}

func (r *fakeRenderRecorder) SetPipeline(pipeline *wgpu.RenderPipeline) {
	r.enc.record("SetPipeline", pipeline)
}

func (r *fakeRenderRecorder) SetBindGroup(index uint32, group *wgpu.BindGroup) {
	r.enc.record("SetBindGroup", index, group)
}

func (r *fakeRenderRecorder) SetVertexBuffer(slot uint32, buffer *wgpu.Buffer) {
	r.enc.record("SetVertexBuffer", slot, buffer)
}

func (r *fakeRenderRecorder) SetIndexBuffer(buffer *wgpu.Buffer, format wgpu.IndexFormat) {
	r.enc.record("SetIndexBuffer", buffer, format)
}

func (r *fakeRenderRecorder) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	r.enc.record("SetViewport", x, y, width, height, minDepth, maxDepth)
}

func (r *fakeRenderRecorder) SetScissorRect(x, y, width, height uint32) {
	r.enc.record("SetScissorRect", x, y, width, height)
}

func (r *fakeRenderRecorder) SetBlendConstant(color wgpu.Color) {
	r.enc.record("SetBlendConstant", color)
}

func (r *fakeRenderRecorder) SetStencilReference(reference uint32) {
	r.enc.record("SetStencilReference", reference)
}

func (r *fakeRenderRecorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.enc.record("Draw", vertexCount, instanceCount, firstVertex, firstInstance)
}

func (r *fakeRenderRecorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	r.enc.record("DrawIndexed", indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (r *fakeRenderRecorder) End() error {
	r.enc.record("EndRenderPass")
	return r.enc.EndErr
}

type fakeComputeRecorder struct {
	enc *FakeEncoder
}

func (r *fakeComputeRecorder) SetPipeline(pipeline *wgpu.ComputePipeline) {
	r.enc.record("SetComputePipeline", pipeline)
}

func (r *fakeComputeRecorder) SetBindGroup(index uint32, group *wgpu.BindGroup) {
	r.enc.record("SetBindGroup", index, group)
}

func (r *fakeComputeRecorder) DispatchWorkgroups(x, y, z uint32) {
	r.enc.record("DispatchWorkgroups", x, y, z)
}

func (r *fakeComputeRecorder) End() error {
	r.enc.record("EndComputePass")
	return r.enc.EndErr
}
