package pipeline

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipelineBuilder collects the parameters of a pipeline before it is created on the device.
type pipelineBuilder struct {
	id           common.ResourceID
	label        string
	kind         Kind
	layout       Layout
	shader       shader.Shader
	primitive    *wgpu.PrimitiveState
	multisample  *wgpu.MultisampleState
	depthStencil *wgpu.DepthStencilState
}

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipelineBuilder)

// WithID sets the arena id of the pipeline.
//
// Parameters:
//   - id: the id
//
// Returns:
//   - PipelineBuilderOption: a function that sets the id
func WithID(id common.ResourceID) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.id = id
	}
}

// WithLabel sets the debug label of the pipeline.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - PipelineBuilderOption: a function that sets the label
func WithLabel(label string) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.label = label
	}
}

// WithCompute makes the pipeline a compute pipeline. Pipelines are render pipelines by default.
//
// Returns:
//   - PipelineBuilderOption: a function that sets the pipeline kind
func WithCompute() PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.kind = KindCompute
	}
}

// WithLayout sets the pipeline layout.
//
// Parameters:
//   - layout: the pipeline layout
//
// Returns:
//   - PipelineBuilderOption: a function that sets the layout
func WithLayout(layout Layout) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.layout = layout
	}
}

// WithShader sets the shader whose entry points the pipeline runs.
//
// Parameters:
//   - s: the shader, a render shader for render pipelines and a compute shader for compute pipelines
//
// Returns:
//   - PipelineBuilderOption: a function that sets the shader
func WithShader(s shader.Shader) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.shader = s
	}
}

// WithPrimitive sets the primitive state of a render pipeline.
//
// Parameters:
//   - primitive: the primitive state, see DefaultPrimitive
//
// Returns:
//   - PipelineBuilderOption: a function that sets the primitive state
func WithPrimitive(primitive wgpu.PrimitiveState) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.primitive = &primitive
	}
}

// WithTopology sets the primitive topology, starting from DefaultPrimitive when no primitive state is set.
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.ensurePrimitive().Topology = topology
	}
}

// WithCullMode sets the cull mode, starting from DefaultPrimitive when no primitive state is set.
func WithCullMode(cullMode wgpu.CullMode) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.ensurePrimitive().CullMode = cullMode
	}
}

// WithFrontFace sets the front face winding, starting from DefaultPrimitive when no primitive state is set.
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.ensurePrimitive().FrontFace = frontFace
	}
}

// WithMultisample sets the multisample state of a render pipeline.
//
// Parameters:
//   - multisample: the multisample state, see DefaultMultisample
//
// Returns:
//   - PipelineBuilderOption: a function that sets the multisample state
func WithMultisample(multisample wgpu.MultisampleState) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.multisample = &multisample
	}
}

// WithDepthStencil sets the optional depth stencil state of a render pipeline.
//
// Parameters:
//   - depthStencil: the depth stencil state, see DepthStencil
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth stencil state
func WithDepthStencil(depthStencil *wgpu.DepthStencilState) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.depthStencil = depthStencil
	}
}

func (b *pipelineBuilder) ensurePrimitive() *wgpu.PrimitiveState {
	if b.primitive == nil {
		primitive := DefaultPrimitive()
		b.primitive = &primitive
	}
	return b.primitive
}
