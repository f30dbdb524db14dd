package pipeline

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Kind identifies whether a pipeline is a render pipeline or a compute pipeline.
type Kind int

const (
	// KindRender indicates a render pipeline with vertex and fragment shader entry points.
	KindRender Kind = iota

	// KindCompute indicates a compute pipeline with a single compute shader entry point.
	KindCompute
)

func (k Kind) String() string {
	switch k {
	case KindRender:
		return "render"
	case KindCompute:
		return "compute"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// pipeline is the implementation of the Pipeline interface.
// It holds the underlying WebGPU pipeline object for either a render or a compute pipeline.
type pipeline struct {
	// id is the arena id of this pipeline.
	id common.ResourceID
	// label is a debug label, synthesized from the id when not set.
	label string
	// kind indicates the type of pipeline this is; compute or render.
	kind Kind

	// renderPipeline is the render pipeline if this is a render pipeline, nil otherwise.
	renderPipeline *wgpu.RenderPipeline
	// computePipeline is the compute pipeline if this is a compute pipeline, nil otherwise.
	computePipeline *wgpu.ComputePipeline
}

// Pipeline is a GPU pipeline, either a render pipeline (vertex + fragment stages with fixed-function state)
// or a compute pipeline (one compute stage). Built once and reused across frames.
type Pipeline interface {
	// ID returns the arena id of this pipeline.
	//
	// Returns:
	//   - common.ResourceID: the id
	ID() common.ResourceID

	// SetID re-keys the pipeline.
	//
	// Parameters:
	//   - id: the new id
	SetID(id common.ResourceID)

	// Label returns the debug label of this pipeline.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Kind returns the kind of the pipeline.
	//
	// Returns:
	//   - Kind: the kind of the pipeline (render or compute)
	Kind() Kind

	// RenderPipeline returns the underlying render pipeline, nil for compute pipelines.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the render pipeline or nil
	RenderPipeline() *wgpu.RenderPipeline

	// ComputePipeline returns the underlying compute pipeline, nil for render pipelines.
	//
	// Returns:
	//   - *wgpu.ComputePipeline: the compute pipeline or nil
	ComputePipeline() *wgpu.ComputePipeline

	// Release releases the GPU pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render or compute pipeline. The layout and shader are required; render pipelines also
// require primitive and multisample state. The shader kind must match the pipeline kind.
//
// Parameters:
//   - device: the device used to create the pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: the created pipeline
//   - error: a MissingFieldError, a WrongVariantError, or the device error
func NewPipeline(device gpu.Device, opts ...PipelineBuilderOption) (Pipeline, error) {
	b := &pipelineBuilder{kind: KindRender}
	for _, opt := range opts {
		opt(b)
	}

	if b.layout == nil {
		return nil, errs.Missing(errs.KindPipeline, errs.FieldLayout)
	}
	if b.shader == nil {
		return nil, errs.Missing(errs.KindPipeline, errs.FieldShader)
	}

	label := common.DefaultLabel(b.label, string(errs.KindPipeline), b.id)
	p := &pipeline{id: b.id, label: label, kind: b.kind}

	switch b.kind {
	case KindCompute:
		if b.shader.Kind() != shader.KindCompute {
			return nil, &errs.WrongVariantError{Kind: errs.KindShader, Label: b.shader.Label(), Expected: shader.KindCompute.String(), Actual: b.shader.Kind().String()}
		}

		log.WithFields(log.Fields{
			"label":       label,
			"kind":        b.kind,
			"layout":      b.layout.Label(),
			"shader":      b.shader.Label(),
			"entry_point": b.shader.ComputeEntryPoint(),
		}).Debug("build pipeline")

		created, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
			Label:   label,
			Layout:  b.layout.Handle(),
			Compute: b.shader.ComputeStage(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create compute pipeline %q: %w", label, err)
		}
		p.computePipeline = created
	default:
		if b.shader.Kind() != shader.KindRender {
			return nil, &errs.WrongVariantError{Kind: errs.KindShader, Label: b.shader.Label(), Expected: shader.KindRender.String(), Actual: b.shader.Kind().String()}
		}
		if b.primitive == nil {
			return nil, errs.Missing(errs.KindPipeline, errs.FieldPrimitive)
		}
		if b.multisample == nil {
			return nil, errs.Missing(errs.KindPipeline, errs.FieldMultisample)
		}

		log.WithFields(log.Fields{
			"label":         label,
			"kind":          b.kind,
			"layout":        b.layout.Label(),
			"shader":        b.shader.Label(),
			"topology":      b.primitive.Topology,
			"cull_mode":     b.primitive.CullMode,
			"front_face":    b.primitive.FrontFace,
			"samples":       b.multisample.Count,
			"depth_stencil": b.depthStencil != nil,
		}).Debug("build pipeline")

		created, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:        label,
			Layout:       b.layout.Handle(),
			Vertex:       b.shader.VertexState(),
			Fragment:     b.shader.FragmentState(),
			Primitive:    *b.primitive,
			Multisample:  *b.multisample,
			DepthStencil: b.depthStencil,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create render pipeline %q: %w", label, err)
		}
		p.renderPipeline = created
	}

	return p, nil
}

// DefaultPrimitive returns a triangle list primitive state with counter-clockwise front faces and no culling.
func DefaultPrimitive() wgpu.PrimitiveState {
	return wgpu.PrimitiveState{
		Topology:  wgpu.PrimitiveTopologyTriangleList,
		FrontFace: wgpu.FrontFaceCCW,
		CullMode:  wgpu.CullModeNone,
	}
}

// DefaultMultisample returns a single sample multisample state.
func DefaultMultisample() wgpu.MultisampleState {
	return wgpu.MultisampleState{
		Count: 1,
		Mask:  0xFFFFFFFF,
	}
}

// DepthStencil returns a depth-only state for the given format with less-equal depth testing and depth writes.
func DepthStencil(format wgpu.TextureFormat) *wgpu.DepthStencilState {
	return &wgpu.DepthStencilState{
		Format:            format,
		DepthWriteEnabled: true,
		DepthCompare:      wgpu.CompareFunctionLessEqual,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
}

func (p *pipeline) ID() common.ResourceID {
	return p.id
}

func (p *pipeline) SetID(id common.ResourceID) {
	p.id = id
}

func (p *pipeline) Label() string {
	return p.label
}

func (p *pipeline) Kind() Kind {
	return p.kind
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) ComputePipeline() *wgpu.ComputePipeline {
	return p.computePipeline
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
}
