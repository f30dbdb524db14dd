package shader

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Kind identifies whether a shader feeds a render pipeline or a compute pipeline.
type Kind int

const (
	// KindRender is a shader with a vertex and a fragment entry point.
	KindRender Kind = iota

	// KindCompute is a shader with a single compute entry point.
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

// shader is the implementation of the Shader interface.
// It holds the compiled module and everything a pipeline needs to reference its entry points.
type shader struct {
	id    common.ResourceID
	label string
	kind  Kind

	module     *wgpu.ShaderModule
	ownsModule bool

	vertexEntryPoint   string
	fragmentEntryPoint string
	computeEntryPoint  string
	vertexLayouts      []wgpu.VertexBufferLayout
	targets            []wgpu.ColorTargetState
}

// Shader wraps one compiled shader module together with the entry points and fixed-function
// interface (vertex buffer layouts, fragment targets) a pipeline is built from.
type Shader interface {
	// ID returns the arena id of this shader.
	ID() common.ResourceID

	// SetID re-keys the shader.
	SetID(id common.ResourceID)

	// Label returns the debug label of this shader.
	Label() string

	// Kind returns whether this is a render or a compute shader.
	//
	// Returns:
	//   - Kind: the shader kind
	Kind() Kind

	// Module returns the compiled shader module.
	//
	// Returns:
	//   - *wgpu.ShaderModule: the module
	Module() *wgpu.ShaderModule

	// VertexEntryPoint returns the vertex entry point name. Empty for compute shaders.
	VertexEntryPoint() string

	// FragmentEntryPoint returns the fragment entry point name. Empty for compute shaders.
	FragmentEntryPoint() string

	// ComputeEntryPoint returns the compute entry point name. Empty for render shaders.
	ComputeEntryPoint() string

	// VertexLayouts returns the vertex buffer layouts consumed by the vertex entry point.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts, indexed by vertex buffer slot
	VertexLayouts() []wgpu.VertexBufferLayout

	// Targets returns the color targets written by the fragment entry point.
	//
	// Returns:
	//   - []wgpu.ColorTargetState: the color targets
	Targets() []wgpu.ColorTargetState

	// VertexState returns the vertex stage of a render pipeline descriptor.
	//
	// Returns:
	//   - wgpu.VertexState: the vertex state
	VertexState() wgpu.VertexState

	// FragmentState returns the fragment stage of a render pipeline descriptor.
	//
	// Returns:
	//   - *wgpu.FragmentState: the fragment state
	FragmentState() *wgpu.FragmentState

	// ComputeStage returns the compute stage of a compute pipeline descriptor.
	//
	// Returns:
	//   - wgpu.ProgrammableStageDescriptor: the compute stage
	ComputeStage() wgpu.ProgrammableStageDescriptor

	// Release releases the module when the shader compiled it.
	Release()
}

var _ Shader = &shader{}

// NewShader compiles WGSL source into a shader module, or wraps an existing module.
// WGSL is passed to the device as-is; it is not parsed here.
//
// Parameters:
//   - device: the device used to compile the module
//   - options: builder options configuring the shader
//
// Returns:
//   - Shader: the created shader
//   - error: a MissingFieldError for an unset source or entry point, or the device error
func NewShader(device gpu.Device, options ...ShaderBuilderOption) (Shader, error) {
	b := &shaderBuilder{kind: KindRender}
	for _, opt := range options {
		opt(b)
	}

	if b.sourcePath != "" && b.source == "" {
		src, err := os.ReadFile(b.sourcePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read shader file %s: %w", b.sourcePath, err)
		}
		b.source = string(src)
	}
	if b.source == "" && b.module == nil {
		return nil, errs.Missing(errs.KindShader, errs.FieldShaderSource)
	}
	switch b.kind {
	case KindCompute:
		if b.computeEntryPoint == "" {
			return nil, errs.Missing(errs.KindShader, errs.FieldEntryPoint)
		}
	default:
		if b.vertexEntryPoint == "" || b.fragmentEntryPoint == "" {
			return nil, errs.Missing(errs.KindShader, errs.FieldEntryPoint)
		}
	}

	label := common.DefaultLabel(b.label, string(errs.KindShader), b.id)
	log.WithFields(log.Fields{
		"label":          label,
		"kind":           b.kind,
		"vertex":         b.vertexEntryPoint,
		"fragment":       b.fragmentEntryPoint,
		"compute":        b.computeEntryPoint,
		"vertex_layouts": len(b.vertexLayouts),
		"targets":        len(b.targets),
		"precompiled":    b.module != nil,
	}).Debug("build shader")

	s := &shader{
		id:                 b.id,
		label:              label,
		kind:               b.kind,
		module:             b.module,
		vertexEntryPoint:   b.vertexEntryPoint,
		fragmentEntryPoint: b.fragmentEntryPoint,
		computeEntryPoint:  b.computeEntryPoint,
		vertexLayouts:      b.vertexLayouts,
		targets:            b.targets,
	}

	if s.module == nil {
		module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label:          label,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: b.source},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create shader module %q: %w", label, err)
		}
		s.module = module
		s.ownsModule = true
	}

	return s, nil
}

func (s *shader) ID() common.ResourceID {
	return s.id
}

func (s *shader) SetID(id common.ResourceID) {
	s.id = id
}

func (s *shader) Label() string {
	return s.label
}

func (s *shader) Kind() Kind {
	return s.kind
}

func (s *shader) Module() *wgpu.ShaderModule {
	return s.module
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntryPoint
}

func (s *shader) FragmentEntryPoint() string {
	return s.fragmentEntryPoint
}

func (s *shader) ComputeEntryPoint() string {
	return s.computeEntryPoint
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) Targets() []wgpu.ColorTargetState {
	return s.targets
}

func (s *shader) VertexState() wgpu.VertexState {
	return wgpu.VertexState{
		Module:     s.module,
		EntryPoint: s.vertexEntryPoint,
		Buffers:    s.vertexLayouts,
	}
}

func (s *shader) FragmentState() *wgpu.FragmentState {
	return &wgpu.FragmentState{
		Module:     s.module,
		EntryPoint: s.fragmentEntryPoint,
		Targets:    s.targets,
	}
}

func (s *shader) ComputeStage() wgpu.ProgrammableStageDescriptor {
	return wgpu.ProgrammableStageDescriptor{
		Module:     s.module,
		EntryPoint: s.computeEntryPoint,
	}
}

func (s *shader) Release() {
	if s.ownsModule && s.module != nil {
		s.module.Release()
	}
	s.module = nil
}
