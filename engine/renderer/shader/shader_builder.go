package shader

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// shaderBuilder collects the parameters of a shader before its module is compiled.
type shaderBuilder struct {
	id         common.ResourceID
	label      string
	kind       Kind
	source     string
	sourcePath string
	module     *wgpu.ShaderModule

	vertexEntryPoint   string
	fragmentEntryPoint string
	computeEntryPoint  string
	vertexLayouts      []wgpu.VertexBufferLayout
	targets            []wgpu.ColorTargetState
}

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shaderBuilder)

// WithID sets the arena id of the shader.
func WithID(id common.ResourceID) ShaderBuilderOption {
	return func(b *shaderBuilder) {
		b.id = id
	}
}

// WithLabel sets the debug label of the shader.
func WithLabel(label string) ShaderBuilderOption {
	return func(b *shaderBuilder) {
		b.label = label
	}
}

// WithSource sets the WGSL source compiled into the module.
//
// Parameters:
//   - source: WGSL source text
//
// Returns:
//   - ShaderBuilderOption: a function that sets the source
func WithSource(source string) ShaderBuilderOption {
	return func(b *shaderBuilder) {
		b.source = source
	}
}

// WithSourceFile reads the WGSL source from a file when the shader is built.
//
// Parameters:
//   - path: path of the WGSL file
//
// Returns:
//   - ShaderBuilderOption: a function that sets the source path
func WithSourceFile(path string) ShaderBuilderOption {
	return func(b *shaderBuilder) {
		b.sourcePath = path
	}
}

// WithModule wraps an already compiled module instead of compiling source. The shader does not release it.
//
// Parameters:
//   - module: the compiled module
//
// Returns:
//   - ShaderBuilderOption: a function that sets the module
func WithModule(module *wgpu.ShaderModule) ShaderBuilderOption {
	return func(b *shaderBuilder) {
		b.module = module
	}
}

// WithVertex sets the vertex entry point and the vertex buffer layouts it consumes.
//
// Parameters:
//   - entryPoint: name of the vertex entry point
//   - layouts: vertex buffer layouts, one per vertex buffer slot
//
// Returns:
//   - ShaderBuilderOption: a function that sets the vertex stage
func WithVertex(entryPoint string, layouts ...wgpu.VertexBufferLayout) ShaderBuilderOption {
	return func(b *shaderBuilder) {
		b.kind = KindRender
		b.vertexEntryPoint = entryPoint
		b.vertexLayouts = layouts
	}
}

// WithFragment sets the fragment entry point and the color targets it writes.
//
// Parameters:
//   - entryPoint: name of the fragment entry point
//   - targets: color target states
//
// Returns:
//   - ShaderBuilderOption: a function that sets the fragment stage
func WithFragment(entryPoint string, targets ...wgpu.ColorTargetState) ShaderBuilderOption {
	return func(b *shaderBuilder) {
		b.kind = KindRender
		b.fragmentEntryPoint = entryPoint
		b.targets = targets
	}
}

// WithCompute makes the shader a compute shader with the given entry point.
//
// Parameters:
//   - entryPoint: name of the compute entry point
//
// Returns:
//   - ShaderBuilderOption: a function that sets the compute stage
func WithCompute(entryPoint string) ShaderBuilderOption {
	return func(b *shaderBuilder) {
		b.kind = KindCompute
		b.computeEntryPoint = entryPoint
	}
}
