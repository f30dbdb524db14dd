package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/gputest"
)

const triangleWGSL = `@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }`

func TestNewShader_RequiresSource(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewShader(device, WithVertex("vs_main"), WithFragment("fs_main"))

	var missing *errs.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, errs.FieldShaderSource, missing.Field)
	assert.Empty(t, device.ShaderModules)
}

func TestNewShader_RenderRequiresBothEntryPoints(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewShader(device, WithSource(triangleWGSL), WithVertex("vs_main"))

	var missing *errs.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, errs.FieldEntryPoint, missing.Field)
}

func TestNewShader_ComputeRequiresEntryPoint(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewShader(device, WithSource("@compute fn main() {}"), WithCompute(""))

	assert.ErrorIs(t, err, errs.ErrMissingField)
}

func TestNewShader_RenderStates(t *testing.T) {
	device := gputest.NewFakeDevice()
	layout := wgpu.VertexBufferLayout{ArrayStride: 12, StepMode: wgpu.VertexStepModeVertex}
	target := wgpu.ColorTargetState{Format: wgpu.TextureFormatRGBA8UnormSrgb, WriteMask: wgpu.ColorWriteMaskAll}

	s, err := NewShader(device,
		WithID(3),
		WithSource(triangleWGSL),
		WithVertex("vs_main", layout),
		WithFragment("fs_main", target),
	)
	require.NoError(t, err)

	assert.Equal(t, KindRender, s.Kind())
	assert.Equal(t, "Shader: 3", s.Label())
	require.Len(t, device.ShaderModules, 1)
	assert.Equal(t, triangleWGSL, device.ShaderModules[0].WGSLDescriptor.Code)

	vs := s.VertexState()
	assert.Equal(t, "vs_main", vs.EntryPoint)
	assert.Equal(t, s.Module(), vs.Module)
	assert.Len(t, vs.Buffers, 1)
	fs := s.FragmentState()
	assert.Equal(t, "fs_main", fs.EntryPoint)
	assert.Len(t, fs.Targets, 1)
}

func TestNewShader_PrecompiledModuleSkipsCompilation(t *testing.T) {
	device := gputest.NewFakeDevice()
	module := new(wgpu.ShaderModule)

	s, err := NewShader(device, WithModule(module), WithCompute("main"))
	require.NoError(t, err)

	assert.Equal(t, KindCompute, s.Kind())
	assert.Same(t, module, s.Module())
	assert.Equal(t, "main", s.ComputeStage().EntryPoint)
	assert.Empty(t, device.ShaderModules)
}

func TestNewShader_SourceFile(t *testing.T) {
	device := gputest.NewFakeDevice()
	path := filepath.Join(t.TempDir(), "triangle.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(triangleWGSL), 0o644))

	_, err := NewShader(device, WithSourceFile(path), WithVertex("vs_main"), WithFragment("fs_main"))
	require.NoError(t, err)

	require.Len(t, device.ShaderModules, 1)
	assert.Equal(t, triangleWGSL, device.ShaderModules[0].WGSLDescriptor.Code)
}
