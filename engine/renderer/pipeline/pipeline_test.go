package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

func newRenderShader(t *testing.T, device *gputest.FakeDevice) shader.Shader {
	t.Helper()
	s, err := shader.NewShader(device,
		shader.WithModule(new(wgpu.ShaderModule)),
		shader.WithVertex("vs_main"),
		shader.WithFragment("fs_main", wgpu.ColorTargetState{Format: wgpu.TextureFormatRGBA8UnormSrgb}),
	)
	require.NoError(t, err)
	return s
}

func newComputeShader(t *testing.T, device *gputest.FakeDevice) shader.Shader {
	t.Helper()
	s, err := shader.NewShader(device, shader.WithModule(new(wgpu.ShaderModule)), shader.WithCompute("main"))
	require.NoError(t, err)
	return s
}

func newLayout(t *testing.T, device *gputest.FakeDevice) Layout {
	t.Helper()
	l, err := NewLayout(device, WithLayoutID(1))
	require.NoError(t, err)
	return l
}

func TestNewLayout_EmptyEntriesAllowed(t *testing.T) {
	device := gputest.NewFakeDevice()

	l, err := NewLayout(device, WithLayoutID(4))
	require.NoError(t, err)

	assert.Equal(t, "Pipeline layout: 4", l.Label())
	require.Len(t, device.PipelineLayouts, 1)
	assert.Empty(t, device.PipelineLayouts[0].BindGroupLayouts)
}

func TestNewPipeline_RequiredFields(t *testing.T) {
	device := gputest.NewFakeDevice()
	l := newLayout(t, device)
	s := newRenderShader(t, device)

	cases := []struct {
		name    string
		options []PipelineBuilderOption
		field   errs.Field
	}{
		{"layout", []PipelineBuilderOption{WithShader(s)}, errs.FieldLayout},
		{"shader", []PipelineBuilderOption{WithLayout(l)}, errs.FieldShader},
		{"primitive", []PipelineBuilderOption{WithLayout(l), WithShader(s), WithMultisample(DefaultMultisample())}, errs.FieldPrimitive},
		{"multisample", []PipelineBuilderOption{WithLayout(l), WithShader(s), WithPrimitive(DefaultPrimitive())}, errs.FieldMultisample},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPipeline(device, tc.options...)
			var missing *errs.MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tc.field, missing.Field)
		})
	}
	assert.Empty(t, device.RenderPipelines)
}

func TestNewPipeline_Render(t *testing.T) {
	device := gputest.NewFakeDevice()

	p, err := NewPipeline(device,
		WithID(5),
		WithLayout(newLayout(t, device)),
		WithShader(newRenderShader(t, device)),
		WithCullMode(wgpu.CullModeBack),
		WithMultisample(DefaultMultisample()),
		WithDepthStencil(DepthStencil(wgpu.TextureFormatDepth32Float)),
	)
	require.NoError(t, err)

	assert.Equal(t, KindRender, p.Kind())
	assert.Equal(t, "Pipeline: 5", p.Label())
	assert.NotNil(t, p.RenderPipeline())
	assert.Nil(t, p.ComputePipeline())
	require.Len(t, device.RenderPipelines, 1)
	desc := device.RenderPipelines[0]
	assert.Equal(t, wgpu.CullModeBack, desc.Primitive.CullMode)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, desc.Primitive.Topology)
	assert.Equal(t, "vs_main", desc.Vertex.EntryPoint)
	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, wgpu.TextureFormatDepth32Float, desc.DepthStencil.Format)
}

func TestNewPipeline_ComputeNeedsNoFixedFunctionState(t *testing.T) {
	device := gputest.NewFakeDevice()

	p, err := NewPipeline(device, WithCompute(), WithLayout(newLayout(t, device)), WithShader(newComputeShader(t, device)))
	require.NoError(t, err)

	assert.Equal(t, KindCompute, p.Kind())
	assert.NotNil(t, p.ComputePipeline())
	require.Len(t, device.ComputePipelines, 1)
	assert.Equal(t, "main", device.ComputePipelines[0].Compute.EntryPoint)
}

func TestNewPipeline_ShaderKindMismatch(t *testing.T) {
	device := gputest.NewFakeDevice()
	l := newLayout(t, device)

	_, err := NewPipeline(device, WithLayout(l), WithShader(newComputeShader(t, device)),
		WithPrimitive(DefaultPrimitive()), WithMultisample(DefaultMultisample()))
	assert.ErrorIs(t, err, errs.ErrWrongVariant)

	_, err = NewPipeline(device, WithCompute(), WithLayout(l), WithShader(newRenderShader(t, device)))
	assert.ErrorIs(t, err, errs.ErrWrongVariant)
}
