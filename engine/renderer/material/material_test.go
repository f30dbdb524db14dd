package material

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group"
)

func pixels(w, h uint32) common.ImageData {
	return common.ImageData{Pixels: make([]byte, w*h*4), Width: w, Height: h}
}

func newLayout(t *testing.T, device *gputest.FakeDevice, params ...TextureParams) bind_group.Layout {
	t.Helper()
	var entries []wgpu.BindGroupLayoutEntry
	for _, p := range params {
		entries = append(entries, p.LayoutEntries()...)
	}
	layout, err := bind_group.NewLayout(device, bind_group.WithLayoutEntries(entries...))
	require.NoError(t, err)
	return layout
}

func TestNewMaterial_RequiredFields(t *testing.T) {
	device := gputest.NewFakeDevice()
	layout := newLayout(t, device, TextureParams{ViewBinding: 0, SamplerBinding: 1})

	tests := []struct {
		name    string
		options []MaterialBuilderOption
		field   errs.Field
	}{
		{name: "layout", options: []MaterialBuilderOption{WithDiffuse(pixels(2, 2))}, field: errs.FieldLayout},
		{name: "diffuse", options: []MaterialBuilderOption{WithLayout(layout)}, field: errs.FieldDiffuseTexture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMaterial(device, tt.options...)

			var missing *errs.MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, errs.KindMaterial, missing.Resource)
			assert.Equal(t, tt.field, missing.Field)
			assert.Empty(t, device.Textures)
		})
	}
}

func TestNewMaterial_DiffuseOnly(t *testing.T) {
	device := gputest.NewFakeDevice()
	layout := newLayout(t, device, TextureParams{ViewBinding: 0, SamplerBinding: 1})

	m, err := NewMaterial(device, WithID(3), WithLayout(layout), WithDiffuse(pixels(4, 2)))
	require.NoError(t, err)

	assert.Equal(t, "Material: 3", m.Label())
	assert.Nil(t, m.Normal())
	require.NotNil(t, m.Diffuse())
	assert.Equal(t, common.Size{Width: 4, Height: 2}, m.Diffuse().Size())
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, m.Diffuse().Format())
	assert.NotZero(t, m.Diffuse().Usage()&wgpu.TextureUsageTextureBinding)

	require.Len(t, device.BindGroups, 1)
	entries := device.BindGroups[0].Entries
	require.Len(t, entries, 2)
	assert.Same(t, m.Diffuse().View(), entries[0].TextureView)
	assert.Same(t, m.Diffuse().Sampler(), entries[1].Sampler)
	assert.Equal(t, "Bind group of: Material: 3", device.BindGroups[0].Label)
}

func TestNewMaterial_WithNormal(t *testing.T) {
	device := gputest.NewFakeDevice()
	diffuse := TextureParams{ViewBinding: 0, SamplerBinding: 1}
	normal := TextureParams{ViewBinding: 2, SamplerBinding: 3}
	layout := newLayout(t, device, diffuse, normal)

	m, err := NewMaterial(device,
		WithLabel("brick"),
		WithBinding(2),
		WithLayout(layout),
		WithDiffuse(pixels(2, 2)),
		WithNormal(pixels(2, 2)),
	)
	require.NoError(t, err)

	require.NotNil(t, m.Normal())
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, m.Normal().Format())
	assert.Equal(t, "Normal texture: brick", m.Normal().Label())
	assert.Equal(t, uint32(2), m.BindGroup().Binding())

	entries := device.BindGroups[0].Entries
	require.Len(t, entries, 4)
	assert.Equal(t, uint32(2), entries[2].Binding)
	assert.Same(t, m.Normal().View(), entries[2].TextureView)
	assert.Equal(t, uint32(3), entries[3].Binding)

	require.NoError(t, m.StoreTexturesToMemory(device))
	assert.Equal(t, 2, device.TextureWrites)
}

func TestTextureParams_LayoutEntries(t *testing.T) {
	entries := TextureParams{ViewBinding: 4, SamplerBinding: 5}.LayoutEntries()

	require.Len(t, entries, 2)
	assert.Equal(t, uint32(4), entries[0].Binding)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[0].Texture.SampleType)
	assert.Equal(t, uint32(5), entries[1].Binding)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entries[1].Sampler.Type)
	assert.Equal(t, wgpu.ShaderStageFragment, entries[1].Visibility)
}
