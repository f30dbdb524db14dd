package bind_group

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
)

func TestNewLayoutEntry_RequiredFields(t *testing.T) {
	_, err := NewLayoutEntry(WithBufferBinding(wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}))
	var missing *errs.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, errs.FieldBinding, missing.Field)

	_, err = NewLayoutEntry(WithEntryBinding(0))
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, errs.FieldBindType, missing.Field)
}

func TestNewLayoutEntry_DefaultVisibility(t *testing.T) {
	entry, err := NewLayoutEntry(
		WithEntryBinding(3),
		WithSamplerBinding(wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}),
	)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), entry.Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, entry.Visibility)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entry.Sampler.Type)
}

func TestLayoutEntries_StopsAtFirstError(t *testing.T) {
	_, err := LayoutEntries(
		[]LayoutEntryBuilderOption{WithEntryBinding(0), WithBufferBinding(wgpu.BufferBindingLayout{})},
		[]LayoutEntryBuilderOption{WithEntryBinding(1)},
	)
	assert.ErrorIs(t, err, errs.ErrMissingField)
}

func TestNewLayout_RequiresEntries(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewLayout(device, WithLayoutID(2))

	var missing *errs.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, errs.KindBindGroupLayout, missing.Resource)
	assert.Empty(t, device.BindGroupLayouts)
}

func TestNewLayout_DefaultLabel(t *testing.T) {
	device := gputest.NewFakeDevice()
	entry, err := NewLayoutEntry(WithEntryBinding(0), WithBufferBinding(wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}))
	require.NoError(t, err)

	l, err := NewLayout(device, WithLayoutID(2), WithLayoutEntries(entry))
	require.NoError(t, err)

	assert.Equal(t, "Bind group layout: 2", l.Label())
	assert.Len(t, l.Entries(), 1)
	require.Len(t, device.BindGroupLayouts, 1)
	assert.Equal(t, "Bind group layout: 2", device.BindGroupLayouts[0].Label)
}

func TestNewBindGroup_RequiredFieldsInOrder(t *testing.T) {
	device := gputest.NewFakeDevice()
	layoutHandle := new(wgpu.BindGroupLayout)

	cases := []struct {
		name    string
		options []BindGroupBuilderOption
		field   errs.Field
	}{
		{"binding", []BindGroupBuilderOption{WithLayout(layoutHandle)}, errs.FieldBinding},
		{"layout", []BindGroupBuilderOption{WithBinding(0)}, errs.FieldLayout},
		{"entries", []BindGroupBuilderOption{WithBinding(0), WithLayout(layoutHandle)}, errs.FieldEntries},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBindGroup(device, tc.options...)
			var missing *errs.MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tc.field, missing.Field)
		})
	}
	assert.Empty(t, device.BindGroups)
}

func TestNewBindGroup_BufferEntryUsesBufferBinding(t *testing.T) {
	device := gputest.NewFakeDevice()
	buf, err := buffer.NewBuffer(device, buffer.WithSize(16), buffer.WithBinding(4))
	require.NoError(t, err)

	bg, err := NewBindGroup(device,
		WithID(9),
		WithBinding(1),
		WithLayout(new(wgpu.BindGroupLayout)),
		WithBufferEntry(buf),
		WithSamplerEntry(5, new(wgpu.Sampler)),
	)
	require.NoError(t, err)

	assert.Equal(t, "Bind group: 9", bg.Label())
	assert.Equal(t, uint32(1), bg.Binding())
	require.Len(t, bg.Entries(), 2)
	assert.Equal(t, uint32(4), bg.Entries()[0].Binding)
	assert.Equal(t, buf.Handle(), bg.Entries()[0].Buffer)
	assert.Equal(t, uint64(wgpu.WholeSize), bg.Entries()[0].Size)
	assert.Equal(t, uint32(5), bg.Entries()[1].Binding)
}
