package uniform

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/gputest"
)

func TestNewGroup_RequiresEntries(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewGroup(device, WithLabel("camera"))

	var missing *errs.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, errs.KindUniform, missing.Resource)
	assert.Equal(t, errs.FieldEntries, missing.Field)
	assert.Empty(t, device.Buffers)
}

func TestNewGroup_DuplicateNames(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewGroup(device, WithEntries(
		Entry{Name: "time", Binding: 0, Data: make([]byte, 4)},
		Entry{Name: "time", Binding: 1, Data: make([]byte, 4)},
	))

	assert.ErrorIs(t, err, errs.ErrDuplicate)
	assert.Empty(t, device.Buffers)
}

func TestNewGroup_BuildsBuffersLayoutAndGroup(t *testing.T) {
	device := gputest.NewFakeDevice()

	g, err := NewGroup(device,
		WithID(11),
		WithBinding(1),
		WithEntries(
			NewEntry("view", 0, wgpu.ShaderStageVertex, []float32{1, 2, 3, 4}),
			NewEntry("time", 1, 0, []float32{0.5}),
		),
	)
	require.NoError(t, err)

	assert.Equal(t, "Uniform: 11", g.Label())
	assert.Equal(t, []string{"view", "time"}, g.Names())
	assert.Equal(t, uint32(1), g.BindGroup().Binding())

	view, err := g.Buffer("view")
	require.NoError(t, err)
	assert.Equal(t, uint64(16), view.Capacity())
	assert.Equal(t, []float32{1, 2, 3, 4}, common.BytesToSlice[float32](device.Contents(view.Handle())))
	assert.NotZero(t, device.Usage(view.Handle())&wgpu.BufferUsageUniform)
	assert.NotZero(t, device.Usage(view.Handle())&wgpu.BufferUsageCopyDst)

	layoutEntries := g.Layout().Entries()
	require.Len(t, layoutEntries, 2)
	assert.Equal(t, wgpu.ShaderStageVertex, layoutEntries[0].Visibility)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, layoutEntries[1].Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, layoutEntries[1].Buffer.Type)

	require.Len(t, device.BindGroups, 1)
	assert.Len(t, device.BindGroups[0].Entries, 2)

	_, err = g.Buffer("missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
