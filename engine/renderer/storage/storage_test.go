package storage

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

	_, err := NewGroup(device)

	var missing *errs.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, errs.KindStorage, missing.Resource)
}

func TestNewGroup_DuplicateAcrossBuffersAndTextures(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewGroup(device,
		WithBuffers(BufferEntry{Name: "out", Data: make([]byte, 4)}),
		WithTextures(TextureEntry{Name: "out", Binding: 1, Size: common.Size{Width: 4, Height: 4}}),
	)

	assert.ErrorIs(t, err, errs.ErrDuplicate)
	assert.Empty(t, device.Buffers)
	assert.Empty(t, device.Textures)
}

func TestNewGroup_BuffersAndTextures(t *testing.T) {
	device := gputest.NewFakeDevice()

	g, err := NewGroup(device,
		WithLabel("particles"),
		WithBuffers(
			NewBufferEntry("values", 0, wgpu.ShaderStageCompute, []uint32{1, 2, 3}),
			BufferEntry{Name: "params", Binding: 1, Visibility: wgpu.ShaderStageCompute, ReadOnly: true, Data: make([]byte, 8)},
		),
		WithTextures(TextureEntry{Name: "image", Binding: 2, Visibility: wgpu.ShaderStageCompute, Size: common.Size{Width: 16, Height: 16}}),
	)
	require.NoError(t, err)

	assert.Equal(t, "particles", g.Label())

	values, err := g.Buffer("values")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), values.Capacity())
	usage := device.Usage(values.Handle())
	assert.NotZero(t, usage&wgpu.BufferUsageStorage)
	assert.NotZero(t, usage&wgpu.BufferUsageCopySrc)
	assert.Zero(t, usage&wgpu.BufferUsageMapRead)

	image, err := g.Texture("image")
	require.NoError(t, err)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, image.Format())
	assert.Nil(t, image.Sampler())

	entries := g.Layout().Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, entries[0].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, entries[1].Buffer.Type)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, entries[2].StorageTexture.Access)
	assert.Equal(t, wgpu.ShaderStageCompute, entries[2].Visibility)

	require.Len(t, device.BindGroups, 1)
	groupEntries := device.BindGroups[0].Entries
	require.Len(t, groupEntries, 3)
	assert.Same(t, image.View(), groupEntries[2].TextureView)

	_, err = g.Buffer("image")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = g.Texture("values")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
