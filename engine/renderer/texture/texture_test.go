package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var out bytes.Buffer
	require.NoError(t, png.Encode(&out, img))
	return out.Bytes()
}

func TestKind_Format(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, KindRender.Format())
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, KindNormalMap.Format())
	assert.Equal(t, wgpu.TextureFormatDepth32Float, KindDepth.Format())
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, KindHDR.Format())
}

func TestNewRenderTexture_RequiresSize(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewRenderTexture(device)

	var missing *errs.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, errs.FieldTextureSize, missing.Field)
	assert.Empty(t, device.Textures)
}

func TestNewRenderTexture_Defaults(t *testing.T) {
	device := gputest.NewFakeDevice()

	tex, err := NewRenderTexture(device, WithID(9), WithSize(common.Size{Width: 64, Height: 32}))
	require.NoError(t, err)

	assert.Equal(t, "Texture: 9", tex.Label())
	require.Len(t, device.Textures, 1)
	desc := device.Textures[0]
	assert.Equal(t, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageCopyDst, desc.Usage)
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, desc.Format)
	assert.Equal(t, uint32(64), desc.Size.Width)

	require.Len(t, device.Samplers, 1)
	assert.Equal(t, wgpu.AddressModeClampToEdge, device.Samplers[0].AddressModeU)
	assert.Equal(t, wgpu.FilterModeLinear, device.Samplers[0].MagFilter)
	assert.Equal(t, wgpu.FilterModeNearest, device.Samplers[0].MinFilter)

	_, err = tex.BindGroup()
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = tex.BindGroupLayout()
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestNewRenderTexture_PairedBindGroup(t *testing.T) {
	device := gputest.NewFakeDevice()

	tex, err := NewRenderTexture(device, WithSize(common.Size{Width: 4, Height: 4}), WithBindGroupBinding(2))
	require.NoError(t, err)

	group, err := tex.BindGroup()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), group.Binding())

	require.Len(t, device.BindGroupLayouts, 1)
	entries := device.BindGroupLayouts[0].Entries
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Equal(t, uint32(1), entries[1].Binding)

	require.Len(t, device.BindGroups, 1)
	groupEntries := device.BindGroups[0].Entries
	require.Len(t, groupEntries, 2)
	assert.Same(t, tex.View(), groupEntries[0].TextureView)
	assert.Same(t, tex.Sampler(), groupEntries[1].Sampler)
}

func TestNewRenderTexture_PairedBindGroupWithoutSampler(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewRenderTexture(device, WithSize(common.Size{Width: 4, Height: 4}), WithoutSampler(), WithBindGroupBinding(0))
	require.NoError(t, err)

	assert.Empty(t, device.Samplers)
	require.Len(t, device.BindGroupLayouts, 1)
	assert.Len(t, device.BindGroupLayouts[0].Entries, 1)
}

func TestNewRenderTexture_DecodesImage(t *testing.T) {
	device := gputest.NewFakeDevice()

	tex, err := NewRenderTexture(device, WithImage(common.ImageData{Encoded: encodePNG(t, 3, 2)}))
	require.NoError(t, err)

	assert.Equal(t, common.Size{Width: 3, Height: 2}, tex.Size())
	require.NotNil(t, tex.Data())
	assert.Len(t, tex.Data().Pixels, 3*2*4)
	assert.Equal(t, byte(255), tex.Data().Pixels[0])

	require.NoError(t, tex.StoreToMemory(device))
	assert.Equal(t, 1, device.TextureWrites)
}

func TestRenderTexture_StoreToMemoryWithoutData(t *testing.T) {
	device := gputest.NewFakeDevice()
	tex, err := NewRenderTexture(device, WithSize(common.Size{Width: 2, Height: 2}))
	require.NoError(t, err)

	require.NoError(t, tex.StoreToMemory(device))
	assert.Zero(t, device.TextureWrites)
}

func TestRenderTexture_LoadToBuffer(t *testing.T) {
	device := gputest.NewFakeDevice()
	tex, err := NewRenderTexture(device, WithSize(common.Size{Width: 10, Height: 3}))
	require.NoError(t, err)
	assert.Equal(t, uint32(256), tex.PaddedBytesPerRow())

	small, err := buffer.NewBuffer(device, buffer.WithSize(256), buffer.WithUsage(wgpu.BufferUsageCopyDst))
	require.NoError(t, err)
	enc := &gputest.FakeEncoder{}
	assert.ErrorIs(t, tex.LoadToBuffer(enc, small), errs.ErrCapacity)
	assert.Empty(t, enc.Calls)

	dst, err := buffer.NewBuffer(device, buffer.WithSize(256*3), buffer.WithUsage(wgpu.BufferUsageCopyDst))
	require.NoError(t, err)
	require.NoError(t, tex.LoadToBuffer(enc, dst))

	copies := enc.Named("CopyTextureToBuffer")
	require.Len(t, copies, 1)
	target := copies[0].Args[1].(*wgpu.ImageCopyBuffer)
	assert.Same(t, dst.Handle(), target.Buffer)
	assert.Equal(t, uint32(256), target.Layout.BytesPerRow)
	assert.Equal(t, uint32(3), target.Layout.RowsPerImage)
}

func TestNewDepthTexture(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewDepthTexture(device)
	assert.ErrorIs(t, err, errs.ErrMissingField)

	depth, err := NewDepthTexture(device, WithDepthID(2), WithDepthSize(common.Size{Width: 8, Height: 8}))
	require.NoError(t, err)

	assert.Equal(t, "Depth texture: 2", depth.Label())
	require.Len(t, device.Textures, 1)
	assert.Equal(t, wgpu.TextureFormatDepth32Float, device.Textures[0].Format)
	require.Len(t, device.Samplers, 1)
	assert.Equal(t, wgpu.CompareFunctionLessEqual, device.Samplers[0].Compare)
}

func TestNewRenderTexture_ReleasesPartialHandles(t *testing.T) {
	tests := []struct {
		name      string
		failAfter int
		released  int
	}{
		{name: "view", failAfter: 1, released: 1},
		{name: "sampler", failAfter: 2, released: 2},
		{name: "bind group layout", failAfter: 3, released: 3},
		{name: "bind group", failAfter: 4, released: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := gputest.NewFakeDevice()
			device.FailAfter = tt.failAfter

			_, err := NewRenderTexture(device, WithSize(common.Size{Width: 4, Height: 4}), WithBindGroupBinding(0))

			require.ErrorIs(t, err, gputest.ErrInjected)
			assert.Len(t, device.Released, tt.released)
		})
	}
}

func TestNewDepthTexture_ReleasesPartialHandles(t *testing.T) {
	for failAfter := 1; failAfter <= 2; failAfter++ {
		device := gputest.NewFakeDevice()
		device.FailAfter = failAfter

		_, err := NewDepthTexture(device, WithDepthSize(common.Size{Width: 4, Height: 4}))

		require.ErrorIs(t, err, gputest.ErrInjected)
		assert.Len(t, device.Released, failAfter)
	}
}
