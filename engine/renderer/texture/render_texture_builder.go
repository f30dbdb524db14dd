package texture

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	defaultViewLayoutEntry = wgpu.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: wgpu.ShaderStageFragment,
		Texture: wgpu.TextureBindingLayout{
			Multisampled:  false,
			ViewDimension: wgpu.TextureViewDimension2D,
			SampleType:    wgpu.TextureSampleTypeFloat,
		},
	}
	defaultSamplerLayoutEntry = wgpu.BindGroupLayoutEntry{
		Binding:    1,
		Visibility: wgpu.ShaderStageFragment,
		Sampler: wgpu.SamplerBindingLayout{
			Type: wgpu.SamplerBindingTypeFiltering,
		},
	}
)

// defaultSampler clamps to the edge and magnifies linearly.
func defaultSampler() *common.SamplerData {
	return &common.SamplerData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeNearest,
		MipmapFilter: wgpu.MipmapFilterModeNearest,
		LodMaxClamp:  32,
	}
}

type renderTextureBuilder struct {
	id        common.ResourceID
	label     string
	kind      Kind
	format    wgpu.TextureFormat
	usage     wgpu.TextureUsage
	size      common.Size
	layers    uint32
	dimension wgpu.TextureDimension
	data      *common.ImageData

	sampler  *common.SamplerData
	viewDesc *wgpu.TextureViewDescriptor

	bindGroupBinding *uint32
	viewEntry        wgpu.BindGroupLayoutEntry
	samplerEntry     wgpu.BindGroupLayoutEntry
}

// RenderTextureBuilderOption is a functional option used to configure a RenderTexture during construction.
type RenderTextureBuilderOption func(*renderTextureBuilder)

// WithID sets the arena id of the texture.
//
// Parameters:
//   - id: the id
//
// Returns:
//   - RenderTextureBuilderOption: a function that sets the id
func WithID(id common.ResourceID) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.id = id
	}
}

// WithLabel sets the debug label of the texture.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - RenderTextureBuilderOption: a function that sets the label
func WithLabel(label string) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.label = label
	}
}

// WithKind sets the texel format kind. Defaults to KindRender.
//
// Parameters:
//   - kind: the format kind
//
// Returns:
//   - RenderTextureBuilderOption: a function that sets the kind
func WithKind(kind Kind) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.kind = kind
	}
}

// WithFormat overrides the texel format derived from the kind, e.g. for storage textures.
func WithFormat(format wgpu.TextureFormat) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.format = format
	}
}

// WithUsage sets the texture usage flags. Defaults to RENDER_ATTACHMENT | COPY_DST.
//
// Parameters:
//   - usage: the usage flags
//
// Returns:
//   - RenderTextureBuilderOption: a function that sets the usage
func WithUsage(usage wgpu.TextureUsage) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.usage = usage
	}
}

// WithSize sets the size of an empty texture. Ignored when image data is set.
//
// Parameters:
//   - size: the size in pixels
//
// Returns:
//   - RenderTextureBuilderOption: a function that sets the size
func WithSize(size common.Size) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.size = size
	}
}

// WithLayers sets the depth or array layer count. Defaults to 1.
func WithLayers(layers uint32) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.layers = layers
	}
}

// WithDimension sets the texture dimension. Defaults to 2D.
func WithDimension(dimension wgpu.TextureDimension) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.dimension = dimension
	}
}

// WithImage sets the host image uploaded by StoreToMemory. Encoded images are decoded when the texture is built,
// and the texture takes the size of the image.
//
// Parameters:
//   - img: the image, either raw RGBA pixels or encoded bytes
//
// Returns:
//   - RenderTextureBuilderOption: a function that sets the image
func WithImage(img common.ImageData) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.data = &img
	}
}

// WithPixels sets raw RGBA pixels uploaded by StoreToMemory.
func WithPixels(pixels []byte, width, height uint32) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.data = &common.ImageData{Pixels: pixels, Width: width, Height: height}
	}
}

// WithSampler replaces the default clamping sampler.
//
// Parameters:
//   - sampler: the sampler configuration
//
// Returns:
//   - RenderTextureBuilderOption: a function that sets the sampler
func WithSampler(sampler common.SamplerData) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.sampler = &sampler
	}
}

// WithoutSampler builds the texture without a sampler.
func WithoutSampler() RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.sampler = nil
	}
}

// WithViewDescriptor replaces the default whole-texture view.
func WithViewDescriptor(desc wgpu.TextureViewDescriptor) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.viewDesc = &desc
	}
}

// WithBindGroupBinding builds a paired layout and bind group for sampling the texture directly, bound at the
// given group index. The view sits at binding 0 and the sampler at binding 1 unless the layout entries are replaced.
//
// Parameters:
//   - binding: the group index of the paired bind group
//
// Returns:
//   - RenderTextureBuilderOption: a function that enables the paired bind group
func WithBindGroupBinding(binding uint32) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.bindGroupBinding = &binding
	}
}

// WithViewLayoutEntry replaces the layout entry of the view in the paired bind group.
func WithViewLayoutEntry(entry wgpu.BindGroupLayoutEntry) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.viewEntry = entry
	}
}

// WithSamplerLayoutEntry replaces the layout entry of the sampler in the paired bind group.
func WithSamplerLayoutEntry(entry wgpu.BindGroupLayoutEntry) RenderTextureBuilderOption {
	return func(b *renderTextureBuilder) {
		b.samplerEntry = entry
	}
}

func (b *renderTextureBuilder) viewDescriptor(label string, format wgpu.TextureFormat) *wgpu.TextureViewDescriptor {
	if b.viewDesc != nil {
		desc := *b.viewDesc
		desc.Label = common.Coalesce(desc.Label, label+" View")
		return &desc
	}

	viewDimension := wgpu.TextureViewDimension2D
	if b.layers > 1 && b.dimension == wgpu.TextureDimension2D {
		viewDimension = wgpu.TextureViewDimension2DArray
	}
	return &wgpu.TextureViewDescriptor{
		Label:           label + " View",
		Format:          format,
		Dimension:       viewDimension,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: b.layers,
		Aspect:          wgpu.TextureAspectAll,
	}
}
