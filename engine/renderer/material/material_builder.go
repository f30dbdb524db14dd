package material

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureParams places one material texture inside the material layout.
type TextureParams struct {
	ViewBinding    uint32
	SamplerBinding uint32
	// Kind selects the texel format of the texture.
	Kind texture.Kind
}

// LayoutEntries returns the fragment visible view and filtering sampler entries described by the params.
//
// Returns:
//   - []wgpu.BindGroupLayoutEntry: the view entry followed by the sampler entry
func (p TextureParams) LayoutEntries() []wgpu.BindGroupLayoutEntry {
	return []wgpu.BindGroupLayoutEntry{
		{
			Binding:    p.ViewBinding,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				Multisampled:  false,
				ViewDimension: wgpu.TextureViewDimension2D,
				SampleType:    wgpu.TextureSampleTypeFloat,
			},
		},
		{
			Binding:    p.SamplerBinding,
			Visibility: wgpu.ShaderStageFragment,
			Sampler: wgpu.SamplerBindingLayout{
				Type: wgpu.SamplerBindingTypeFiltering,
			},
		},
	}
}

type materialBuilder struct {
	id           common.ResourceID
	label        string
	binding      uint32
	layout       bind_group.Layout
	diffuse      TextureParams
	diffuseImage *common.ImageData
	normal       TextureParams
	normalImage  *common.ImageData
}

// MaterialBuilderOption is a function that configures a material during construction.
type MaterialBuilderOption func(*materialBuilder)

// WithID sets the id of the material.
//
// Parameters:
//   - id: the id
//
// Returns:
//   - MaterialBuilderOption: a function that sets the id
func WithID(id common.ResourceID) MaterialBuilderOption {
	return func(b *materialBuilder) {
		b.id = id
	}
}

// WithLabel sets the name of the material. Texture and bind group labels are derived from it.
//
// Parameters:
//   - label: the name
//
// Returns:
//   - MaterialBuilderOption: a function that sets the label
func WithLabel(label string) MaterialBuilderOption {
	return func(b *materialBuilder) {
		b.label = label
	}
}

// WithBinding sets the group index the material bind group is bound at.
func WithBinding(binding uint32) MaterialBuilderOption {
	return func(b *materialBuilder) {
		b.binding = binding
	}
}

// WithLayout sets the bind group layout the material bind group is created against.
//
// Parameters:
//   - layout: the shared material layout
//
// Returns:
//   - MaterialBuilderOption: a function that sets the layout
func WithLayout(layout bind_group.Layout) MaterialBuilderOption {
	return func(b *materialBuilder) {
		b.layout = layout
	}
}

// WithDiffuse sets the diffuse image.
//
// Parameters:
//   - img: raw RGBA pixels or encoded image bytes
//
// Returns:
//   - MaterialBuilderOption: a function that sets the diffuse image
func WithDiffuse(img common.ImageData) MaterialBuilderOption {
	return func(b *materialBuilder) {
		b.diffuseImage = &img
	}
}

// WithDiffuseParams replaces the default diffuse bindings and kind.
func WithDiffuseParams(params TextureParams) MaterialBuilderOption {
	return func(b *materialBuilder) {
		b.diffuse = params
	}
}

// WithNormal sets the normal map image.
func WithNormal(img common.ImageData) MaterialBuilderOption {
	return func(b *materialBuilder) {
		b.normalImage = &img
	}
}

// WithNormalParams replaces the default normal map bindings and kind.
func WithNormalParams(params TextureParams) MaterialBuilderOption {
	return func(b *materialBuilder) {
		b.normal = params
	}
}
