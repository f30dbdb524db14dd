package bind_group

import (
	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindingType identifies which binding layout a layout entry was given.
type bindingType int

const (
	bindingTypeNone bindingType = iota
	bindingTypeBuffer
	bindingTypeTexture
	bindingTypeSampler
	bindingTypeStorageTexture
)

// layoutEntryBuilder collects the parameters of a single bind group layout entry.
type layoutEntryBuilder struct {
	id         common.ResourceID
	binding    *uint32
	visibility wgpu.ShaderStage
	kind       bindingType

	buffer         wgpu.BufferBindingLayout
	texture        wgpu.TextureBindingLayout
	sampler        wgpu.SamplerBindingLayout
	storageTexture wgpu.StorageTextureBindingLayout
}

// LayoutEntryBuilderOption is a functional option used to configure a bind group layout entry.
type LayoutEntryBuilderOption func(*layoutEntryBuilder)

// NewLayoutEntry builds a bind group layout entry. The binding and exactly one binding type are required;
// visibility defaults to the vertex and fragment stages.
//
// Parameters:
//   - options: builder options configuring the entry
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the entry
//   - error: a MissingFieldError naming the binding or bind type when unset
func NewLayoutEntry(options ...LayoutEntryBuilderOption) (wgpu.BindGroupLayoutEntry, error) {
	b := &layoutEntryBuilder{
		visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	for _, opt := range options {
		opt(b)
	}

	if b.binding == nil {
		return wgpu.BindGroupLayoutEntry{}, errs.Missing(errs.KindBindLayoutEntry, errs.FieldBinding)
	}
	if b.kind == bindingTypeNone {
		return wgpu.BindGroupLayoutEntry{}, errs.Missing(errs.KindBindLayoutEntry, errs.FieldBindType)
	}

	entry := wgpu.BindGroupLayoutEntry{
		Binding:    *b.binding,
		Visibility: b.visibility,
	}
	switch b.kind {
	case bindingTypeBuffer:
		entry.Buffer = b.buffer
	case bindingTypeTexture:
		entry.Texture = b.texture
	case bindingTypeSampler:
		entry.Sampler = b.sampler
	case bindingTypeStorageTexture:
		entry.StorageTexture = b.storageTexture
	}

	log.WithFields(log.Fields{
		"label":      common.DefaultLabel("", "Bind layout entry", b.id),
		"binding":    entry.Binding,
		"visibility": entry.Visibility,
		"type":       b.kind,
	}).Debug("build bind group layout entry")

	return entry, nil
}

// LayoutEntries builds several layout entries, stopping at the first error.
//
// Parameters:
//   - entries: option lists, one per entry
//
// Returns:
//   - []wgpu.BindGroupLayoutEntry: the entries in order
//   - error: the first build error
func LayoutEntries(entries ...[]LayoutEntryBuilderOption) ([]wgpu.BindGroupLayoutEntry, error) {
	out := make([]wgpu.BindGroupLayoutEntry, 0, len(entries))
	for _, opts := range entries {
		e, err := NewLayoutEntry(opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// WithEntryID sets the diagnostic id of the entry.
func WithEntryID(id common.ResourceID) LayoutEntryBuilderOption {
	return func(b *layoutEntryBuilder) {
		b.id = id
	}
}

// WithEntryBinding sets the binding index of the entry.
//
// Parameters:
//   - binding: the binding index inside the bind group
//
// Returns:
//   - LayoutEntryBuilderOption: a function that sets the binding
func WithEntryBinding(binding uint32) LayoutEntryBuilderOption {
	return func(b *layoutEntryBuilder) {
		b.binding = &binding
	}
}

// WithVisibility sets the shader stages that can access the binding.
//
// Parameters:
//   - visibility: the shader stage flags
//
// Returns:
//   - LayoutEntryBuilderOption: a function that sets the visibility
func WithVisibility(visibility wgpu.ShaderStage) LayoutEntryBuilderOption {
	return func(b *layoutEntryBuilder) {
		b.visibility = visibility
	}
}

// WithBufferBinding makes the entry a buffer binding.
//
// Parameters:
//   - layout: the buffer binding layout
//
// Returns:
//   - LayoutEntryBuilderOption: a function that sets the binding type
func WithBufferBinding(layout wgpu.BufferBindingLayout) LayoutEntryBuilderOption {
	return func(b *layoutEntryBuilder) {
		b.kind = bindingTypeBuffer
		b.buffer = layout
	}
}

// WithTextureBinding makes the entry a sampled texture binding.
//
// Parameters:
//   - layout: the texture binding layout
//
// Returns:
//   - LayoutEntryBuilderOption: a function that sets the binding type
func WithTextureBinding(layout wgpu.TextureBindingLayout) LayoutEntryBuilderOption {
	return func(b *layoutEntryBuilder) {
		b.kind = bindingTypeTexture
		b.texture = layout
	}
}

// WithSamplerBinding makes the entry a sampler binding.
//
// Parameters:
//   - layout: the sampler binding layout
//
// Returns:
//   - LayoutEntryBuilderOption: a function that sets the binding type
func WithSamplerBinding(layout wgpu.SamplerBindingLayout) LayoutEntryBuilderOption {
	return func(b *layoutEntryBuilder) {
		b.kind = bindingTypeSampler
		b.sampler = layout
	}
}

// WithStorageTextureBinding makes the entry a storage texture binding.
//
// Parameters:
//   - layout: the storage texture binding layout
//
// Returns:
//   - LayoutEntryBuilderOption: a function that sets the binding type
func WithStorageTextureBinding(layout wgpu.StorageTextureBindingLayout) LayoutEntryBuilderOption {
	return func(b *layoutEntryBuilder) {
		b.kind = bindingTypeStorageTexture
		b.storageTexture = layout
	}
}
