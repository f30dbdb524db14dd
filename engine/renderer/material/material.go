// Package material builds materials: a diffuse texture, an optional normal map and the bind group that samples them
// through a layout shared by every material of a model.
package material

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// material is the implementation of the Material interface.
type material struct {
	id        common.ResourceID
	label     string
	diffuse   texture.RenderTexture
	normal    texture.RenderTexture
	bindGroup bind_group.BindGroup
}

// Material defines the interface for a surface material, pairing its textures with the bind group a render stage
// binds before drawing the meshes that reference it.
//
// The textures are created empty on the device; their pixels stay on the host until StoreTexturesToMemory uploads them.
type Material interface {
	// ID retrieves the id of the material inside its model.
	//
	// Returns:
	//   - common.ResourceID: the id
	ID() common.ResourceID

	// SetID re-keys the material.
	//
	// Parameters:
	//   - id: the new id
	SetID(id common.ResourceID)

	// Label retrieves the name of the material.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Diffuse retrieves the diffuse texture.
	//
	// Returns:
	//   - texture.RenderTexture: the diffuse texture
	Diffuse() texture.RenderTexture

	// Normal retrieves the normal map, or nil when the material has none.
	//
	// Returns:
	//   - texture.RenderTexture: the normal map, or nil
	Normal() texture.RenderTexture

	// BindGroup retrieves the bind group holding the views and samplers of every texture.
	//
	// Returns:
	//   - bind_group.BindGroup: the bind group
	BindGroup() bind_group.BindGroup

	// StoreTexturesToMemory uploads the pending pixels of every texture to the device.
	//
	// Parameters:
	//   - device: the device whose queue receives the writes
	//
	// Returns:
	//   - error: the first upload error
	StoreTexturesToMemory(device gpu.Device) error

	// Release releases the bind group and every texture. The shared layout is left to its owner.
	Release()
}

var _ Material = &material{}

// NewMaterial creates a material from its texture images. The layout and the diffuse image are required; the normal
// image is optional and its entries are only added to the bind group when it is set. Without explicit bindings the
// diffuse view and sampler sit at bindings 0 and 1 and the normal view and sampler at bindings 2 and 3.
//
// Parameters:
//   - device: the device used to create the textures and the bind group
//   - options: builder options configuring the material
//
// Returns:
//   - Material: the created material
//   - error: a MissingFieldError when the layout or diffuse image is unset, or the first build error
func NewMaterial(device gpu.Device, options ...MaterialBuilderOption) (Material, error) {
	b := &materialBuilder{
		diffuse: TextureParams{ViewBinding: 0, SamplerBinding: 1, Kind: texture.KindRender},
		normal:  TextureParams{ViewBinding: 2, SamplerBinding: 3, Kind: texture.KindNormalMap},
	}
	for _, opt := range options {
		opt(b)
	}

	if b.layout == nil {
		return nil, errs.Missing(errs.KindMaterial, errs.FieldLayout)
	}
	if b.diffuseImage == nil {
		return nil, errs.Missing(errs.KindMaterial, errs.FieldDiffuseTexture)
	}

	label := common.DefaultLabel(b.label, string(errs.KindMaterial), b.id)
	log.WithFields(log.Fields{
		"label":   label,
		"binding": b.binding,
		"diffuse": b.diffuse,
		"normal":  b.normalImage != nil,
	}).Debug("build material")

	m := &material{
		id:    b.id,
		label: label,
	}

	diffuse, err := newTexture(device, "Diffuse texture: "+label, *b.diffuseImage, b.diffuse.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to create material %q: %w", label, err)
	}
	m.diffuse = diffuse

	groupOptions := []bind_group.BindGroupBuilderOption{
		bind_group.WithLabel("Bind group of: " + label),
		bind_group.WithBinding(b.binding),
		bind_group.WithLayout(b.layout.Handle()),
		bind_group.WithViewEntry(b.diffuse.ViewBinding, diffuse.View()),
		bind_group.WithSamplerEntry(b.diffuse.SamplerBinding, diffuse.Sampler()),
	}

	if b.normalImage != nil {
		normal, err := newTexture(device, "Normal texture: "+label, *b.normalImage, b.normal.Kind)
		if err != nil {
			m.Release()
			return nil, fmt.Errorf("failed to create material %q: %w", label, err)
		}
		m.normal = normal
		groupOptions = append(groupOptions,
			bind_group.WithViewEntry(b.normal.ViewBinding, normal.View()),
			bind_group.WithSamplerEntry(b.normal.SamplerBinding, normal.Sampler()),
		)
	}

	m.bindGroup, err = bind_group.NewBindGroup(device, groupOptions...)
	if err != nil {
		m.Release()
		return nil, fmt.Errorf("failed to create material %q: %w", label, err)
	}

	return m, nil
}

func newTexture(device gpu.Device, label string, img common.ImageData, kind texture.Kind) (texture.RenderTexture, error) {
	return texture.NewRenderTexture(device,
		texture.WithLabel(label),
		texture.WithKind(kind),
		texture.WithImage(img),
		texture.WithUsage(wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst),
	)
}

func (m *material) ID() common.ResourceID {
	return m.id
}

func (m *material) SetID(id common.ResourceID) {
	m.id = id
}

func (m *material) Label() string {
	return m.label
}

func (m *material) Diffuse() texture.RenderTexture {
	return m.diffuse
}

func (m *material) Normal() texture.RenderTexture {
	return m.normal
}

func (m *material) BindGroup() bind_group.BindGroup {
	return m.bindGroup
}

func (m *material) StoreTexturesToMemory(device gpu.Device) error {
	if err := m.diffuse.StoreToMemory(device); err != nil {
		return err
	}
	if m.normal != nil {
		return m.normal.StoreToMemory(device)
	}
	return nil
}

func (m *material) Release() {
	if m.bindGroup != nil {
		m.bindGroup.Release()
		m.bindGroup = nil
	}
	if m.diffuse != nil {
		m.diffuse.Release()
		m.diffuse = nil
	}
	if m.normal != nil {
		m.normal.Release()
		m.normal = nil
	}
}
