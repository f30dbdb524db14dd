// Package storage builds storage groups: a bind group of storage buffers and write-only storage textures, each
// addressed by name. Compute stages write into them and the session reads them back.
package storage

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// BufferEntry describes one storage buffer of a group.
type BufferEntry struct {
	Name       string
	Binding    uint32
	Visibility wgpu.ShaderStage
	// ReadOnly binds the buffer as read-only storage.
	ReadOnly bool
	// Data is the initial content and fixes the capacity of the buffer.
	Data []byte
}

// NewBufferEntry describes a read-write storage buffer initialized with typed values.
func NewBufferEntry[T any](name string, binding uint32, visibility wgpu.ShaderStage, values []T) BufferEntry {
	data := common.SliceToBytes(values)
	return BufferEntry{Name: name, Binding: binding, Visibility: visibility, Data: append([]byte(nil), data...)}
}

// TextureEntry describes one storage texture of a group.
type TextureEntry struct {
	Name       string
	Binding    uint32
	Visibility wgpu.ShaderStage
	Size       common.Size
	// Format must be a storage capable format. Defaults to RGBA8Unorm.
	Format wgpu.TextureFormat
	// Access defaults to write-only.
	Access wgpu.StorageTextureAccess
}

type group struct {
	id        common.ResourceID
	label     string
	layout    bind_group.Layout
	bindGroup bind_group.BindGroup
	buffers   map[string]buffer.Buffer
	textures  map[string]texture.RenderTexture
}

// Group is a bind group of storage buffers and storage textures together with its layout.
type Group interface {
	// ID returns the arena id of this group.
	//
	// Returns:
	//   - common.ResourceID: the id
	ID() common.ResourceID

	// SetID re-keys the group.
	//
	// Parameters:
	//   - id: the new id
	SetID(id common.ResourceID)

	// Label returns the name of the group.
	//
	// Returns:
	//   - string: the label
	Label() string

	// BindGroup returns the bind group holding every buffer and texture.
	//
	// Returns:
	//   - bind_group.BindGroup: the bind group
	BindGroup() bind_group.BindGroup

	// Layout returns the layout of the bind group.
	//
	// Returns:
	//   - bind_group.Layout: the layout
	Layout() bind_group.Layout

	// Buffer returns the storage buffer registered under name.
	//
	// Parameters:
	//   - name: the entry name
	//
	// Returns:
	//   - buffer.Buffer: the buffer
	//   - error: a NotFoundError when no buffer entry has that name
	Buffer(name string) (buffer.Buffer, error)

	// Texture returns the storage texture registered under name.
	//
	// Parameters:
	//   - name: the entry name
	//
	// Returns:
	//   - texture.RenderTexture: the texture
	//   - error: a NotFoundError when no texture entry has that name
	Texture(name string) (texture.RenderTexture, error)

	// Release releases every buffer and texture, the bind group and the layout.
	Release()
}

var _ Group = &group{}

type groupBuilder struct {
	id       common.ResourceID
	label    string
	binding  uint32
	buffers  []BufferEntry
	textures []TextureEntry
}

// GroupBuilderOption is a functional option used to configure a storage Group during construction.
type GroupBuilderOption func(*groupBuilder)

// NewGroup creates a storage group. At least one buffer or texture entry is required; names must be unique across
// both. Buffers are created with STORAGE | COPY_DST | COPY_SRC usage, so reads go through a staging buffer.
// Textures are created with STORAGE_BINDING | COPY_SRC usage and no sampler.
//
// Parameters:
//   - device: the device used to create the group
//   - options: builder options configuring the group
//
// Returns:
//   - Group: the created group
//   - error: a MissingFieldError when there are no entries, a DuplicateError for a repeated name, or the first build error
func NewGroup(device gpu.Device, options ...GroupBuilderOption) (Group, error) {
	b := &groupBuilder{}
	for _, opt := range options {
		opt(b)
	}

	if len(b.buffers) == 0 && len(b.textures) == 0 {
		return nil, errs.Missing(errs.KindStorage, errs.FieldEntries)
	}
	seen := make(map[string]struct{}, len(b.buffers)+len(b.textures))
	for _, name := range b.names() {
		if _, ok := seen[name]; ok {
			return nil, &errs.DuplicateError{Kind: errs.KindStorage, Name: name}
		}
		seen[name] = struct{}{}
	}

	label := common.DefaultLabel(b.label, string(errs.KindStorage), b.id)
	log.WithFields(log.Fields{
		"label":    label,
		"binding":  b.binding,
		"buffers":  len(b.buffers),
		"textures": len(b.textures),
	}).Debug("build storage group")

	g := &group{
		id:       b.id,
		label:    label,
		buffers:  make(map[string]buffer.Buffer, len(b.buffers)),
		textures: make(map[string]texture.RenderTexture, len(b.textures)),
	}

	var layoutEntries []wgpu.BindGroupLayoutEntry
	var groupEntries []wgpu.BindGroupEntry

	for _, entry := range b.buffers {
		bindingType := wgpu.BufferBindingTypeStorage
		if entry.ReadOnly {
			bindingType = wgpu.BufferBindingTypeReadOnlyStorage
		}
		layoutEntry, err := bind_group.NewLayoutEntry(withVisibility(entry.Visibility,
			bind_group.WithEntryBinding(entry.Binding),
			bind_group.WithBufferBinding(wgpu.BufferBindingLayout{Type: bindingType}),
		)...)
		if err != nil {
			g.Release()
			return nil, err
		}

		buf, err := buffer.NewBuffer(device,
			buffer.WithLabel(entry.Name),
			buffer.WithBinding(entry.Binding),
			buffer.WithData(entry.Data),
			buffer.WithUsage(wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc),
		)
		if err != nil {
			g.Release()
			return nil, fmt.Errorf("failed to create storage buffer %q of %q: %w", entry.Name, label, err)
		}
		g.buffers[entry.Name] = buf
		layoutEntries = append(layoutEntries, layoutEntry)
		groupEntries = append(groupEntries, bind_group.BufferEntry(buf))
	}

	for _, entry := range b.textures {
		format := common.Coalesce(entry.Format, wgpu.TextureFormatRGBA8Unorm)
		access := common.Coalesce(entry.Access, wgpu.StorageTextureAccessWriteOnly)
		layoutEntry, err := bind_group.NewLayoutEntry(withVisibility(entry.Visibility,
			bind_group.WithEntryBinding(entry.Binding),
			bind_group.WithStorageTextureBinding(wgpu.StorageTextureBindingLayout{
				Access:        access,
				Format:        format,
				ViewDimension: wgpu.TextureViewDimension2D,
			}),
		)...)
		if err != nil {
			g.Release()
			return nil, err
		}

		tex, err := texture.NewRenderTexture(device,
			texture.WithLabel(entry.Name),
			texture.WithKind(texture.KindNormalMap),
			texture.WithFormat(format),
			texture.WithSize(entry.Size),
			texture.WithUsage(wgpu.TextureUsageStorageBinding|wgpu.TextureUsageCopySrc),
			texture.WithoutSampler(),
		)
		if err != nil {
			g.Release()
			return nil, fmt.Errorf("failed to create storage texture %q of %q: %w", entry.Name, label, err)
		}
		g.textures[entry.Name] = tex
		layoutEntries = append(layoutEntries, layoutEntry)
		groupEntries = append(groupEntries, wgpu.BindGroupEntry{Binding: entry.Binding, TextureView: tex.View()})
	}

	layout, err := bind_group.NewLayout(device,
		bind_group.WithLayoutLabel(fmt.Sprintf("Bind group layout of `%s`", label)),
		bind_group.WithLayoutEntries(layoutEntries...),
	)
	if err != nil {
		g.Release()
		return nil, err
	}
	g.layout = layout

	bindGroup, err := bind_group.NewBindGroup(device,
		bind_group.WithLabel(fmt.Sprintf("Bind group of `%s`", label)),
		bind_group.WithBinding(b.binding),
		bind_group.WithLayout(layout.Handle()),
		bind_group.WithEntries(groupEntries...),
	)
	if err != nil {
		g.Release()
		return nil, err
	}
	g.bindGroup = bindGroup

	return g, nil
}

func withVisibility(visibility wgpu.ShaderStage, opts ...bind_group.LayoutEntryBuilderOption) []bind_group.LayoutEntryBuilderOption {
	if visibility != wgpu.ShaderStageNone {
		opts = append(opts, bind_group.WithVisibility(visibility))
	}
	return opts
}

func (b *groupBuilder) names() []string {
	names := make([]string, 0, len(b.buffers)+len(b.textures))
	for _, e := range b.buffers {
		names = append(names, e.Name)
	}
	for _, e := range b.textures {
		names = append(names, e.Name)
	}
	return names
}

// WithID sets the arena id of the group.
func WithID(id common.ResourceID) GroupBuilderOption {
	return func(b *groupBuilder) {
		b.id = id
	}
}

// WithLabel sets the name of the group.
func WithLabel(label string) GroupBuilderOption {
	return func(b *groupBuilder) {
		b.label = label
	}
}

// WithBinding sets the group index the bind group is bound at.
func WithBinding(binding uint32) GroupBuilderOption {
	return func(b *groupBuilder) {
		b.binding = binding
	}
}

// WithBuffers appends storage buffer entries.
func WithBuffers(entries ...BufferEntry) GroupBuilderOption {
	return func(b *groupBuilder) {
		b.buffers = append(b.buffers, entries...)
	}
}

// WithTextures appends storage texture entries.
func WithTextures(entries ...TextureEntry) GroupBuilderOption {
	return func(b *groupBuilder) {
		b.textures = append(b.textures, entries...)
	}
}

func (g *group) ID() common.ResourceID {
	return g.id
}

func (g *group) SetID(id common.ResourceID) {
	g.id = id
}

func (g *group) Label() string {
	return g.label
}

func (g *group) BindGroup() bind_group.BindGroup {
	return g.bindGroup
}

func (g *group) Layout() bind_group.Layout {
	return g.layout
}

func (g *group) Buffer(name string) (buffer.Buffer, error) {
	buf, ok := g.buffers[name]
	if !ok {
		return nil, errs.NotFoundName(errs.KindStorage, name)
	}
	return buf, nil
}

func (g *group) Texture(name string) (texture.RenderTexture, error) {
	tex, ok := g.textures[name]
	if !ok {
		return nil, errs.NotFoundName(errs.KindRenderTexture, name)
	}
	return tex, nil
}

func (g *group) Release() {
	if g.bindGroup != nil {
		g.bindGroup.Release()
		g.bindGroup = nil
	}
	if g.layout != nil {
		g.layout.Release()
		g.layout = nil
	}
	for _, buf := range g.buffers {
		buf.Release()
	}
	for _, tex := range g.textures {
		tex.Release()
	}
	g.buffers = map[string]buffer.Buffer{}
	g.textures = map[string]texture.RenderTexture{}
}
