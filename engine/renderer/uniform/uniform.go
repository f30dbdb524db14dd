// Package uniform builds uniform groups: a bind group of uniform buffers, each addressed by name.
package uniform

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// Entry describes one uniform buffer of a group.
type Entry struct {
	// Name addresses the buffer inside the group.
	Name string
	// Binding is the binding slot inside the bind group.
	Binding uint32
	// Visibility is the set of shader stages that see the buffer. Zero means vertex and fragment.
	Visibility wgpu.ShaderStage
	// Data is the initial content and fixes the capacity of the buffer.
	Data []byte
}

// NewEntry describes a uniform buffer initialized with typed values.
//
// Parameters:
//   - name: the name of the buffer inside the group
//   - binding: the binding slot
//   - visibility: the shader stages that see the buffer
//   - values: the initial values
//
// Returns:
//   - Entry: the entry
func NewEntry[T any](name string, binding uint32, visibility wgpu.ShaderStage, values []T) Entry {
	data := common.SliceToBytes(values)
	return Entry{Name: name, Binding: binding, Visibility: visibility, Data: append([]byte(nil), data...)}
}

type group struct {
	id        common.ResourceID
	label     string
	layout    bind_group.Layout
	bindGroup bind_group.BindGroup
	names     []string
	buffers   map[string]buffer.Buffer
}

// Group is a bind group of uniform buffers together with its layout. Buffers are looked up by name.
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

	// BindGroup returns the bind group holding every buffer.
	//
	// Returns:
	//   - bind_group.BindGroup: the bind group
	BindGroup() bind_group.BindGroup

	// Layout returns the layout of the bind group.
	//
	// Returns:
	//   - bind_group.Layout: the layout
	Layout() bind_group.Layout

	// Buffer returns the buffer registered under name.
	//
	// Parameters:
	//   - name: the entry name
	//
	// Returns:
	//   - buffer.Buffer: the buffer
	//   - error: a NotFoundError when no entry has that name
	Buffer(name string) (buffer.Buffer, error)

	// Names returns the entry names in declaration order.
	//
	// Returns:
	//   - []string: the names
	Names() []string

	// Release releases every buffer, the bind group and the layout.
	Release()
}

var _ Group = &group{}

type groupBuilder struct {
	id      common.ResourceID
	label   string
	binding uint32
	entries []Entry
}

// GroupBuilderOption is a functional option used to configure a uniform Group during construction.
type GroupBuilderOption func(*groupBuilder)

// NewGroup creates a uniform group. At least one entry is required. Each entry becomes a UNIFORM | COPY_DST | COPY_SRC buffer
// bound at its binding slot; the group itself is bound at the group index set with WithBinding, 0 by default.
//
// Parameters:
//   - device: the device used to create the buffers and bind group
//   - options: builder options configuring the group
//
// Returns:
//   - Group: the created group
//   - error: a MissingFieldError when there are no entries, or the first build error
func NewGroup(device gpu.Device, options ...GroupBuilderOption) (Group, error) {
	b := &groupBuilder{}
	for _, opt := range options {
		opt(b)
	}

	if len(b.entries) == 0 {
		return nil, errs.Missing(errs.KindUniform, errs.FieldEntries)
	}
	seen := make(map[string]struct{}, len(b.entries))
	for _, entry := range b.entries {
		if _, ok := seen[entry.Name]; ok {
			return nil, &errs.DuplicateError{Kind: errs.KindUniform, Name: entry.Name}
		}
		seen[entry.Name] = struct{}{}
	}

	label := common.DefaultLabel(b.label, string(errs.KindUniform), b.id)
	log.WithFields(log.Fields{
		"label":   label,
		"binding": b.binding,
		"entries": len(b.entries),
	}).Debug("build uniform group")

	g := &group{
		id:      b.id,
		label:   label,
		buffers: make(map[string]buffer.Buffer, len(b.entries)),
	}

	layoutEntries := make([]wgpu.BindGroupLayoutEntry, 0, len(b.entries))
	bufs := make([]buffer.Buffer, 0, len(b.entries))
	for _, entry := range b.entries {
		layoutEntry, err := bind_group.NewLayoutEntry(layoutEntryOptions(entry)...)
		if err != nil {
			g.Release()
			return nil, err
		}
		layoutEntries = append(layoutEntries, layoutEntry)

		buf, err := buffer.NewBuffer(device,
			buffer.WithLabel(entry.Name),
			buffer.WithBinding(entry.Binding),
			buffer.WithData(entry.Data),
			buffer.WithUsage(wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc),
		)
		if err != nil {
			g.Release()
			return nil, fmt.Errorf("failed to create uniform %q of %q: %w", entry.Name, label, err)
		}
		g.buffers[entry.Name] = buf
		g.names = append(g.names, entry.Name)
		bufs = append(bufs, buf)
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
		bind_group.WithBufferEntries(bufs...),
	)
	if err != nil {
		g.Release()
		return nil, err
	}
	g.bindGroup = bindGroup

	return g, nil
}

func layoutEntryOptions(entry Entry) []bind_group.LayoutEntryBuilderOption {
	opts := []bind_group.LayoutEntryBuilderOption{
		bind_group.WithEntryBinding(entry.Binding),
		bind_group.WithBufferBinding(wgpu.BufferBindingLayout{
			Type:             wgpu.BufferBindingTypeUniform,
			HasDynamicOffset: false,
		}),
	}
	if entry.Visibility != wgpu.ShaderStageNone {
		opts = append(opts, bind_group.WithVisibility(entry.Visibility))
	}
	return opts
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

// WithEntries appends uniform buffer entries.
//
// Parameters:
//   - entries: the entries, names must be unique within the group
//
// Returns:
//   - GroupBuilderOption: a function that appends the entries
func WithEntries(entries ...Entry) GroupBuilderOption {
	return func(b *groupBuilder) {
		b.entries = append(b.entries, entries...)
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
		return nil, errs.NotFoundName(errs.KindUniform, name)
	}
	return buf, nil
}

func (g *group) Names() []string {
	return g.names
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
	g.buffers = map[string]buffer.Buffer{}
}
