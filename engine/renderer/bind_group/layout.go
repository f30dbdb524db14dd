package bind_group

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// layout is the implementation of the Layout interface.
type layout struct {
	id      common.ResourceID
	label   string
	entries []wgpu.BindGroupLayoutEntry
	handle  *wgpu.BindGroupLayout
}

// Layout is an immutable bind group layout: the ordered binding slot descriptors a BindGroup must satisfy.
type Layout interface {
	// ID returns the arena id of this layout.
	ID() common.ResourceID

	// SetID re-keys the layout.
	SetID(id common.ResourceID)

	// Label returns the debug label of this layout.
	Label() string

	// Entries returns the layout entries in binding order as given to the builder.
	//
	// Returns:
	//   - []wgpu.BindGroupLayoutEntry: the entries
	Entries() []wgpu.BindGroupLayoutEntry

	// Handle returns the GPU bind group layout.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the GPU layout
	Handle() *wgpu.BindGroupLayout

	// Release releases the GPU layout.
	Release()
}

var _ Layout = &layout{}

// layoutBuilder collects the parameters of a bind group layout.
type layoutBuilder struct {
	id      common.ResourceID
	label   string
	entries []wgpu.BindGroupLayoutEntry
}

// LayoutBuilderOption is a functional option used to configure a Layout during construction.
type LayoutBuilderOption func(*layoutBuilder)

// NewLayout creates a bind group layout. At least one entry is required.
//
// Parameters:
//   - device: the device used to create the layout
//   - options: builder options configuring the layout
//
// Returns:
//   - Layout: the created layout
//   - error: a MissingFieldError when no entries are set, or the device error
func NewLayout(device gpu.Device, options ...LayoutBuilderOption) (Layout, error) {
	b := &layoutBuilder{}
	for _, opt := range options {
		opt(b)
	}

	if len(b.entries) == 0 {
		return nil, errs.Missing(errs.KindBindGroupLayout, errs.FieldEntries)
	}

	label := common.DefaultLabel(b.label, string(errs.KindBindGroupLayout), b.id)
	log.WithFields(log.Fields{
		"label":   label,
		"entries": len(b.entries),
	}).Debug("build bind group layout")

	handle, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: b.entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout %q: %w", label, err)
	}

	return &layout{id: b.id, label: label, entries: b.entries, handle: handle}, nil
}

// WithLayoutID sets the arena id of the layout.
func WithLayoutID(id common.ResourceID) LayoutBuilderOption {
	return func(b *layoutBuilder) {
		b.id = id
	}
}

// WithLayoutLabel sets the debug label of the layout.
func WithLayoutLabel(label string) LayoutBuilderOption {
	return func(b *layoutBuilder) {
		b.label = label
	}
}

// WithLayoutEntries appends entries to the layout.
//
// Parameters:
//   - entries: layout entries, usually built with NewLayoutEntry
//
// Returns:
//   - LayoutBuilderOption: a function that appends the entries
func WithLayoutEntries(entries ...wgpu.BindGroupLayoutEntry) LayoutBuilderOption {
	return func(b *layoutBuilder) {
		b.entries = append(b.entries, entries...)
	}
}

func (l *layout) ID() common.ResourceID {
	return l.id
}

func (l *layout) SetID(id common.ResourceID) {
	l.id = id
}

func (l *layout) Label() string {
	return l.label
}

func (l *layout) Entries() []wgpu.BindGroupLayoutEntry {
	return l.entries
}

func (l *layout) Handle() *wgpu.BindGroupLayout {
	return l.handle
}

func (l *layout) Release() {
	if l.handle != nil {
		l.handle.Release()
		l.handle = nil
	}
}
