// Package bind_group builds bind group layouts, their entries, and the bind groups that satisfy them.
package bind_group

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroup is the implementation of the BindGroup interface.
type bindGroup struct {
	// id is the arena id of this bind group.
	id common.ResourceID
	// label is a debug label, synthesized from the id when not set.
	label string
	// binding is the group index the bind group is set at during a pass.
	binding uint32
	// entries are the concrete resources bound by this group.
	entries []wgpu.BindGroupEntry

	// handle is the GPU bind group and must be released when no longer needed.
	handle *wgpu.BindGroup
}

// BindGroup is an immutable set of concrete resources bound under one group index.
type BindGroup interface {
	// ID returns the arena id of this bind group.
	//
	// Returns:
	//   - common.ResourceID: the id
	ID() common.ResourceID

	// SetID re-keys the bind group.
	//
	// Parameters:
	//   - id: the new id
	SetID(id common.ResourceID)

	// Label returns the debug label of this bind group.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Binding returns the group index this bind group is set at.
	//
	// Returns:
	//   - uint32: the group index
	Binding() uint32

	// Entries returns the bound resources.
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: the entries
	Entries() []wgpu.BindGroupEntry

	// Handle returns the GPU bind group.
	//
	// Returns:
	//   - *wgpu.BindGroup: the GPU bind group
	Handle() *wgpu.BindGroup

	// Release releases the GPU bind group. Bound resources are not released.
	Release()
}

var _ BindGroup = &bindGroup{}

// NewBindGroup creates a bind group. The group binding, the layout and at least one entry are required.
//
// Parameters:
//   - device: the device used to create the bind group
//   - options: builder options configuring the bind group
//
// Returns:
//   - BindGroup: the created bind group
//   - error: a MissingFieldError naming the first unset required field, or the device error
func NewBindGroup(device gpu.Device, options ...BindGroupBuilderOption) (BindGroup, error) {
	b := &bindGroupBuilder{}
	for _, opt := range options {
		opt(b)
	}

	if b.binding == nil {
		return nil, errs.Missing(errs.KindBindGroup, errs.FieldBinding)
	}
	if b.layout == nil {
		return nil, errs.Missing(errs.KindBindGroup, errs.FieldLayout)
	}
	if len(b.entries) == 0 {
		return nil, errs.Missing(errs.KindBindGroup, errs.FieldEntries)
	}

	label := common.DefaultLabel(b.label, string(errs.KindBindGroup), b.id)
	log.WithFields(log.Fields{
		"label":   label,
		"binding": *b.binding,
		"entries": len(b.entries),
	}).Debug("build bind group")

	handle, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  b.layout,
		Entries: b.entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group %q: %w", label, err)
	}

	return &bindGroup{
		id:      b.id,
		label:   label,
		binding: *b.binding,
		entries: b.entries,
		handle:  handle,
	}, nil
}

// BufferEntry describes a whole-buffer binding at the buffer's own binding slot.
//
// Parameters:
//   - buf: the buffer to bind
//
// Returns:
//   - wgpu.BindGroupEntry: the entry
func BufferEntry(buf buffer.Buffer) wgpu.BindGroupEntry {
	return wgpu.BindGroupEntry{
		Binding: buf.Binding(),
		Buffer:  buf.Handle(),
		Offset:  0,
		Size:    wgpu.WholeSize,
	}
}

func (g *bindGroup) ID() common.ResourceID {
	return g.id
}

func (g *bindGroup) SetID(id common.ResourceID) {
	g.id = id
}

func (g *bindGroup) Label() string {
	return g.label
}

func (g *bindGroup) Binding() uint32 {
	return g.binding
}

func (g *bindGroup) Entries() []wgpu.BindGroupEntry {
	return g.entries
}

func (g *bindGroup) Handle() *wgpu.BindGroup {
	return g.handle
}

func (g *bindGroup) Release() {
	if g.handle != nil {
		g.handle.Release()
		g.handle = nil
	}
}
