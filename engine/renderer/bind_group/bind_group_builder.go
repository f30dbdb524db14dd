package bind_group

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupBuilder collects the parameters of a bind group.
type bindGroupBuilder struct {
	id      common.ResourceID
	label   string
	binding *uint32
	layout  *wgpu.BindGroupLayout
	entries []wgpu.BindGroupEntry
}

// BindGroupBuilderOption is a functional option used to configure a BindGroup during construction.
type BindGroupBuilderOption func(*bindGroupBuilder)

// WithID sets the arena id of the bind group.
//
// Parameters:
//   - id: the id
//
// Returns:
//   - BindGroupBuilderOption: a function that sets the id
func WithID(id common.ResourceID) BindGroupBuilderOption {
	return func(b *bindGroupBuilder) {
		b.id = id
	}
}

// WithLabel sets the debug label of the bind group.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - BindGroupBuilderOption: a function that sets the label
func WithLabel(label string) BindGroupBuilderOption {
	return func(b *bindGroupBuilder) {
		b.label = label
	}
}

// WithBinding sets the group index the bind group is set at.
//
// Parameters:
//   - binding: the group index
//
// Returns:
//   - BindGroupBuilderOption: a function that sets the group index
func WithBinding(binding uint32) BindGroupBuilderOption {
	return func(b *bindGroupBuilder) {
		b.binding = &binding
	}
}

// WithLayout sets the layout the bind group must satisfy.
//
// Parameters:
//   - layout: the GPU bind group layout
//
// Returns:
//   - BindGroupBuilderOption: a function that sets the layout
func WithLayout(layout *wgpu.BindGroupLayout) BindGroupBuilderOption {
	return func(b *bindGroupBuilder) {
		b.layout = layout
	}
}

// WithBufferEntry binds a whole buffer at its binding slot.
//
// Parameters:
//   - buf: the buffer
//
// Returns:
//   - BindGroupBuilderOption: a function that appends the entry
func WithBufferEntry(buf buffer.Buffer) BindGroupBuilderOption {
	return func(b *bindGroupBuilder) {
		b.entries = append(b.entries, BufferEntry(buf))
	}
}

// WithBufferEntries binds several whole buffers at their binding slots.
func WithBufferEntries(bufs ...buffer.Buffer) BindGroupBuilderOption {
	return func(b *bindGroupBuilder) {
		for _, buf := range bufs {
			b.entries = append(b.entries, BufferEntry(buf))
		}
	}
}

// WithSamplerEntry binds a sampler.
//
// Parameters:
//   - binding: the binding slot
//   - sampler: the sampler
//
// Returns:
//   - BindGroupBuilderOption: a function that appends the entry
func WithSamplerEntry(binding uint32, sampler *wgpu.Sampler) BindGroupBuilderOption {
	return func(b *bindGroupBuilder) {
		b.entries = append(b.entries, wgpu.BindGroupEntry{Binding: binding, Sampler: sampler})
	}
}

// WithViewEntry binds a texture view.
//
// Parameters:
//   - binding: the binding slot
//   - view: the texture view
//
// Returns:
//   - BindGroupBuilderOption: a function that appends the entry
func WithViewEntry(binding uint32, view *wgpu.TextureView) BindGroupBuilderOption {
	return func(b *bindGroupBuilder) {
		b.entries = append(b.entries, wgpu.BindGroupEntry{Binding: binding, TextureView: view})
	}
}

// WithEntries appends raw bind group entries.
func WithEntries(entries ...wgpu.BindGroupEntry) BindGroupBuilderOption {
	return func(b *bindGroupBuilder) {
		b.entries = append(b.entries, entries...)
	}
}
