package pipeline

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group"
	"github.com/cogentcore/webgpu/wgpu"
)

type layout struct {
	id               common.ResourceID
	label            string
	bindGroupLayouts []bind_group.Layout
	handle           *wgpu.PipelineLayout
}

// Layout is a pipeline layout: the bind group layouts a pipeline's shaders see, in group index order.
type Layout interface {
	ID() common.ResourceID
	SetID(id common.ResourceID)
	Label() string

	// BindGroupLayouts returns the bind group layouts in group index order.
	BindGroupLayouts() []bind_group.Layout

	// Handle returns the GPU pipeline layout.
	Handle() *wgpu.PipelineLayout

	Release()
}

var _ Layout = &layout{}

type layoutBuilder struct {
	id               common.ResourceID
	label            string
	bindGroupLayouts []bind_group.Layout
}

// LayoutBuilderOption is a functional option used to configure a Layout during construction.
type LayoutBuilderOption func(*layoutBuilder)

// NewLayout creates a pipeline layout. An empty list of bind group layouts is allowed.
//
// Parameters:
//   - device: the device used to create the layout
//   - options: builder options configuring the layout
//
// Returns:
//   - Layout: the created layout
//   - error: the device error
func NewLayout(device gpu.Device, options ...LayoutBuilderOption) (Layout, error) {
	b := &layoutBuilder{}
	for _, opt := range options {
		opt(b)
	}

	label := common.DefaultLabel(b.label, string(errs.KindPipelineLayout), b.id)
	handles := make([]*wgpu.BindGroupLayout, len(b.bindGroupLayouts))
	names := make([]string, len(b.bindGroupLayouts))
	for i, l := range b.bindGroupLayouts {
		handles[i] = l.Handle()
		names[i] = l.Label()
	}

	log.WithFields(log.Fields{
		"label":              label,
		"bind_group_layouts": names,
	}).Debug("build pipeline layout")

	handle, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: handles,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout %q: %w", label, err)
	}

	return &layout{id: b.id, label: label, bindGroupLayouts: b.bindGroupLayouts, handle: handle}, nil
}

// WithLayoutID sets the arena id of the pipeline layout.
func WithLayoutID(id common.ResourceID) LayoutBuilderOption {
	return func(b *layoutBuilder) {
		b.id = id
	}
}

// WithLayoutLabel sets the debug label of the pipeline layout.
func WithLayoutLabel(label string) LayoutBuilderOption {
	return func(b *layoutBuilder) {
		b.label = label
	}
}

// WithBindGroupLayouts appends bind group layouts; the first appended layout is group 0.
func WithBindGroupLayouts(layouts ...bind_group.Layout) LayoutBuilderOption {
	return func(b *layoutBuilder) {
		b.bindGroupLayouts = append(b.bindGroupLayouts, layouts...)
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

func (l *layout) BindGroupLayouts() []bind_group.Layout {
	return l.bindGroupLayouts
}

func (l *layout) Handle() *wgpu.PipelineLayout {
	return l.handle
}

func (l *layout) Release() {
	if l.handle != nil {
		l.handle.Release()
		l.handle = nil
	}
}
