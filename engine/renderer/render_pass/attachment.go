package render_pass

import (
	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/cogentcore/webgpu/wgpu"
)

// ColorAttachment is a built color target of a render stage.
type ColorAttachment struct {
	ID    common.ResourceID
	Label string
	inner wgpu.RenderPassColorAttachment
}

// Descriptor returns the wgpu attachment passed to BeginRenderPass.
func (a ColorAttachment) Descriptor() wgpu.RenderPassColorAttachment {
	return a.inner
}

type colorAttachmentBuilder struct {
	id      common.ResourceID
	label   string
	view    *wgpu.TextureView
	resolve *wgpu.TextureView
	loadOp  wgpu.LoadOp
	storeOp wgpu.StoreOp
	clear   wgpu.Color
}

// ColorAttachmentOption is a functional option used to configure a ColorAttachment during construction.
type ColorAttachmentOption func(*colorAttachmentBuilder)

// NewColorAttachment builds a color attachment. The view is required; the attachment loads and stores by default.
//
// Parameters:
//   - options: builder options configuring the attachment
//
// Returns:
//   - ColorAttachment: the attachment
//   - error: a MissingFieldError when no view is set
func NewColorAttachment(options ...ColorAttachmentOption) (ColorAttachment, error) {
	b := &colorAttachmentBuilder{
		loadOp:  wgpu.LoadOpLoad,
		storeOp: wgpu.StoreOpStore,
	}
	for _, opt := range options {
		opt(b)
	}

	if b.view == nil {
		return ColorAttachment{}, errs.Missing(errs.KindColorAttachment, errs.FieldTextureView)
	}

	label := common.DefaultLabel(b.label, string(errs.KindColorAttachment), b.id)
	log.WithFields(log.Fields{
		"label":    label,
		"load_op":  b.loadOp,
		"store_op": b.storeOp,
		"resolve":  b.resolve != nil,
	}).Debug("build color attachment")

	return ColorAttachment{
		ID:    b.id,
		Label: label,
		inner: wgpu.RenderPassColorAttachment{
			View:          b.view,
			ResolveTarget: b.resolve,
			LoadOp:        b.loadOp,
			StoreOp:       b.storeOp,
			ClearValue:    b.clear,
		},
	}, nil
}

// WithAttachmentID sets the id of the attachment.
func WithAttachmentID(id common.ResourceID) ColorAttachmentOption {
	return func(b *colorAttachmentBuilder) {
		b.id = id
	}
}

// WithAttachmentLabel sets the name of the attachment.
func WithAttachmentLabel(label string) ColorAttachmentOption {
	return func(b *colorAttachmentBuilder) {
		b.label = label
	}
}

// WithView sets the texture view rendered into.
//
// Parameters:
//   - view: the target view, usually Session.TargetView
//
// Returns:
//   - ColorAttachmentOption: a function that sets the view
func WithView(view *wgpu.TextureView) ColorAttachmentOption {
	return func(b *colorAttachmentBuilder) {
		b.view = view
	}
}

// WithResolveTarget sets the view a multisampled attachment resolves into.
func WithResolveTarget(view *wgpu.TextureView) ColorAttachmentOption {
	return func(b *colorAttachmentBuilder) {
		b.resolve = view
	}
}

// WithLoadOp sets the load operation of the attachment.
func WithLoadOp(op wgpu.LoadOp) ColorAttachmentOption {
	return func(b *colorAttachmentBuilder) {
		b.loadOp = op
	}
}

// WithClear clears the attachment to color when the stage begins.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - ColorAttachmentOption: a function that sets a clear load operation
func WithClear(color wgpu.Color) ColorAttachmentOption {
	return func(b *colorAttachmentBuilder) {
		b.loadOp = wgpu.LoadOpClear
		b.clear = color
	}
}

// WithStoreOp sets the store operation of the attachment.
func WithStoreOp(op wgpu.StoreOp) ColorAttachmentOption {
	return func(b *colorAttachmentBuilder) {
		b.storeOp = op
	}
}

// DepthStencilAttachment is a built depth and stencil target of a render stage.
type DepthStencilAttachment struct {
	ID    common.ResourceID
	Label string
	inner wgpu.RenderPassDepthStencilAttachment
}

// Descriptor returns the wgpu attachment passed to BeginRenderPass.
func (a DepthStencilAttachment) Descriptor() *wgpu.RenderPassDepthStencilAttachment {
	inner := a.inner
	return &inner
}

// Operations describes how one aspect of an attachment is loaded and stored.
type Operations[T any] struct {
	Load  wgpu.LoadOp
	Store wgpu.StoreOp
	Clear T
}

type depthStencilBuilder struct {
	id        common.ResourceID
	label     string
	view      *wgpu.TextureView
	depthOps  Operations[float32]
	stencilOp *Operations[uint32]
}

// DepthStencilOption is a functional option used to configure a DepthStencilAttachment during construction.
type DepthStencilOption func(*depthStencilBuilder)

// NewDepthStencilAttachment builds a depth stencil attachment. The view is required. Depth is cleared to 1.0 and
// stored unless replaced; the stencil aspect is left untouched unless stencil operations are set.
//
// Parameters:
//   - options: builder options configuring the attachment
//
// Returns:
//   - DepthStencilAttachment: the attachment
//   - error: a MissingFieldError when no view is set
func NewDepthStencilAttachment(options ...DepthStencilOption) (DepthStencilAttachment, error) {
	b := &depthStencilBuilder{
		depthOps: Operations[float32]{Load: wgpu.LoadOpClear, Store: wgpu.StoreOpStore, Clear: 1.0},
	}
	for _, opt := range options {
		opt(b)
	}

	if b.view == nil {
		return DepthStencilAttachment{}, errs.Missing(errs.KindDepthAttachment, errs.FieldTextureView)
	}

	label := common.DefaultLabel(b.label, string(errs.KindDepthAttachment), b.id)
	log.WithFields(log.Fields{
		"label":     label,
		"depth_ops": b.depthOps,
		"stencil":   b.stencilOp != nil,
	}).Debug("build depth stencil attachment")

	inner := wgpu.RenderPassDepthStencilAttachment{
		View:            b.view,
		DepthLoadOp:     b.depthOps.Load,
		DepthStoreOp:    b.depthOps.Store,
		DepthClearValue: b.depthOps.Clear,
	}
	if b.stencilOp != nil {
		inner.StencilLoadOp = b.stencilOp.Load
		inner.StencilStoreOp = b.stencilOp.Store
		inner.StencilClearValue = b.stencilOp.Clear
	}

	return DepthStencilAttachment{ID: b.id, Label: label, inner: inner}, nil
}

// WithDepthID sets the id of the attachment.
func WithDepthID(id common.ResourceID) DepthStencilOption {
	return func(b *depthStencilBuilder) {
		b.id = id
	}
}

// WithDepthLabel sets the name of the attachment.
func WithDepthLabel(label string) DepthStencilOption {
	return func(b *depthStencilBuilder) {
		b.label = label
	}
}

// WithDepthView sets the depth texture view.
func WithDepthView(view *wgpu.TextureView) DepthStencilOption {
	return func(b *depthStencilBuilder) {
		b.view = view
	}
}

// WithDepthOps replaces the default clear-to-one depth operations.
func WithDepthOps(ops Operations[float32]) DepthStencilOption {
	return func(b *depthStencilBuilder) {
		b.depthOps = ops
	}
}

// WithStencilOps enables the stencil aspect with the given operations.
func WithStencilOps(ops Operations[uint32]) DepthStencilOption {
	return func(b *depthStencilBuilder) {
		b.stencilOp = &ops
	}
}
