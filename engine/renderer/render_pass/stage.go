package render_pass

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// Stage is one render or compute step of a RenderPass. It is implemented by *RenderStage and *ComputeStage only.
type Stage interface {
	// Validate checks the stage before any command is recorded.
	//
	// Returns:
	//   - error: the first configuration error of the stage
	Validate() error

	record(enc gpu.Encoder, label string) error
}

// Viewport overrides the viewport of a render stage.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Scissor overrides the scissor rectangle of a render stage.
type Scissor struct {
	X, Y, Width, Height uint32
}

// RenderStage draws either a model, once per mesh, or an explicit range of vertices or indices.
type RenderStage struct {
	pipeline         pipeline.Pipeline
	vertexBuffer     buffer.Buffer
	indexBuffer      buffer.Buffer
	bindGroups       []bind_group.BindGroup
	model            model.Model
	entities         *common.Range
	instances        *common.Range
	baseVertex       int32
	colors           []ColorAttachment
	depthStencil     *DepthStencilAttachment
	viewport         *Viewport
	scissor          *Scissor
	blendConstant    *wgpu.Color
	stencilReference *uint32
}

var _ Stage = &RenderStage{}

// RenderStageOption is a functional option used to configure a RenderStage.
type RenderStageOption func(*RenderStage)

// NewRenderStage creates a render stage drawing with p.
//
// Parameters:
//   - p: a render pipeline
//   - options: stage options
//
// Returns:
//   - *RenderStage: the stage, checked when the pass is validated
func NewRenderStage(p pipeline.Pipeline, options ...RenderStageOption) *RenderStage {
	s := &RenderStage{pipeline: p}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithVertexBuffer binds an explicit vertex buffer at its own binding slot.
func WithVertexBuffer(buf buffer.Buffer) RenderStageOption {
	return func(s *RenderStage) {
		s.vertexBuffer = buf
	}
}

// WithIndexBuffer binds an explicit uint16 index buffer. The entity range then selects indices instead of vertices.
func WithIndexBuffer(buf buffer.Buffer) RenderStageOption {
	return func(s *RenderStage) {
		s.indexBuffer = buf
	}
}

// WithBindGroups binds each group at its own group index.
func WithBindGroups(groups ...bind_group.BindGroup) RenderStageOption {
	return func(s *RenderStage) {
		s.bindGroups = append(s.bindGroups, groups...)
	}
}

// WithModel draws every mesh of m with the bind group of its material.
func WithModel(m model.Model) RenderStageOption {
	return func(s *RenderStage) {
		s.model = m
	}
}

// WithEntities sets the range of vertices, or indices when an index buffer is bound, drawn without a model.
func WithEntities(r common.Range) RenderStageOption {
	return func(s *RenderStage) {
		s.entities = &r
	}
}

// WithInstances sets the range of instances drawn.
func WithInstances(r common.Range) RenderStageOption {
	return func(s *RenderStage) {
		s.instances = &r
	}
}

// WithBaseVertex sets the value added to each index of an explicit index buffer.
func WithBaseVertex(base int32) RenderStageOption {
	return func(s *RenderStage) {
		s.baseVertex = base
	}
}

// WithColorAttachments appends color targets.
func WithColorAttachments(attachments ...ColorAttachment) RenderStageOption {
	return func(s *RenderStage) {
		s.colors = append(s.colors, attachments...)
	}
}

// WithDepthStencil sets the depth stencil target.
func WithDepthStencil(attachment DepthStencilAttachment) RenderStageOption {
	return func(s *RenderStage) {
		s.depthStencil = &attachment
	}
}

// WithViewport overrides the viewport.
func WithViewport(v Viewport) RenderStageOption {
	return func(s *RenderStage) {
		s.viewport = &v
	}
}

// WithScissor overrides the scissor rectangle.
func WithScissor(r Scissor) RenderStageOption {
	return func(s *RenderStage) {
		s.scissor = &r
	}
}

// WithBlendConstant sets the blend constant.
func WithBlendConstant(c wgpu.Color) RenderStageOption {
	return func(s *RenderStage) {
		s.blendConstant = &c
	}
}

// WithStencilReference sets the stencil reference value.
func WithStencilReference(ref uint32) RenderStageOption {
	return func(s *RenderStage) {
		s.stencilReference = &ref
	}
}

func (s *RenderStage) Validate() error {
	if s.pipeline == nil {
		return errs.Missing(errs.KindStage, errs.FieldPipeline)
	}
	if s.pipeline.Kind() != pipeline.KindRender {
		return &errs.WrongVariantError{
			Kind:     errs.KindPipeline,
			Label:    s.pipeline.Label(),
			Expected: pipeline.KindRender.String(),
			Actual:   s.pipeline.Kind().String(),
		}
	}
	if len(s.colors) == 0 {
		return errs.Missing(errs.KindStage, errs.FieldColorAttachments)
	}
	if s.model == nil && s.entities == nil {
		return errs.Missing(errs.KindStage, errs.FieldEntities)
	}
	if s.instances == nil {
		return errs.Missing(errs.KindStage, errs.FieldInstances)
	}
	if s.model != nil {
		for _, mesh := range s.model.Meshes() {
			if _, err := s.model.Material(mesh.Material()); err != nil {
				return fmt.Errorf("mesh %q of %q: %w", mesh.Label(), s.model.Label(), err)
			}
		}
	}
	return nil
}

func (s *RenderStage) record(enc gpu.Encoder, label string) error {
	colors := make([]wgpu.RenderPassColorAttachment, len(s.colors))
	for i, c := range s.colors {
		colors[i] = c.Descriptor()
	}
	desc := &wgpu.RenderPassDescriptor{
		Label:            label,
		ColorAttachments: colors,
	}
	if s.depthStencil != nil {
		desc.DepthStencilAttachment = s.depthStencil.Descriptor()
	}

	log.WithFields(log.Fields{
		"label":       label,
		"pipeline":    s.pipeline.Label(),
		"bind_groups": len(s.bindGroups),
		"model":       s.model != nil,
		"indexed":     s.indexBuffer != nil,
		"instances":   *s.instances,
	}).Debug("record render stage")

	pass := enc.BeginRenderPass(desc)
	pass.SetPipeline(s.pipeline.RenderPipeline())
	if s.vertexBuffer != nil {
		pass.SetVertexBuffer(s.vertexBuffer.Binding(), s.vertexBuffer.Handle())
	}
	if s.indexBuffer != nil {
		pass.SetIndexBuffer(s.indexBuffer.Handle(), wgpu.IndexFormatUint16)
	}
	for _, g := range s.bindGroups {
		pass.SetBindGroup(g.Binding(), g.Handle())
	}
	if v := s.viewport; v != nil {
		pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
	}
	if r := s.scissor; r != nil {
		pass.SetScissorRect(r.X, r.Y, r.Width, r.Height)
	}
	if s.blendConstant != nil {
		pass.SetBlendConstant(*s.blendConstant)
	}
	if s.stencilReference != nil {
		pass.SetStencilReference(*s.stencilReference)
	}

	instances := *s.instances
	switch {
	case s.model != nil:
		for _, mesh := range s.model.Meshes() {
			mat, err := s.model.Material(mesh.Material())
			if err != nil {
				return err
			}
			vb, ib, bg := mesh.VertexBuffer(), mesh.IndexBuffer(), mat.BindGroup()
			pass.SetVertexBuffer(vb.Binding(), vb.Handle())
			pass.SetIndexBuffer(ib.Handle(), wgpu.IndexFormatUint32)
			pass.SetBindGroup(bg.Binding(), bg.Handle())
			pass.DrawIndexed(mesh.NumElements(), instances.Count(), 0, 0, instances.Start)
		}
	case s.indexBuffer != nil:
		pass.DrawIndexed(s.entities.Count(), instances.Count(), s.entities.Start, s.baseVertex, instances.Start)
	default:
		pass.Draw(s.entities.Count(), instances.Count(), s.entities.Start, instances.Start)
	}

	if err := pass.End(); err != nil {
		return fmt.Errorf("failed to end %q: %w", label, err)
	}
	return nil
}

// ComputeStage dispatches a compute pipeline over a grid of workgroups.
type ComputeStage struct {
	pipeline   pipeline.Pipeline
	bindGroups []bind_group.BindGroup
	x, y, z    uint32
}

var _ Stage = &ComputeStage{}

// ComputeStageOption is a functional option used to configure a ComputeStage.
type ComputeStageOption func(*ComputeStage)

// NewComputeStage creates a compute stage dispatching p over a single workgroup unless the dimensions are set.
//
// Parameters:
//   - p: a compute pipeline
//   - options: stage options
//
// Returns:
//   - *ComputeStage: the stage, checked when the pass is validated
func NewComputeStage(p pipeline.Pipeline, options ...ComputeStageOption) *ComputeStage {
	s := &ComputeStage{pipeline: p, x: 1, y: 1, z: 1}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithComputeBindGroups binds each group at its own group index.
func WithComputeBindGroups(groups ...bind_group.BindGroup) ComputeStageOption {
	return func(s *ComputeStage) {
		s.bindGroups = append(s.bindGroups, groups...)
	}
}

// WithWorkgroups sets the number of workgroups dispatched along each dimension.
func WithWorkgroups(x, y, z uint32) ComputeStageOption {
	return func(s *ComputeStage) {
		s.x, s.y, s.z = x, y, z
	}
}

func (s *ComputeStage) Validate() error {
	if s.pipeline == nil {
		return errs.Missing(errs.KindStage, errs.FieldPipeline)
	}
	if s.pipeline.Kind() != pipeline.KindCompute {
		return &errs.WrongVariantError{
			Kind:     errs.KindPipeline,
			Label:    s.pipeline.Label(),
			Expected: pipeline.KindCompute.String(),
			Actual:   s.pipeline.Kind().String(),
		}
	}
	return nil
}

func (s *ComputeStage) record(enc gpu.Encoder, label string) error {
	log.WithFields(log.Fields{
		"label":       label,
		"pipeline":    s.pipeline.Label(),
		"bind_groups": len(s.bindGroups),
		"workgroups":  [3]uint32{s.x, s.y, s.z},
	}).Debug("record compute stage")

	pass := enc.BeginComputePass()
	pass.SetPipeline(s.pipeline.ComputePipeline())
	for _, g := range s.bindGroups {
		pass.SetBindGroup(g.Binding(), g.Handle())
	}
	pass.DispatchWorkgroups(s.x, s.y, s.z)
	if err := pass.End(); err != nil {
		return fmt.Errorf("failed to end %q: %w", label, err)
	}
	return nil
}
