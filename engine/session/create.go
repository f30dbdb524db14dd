package session

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/storage"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/uniform"
)

type identified interface {
	ID() common.ResourceID
}

// create builds a resource on the session device under a freshly reserved arena id. The id option goes first, so
// an explicit id in options still wins. The reservation is handed back when the build fails or the id went unused.
func create[T identified, O any](s *session, withID func(common.ResourceID) O, build func(gpu.Device, ...O) (T, error), options []O) (T, error) {
	id := s.arena.GenerateUniqueID()
	res, err := build(s.Device(), append([]O{withID(id)}, options...)...)
	if err != nil {
		s.arena.Unreserve(id)
		return res, err
	}
	if res.ID() != id {
		s.arena.Unreserve(id)
	}
	return res, nil
}

func (s *session) CreateBuffer(options ...buffer.BufferBuilderOption) (buffer.Buffer, error) {
	return create(s, buffer.WithID, buffer.NewBuffer, options)
}

func (s *session) CreateBindGroupLayout(options ...bind_group.LayoutBuilderOption) (bind_group.Layout, error) {
	return create(s, bind_group.WithLayoutID, bind_group.NewLayout, options)
}

func (s *session) CreateBindGroup(options ...bind_group.BindGroupBuilderOption) (bind_group.BindGroup, error) {
	return create(s, bind_group.WithID, bind_group.NewBindGroup, options)
}

func (s *session) CreatePipelineLayout(options ...pipeline.LayoutBuilderOption) (pipeline.Layout, error) {
	return create(s, pipeline.WithLayoutID, pipeline.NewLayout, options)
}

func (s *session) CreatePipeline(options ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error) {
	return create(s, pipeline.WithID, pipeline.NewPipeline, options)
}

func (s *session) CreateShader(options ...shader.ShaderBuilderOption) (shader.Shader, error) {
	return create(s, shader.WithID, shader.NewShader, options)
}

func (s *session) CreateRenderTexture(options ...texture.RenderTextureBuilderOption) (texture.RenderTexture, error) {
	return create(s, texture.WithID, texture.NewRenderTexture, options)
}

func (s *session) CreateDepthTexture(options ...texture.DepthTextureBuilderOption) (texture.DepthTexture, error) {
	return create(s, texture.WithDepthID, texture.NewDepthTexture, options)
}

func (s *session) CreateModel(options ...model.ModelBuilderOption) (model.Model, error) {
	return create(s, model.WithID, model.NewModel, options)
}

func (s *session) CreateUniform(options ...uniform.GroupBuilderOption) (uniform.Group, error) {
	return create(s, uniform.WithID, uniform.NewGroup, options)
}

func (s *session) CreateStorage(options ...storage.GroupBuilderOption) (storage.Group, error) {
	return create(s, storage.WithID, storage.NewGroup, options)
}

// CreateRenderPass numbers passes with a session counter; passes are not arena resources.
func (s *session) CreateRenderPass(options ...render_pass.RenderPassBuilderOption) render_pass.RenderPass {
	id := common.ResourceID(s.passes.Add(1))
	return render_pass.NewRenderPass(append([]render_pass.RenderPassBuilderOption{render_pass.WithID(id)}, options...)...)
}
