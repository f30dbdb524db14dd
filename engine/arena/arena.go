// Package arena holds every GPU resource of a session, keyed by id. Each resource kind has its own Store; ids are
// drawn from one set shared by all stores, so a generated id is unique across kinds.
package arena

import (
	"math/rand/v2"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/storage"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/uniform"
)

// idSet tracks ids that are registered in at least one store and ids handed out but not registered yet.
type idSet struct {
	mu       sync.Mutex
	held     map[common.ResourceID]int
	reserved map[common.ResourceID]struct{}
	draw     func() uint64
}

func newIDSet() *idSet {
	return &idSet{
		held:     make(map[common.ResourceID]int),
		reserved: make(map[common.ResourceID]struct{}),
		draw:     rand.Uint64,
	}
}

func (s *idSet) generate() common.ResourceID {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		id := common.ResourceID(s.draw())
		if id == 0 {
			continue
		}
		if _, ok := s.held[id]; ok {
			continue
		}
		if _, ok := s.reserved[id]; ok {
			continue
		}
		s.reserved[id] = struct{}{}
		return id
	}
}

func (s *idSet) register(id common.ResourceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held[id]++
	delete(s.reserved, id)
}

func (s *idSet) unreserve(id common.ResourceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, id)
}

func (s *idSet) reservations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reserved)
}

func (s *idSet) unregister(id common.ResourceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held[id] <= 1 {
		delete(s.held, id)
		return
	}
	s.held[id]--
}

func (s *idSet) contains(id common.ResourceID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, held := s.held[id]
	_, reserved := s.reserved[id]
	return held || reserved
}

type arena struct {
	ids *idSet

	buffers          *Store[buffer.Buffer]
	bindGroups       *Store[bind_group.BindGroup]
	bindGroupLayouts *Store[bind_group.Layout]
	pipelines        *Store[pipeline.Pipeline]
	pipelineLayouts  *Store[pipeline.Layout]
	shaders          *Store[shader.Shader]
	renderTextures   *Store[texture.RenderTexture]
	depthTextures    *Store[texture.DepthTexture]
	models           *Store[model.Model]
	uniforms         *Store[uniform.Group]
	storages         *Store[storage.Group]
}

// Arena owns the GPU resources of a session.
type Arena interface {
	// GenerateUniqueID returns an id that no store holds and that was not handed out before, and reserves it.
	// Zero is never returned.
	//
	// Returns:
	//   - common.ResourceID: the reserved id
	GenerateUniqueID() common.ResourceID

	// Unreserve hands back an id returned by GenerateUniqueID that will never be added to a store, e.g. because
	// the resource failed to build. Registered ids are not affected.
	//
	// Parameters:
	//   - id: the reserved id
	Unreserve(id common.ResourceID)

	// Reserved returns the number of ids handed out by GenerateUniqueID that are neither registered nor unreserved.
	//
	// Returns:
	//   - int: the number of pending reservations
	Reserved() int

	// Contains reports whether id is registered in any store or reserved.
	//
	// Parameters:
	//   - id: the id to look up
	//
	// Returns:
	//   - bool: true when the id is taken
	Contains(id common.ResourceID) bool

	Buffers() *Store[buffer.Buffer]
	BindGroups() *Store[bind_group.BindGroup]
	BindGroupLayouts() *Store[bind_group.Layout]
	Pipelines() *Store[pipeline.Pipeline]
	PipelineLayouts() *Store[pipeline.Layout]
	Shaders() *Store[shader.Shader]
	RenderTextures() *Store[texture.RenderTexture]
	DepthTextures() *Store[texture.DepthTexture]
	Models() *Store[model.Model]
	Uniforms() *Store[uniform.Group]
	Storages() *Store[storage.Group]

	// Release releases every resource of every store and empties the arena.
	Release()
}

var _ Arena = &arena{}

// NewArena creates an empty arena.
//
// Returns:
//   - Arena: the arena
func NewArena() Arena {
	ids := newIDSet()
	return &arena{
		ids:              ids,
		buffers:          newStore[buffer.Buffer](errs.KindBuffer, ids),
		bindGroups:       newStore[bind_group.BindGroup](errs.KindBindGroup, ids),
		bindGroupLayouts: newStore[bind_group.Layout](errs.KindBindGroupLayout, ids),
		pipelines:        newStore[pipeline.Pipeline](errs.KindPipeline, ids),
		pipelineLayouts:  newStore[pipeline.Layout](errs.KindPipelineLayout, ids),
		shaders:          newStore[shader.Shader](errs.KindShader, ids),
		renderTextures:   newStore[texture.RenderTexture](errs.KindRenderTexture, ids),
		depthTextures:    newStore[texture.DepthTexture](errs.KindDepthTexture, ids),
		models:           newStore[model.Model](errs.KindModel, ids),
		uniforms:         newStore[uniform.Group](errs.KindUniform, ids),
		storages:         newStore[storage.Group](errs.KindStorage, ids),
	}
}

func (a *arena) GenerateUniqueID() common.ResourceID {
	return a.ids.generate()
}

func (a *arena) Unreserve(id common.ResourceID) {
	a.ids.unreserve(id)
}

func (a *arena) Reserved() int {
	return a.ids.reservations()
}

func (a *arena) Contains(id common.ResourceID) bool {
	return a.ids.contains(id)
}

func (a *arena) Buffers() *Store[buffer.Buffer] {
	return a.buffers
}

func (a *arena) BindGroups() *Store[bind_group.BindGroup] {
	return a.bindGroups
}

func (a *arena) BindGroupLayouts() *Store[bind_group.Layout] {
	return a.bindGroupLayouts
}

func (a *arena) Pipelines() *Store[pipeline.Pipeline] {
	return a.pipelines
}

func (a *arena) PipelineLayouts() *Store[pipeline.Layout] {
	return a.pipelineLayouts
}

func (a *arena) Shaders() *Store[shader.Shader] {
	return a.shaders
}

func (a *arena) RenderTextures() *Store[texture.RenderTexture] {
	return a.renderTextures
}

func (a *arena) DepthTextures() *Store[texture.DepthTexture] {
	return a.depthTextures
}

func (a *arena) Models() *Store[model.Model] {
	return a.models
}

func (a *arena) Uniforms() *Store[uniform.Group] {
	return a.uniforms
}

func (a *arena) Storages() *Store[storage.Group] {
	return a.storages
}

func (a *arena) Release() {
	// Bind groups before their layouts, pipelines before their layouts and shaders.
	released := a.pipelines.release() +
		a.bindGroups.release() +
		a.models.release() +
		a.uniforms.release() +
		a.storages.release() +
		a.pipelineLayouts.release() +
		a.bindGroupLayouts.release() +
		a.shaders.release() +
		a.renderTextures.release() +
		a.depthTextures.release() +
		a.buffers.release()

	a.ids.mu.Lock()
	clear(a.ids.reserved)
	a.ids.mu.Unlock()

	log.WithField("resources", released).Debug("release arena")
}
