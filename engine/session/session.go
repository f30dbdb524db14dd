// Package session owns the device, the resource arena and the per-frame view. It is the only path from resource
// builders to the GPU: builders receive Device(), frames are drawn with ViewSurface or ViewTexture, Render and
// Present, and buffers are written and read back through the Update and Read methods.
package session

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/arena"
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

type session struct {
	mu sync.Mutex

	id      uuid.UUID
	backend Backend
	arena   arena.Arena

	size  common.Size
	scale float64

	view      *view
	offscreen *offscreen
	staging   map[uint64]*stagingBuffer
	passes    atomic.Uint64
}

// Session drives one device: it owns the arena of GPU resources and the view of the current frame.
type Session interface {
	// ID returns the unique id of the session.
	//
	// Returns:
	//   - uuid.UUID: the id
	ID() uuid.UUID

	// Device returns the device builders create resources on.
	//
	// Returns:
	//   - gpu.Device: the device
	Device() gpu.Device

	// Arena returns the resources owned by the session.
	//
	// Returns:
	//   - arena.Arena: the arena
	Arena() arena.Arena

	// Size returns the size of the render target in pixels.
	//
	// Returns:
	//   - common.Size: the size
	Size() common.Size

	// ScaleFactor returns the content scale the size was last derived from.
	//
	// Returns:
	//   - float64: the scale factor
	ScaleFactor() float64

	// ResizeBySize sets the render target size. A size with a zero dimension is ignored; each dimension is clamped to
	// the maximum 2D texture dimension of the device. The surface is reconfigured immediately, an offscreen target on
	// the next ViewTexture.
	//
	// Parameters:
	//   - size: the new size in pixels
	ResizeBySize(size common.Size)

	// ResizeByScale rescales the render target from the current scale factor to factor and stores factor.
	//
	// Parameters:
	//   - factor: the new content scale
	ResizeByScale(factor float64)

	// Resize re-applies the current size, e.g. after the surface was lost.
	//
	// Returns:
	//   - error: error if the surface could not be reconfigured
	Resize() error

	// ViewSurface acquires the next surface frame as the view of this frame.
	//
	// Returns:
	//   - error: ErrSurfaceNotConfigured without a surface, or the classified acquisition error
	ViewSurface() error

	// ViewTexture makes an offscreen texture the view of this frame. Present saves it to savePath in format.
	//
	// Parameters:
	//   - format: the file format of the saved frame
	//   - savePath: the destination file, the extension of format is appended when it has none
	//
	// Returns:
	//   - error: error if the target texture or readback buffer could not be created
	ViewTexture(format ImageFormat, savePath string) error

	// TargetView returns the texture view of the current view, for use in color attachments.
	//
	// Returns:
	//   - *wgpu.TextureView: the view
	//   - error: ErrNotInitView when no view was acquired
	TargetView() (*wgpu.TextureView, error)

	// TargetFormat returns the texel format pipelines drawing into the current view must target.
	//
	// Returns:
	//   - wgpu.TextureFormat: the format
	TargetFormat() wgpu.TextureFormat

	// Render validates pass and executes it against a fresh encoder. For an offscreen view the target texture is
	// copied into the readback buffer as the last command.
	//
	// Parameters:
	//   - pass: the pass to run
	//
	// Returns:
	//   - error: ErrNotInitView, a validation error, or the first recording error
	Render(pass render_pass.RenderPass) error

	// Present consumes the current view: a surface frame is presented, an offscreen frame is read back and saved.
	//
	// Returns:
	//   - error: ErrNotInitView, a MapError, ErrImageReconstruct, or the file error
	Present() error

	// UpdateUniform writes data at offset into the buffer name of the uniform group groupID.
	//
	// Parameters:
	//   - groupID: the arena id of the group
	//   - name: the buffer name inside the group
	//   - offset: the byte offset
	//   - data: the bytes
	//
	// Returns:
	//   - error: a NotFoundError or a CapacityError
	UpdateUniform(groupID common.ResourceID, name string, offset uint64, data []byte) error
	UpdateUniformDirect(group uniform.Group, name string, offset uint64, data []byte) error

	// UpdateStorage writes data at offset into the buffer name of the storage group groupID.
	UpdateStorage(groupID common.ResourceID, name string, offset uint64, data []byte) error
	UpdateStorageDirect(group storage.Group, name string, offset uint64, data []byte) error

	// UpdateBuffer writes data at offset into the buffer id. The buffer is left untouched when the write does not fit.
	//
	// Parameters:
	//   - id: the arena id of the buffer
	//   - offset: the byte offset
	//   - data: the bytes
	//
	// Returns:
	//   - error: a NotFoundError or a CapacityError
	UpdateBuffer(id common.ResourceID, offset uint64, data []byte) error
	UpdateBufferDirect(buf buffer.Buffer, offset uint64, data []byte) error

	// ReadUniform reads back the whole buffer name of the uniform group groupID.
	//
	// Parameters:
	//   - ctx: cancels the wait for the map
	//   - groupID: the arena id of the group
	//   - name: the buffer name inside the group
	//
	// Returns:
	//   - []byte: the contents
	//   - error: a NotFoundError, a MapError or the context error
	ReadUniform(ctx context.Context, groupID common.ResourceID, name string) ([]byte, error)
	ReadUniformDirect(ctx context.Context, group uniform.Group, name string) ([]byte, error)

	// ReadStorageBuffer reads back the whole buffer name of the storage group groupID.
	ReadStorageBuffer(ctx context.Context, groupID common.ResourceID, name string) ([]byte, error)
	ReadStorageBufferDirect(ctx context.Context, group storage.Group, name string) ([]byte, error)

	// ReadBuffer reads back the whole buffer id. Buffers without MAP_READ usage are copied through a staging buffer.
	//
	// Parameters:
	//   - ctx: cancels the wait for the map
	//   - id: the arena id of the buffer
	//
	// Returns:
	//   - []byte: the contents
	//   - error: a NotFoundError, a MapError or the context error
	ReadBuffer(ctx context.Context, id common.ResourceID) ([]byte, error)
	ReadBufferDirect(ctx context.Context, buf buffer.Buffer) ([]byte, error)

	// ReadPlainBuffer maps the first size bytes of a raw MAP_READ buffer.
	ReadPlainBuffer(ctx context.Context, buf *wgpu.Buffer, size uint64) ([]byte, error)

	CreateBuffer(options ...buffer.BufferBuilderOption) (buffer.Buffer, error)
	CreateBindGroupLayout(options ...bind_group.LayoutBuilderOption) (bind_group.Layout, error)
	CreateBindGroup(options ...bind_group.BindGroupBuilderOption) (bind_group.BindGroup, error)
	CreatePipelineLayout(options ...pipeline.LayoutBuilderOption) (pipeline.Layout, error)
	CreatePipeline(options ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error)
	CreateShader(options ...shader.ShaderBuilderOption) (shader.Shader, error)
	CreateRenderTexture(options ...texture.RenderTextureBuilderOption) (texture.RenderTexture, error)
	CreateDepthTexture(options ...texture.DepthTextureBuilderOption) (texture.DepthTexture, error)
	CreateModel(options ...model.ModelBuilderOption) (model.Model, error)
	CreateUniform(options ...uniform.GroupBuilderOption) (uniform.Group, error)
	CreateStorage(options ...storage.GroupBuilderOption) (storage.Group, error)
	CreateRenderPass(options ...render_pass.RenderPassBuilderOption) render_pass.RenderPass

	// Release releases the view, the arena and the backend.
	Release()
}

var _ Session = &session{}

type sessionBuilder struct {
	size  common.Size
	scale float64
}

// SessionBuilderOption is a functional option used to configure a Session during construction.
type SessionBuilderOption func(*sessionBuilder)

// WithSize sets the initial render target size. Defaults to 800x600.
func WithSize(size common.Size) SessionBuilderOption {
	return func(b *sessionBuilder) {
		b.size = size
	}
}

// WithScaleFactor sets the initial content scale. Defaults to 1.
func WithScaleFactor(scale float64) SessionBuilderOption {
	return func(b *sessionBuilder) {
		b.scale = scale
	}
}

// NewSession creates a session on backend with an empty arena. The surface, if any, is configured for the initial size.
//
// Parameters:
//   - backend: the device backend, owned by the session from now on
//   - options: session options
//
// Returns:
//   - Session: the session
//   - error: error if the surface could not be configured
func NewSession(backend Backend, options ...SessionBuilderOption) (Session, error) {
	b := &sessionBuilder{
		size:  common.Size{Width: 800, Height: 600},
		scale: 1,
	}
	for _, opt := range options {
		opt(b)
	}

	s := &session{
		id:      uuid.New(),
		backend: backend,
		arena:   arena.NewArena(),
		scale:   b.scale,
		staging: make(map[uint64]*stagingBuffer),
	}
	s.size = s.clamp(b.size)

	log.WithFields(log.Fields{
		"session": s.id,
		"size":    s.size,
		"scale":   s.scale,
		"surface": backend.HasSurface(),
	}).Debug("build session")

	if backend.HasSurface() {
		if err := backend.ConfigureSurface(s.size); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *session) ID() uuid.UUID {
	return s.id
}

func (s *session) Device() gpu.Device {
	return s.backend.Device()
}

func (s *session) Arena() arena.Arena {
	return s.arena
}

func (s *session) Size() common.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *session) ScaleFactor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

func (s *session) clamp(size common.Size) common.Size {
	limit := s.backend.Device().Limits().MaxTextureDimension2D
	if limit == 0 {
		return size
	}
	if size.Width > limit {
		log.WithFields(log.Fields{"width": size.Width, "max": limit}).Info("clamp width to maximum texture dimension")
		size.Width = limit
	}
	if size.Height > limit {
		log.WithFields(log.Fields{"height": size.Height, "max": limit}).Info("clamp height to maximum texture dimension")
		size.Height = limit
	}
	return size
}

func (s *session) ResizeBySize(size common.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizeLocked(size)
}

func (s *session) ResizeByScale(factor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scale <= 0 || factor <= 0 {
		return
	}
	size := common.Size{
		Width:  scaleDimension(s.size.Width, s.scale, factor),
		Height: scaleDimension(s.size.Height, s.scale, factor),
	}
	if s.resizeLocked(size) {
		s.scale = factor
	}
}

func scaleDimension(value uint32, from, to float64) uint32 {
	scaled := float64(value) / from * to
	if scaled >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(scaled)
}

func (s *session) resizeLocked(size common.Size) bool {
	if size.Width == 0 || size.Height == 0 {
		log.WithField("size", size).Debug("ignore resize to empty size")
		return false
	}
	s.size = s.clamp(size)
	log.WithFields(log.Fields{"session": s.id, "size": s.size}).Debug("resize")

	if s.backend.HasSurface() {
		if err := s.backend.ConfigureSurface(s.size); err != nil {
			log.WithError(err).Error("failed to configure surface")
		}
	}
	return true
}

func (s *session) Resize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.backend.HasSurface() {
		return nil
	}
	return s.backend.ConfigureSurface(s.size)
}

func (s *session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.view = nil
	if s.offscreen != nil {
		s.offscreen.release()
		s.offscreen = nil
	}
	for size, sb := range s.staging {
		sb.buf.Release()
		delete(s.staging, size)
	}
	s.arena.Release()
	s.backend.Release()
}
