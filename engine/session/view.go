package session

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture"
)

const targetFormat = wgpu.TextureFormatRGBA8UnormSrgb

type viewKind int

const (
	viewSurface viewKind = iota
	viewTexture
)

// view is the render target of one frame, live from ViewSurface or ViewTexture until Present.
type view struct {
	kind viewKind

	surfaceView *wgpu.TextureView

	target   *offscreen
	format   ImageFormat
	savePath string
}

// offscreen is the texture and readback buffer pair of a headless frame. It is reused while the size is unchanged.
type offscreen struct {
	size     common.Size
	texture  texture.RenderTexture
	readback buffer.Buffer
}

func (o *offscreen) release() {
	o.texture.Release()
	o.readback.Release()
}

func (s *session) ViewSurface() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.backend.HasSurface() {
		return errs.ErrSurfaceNotConfigured
	}
	tv, err := s.backend.AcquireSurface()
	if err != nil {
		return err
	}
	s.view = &view{kind: viewSurface, surfaceView: tv}
	return nil
}

func (s *session) ViewTexture(format ImageFormat, savePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.offscreen == nil || s.offscreen.size != s.size {
		if s.offscreen != nil {
			s.offscreen.release()
			s.offscreen = nil
		}
		target, err := s.newOffscreen(s.size)
		if err != nil {
			return err
		}
		s.offscreen = target
	}

	if filepath.Ext(savePath) == "" {
		savePath = savePath + "." + format.Extension()
	}
	s.view = &view{kind: viewTexture, target: s.offscreen, format: format, savePath: savePath}
	return nil
}

func (s *session) newOffscreen(size common.Size) (*offscreen, error) {
	device := s.backend.Device()

	log.WithFields(log.Fields{"session": s.id, "size": size}).Debug("build offscreen target")

	tex, err := texture.NewRenderTexture(device,
		texture.WithLabel("Render Texture"),
		texture.WithKind(texture.KindRender),
		texture.WithSize(size),
		texture.WithUsage(wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageCopySrc|wgpu.TextureUsageTextureBinding),
		texture.WithoutSampler(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create render target: %w", err)
	}

	readback, err := buffer.NewBuffer(device,
		buffer.WithLabel("Render texture buffer"),
		buffer.WithSize(uint64(tex.PaddedBytesPerRow())*uint64(size.Height)),
		buffer.WithUsage(wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst),
	)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create readback buffer: %w", err)
	}
	return &offscreen{size: size, texture: tex, readback: readback}, nil
}

func (s *session) TargetView() (*wgpu.TextureView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view == nil {
		return nil, errs.ErrNotInitView
	}
	if s.view.kind == viewSurface {
		return s.view.surfaceView, nil
	}
	return s.view.target.texture.View(), nil
}

func (s *session) TargetFormat() wgpu.TextureFormat {
	if s.backend.HasSurface() {
		return s.backend.SurfaceFormat()
	}
	return targetFormat
}

func (s *session) Render(pass render_pass.RenderPass) error {
	s.mu.Lock()
	v := s.view
	s.mu.Unlock()

	if v == nil {
		return errs.ErrNotInitView
	}
	if err := pass.Validate(); err != nil {
		return err
	}
	if v.kind == viewTexture {
		pass.SetCopyParams(render_pass.CopyParams{Texture: v.target.texture, Buffer: v.target.readback})
	}

	enc, err := s.backend.NewEncoder(pass.Label())
	if err != nil {
		return fmt.Errorf("failed to create encoder for %q: %w", pass.Label(), err)
	}
	defer enc.Release()
	return pass.Execute(enc)
}

func (s *session) Present() error {
	s.mu.Lock()
	v := s.view
	s.view = nil
	s.mu.Unlock()

	if v == nil {
		return errs.ErrNotInitView
	}
	if v.kind == viewSurface {
		s.backend.PresentSurface()
		return nil
	}

	target := v.target
	data, err := s.mapRead(context.Background(), target.readback.Label(), target.readback.Handle(), target.readback.Capacity())
	if err != nil {
		return err
	}
	img, err := reconstructImage(data, target.size, target.texture.PaddedBytesPerRow())
	if err != nil {
		return err
	}
	if err := saveImage(v.savePath, v.format, img); err != nil {
		return err
	}

	log.WithFields(log.Fields{"session": s.id, "path": v.savePath, "format": v.format}).Debug("save frame")
	return nil
}

// reconstructImage strips the row padding of a texture copy and wraps the pixels in an image.
func reconstructImage(data []byte, size common.Size, paddedBytesPerRow uint32) (*image.RGBA, error) {
	rowBytes := int(size.Width) * 4
	rows := int(size.Height)
	pitch := int(paddedBytesPerRow)
	if rowBytes == 0 || rows == 0 || pitch < rowBytes || len(data) < pitch*(rows-1)+rowBytes {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d with row pitch %d", errs.ErrImageReconstruct, len(data), size.Width, size.Height, pitch)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(size.Width), rows))
	for y := 0; y < rows; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+rowBytes], data[y*pitch:y*pitch+rowBytes])
	}
	return img, nil
}

func saveImage(path string, format ImageFormat, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %q: %w", path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	if err := format.encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %q: %w", path, err)
	}
	return f.Close()
}
