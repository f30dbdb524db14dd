package texture

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

type depthTexture struct {
	id      common.ResourceID
	label   string
	size    common.Size
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

// DepthTexture is a Depth32Float texture with a view and a comparison sampler, used as a depth attachment.
type DepthTexture interface {
	ID() common.ResourceID
	SetID(id common.ResourceID)
	Label() string
	Size() common.Size
	Format() wgpu.TextureFormat
	Texture() *wgpu.Texture
	View() *wgpu.TextureView

	// Sampler returns the comparison sampler, nil when built WithoutDepthSampler.
	Sampler() *wgpu.Sampler

	Release()
}

var _ DepthTexture = &depthTexture{}

type depthTextureBuilder struct {
	id      common.ResourceID
	label   string
	size    common.Size
	usage   wgpu.TextureUsage
	sampler *common.SamplerData
}

// DepthTextureBuilderOption is a functional option used to configure a DepthTexture during construction.
type DepthTextureBuilderOption func(*depthTextureBuilder)

// NewDepthTexture creates a depth texture. The size is required.
//
// Parameters:
//   - device: the device used to create the texture
//   - options: builder options configuring the texture
//
// Returns:
//   - DepthTexture: the created texture
//   - error: a MissingFieldError when the size is unset, or the device error
func NewDepthTexture(device gpu.Device, options ...DepthTextureBuilderOption) (DepthTexture, error) {
	b := &depthTextureBuilder{
		usage: wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		sampler: &common.SamplerData{
			AddressModeU: wgpu.AddressModeClampToEdge,
			AddressModeV: wgpu.AddressModeClampToEdge,
			AddressModeW: wgpu.AddressModeClampToEdge,
			MagFilter:    wgpu.FilterModeLinear,
			MinFilter:    wgpu.FilterModeLinear,
			MipmapFilter: wgpu.MipmapFilterModeNearest,
			Compare:      wgpu.CompareFunctionLessEqual,
			LodMaxClamp:  100,
		},
	}
	for _, opt := range options {
		opt(b)
	}

	if b.size.IsZero() {
		return nil, errs.Missing(errs.KindDepthTexture, errs.FieldTextureSize)
	}

	label := common.DefaultLabel(b.label, string(errs.KindDepthTexture), b.id)
	log.WithFields(log.Fields{
		"label":   label,
		"width":   b.size.Width,
		"height":  b.size.Height,
		"usage":   b.usage,
		"sampler": b.sampler != nil,
	}).Debug("build depth texture")

	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          b.size.Extent(),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        KindDepth.Format(),
		Usage:         b.usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create depth texture %q: %w", label, err)
	}

	t := &depthTexture{id: b.id, label: label, size: b.size, texture: tex}
	t.view, err = device.CreateTextureView(tex, &wgpu.TextureViewDescriptor{
		Label:           label + " View",
		Format:          KindDepth.Format(),
		Dimension:       wgpu.TextureViewDimension2D,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		device.Release(tex)
		return nil, fmt.Errorf("failed to create view of %q: %w", label, err)
	}

	if b.sampler != nil {
		t.sampler, err = device.CreateSampler(b.sampler.Descriptor(label + " Sampler"))
		if err != nil {
			device.Release(t.view)
			device.Release(tex)
			return nil, fmt.Errorf("failed to create sampler of %q: %w", label, err)
		}
	}

	return t, nil
}

// WithDepthID sets the arena id of the depth texture.
func WithDepthID(id common.ResourceID) DepthTextureBuilderOption {
	return func(b *depthTextureBuilder) {
		b.id = id
	}
}

// WithDepthLabel sets the debug label of the depth texture.
func WithDepthLabel(label string) DepthTextureBuilderOption {
	return func(b *depthTextureBuilder) {
		b.label = label
	}
}

// WithDepthSize sets the size of the depth texture, usually the size of the color target.
func WithDepthSize(size common.Size) DepthTextureBuilderOption {
	return func(b *depthTextureBuilder) {
		b.size = size
	}
}

// WithDepthUsage sets the usage flags. Defaults to RENDER_ATTACHMENT | TEXTURE_BINDING.
func WithDepthUsage(usage wgpu.TextureUsage) DepthTextureBuilderOption {
	return func(b *depthTextureBuilder) {
		b.usage = usage
	}
}

// WithoutDepthSampler builds the depth texture without its comparison sampler.
func WithoutDepthSampler() DepthTextureBuilderOption {
	return func(b *depthTextureBuilder) {
		b.sampler = nil
	}
}

func (t *depthTexture) ID() common.ResourceID {
	return t.id
}

func (t *depthTexture) SetID(id common.ResourceID) {
	t.id = id
}

func (t *depthTexture) Label() string {
	return t.label
}

func (t *depthTexture) Size() common.Size {
	return t.size
}

func (t *depthTexture) Format() wgpu.TextureFormat {
	return KindDepth.Format()
}

func (t *depthTexture) Texture() *wgpu.Texture {
	return t.texture
}

func (t *depthTexture) View() *wgpu.TextureView {
	return t.view
}

func (t *depthTexture) Sampler() *wgpu.Sampler {
	return t.sampler
}

func (t *depthTexture) Release() {
	if t.sampler != nil {
		t.sampler.Release()
		t.sampler = nil
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}
