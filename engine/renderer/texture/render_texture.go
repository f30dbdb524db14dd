package texture

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderTexture is the implementation of the RenderTexture interface.
type renderTexture struct {
	// id is the arena id of this texture.
	id common.ResourceID
	// label is a debug label, synthesized from the id when not set.
	label string
	// kind selects the texel format.
	kind Kind
	// format is the texel format, the format of kind unless overridden.
	format wgpu.TextureFormat
	// size is the pixel extent of the first mip level.
	size common.Size
	// layers is the depth or array layer count.
	layers uint32
	// usage holds the usage flags the texture was created with.
	usage wgpu.TextureUsage

	// data holds the host pixels pending upload by StoreToMemory, nil when the texture was created empty.
	data *common.ImageData

	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler

	// bindGroupLayout and bindGroup are the optional paired sampling group, view at binding 0 and sampler at binding 1.
	bindGroupLayout bind_group.Layout
	bindGroup       bind_group.BindGroup
}

// RenderTexture is a color texture together with its view, an optional sampler and an optional paired bind group.
type RenderTexture interface {
	// ID returns the arena id of this texture.
	//
	// Returns:
	//   - common.ResourceID: the id
	ID() common.ResourceID

	// SetID re-keys the texture.
	//
	// Parameters:
	//   - id: the new id
	SetID(id common.ResourceID)

	// Label returns the debug label of this texture.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Kind returns the format kind of this texture.
	//
	// Returns:
	//   - Kind: the kind
	Kind() Kind

	// Format returns the wgpu texel format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the format
	Format() wgpu.TextureFormat

	// Size returns the pixel extent of the texture.
	//
	// Returns:
	//   - common.Size: the size
	Size() common.Size

	// Usage returns the usage flags the texture was created with.
	//
	// Returns:
	//   - wgpu.TextureUsage: the usage flags
	Usage() wgpu.TextureUsage

	// Texture returns the GPU texture.
	//
	// Returns:
	//   - *wgpu.Texture: the texture
	Texture() *wgpu.Texture

	// View returns the default view of the texture.
	//
	// Returns:
	//   - *wgpu.TextureView: the view
	View() *wgpu.TextureView

	// Sampler returns the sampler, nil when the texture was built without one.
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler() *wgpu.Sampler

	// Data returns the host pixels pending upload, nil when there are none.
	//
	// Returns:
	//   - *common.ImageData: the pixels or nil
	Data() *common.ImageData

	// BindGroup returns the paired sampling bind group.
	//
	// Returns:
	//   - bind_group.BindGroup: the bind group
	//   - error: a NotFoundError when the texture was built without WithBindGroupBinding
	BindGroup() (bind_group.BindGroup, error)

	// BindGroupLayout returns the layout of the paired sampling bind group.
	//
	// Returns:
	//   - bind_group.Layout: the layout
	//   - error: a NotFoundError when the texture was built without WithBindGroupBinding
	BindGroupLayout() (bind_group.Layout, error)

	// StoreToMemory uploads the pending host pixels to the texture. It is a no-op when there are none.
	//
	// Parameters:
	//   - device: the device whose queue performs the write
	//
	// Returns:
	//   - error: the queue error
	StoreToMemory(device gpu.Device) error

	// LoadToBuffer records a copy of the whole texture into dst. Rows in dst are padded to the 256 byte copy alignment.
	//
	// Parameters:
	//   - enc: the encoder recording the copy
	//   - dst: the destination buffer, it must have COPY_DST usage
	//
	// Returns:
	//   - error: a CapacityError when dst cannot hold the padded image
	LoadToBuffer(enc gpu.Encoder, dst buffer.Buffer) error

	// PaddedBytesPerRow returns the 256 byte aligned row pitch used by LoadToBuffer.
	//
	// Returns:
	//   - uint32: the row pitch in bytes
	PaddedBytesPerRow() uint32

	// Release releases the texture, its view, its sampler and its paired bind group.
	Release()
}

var _ RenderTexture = &renderTexture{}

// NewRenderTexture creates a render texture. Either pixel data or a size is required; encoded image bytes are decoded
// before the texture is created and its size is taken from the image.
//
// Parameters:
//   - device: the device used to create the texture
//   - options: builder options configuring the texture
//
// Returns:
//   - RenderTexture: the created texture
//   - error: a MissingFieldError when neither data nor size is set, a decode error, or the device error
func NewRenderTexture(device gpu.Device, options ...RenderTextureBuilderOption) (RenderTexture, error) {
	b := &renderTextureBuilder{
		kind:         KindRender,
		usage:        wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopyDst,
		layers:       1,
		dimension:    wgpu.TextureDimension2D,
		sampler:      defaultSampler(),
		viewEntry:    defaultViewLayoutEntry,
		samplerEntry: defaultSamplerLayoutEntry,
	}
	for _, opt := range options {
		opt(b)
	}

	label := common.DefaultLabel(b.label, string(errs.KindRenderTexture), b.id)
	format := common.Coalesce(b.format, b.kind.Format())

	size := b.size
	if b.data != nil {
		if err := b.data.Decode(); err != nil {
			return nil, fmt.Errorf("failed to decode image for %q: %w", label, err)
		}
		size = b.data.Size()
	}
	if size.IsZero() {
		return nil, errs.Missing(errs.KindRenderTexture, errs.FieldTextureSize)
	}

	log.WithFields(log.Fields{
		"label":      label,
		"kind":       b.kind,
		"format":     format,
		"width":      size.Width,
		"height":     size.Height,
		"layers":     b.layers,
		"usage":      b.usage,
		"has_data":   b.data != nil,
		"sampler":    b.sampler != nil,
		"bind_group": b.bindGroupBinding != nil,
	}).Debug("build render texture")

	extent := size.Extent()
	extent.DepthOrArrayLayers = b.layers
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     b.dimension,
		Format:        format,
		Usage:         b.usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", label, err)
	}

	t := &renderTexture{
		id:      b.id,
		label:   label,
		kind:    b.kind,
		format:  format,
		size:    size,
		layers:  b.layers,
		usage:   b.usage,
		data:    b.data,
		texture: tex,
	}

	t.view, err = device.CreateTextureView(tex, b.viewDescriptor(label, format))
	if err != nil {
		t.discard(device)
		return nil, fmt.Errorf("failed to create view of %q: %w", label, err)
	}

	if b.sampler != nil {
		t.sampler, err = device.CreateSampler(b.sampler.Descriptor(label + " Sampler"))
		if err != nil {
			t.discard(device)
			return nil, fmt.Errorf("failed to create sampler of %q: %w", label, err)
		}
	}

	if b.bindGroupBinding != nil {
		if err := t.buildBindGroup(device, *b.bindGroupBinding, b.viewEntry, b.samplerEntry); err != nil {
			t.discard(device)
			return nil, err
		}
	}

	return t, nil
}

func (t *renderTexture) buildBindGroup(device gpu.Device, binding uint32, viewEntry, samplerEntry wgpu.BindGroupLayoutEntry) error {
	layoutEntries := []wgpu.BindGroupLayoutEntry{viewEntry}
	groupOptions := []bind_group.BindGroupBuilderOption{
		bind_group.WithLabel(fmt.Sprintf("Bind group of `%s`", t.label)),
		bind_group.WithBinding(binding),
		bind_group.WithViewEntry(viewEntry.Binding, t.view),
	}
	if t.sampler != nil {
		layoutEntries = append(layoutEntries, samplerEntry)
		groupOptions = append(groupOptions, bind_group.WithSamplerEntry(samplerEntry.Binding, t.sampler))
	}

	layout, err := bind_group.NewLayout(device,
		bind_group.WithLayoutLabel(fmt.Sprintf("Bind group layout of `%s`", t.label)),
		bind_group.WithLayoutEntries(layoutEntries...),
	)
	if err != nil {
		return fmt.Errorf("failed to create bind group layout of %q: %w", t.label, err)
	}

	group, err := bind_group.NewBindGroup(device, append(groupOptions, bind_group.WithLayout(layout.Handle()))...)
	if err != nil {
		device.Release(layout.Handle())
		return fmt.Errorf("failed to create bind group of %q: %w", t.label, err)
	}

	t.bindGroupLayout = layout
	t.bindGroup = group
	return nil
}

func (t *renderTexture) ID() common.ResourceID {
	return t.id
}

func (t *renderTexture) SetID(id common.ResourceID) {
	t.id = id
}

func (t *renderTexture) Label() string {
	return t.label
}

func (t *renderTexture) Kind() Kind {
	return t.kind
}

func (t *renderTexture) Format() wgpu.TextureFormat {
	return t.format
}

func (t *renderTexture) Size() common.Size {
	return t.size
}

func (t *renderTexture) Usage() wgpu.TextureUsage {
	return t.usage
}

func (t *renderTexture) Texture() *wgpu.Texture {
	return t.texture
}

func (t *renderTexture) View() *wgpu.TextureView {
	return t.view
}

func (t *renderTexture) Sampler() *wgpu.Sampler {
	return t.sampler
}

func (t *renderTexture) Data() *common.ImageData {
	return t.data
}

func (t *renderTexture) BindGroup() (bind_group.BindGroup, error) {
	if t.bindGroup == nil {
		return nil, errs.NotFoundName(errs.KindBindGroup, t.label)
	}
	return t.bindGroup, nil
}

func (t *renderTexture) BindGroupLayout() (bind_group.Layout, error) {
	if t.bindGroupLayout == nil {
		return nil, errs.NotFoundName(errs.KindBindGroupLayout, t.label)
	}
	return t.bindGroupLayout, nil
}

func (t *renderTexture) StoreToMemory(device gpu.Device) error {
	if t.data == nil || len(t.data.Pixels) == 0 {
		return nil
	}

	bytesPerPixel := t.kind.BytesPerPixel()
	log.WithFields(log.Fields{
		"label":  t.label,
		"width":  t.size.Width,
		"height": t.size.Height,
		"bytes":  len(t.data.Pixels),
	}).Debug("store texture to memory")

	extent := t.size.Extent()
	return device.WriteTexture(t.texture, t.data.Pixels, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  t.size.Width * bytesPerPixel,
		RowsPerImage: t.size.Height,
	}, &extent)
}

func (t *renderTexture) PaddedBytesPerRow() uint32 {
	return common.PaddedBytesPerRow(t.size.Width, t.kind.BytesPerPixel())
}

func (t *renderTexture) LoadToBuffer(enc gpu.Encoder, dst buffer.Buffer) error {
	bytesPerRow := t.PaddedBytesPerRow()
	if err := errs.CheckCapacity(dst.Label(), 0, uint64(bytesPerRow)*uint64(t.size.Height), dst.Capacity()); err != nil {
		return err
	}

	extent := t.size.Extent()
	enc.CopyTextureToBuffer(imageCopy(t.texture), &wgpu.ImageCopyBuffer{
		Buffer: dst.Handle(),
		Layout: wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerRow,
			RowsPerImage: t.size.Height,
		},
	}, &extent)
	return nil
}

// discard frees the handles of a texture whose construction failed.
func (t *renderTexture) discard(device gpu.Device) {
	if t.sampler != nil {
		device.Release(t.sampler)
	}
	if t.view != nil {
		device.Release(t.view)
	}
	device.Release(t.texture)
}

func (t *renderTexture) Release() {
	if t.bindGroup != nil {
		t.bindGroup.Release()
		t.bindGroup = nil
	}
	if t.bindGroupLayout != nil {
		t.bindGroupLayout.Release()
		t.bindGroupLayout = nil
	}
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
