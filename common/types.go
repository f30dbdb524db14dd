// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ResourceID identifies a GPU resource inside an arena. The zero value means "unassigned".
type ResourceID uint64

// Size is a two dimensional extent in pixels.
type Size struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero.
func (s Size) IsZero() bool {
	return s.Width == 0 || s.Height == 0
}

// Aspect returns width over height, or 1 for an empty size.
func (s Size) Aspect() float32 {
	if s.IsZero() {
		return 1
	}
	return float32(s.Width) / float32(s.Height)
}

// Extent converts the size into a single-layer wgpu extent.
func (s Size) Extent() wgpu.Extent3D {
	return wgpu.Extent3D{Width: s.Width, Height: s.Height, DepthOrArrayLayers: 1}
}

// Range is a half-open [Start, End) range of vertices, indices or instances.
type Range struct {
	Start uint32
	End   uint32
}

// Count returns the number of elements covered by the range.
func (r Range) Count() uint32 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// ImageData holds RGBA pixel data pending GPU upload.
// Either Pixels with Width and Height, or Encoded (PNG, JPEG, BMP, TIFF, WebP) must be set.
type ImageData struct {
	// Pixels is the raw RGBA pixel data, 4 bytes per pixel in row-major order.
	Pixels []byte
	// Width is the width of the image in pixels.
	Width uint32
	// Height is the height of the image in pixels.
	Height uint32
	// Encoded holds still-encoded image bytes, decoded lazily by Decode.
	Encoded []byte
	// Path is an image file on disk, used when neither Pixels nor Encoded is set.
	Path string
}

// Size returns the pixel dimensions of the image.
func (d ImageData) Size() Size {
	return Size{Width: d.Width, Height: d.Height}
}

// Decoded reports whether raw pixels are available.
func (d *ImageData) Decoded() bool {
	return d != nil && len(d.Pixels) > 0 && d.Width > 0 && d.Height > 0
}

// Decode converts Encoded or Path into raw RGBA Pixels and fills in Width and Height.
// It is a no-op when the image already holds raw pixels.
// Reference: https://pkg.go.dev/image
//
// Returns:
//   - error: error if there is nothing to decode or decoding fails
func (d *ImageData) Decode() error {
	if d == nil {
		return fmt.Errorf("image data is nil")
	}
	if d.Decoded() {
		return nil
	}

	var img image.Image
	var err error

	if len(d.Encoded) > 0 {
		img, _, err = image.Decode(bytes.NewReader(d.Encoded))
		if err != nil {
			return fmt.Errorf("failed to decode embedded image: %w", err)
		}
	} else if d.Path != "" {
		file, fileErr := os.Open(d.Path)
		if fileErr != nil {
			return fmt.Errorf("failed to open image file %s: %w", d.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return fmt.Errorf("failed to decode image file %s: %w", d.Path, err)
		}
	} else {
		return fmt.Errorf("image has neither pixels, encoded data nor path")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	d.Pixels = rgba.Pix
	d.Width = uint32(bounds.Dx())
	d.Height = uint32(bounds.Dy())
	d.Encoded = nil
	return nil
}

// SamplerData holds the configuration for a sampler pending GPU creation.
type SamplerData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers, used for depth textures.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level.
	MaxAnisotropy uint16
}

// Descriptor converts the sampler data into a wgpu sampler descriptor with the given label.
func (s SamplerData) Descriptor(label string) *wgpu.SamplerDescriptor {
	return &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  s.AddressModeU,
		AddressModeV:  s.AddressModeV,
		AddressModeW:  s.AddressModeW,
		MagFilter:     s.MagFilter,
		MinFilter:     s.MinFilter,
		MipmapFilter:  s.MipmapFilter,
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   s.LodMaxClamp,
		Compare:       s.Compare,
		MaxAnisotropy: Coalesce(s.MaxAnisotropy, 1),
	}
}
