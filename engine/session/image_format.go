package session

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ImageFormat is the file format an offscreen frame is saved in.
type ImageFormat int

const (
	ImageFormatPNG ImageFormat = iota
	ImageFormatJPEG
	ImageFormatBMP
	ImageFormatTIFF
)

func (f ImageFormat) String() string {
	switch f {
	case ImageFormatPNG:
		return "png"
	case ImageFormatJPEG:
		return "jpeg"
	case ImageFormatBMP:
		return "bmp"
	case ImageFormatTIFF:
		return "tiff"
	default:
		return fmt.Sprintf("ImageFormat(%d)", int(f))
	}
}

// Extension returns the file extension of the format, without the dot.
func (f ImageFormat) Extension() string {
	if f == ImageFormatJPEG {
		return "jpg"
	}
	return f.String()
}

// ParseImageFormat parses a format name such as "png" or "jpg". Matching ignores case.
//
// Parameters:
//   - name: the format name
//
// Returns:
//   - ImageFormat: the format
//   - error: error if the name is not a supported format
func ParseImageFormat(name string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "", "png":
		return ImageFormatPNG, nil
	case "jpg", "jpeg":
		return ImageFormatJPEG, nil
	case "bmp":
		return ImageFormatBMP, nil
	case "tif", "tiff":
		return ImageFormatTIFF, nil
	default:
		return 0, fmt.Errorf("unsupported image format %q", name)
	}
}

func (f ImageFormat) encode(w io.Writer, img image.Image) error {
	switch f {
	case ImageFormatPNG:
		return png.Encode(w, img)
	case ImageFormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case ImageFormatBMP:
		return bmp.Encode(w, img)
	case ImageFormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported image format %s", f)
	}
}
