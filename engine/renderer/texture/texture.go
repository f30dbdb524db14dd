// Package texture builds the render and depth textures stored in the arena. A render texture owns its view, an
// optional sampler, optional pending host pixels and an optional paired bind group used to sample it directly.
package texture

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Kind selects the texel format of a texture.
type Kind int

const (
	// KindRender is an sRGB color texture.
	KindRender Kind = iota
	// KindNormalMap is a linear color texture, used for normal maps.
	KindNormalMap
	// KindDepth is a 32-bit float depth texture.
	KindDepth
	// KindHDR is a half-float color texture.
	KindHDR
)

// Format returns the wgpu texture format of the kind.
func (k Kind) Format() wgpu.TextureFormat {
	switch k {
	case KindNormalMap:
		return wgpu.TextureFormatRGBA8Unorm
	case KindDepth:
		return wgpu.TextureFormatDepth32Float
	case KindHDR:
		return wgpu.TextureFormatRGBA16Float
	default:
		return wgpu.TextureFormatRGBA8UnormSrgb
	}
}

// BytesPerPixel returns the size of one texel of the kind.
func (k Kind) BytesPerPixel() uint32 {
	if k == KindHDR {
		return 8
	}
	return 4
}

func (k Kind) String() string {
	switch k {
	case KindRender:
		return "render"
	case KindNormalMap:
		return "normal map"
	case KindDepth:
		return "depth"
	case KindHDR:
		return "hdr"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// imageCopy describes the whole first mip level of a texture as a copy source or destination.
func imageCopy(tex *wgpu.Texture) *wgpu.ImageCopyTexture {
	return &wgpu.ImageCopyTexture{
		Texture:  tex,
		MipLevel: 0,
		Origin:   wgpu.Origin3D{},
		Aspect:   wgpu.TextureAspectAll,
	}
}
