package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/gekko3d/impostor/impostorrt/rt/atlas"
)

var ErrReleasedAtlas = errors.New("gpu: atlas image has been released")

// AtlasTextures holds the GPU copies of both atlas attachments.
type AtlasTextures struct {
	ID   uuid.UUID
	Size int

	ColorTex   *wgpu.Texture
	NormalTex  *wgpu.Texture
	ColorView  *wgpu.TextureView
	NormalView *wgpu.TextureView
	Sampler    *wgpu.Sampler
}

// UploadAtlas creates two RGBA8 textures from img.
func UploadAtlas(device *wgpu.Device, img *atlas.Image) (*AtlasTextures, error) {
	if img.Released() {
		return nil, ErrReleasedAtlas
	}
	t := &AtlasTextures{ID: img.ID, Size: img.Size}

	var err error
	t.ColorTex, t.ColorView, err = uploadRGBA8(device, "Impostor Atlas Color", img.Size, ColorRGBA8(img))
	if err != nil {
		return nil, err
	}
	t.NormalTex, t.NormalView, err = uploadRGBA8(device, "Impostor Atlas NormalDepth", img.Size, NormalDepthRGBA8(img))
	if err != nil {
		t.Release()
		return nil, err
	}
	t.Sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("gpu: atlas sampler: %w", err)
	}
	return t, nil
}

func uploadRGBA8(device *wgpu.Device, label string, size int, pix []byte) (*wgpu.Texture, *wgpu.TextureView, error) {
	extent := wgpu.Extent3D{Width: uint32(size), Height: uint32(size), DepthOrArrayLayers: 1}
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	device.GetQueue().WriteTexture(tex.AsImageCopy(), pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(size * 4),
		RowsPerImage: uint32(size),
	}, &extent)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("gpu: view %s: %w", label, err)
	}
	return tex, view, nil
}

// Release frees both textures, their views and the sampler. Safe to call twice.
func (t *AtlasTextures) Release() {
	if t.ColorView != nil {
		t.ColorView.Release()
		t.ColorView = nil
	}
	if t.NormalView != nil {
		t.NormalView.Release()
		t.NormalView = nil
	}
	if t.ColorTex != nil {
		t.ColorTex.Release()
		t.ColorTex = nil
	}
	if t.NormalTex != nil {
		t.NormalTex.Release()
		t.NormalTex = nil
	}
	if t.Sampler != nil {
		t.Sampler.Release()
		t.Sampler = nil
	}
}

// ColorRGBA8 returns the color attachment as tightly packed straight-alpha
// RGBA8 rows.
func ColorRGBA8(img *atlas.Image) []byte {
	c := img.Color
	w, h := c.Rect.Dx(), c.Rect.Dy()
	if c.Stride == w*4 {
		return c.Pix[:w*h*4]
	}
	out := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		out = append(out, c.Pix[y*c.Stride:y*c.Stride+w*4]...)
	}
	return out
}

// NormalDepthRGBA8 narrows the 16-bit normal-depth attachment to RGBA8.
func NormalDepthRGBA8(img *atlas.Image) []byte {
	nd := img.NormalDepth
	w, h := nd.Rect.Dx(), nd.Rect.Dy()
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		row := nd.Pix[y*nd.Stride:]
		for x := 0; x < w*4; x++ {
			// Big-endian 16-bit channels: keep the high byte.
			out[y*w*4+x] = row[x*2]
		}
	}
	return out
}
