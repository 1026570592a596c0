package core

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Fragment carries the interpolated attributes of one covered pixel.
type Fragment struct {
	UV          mgl32.Vec2
	Normal      mgl32.Vec3 // world space, normalized
	LocalNormal mgl32.Vec3 // space of the node being rendered as root
	Depth       float32    // linear, 1 = near plane, 0 = far plane
	FrontFacing bool
}

// FragmentOutput holds one value per render target attachment.
type FragmentOutput [2]mgl32.Vec4

// Material shades fragments. Returning discard=true leaves the target untouched.
type Material interface {
	Shade(f *Fragment) (out FragmentOutput, discard bool)
	DoubleSided() bool
}

// AlbedoSource is implemented by materials that can report an unlit surface
// color, which is what gets baked.
type AlbedoSource interface {
	Albedo(uv mgl32.Vec2) mgl32.Vec4
	AlphaThreshold() float32
}

// Texture is an RGBA image sampled with bilinear filtering and wrapping.
type Texture struct {
	img *image.RGBA
}

func NewTexture(img image.Image) *Texture {
	if img == nil {
		return nil
	}
	return &Texture{img: clone.AsRGBA(img)}
}

func (t *Texture) Bounds() image.Rectangle {
	return t.img.Rect
}

// Sample returns straight-alpha color in [0,1].
func (t *Texture) Sample(uv mgl32.Vec2) mgl32.Vec4 {
	w := t.img.Rect.Dx()
	h := t.img.Rect.Dy()
	if w == 0 || h == 0 {
		return mgl32.Vec4{1, 1, 1, 1}
	}

	u := uv.X() - math32.Floor(uv.X())
	v := uv.Y() - math32.Floor(uv.Y())

	fx := u*float32(w) - 0.5
	fy := v*float32(h) - 0.5
	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	dx := fx - float32(x0)
	dy := fy - float32(y0)

	wrap := func(i, n int) int {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	xa, xb := wrap(x0, w), wrap(x0+1, w)
	ya, yb := wrap(y0, h), wrap(y0+1, h)

	c00 := t.texel(xa, ya)
	c10 := t.texel(xb, ya)
	c01 := t.texel(xa, yb)
	c11 := t.texel(xb, yb)

	c := c00.Mul((1 - dx) * (1 - dy)).
		Add(c10.Mul(dx * (1 - dy))).
		Add(c01.Mul((1 - dx) * dy)).
		Add(c11.Mul(dx * dy))

	// image.RGBA is premultiplied.
	if c.W() > 0 {
		inv := 1 / c.W()
		return mgl32.Vec4{c.X() * inv, c.Y() * inv, c.Z() * inv, c.W()}
	}
	return mgl32.Vec4{0, 0, 0, 0}
}

func (t *Texture) texel(x, y int) mgl32.Vec4 {
	i := t.img.PixOffset(x+t.img.Rect.Min.X, y+t.img.Rect.Min.Y)
	p := t.img.Pix[i : i+4 : i+4]
	return mgl32.Vec4{
		float32(p[0]) / 255,
		float32(p[1]) / 255,
		float32(p[2]) / 255,
		float32(p[3]) / 255,
	}
}

// StandardMaterial is an unlit diffuse material: color times an optional map,
// alpha-tested against AlphaTest.
type StandardMaterial struct {
	Color       mgl32.Vec4
	Map         *Texture
	AlphaTest   float32
	Transparent bool
	Sided       Side
}

type Side int

const (
	FrontSide Side = iota
	DoubleSide
)

func NewStandardMaterial(color mgl32.Vec4) *StandardMaterial {
	return &StandardMaterial{Color: color}
}

// DefaultMaterial is opaque white.
func DefaultMaterial() *StandardMaterial {
	return NewStandardMaterial(mgl32.Vec4{1, 1, 1, 1})
}

func (m *StandardMaterial) Albedo(uv mgl32.Vec2) mgl32.Vec4 {
	c := m.Color
	if m.Map != nil {
		t := m.Map.Sample(uv)
		c = mgl32.Vec4{c.X() * t.X(), c.Y() * t.Y(), c.Z() * t.Z(), c.W() * t.W()}
	}
	return c
}

func (m *StandardMaterial) AlphaThreshold() float32 {
	return m.AlphaTest
}

func (m *StandardMaterial) DoubleSided() bool {
	return m.Sided == DoubleSide
}

func (m *StandardMaterial) Shade(f *Fragment) (FragmentOutput, bool) {
	albedo := m.Albedo(f.UV)
	if albedo.W() < m.AlphaTest {
		return FragmentOutput{}, true
	}
	return FragmentOutput{albedo, encodeNormalDepth(f.Normal, f.Depth)}, false
}

// NormalSpace selects which normal a FlattenMaterial writes.
type NormalSpace int

const (
	WorldNormals NormalSpace = iota
	LocalNormals
)

// FlattenMaterial replaces a mesh's material while baking. Attachment 0 is
// the source's unlit albedo, attachment 1 is (normal*0.5+0.5, linear depth).
type FlattenMaterial struct {
	Source      Material
	NormalSpace NormalSpace
}

func NewFlattenMaterial(source Material, space NormalSpace) *FlattenMaterial {
	return &FlattenMaterial{Source: source, NormalSpace: space}
}

func (m *FlattenMaterial) DoubleSided() bool {
	return m.Source != nil && m.Source.DoubleSided()
}

func (m *FlattenMaterial) Shade(f *Fragment) (FragmentOutput, bool) {
	albedo := mgl32.Vec4{1, 1, 1, 1}
	if src, ok := m.Source.(AlbedoSource); ok {
		albedo = src.Albedo(f.UV)
		if albedo.W() < src.AlphaThreshold() {
			return FragmentOutput{}, true
		}
	}

	n := f.Normal
	if m.NormalSpace == LocalNormals {
		n = f.LocalNormal
	}
	if !f.FrontFacing {
		n = n.Mul(-1)
	}
	return FragmentOutput{albedo, encodeNormalDepth(n, f.Depth)}, false
}

func encodeNormalDepth(n mgl32.Vec3, depth float32) mgl32.Vec4 {
	return mgl32.Vec4{n.X()*0.5 + 0.5, n.Y()*0.5 + 0.5, n.Z()*0.5 + 0.5, depth}
}

// DecodeNormal maps a stored normal back to [-1,1] and renormalizes it.
func DecodeNormal(nd mgl32.Vec4) mgl32.Vec3 {
	n := mgl32.Vec3{nd.X()*2 - 1, nd.Y()*2 - 1, nd.Z()*2 - 1}
	if l := n.Len(); l > 1e-6 {
		return n.Mul(1 / l)
	}
	return mgl32.Vec3{0, 0, 1}
}
