package core

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextureSample(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 128})
	tex := NewTexture(img)
	require.NotNil(t, tex)
	assert.Equal(t, image.Rect(0, 0, 2, 1), tex.Bounds())

	left := tex.Sample(mgl32.Vec2{0.25, 0.5})
	assert.InDelta(t, 0, left.Sub(mgl32.Vec4{1, 0, 0, 1}).Len(), 1e-2, "%v", left)

	// Straight alpha survives the premultiplied store.
	right := tex.Sample(mgl32.Vec2{0.75, 0.5})
	assert.InDelta(t, 1, right.Z(), 1e-2)
	assert.InDelta(t, 128.0/255, right.W(), 1e-2)

	// Wrapping repeats the image.
	wrapped := tex.Sample(mgl32.Vec2{1.25, 3.5})
	assert.InDelta(t, 0, wrapped.Sub(left).Len(), 1e-5)

	assert.Nil(t, NewTexture(nil))
}

func TestStandardMaterialAlphaTest(t *testing.T) {
	m := NewStandardMaterial(mgl32.Vec4{1, 1, 1, 0.4})
	m.AlphaTest = 0.5
	_, discard := m.Shade(&Fragment{Normal: mgl32.Vec3{0, 1, 0}, Depth: 0.5})
	assert.True(t, discard)

	m.AlphaTest = 0.4
	out, discard := m.Shade(&Fragment{Normal: mgl32.Vec3{0, 1, 0}, Depth: 0.5})
	assert.False(t, discard)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 0.4}, out[0])
	assert.Equal(t, mgl32.Vec4{0.5, 1, 0.5, 0.5}, out[1])
}

func TestFlattenMaterial(t *testing.T) {
	src := NewStandardMaterial(mgl32.Vec4{0.2, 0.4, 0.6, 1})
	src.Sided = DoubleSide
	f := &Fragment{
		Normal:      mgl32.Vec3{1, 0, 0},
		LocalNormal: mgl32.Vec3{0, 0, 1},
		Depth:       0.75,
		FrontFacing: true,
	}

	world := NewFlattenMaterial(src, WorldNormals)
	assert.True(t, world.DoubleSided())
	out, discard := world.Shade(f)
	require.False(t, discard)
	assert.Equal(t, src.Color, out[0])
	assert.InDelta(t, 0, DecodeNormal(out[1]).Sub(mgl32.Vec3{1, 0, 0}).Len(), 1e-5)
	assert.Equal(t, float32(0.75), out[1].W())

	local := NewFlattenMaterial(src, LocalNormals)
	out, _ = local.Shade(f)
	assert.InDelta(t, 0, DecodeNormal(out[1]).Sub(mgl32.Vec3{0, 0, 1}).Len(), 1e-5)

	// Back faces of double-sided meshes store the flipped normal.
	f.FrontFacing = false
	out, _ = world.Shade(f)
	assert.InDelta(t, 0, DecodeNormal(out[1]).Sub(mgl32.Vec3{-1, 0, 0}).Len(), 1e-5)
}

func TestFlattenMaterialNilSource(t *testing.T) {
	m := NewFlattenMaterial(nil, WorldNormals)
	assert.False(t, m.DoubleSided())
	out, discard := m.Shade(&Fragment{Normal: mgl32.Vec3{0, 1, 0}, FrontFacing: true})
	assert.False(t, discard)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, out[0])
}

func TestDecodeNormalZero(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, DecodeNormal(mgl32.Vec4{0.5, 0.5, 0.5, 0}))
}
