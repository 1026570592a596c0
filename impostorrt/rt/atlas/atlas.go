// Package atlas holds the baked impostor atlas: two equally sized images
// split into SpritesPerSide x SpritesPerSide square cells, one baked view
// per cell. UV (0,0) is the top-left corner of the image.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/impostor/impostorrt/rt/core"
	"github.com/gekko3d/impostor/impostorrt/rt/octa"
)

var (
	ErrReleased       = errors.New("atlas: image has been released")
	ErrSpritesPerSide = errors.New("atlas: sprites per side must be at least 2")
	ErrSize           = errors.New("atlas: size must be a positive multiple of sprites per side")
	ErrSizeMismatch   = errors.New("atlas: color and normal-depth buffers differ in size")
)

// Cell identifies one grid cell. Col runs along +U, Row along +V.
type Cell struct {
	Col, Row int
}

// View records how one cell was baked.
type View struct {
	Cell      Cell
	Direction mgl32.Vec3 // from the sphere centre toward the camera
	Rect      image.Rectangle
}

type Image struct {
	ID             uuid.UUID
	SpritesPerSide int
	Size           int
	Mode           octa.Mode
	Premultiplied  bool

	// Color is RGBA; NormalDepth stores n*0.5+0.5 in RGB and linear depth
	// (1 near, 0 far) in A.
	Color       *image.NRGBA
	NormalDepth *image.NRGBA64

	Views []View

	// Sphere is the bounding sphere the views were framed on, in the
	// baked node's world space. HalfExtent is the half size of one cell
	// at the sphere centre, in radii.
	Sphere     core.Sphere
	HalfExtent float32
	// Box is the world AABB of the baked hierarchy, min then max.
	Box [2]mgl32.Vec3
}

// New allocates an empty atlas.
func New(size, spritesPerSide int, mode octa.Mode) (*Image, error) {
	if err := CheckLayout(size, spritesPerSide); err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, size, size)
	return &Image{
		ID:             uuid.New(),
		SpritesPerSide: spritesPerSide,
		Size:           size,
		Mode:           mode,
		Color:          image.NewNRGBA(rect),
		NormalDepth:    image.NewNRGBA64(rect),
	}, nil
}

// FromBuffers wraps buffers read back from a render target.
func FromBuffers(c *image.NRGBA, nd *image.NRGBA64, spritesPerSide int, mode octa.Mode) (*Image, error) {
	if c == nil || nd == nil {
		return nil, ErrSizeMismatch
	}
	if c.Rect.Size() != nd.Rect.Size() || c.Rect.Dx() != c.Rect.Dy() {
		return nil, ErrSizeMismatch
	}
	size := c.Rect.Dx()
	if err := CheckLayout(size, spritesPerSide); err != nil {
		return nil, err
	}
	return &Image{
		ID:             uuid.New(),
		SpritesPerSide: spritesPerSide,
		Size:           size,
		Mode:           mode,
		Color:          c,
		NormalDepth:    nd,
	}, nil
}

// CheckLayout validates that size splits into equal square cells.
func CheckLayout(size, spritesPerSide int) error {
	if spritesPerSide < 2 {
		return ErrSpritesPerSide
	}
	if size <= 0 || size%spritesPerSide != 0 {
		return fmt.Errorf("%w: size %d, sprites %d", ErrSize, size, spritesPerSide)
	}
	return nil
}

// CellRects returns the pixel rectangle of every cell in row-major order.
// The rectangles tile the size x size square exactly.
func CellRects(size, spritesPerSide int) []image.Rectangle {
	cs := size / spritesPerSide
	rects := make([]image.Rectangle, 0, spritesPerSide*spritesPerSide)
	for row := 0; row < spritesPerSide; row++ {
		for col := 0; col < spritesPerSide; col++ {
			rects = append(rects, image.Rect(col*cs, row*cs, (col+1)*cs, (row+1)*cs))
		}
	}
	return rects
}

func (a *Image) CellSize() int {
	return a.Size / a.SpritesPerSide
}

func (a *Image) CellRect(c Cell) image.Rectangle {
	cs := a.CellSize()
	return image.Rect(c.Col*cs, c.Row*cs, (c.Col+1)*cs, (c.Row+1)*cs)
}

// CellUV maps a quad-local UV to atlas UV inside cell c.
func (a *Image) CellUV(c Cell, local mgl32.Vec2) mgl32.Vec2 {
	return CellUV(c, local, a.SpritesPerSide)
}

// CellUV maps a quad-local UV (clamped to [0,1]) into cell c of an atlas with
// n cells per side.
func CellUV(c Cell, local mgl32.Vec2, n int) mgl32.Vec2 {
	size := 1 / float32(n)
	u := mgl32.Clamp(local.X(), 0, 1)
	v := mgl32.Clamp(local.Y(), 0, 1)
	return mgl32.Vec2{size * (float32(c.Col) + u), size * (float32(c.Row) + v)}
}

// PremultipliedAlpha reports whether Color stores premultiplied alpha.
func (a *Image) PremultipliedAlpha() bool {
	return a.Premultiplied
}

func (a *Image) Released() bool {
	return a.Color == nil || a.NormalDepth == nil
}

// Release drops both buffers. The image must not be sampled afterwards.
func (a *Image) Release() {
	a.Color = nil
	a.NormalDepth = nil
	a.Views = nil
}

// Cell copies one cell out of both buffers.
func (a *Image) Cell(c Cell) (*image.NRGBA, *image.NRGBA64, error) {
	if a.Released() {
		return nil, nil, ErrReleased
	}
	r := a.CellRect(c)
	cs := a.CellSize()
	dstC := image.NewNRGBA(image.Rect(0, 0, cs, cs))
	dstN := image.NewNRGBA64(image.Rect(0, 0, cs, cs))
	copyRows(dstC.Pix, dstC.Stride, a.Color.Pix[a.Color.PixOffset(r.Min.X, r.Min.Y):], a.Color.Stride, cs*4, cs)
	copyRows(dstN.Pix, dstN.Stride, a.NormalDepth.Pix[a.NormalDepth.PixOffset(r.Min.X, r.Min.Y):], a.NormalDepth.Stride, cs*8, cs)
	return dstC, dstN, nil
}

// copyRows copies rows of n bytes verbatim. Normal-depth keeps depth in A, so
// pixels must never go through premultiplied color conversion.
func copyRows(dst []byte, dstStride int, src []byte, srcStride, n, rows int) {
	for y := 0; y < rows; y++ {
		copy(dst[y*dstStride:y*dstStride+n], src[y*srcStride:y*srcStride+n])
	}
}

// Preview returns the color buffer resized to size x size.
func (a *Image) Preview(size int) (image.Image, error) {
	if a.Released() {
		return nil, ErrReleased
	}
	return transform.Resize(a.Color, size, size, transform.Linear), nil
}

// SampleColor bilinearly samples the color buffer at uv, clamped to the edge.
// Samples of a released image are transparent.
func (a *Image) SampleColor(uv mgl32.Vec2) mgl32.Vec4 {
	if a.Color == nil {
		return mgl32.Vec4{}
	}
	return bilinear(a.Size, uv, func(x, y int) mgl32.Vec4 {
		i := a.Color.PixOffset(x, y)
		p := a.Color.Pix[i : i+4 : i+4]
		return mgl32.Vec4{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
	})
}

// SampleNormalDepth bilinearly samples the normal-depth buffer at uv.
func (a *Image) SampleNormalDepth(uv mgl32.Vec2) mgl32.Vec4 {
	if a.NormalDepth == nil {
		return mgl32.Vec4{0.5, 0.5, 1, 0}
	}
	return bilinear(a.Size, uv, func(x, y int) mgl32.Vec4 {
		c := a.NormalDepth.NRGBA64At(x, y)
		return mgl32.Vec4{float32(c.R) / 0xffff, float32(c.G) / 0xffff, float32(c.B) / 0xffff, float32(c.A) / 0xffff}
	})
}

func bilinear(size int, uv mgl32.Vec2, texel func(x, y int) mgl32.Vec4) mgl32.Vec4 {
	fx := mgl32.Clamp(uv.X(), 0, 1)*float32(size) - 0.5
	fy := mgl32.Clamp(uv.Y(), 0, 1)*float32(size) - 0.5
	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	dx := fx - float32(x0)
	dy := fy - float32(y0)

	clampi := func(i int) int {
		if i < 0 {
			return 0
		}
		if i >= size {
			return size - 1
		}
		return i
	}
	xa, xb := clampi(x0), clampi(x0+1)
	ya, yb := clampi(y0), clampi(y0+1)

	return texel(xa, ya).Mul((1 - dx) * (1 - dy)).
		Add(texel(xb, ya).Mul(dx * (1 - dy))).
		Add(texel(xa, yb).Mul((1 - dx) * dy)).
		Add(texel(xb, yb).Mul(dx * dy))
}

// SetCell fills a whole cell with constant values; used to build synthetic
// atlases.
func (a *Image) SetCell(c Cell, col color.NRGBA, nd color.NRGBA64) error {
	if a.Released() {
		return ErrReleased
	}
	r := a.CellRect(c)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			a.Color.SetNRGBA(x, y, col)
			a.NormalDepth.SetNRGBA64(x, y, nd)
		}
	}
	return nil
}
