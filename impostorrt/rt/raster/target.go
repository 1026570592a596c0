package raster

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var (
	ErrReleased   = errors.New("raster: target has been released")
	ErrTargetSize = errors.New("raster: target size must be positive")
)

// Target is an offscreen target with two color attachments and a depth
// buffer. Depth holds linear depth (1 near, 0 far); cleared pixels are -1.
type Target struct {
	w, h        int
	color       *image.NRGBA
	normalDepth *image.NRGBA64
	depth       []float32
}

func NewTarget(w, h int) (*Target, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrTargetSize
	}
	rect := image.Rect(0, 0, w, h)
	t := &Target{
		w:           w,
		h:           h,
		color:       image.NewNRGBA(rect),
		normalDepth: image.NewNRGBA64(rect),
		depth:       make([]float32, w*h),
	}
	for i := range t.depth {
		t.depth[i] = -1
	}
	return t, nil
}

func (t *Target) Size() (int, int) {
	return t.w, t.h
}

func (t *Target) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.w, t.h)
}

func (t *Target) released() bool {
	return t.color == nil
}

// ReadBack copies both attachments. The copy is byte for byte: a draw.Src
// copy would scale the normal by the depth stored in alpha.
func (t *Target) ReadBack() (*image.NRGBA, *image.NRGBA64, error) {
	if t.released() {
		return nil, nil, ErrReleased
	}
	c := &image.NRGBA{Pix: append([]uint8(nil), t.color.Pix...), Stride: t.color.Stride, Rect: t.color.Rect}
	nd := &image.NRGBA64{Pix: append([]uint8(nil), t.normalDepth.Pix...), Stride: t.normalDepth.Stride, Rect: t.normalDepth.Rect}
	return c, nd, nil
}

// DepthAt returns the stored linear depth of one pixel.
func (t *Target) DepthAt(x, y int) float32 {
	if t.released() || x < 0 || y < 0 || x >= t.w || y >= t.h {
		return -1
	}
	return t.depth[y*t.w+x]
}

func (t *Target) Release() {
	t.color = nil
	t.normalDepth = nil
	t.depth = nil
}

func (t *Target) clear(r image.Rectangle, alpha float32) {
	r = r.Intersect(t.Bounds())
	if r.Empty() || t.released() {
		return
	}
	a := uint8(clamp01(alpha)*255 + 0.5)
	draw.Draw(t.color, r, image.NewUniform(color.NRGBA{A: a}), image.Point{}, draw.Src)
	draw.Draw(t.normalDepth, r, image.Transparent, image.Point{}, draw.Src)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := t.depth[y*t.w : (y+1)*t.w]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = -1
		}
	}
}
