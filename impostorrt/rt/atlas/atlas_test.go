package atlas

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/impostor/impostorrt/rt/octa"
)

func TestCheckLayout(t *testing.T) {
	tests := []struct {
		name    string
		size, n int
		want    error
	}{
		{"ok", 64, 4, nil},
		{"one sprite", 64, 1, ErrSpritesPerSide},
		{"not a multiple", 100, 3, ErrSize},
		{"zero size", 0, 2, ErrSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckLayout(tt.size, tt.n)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCellRectsTileExactly(t *testing.T) {
	for _, n := range []int{2, 3, 8, 16} {
		size := n * 12
		rects := CellRects(size, n)
		require.Len(t, rects, n*n)

		covered := make([]int, size*size)
		for _, r := range rects {
			assert.Equal(t, size/n, r.Dx())
			assert.Equal(t, size/n, r.Dy())
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					covered[y*size+x]++
				}
			}
		}
		for i, c := range covered {
			require.Equal(t, 1, c, "n=%d pixel %d covered %d times", n, i, c)
		}
	}
}

func TestCellRectMatchesCellRects(t *testing.T) {
	a, err := New(48, 3, octa.Hemispherical)
	require.NoError(t, err)
	rects := CellRects(48, 3)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			assert.Equal(t, rects[row*3+col], a.CellRect(Cell{col, row}))
		}
	}
	assert.NotEqual(t, a.ID.String(), "")
}

func TestCellUV(t *testing.T) {
	uv := CellUV(Cell{1, 2}, mgl32.Vec2{0.5, 0.5}, 4)
	assert.InDelta(t, 0.375, uv.X(), 1e-6)
	assert.InDelta(t, 0.625, uv.Y(), 1e-6)

	// Local UV is clamped to the cell.
	uv = CellUV(Cell{0, 0}, mgl32.Vec2{-1, 2}, 4)
	assert.InDelta(t, 0, uv.X(), 1e-6)
	assert.InDelta(t, 0.25, uv.Y(), 1e-6)
}

func TestSampleConstantCell(t *testing.T) {
	a, err := New(32, 2, octa.Spherical)
	require.NoError(t, err)
	require.NoError(t, a.SetCell(Cell{1, 0}, color.NRGBA{255, 0, 0, 255}, color.NRGBA64{0x8000, 0x8000, 0xffff, 0xffff}))

	center := a.CellUV(Cell{1, 0}, mgl32.Vec2{0.5, 0.5})
	c := a.SampleColor(center)
	assert.InDelta(t, 1, c.X(), 1e-6)
	assert.InDelta(t, 0, c.Y(), 1e-6)
	assert.InDelta(t, 1, c.W(), 1e-6)

	nd := a.SampleNormalDepth(center)
	assert.InDelta(t, 1, nd.Z(), 1e-6)
	assert.InDelta(t, 1, nd.W(), 1e-6)

	empty := a.SampleColor(a.CellUV(Cell{0, 1}, mgl32.Vec2{0.5, 0.5}))
	assert.Equal(t, mgl32.Vec4{}, empty)
}

func TestSampleClampsAtEdges(t *testing.T) {
	a, err := New(4, 2, octa.Spherical)
	require.NoError(t, err)
	a.Color.SetNRGBA(0, 0, color.NRGBA{0, 255, 0, 255})

	c := a.SampleColor(mgl32.Vec2{-0.5, -0.5})
	assert.InDelta(t, 1, c.Y(), 1e-6)
	c = a.SampleColor(mgl32.Vec2{1.5, 1.5})
	assert.InDelta(t, 0, c.Y(), 1e-6)
}

func TestCellCopy(t *testing.T) {
	a, err := New(8, 2, octa.Spherical)
	require.NoError(t, err)
	require.NoError(t, a.SetCell(Cell{0, 1}, color.NRGBA{10, 20, 30, 255}, color.NRGBA64{1, 2, 3, 4}))

	c, nd, err := a.Cell(Cell{0, 1})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), c.Rect)
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, c.NRGBAAt(3, 3))
	assert.Equal(t, color.NRGBA64{1, 2, 3, 4}, nd.NRGBA64At(0, 0))
}

func TestSetCellStoresStraightValues(t *testing.T) {
	a, err := New(8, 2, octa.Hemispherical)
	require.NoError(t, err)
	col := color.NRGBA{200, 100, 50, 3}
	nd := color.NRGBA64{0x8000, 0x4000, 0xffff, 0}
	require.NoError(t, a.SetCell(Cell{1, 1}, col, nd))

	assert.Equal(t, col, a.Color.NRGBAAt(5, 6))
	assert.Equal(t, nd, a.NormalDepth.NRGBA64At(7, 4))
	assert.Equal(t, color.NRGBA64{}, a.NormalDepth.NRGBA64At(3, 3), "neighbouring cell untouched")

	c, cnd, err := a.Cell(Cell{1, 1})
	require.NoError(t, err)
	assert.Equal(t, col, c.NRGBAAt(0, 0))
	assert.Equal(t, nd, cnd.NRGBA64At(3, 3))

	s := a.SampleNormalDepth(a.CellUV(Cell{1, 1}, mgl32.Vec2{0.5, 0.5}))
	assert.InDelta(t, float32(0x8000)/0xffff, s.X(), 1e-4)
	assert.InDelta(t, 1, s.Z(), 1e-4)
	assert.InDelta(t, 0, s.W(), 1e-6)
}

func TestReleasedImageIsRejected(t *testing.T) {
	a, err := New(8, 2, octa.Spherical)
	require.NoError(t, err)
	a.Release()

	assert.True(t, a.Released())
	_, _, err = a.Cell(Cell{})
	assert.ErrorIs(t, err, ErrReleased)
	_, err = a.Preview(4)
	assert.ErrorIs(t, err, ErrReleased)
	assert.ErrorIs(t, a.SetCell(Cell{}, color.NRGBA{}, color.NRGBA64{}), ErrReleased)
	assert.ErrorIs(t, a.WritePNG(&bytes.Buffer{}, &bytes.Buffer{}), ErrReleased)
	assert.Equal(t, mgl32.Vec4{}, a.SampleColor(mgl32.Vec2{0.5, 0.5}))
}

func TestFromBuffers(t *testing.T) {
	c := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	nd := image.NewNRGBA64(image.Rect(0, 0, 16, 16))
	a, err := FromBuffers(c, nd, 4, octa.Hemispherical)
	require.NoError(t, err)
	assert.Equal(t, 16, a.Size)
	assert.Equal(t, 4, a.CellSize())

	_, err = FromBuffers(c, image.NewNRGBA64(image.Rect(0, 0, 8, 8)), 4, octa.Hemispherical)
	assert.ErrorIs(t, err, ErrSizeMismatch)
	_, err = FromBuffers(c, nd, 5, octa.Hemispherical)
	assert.ErrorIs(t, err, ErrSize)
}

func TestPreviewAndPNG(t *testing.T) {
	a, err := New(32, 4, octa.Spherical)
	require.NoError(t, err)

	p, err := a.Preview(8)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Bounds().Dx())

	var cb, nb bytes.Buffer
	require.NoError(t, a.WritePNG(&cb, &nb))
	img, err := png.Decode(&cb)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	_, err = png.Decode(&nb)
	require.NoError(t, err)
}
