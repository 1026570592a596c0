// Package octa maps unit directions to points of the unit square and back,
// either over the full sphere (octahedral) or over the upper hemisphere only
// (hemi-octahedral). The same Mode must be used to bake and to sample an atlas.
package octa

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type Mode int

const (
	Spherical Mode = iota
	Hemispherical
)

func (m Mode) String() string {
	switch m {
	case Spherical:
		return "spherical"
	case Hemispherical:
		return "hemispherical"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) Valid() bool {
	return m == Spherical || m == Hemispherical
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spherical", "sphere", "octahedral":
		return Spherical, nil
	case "hemispherical", "hemisphere", "hemi":
		return Hemispherical, nil
	}
	return 0, fmt.Errorf("unknown octahedral mode %q", s)
}

// Encode maps a unit direction to grid space [0,1]².
func (m Mode) Encode(d mgl32.Vec3) mgl32.Vec2 {
	if m == Hemispherical {
		return EncodeHemi(d)
	}
	return EncodeSphere(d)
}

// Decode maps a grid point in [0,1]² back to a unit direction.
func (m Mode) Decode(g mgl32.Vec2) mgl32.Vec3 {
	if m == Hemispherical {
		return DecodeHemi(g)
	}
	return DecodeSphere(g)
}

// EncodeSphere projects d onto the octahedron |x|+|y|+|z| = 1 and unfolds the
// lower half into the corners of the square.
func EncodeSphere(d mgl32.Vec3) mgl32.Vec2 {
	l1 := math32.Abs(d.X()) + math32.Abs(d.Y()) + math32.Abs(d.Z())
	if l1 == 0 {
		return mgl32.Vec2{0.5, 0.5}
	}
	x, y, z := d.X()/l1, d.Y()/l1, d.Z()/l1
	if y < 0 {
		x, z = fold(x, z)
	}
	return mgl32.Vec2{
		mgl32.Clamp(x*0.5+0.5, 0, 1),
		mgl32.Clamp(z*0.5+0.5, 0, 1),
	}
}

func DecodeSphere(g mgl32.Vec2) mgl32.Vec3 {
	x := g.X()*2 - 1
	z := g.Y()*2 - 1
	y := 1 - math32.Abs(x) - math32.Abs(z)
	if y < 0 {
		x, z = fold(x, z)
	}
	return mgl32.Vec3{x, y, z}.Normalize()
}

// fold reflects a point across the diamond edge; it is its own inverse on the
// lower half of the octahedron.
func fold(x, z float32) (float32, float32) {
	return (1 - math32.Abs(z)) * signNotZero(x), (1 - math32.Abs(x)) * signNotZero(z)
}

func signNotZero(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

// EncodeHemi maps an upper-hemisphere direction to the square rotated 45°
// inside the octahedron top. Negative y is clamped to the horizon; the
// straight-down direction, which has no horizon point, maps to the centre.
func EncodeHemi(d mgl32.Vec3) mgl32.Vec2 {
	y := max(d.Y(), 0)
	l1 := math32.Abs(d.X()) + y + math32.Abs(d.Z())
	if l1 == 0 {
		return mgl32.Vec2{0.5, 0.5}
	}
	x, z := d.X()/l1, d.Z()/l1
	return mgl32.Vec2{
		mgl32.Clamp((1+x+z)*0.5, 0, 1),
		mgl32.Clamp((1+z-x)*0.5, 0, 1),
	}
}

func DecodeHemi(g mgl32.Vec2) mgl32.Vec3 {
	x := g.X() - g.Y()
	z := -1 + g.X() + g.Y()
	y := 1 - math32.Abs(x) - math32.Abs(z)
	return mgl32.Vec3{x, y, z}.Normalize()
}
