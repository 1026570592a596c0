package core

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// NewBoxGeometry builds an axis-aligned box centred on the origin with
// outward, counter-clockwise faces.
func NewBoxGeometry(width, height, depth float32) *Geometry {
	half := mgl32.Vec3{width / 2, height / 2, depth / 2}
	along := func(axis mgl32.Vec3) float32 {
		return math32.Abs(axis.X())*half.X() + math32.Abs(axis.Y())*half.Y() + math32.Abs(axis.Z())*half.Z()
	}

	// normal, u, v with u x v = normal
	faces := [6][3]mgl32.Vec3{
		{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
		{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
		{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	g := &Geometry{}
	for _, f := range faces {
		n, u, v := f[0], f[1], f[2]
		base := uint32(len(g.Positions))
		for _, c := range corners {
			p := n.Mul(along(n)).
				Add(u.Mul(c[0] * along(u))).
				Add(v.Mul(c[1] * along(v)))
			g.Positions = append(g.Positions, p)
			g.Normals = append(g.Normals, n)
			g.UVs = append(g.UVs, mgl32.Vec2{(c[0] + 1) / 2, 1 - (c[1]+1)/2})
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

// NewPlaneGeometry builds a quad in the XY plane facing +Z.
func NewPlaneGeometry(width, height float32) *Geometry {
	hw, hh := width/2, height/2
	return &Geometry{
		Positions: []mgl32.Vec3{{-hw, -hh, 0}, {hw, -hh, 0}, {hw, hh, 0}, {-hw, hh, 0}},
		Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs:       []mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}

// NewCylinderGeometry builds a capped cylinder or cone along Y, centred on
// the origin. A zero radius drops that cap.
func NewCylinderGeometry(radiusTop, radiusBottom, height float32, segments int) *Geometry {
	if segments < 3 {
		segments = 3
	}
	g := &Geometry{}
	hh := height / 2
	slope := (radiusBottom - radiusTop) / height

	ring := func(i int, r, y float32) mgl32.Vec3 {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		return mgl32.Vec3{r * float32(math.Sin(theta)), y, r * float32(math.Cos(theta))}
	}
	sideNormal := func(i int) mgl32.Vec3 {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		return mgl32.Vec3{float32(math.Sin(theta)), slope, float32(math.Cos(theta))}.Normalize()
	}

	for i := 0; i < segments; i++ {
		base := uint32(len(g.Positions))
		u0 := float32(i) / float32(segments)
		u1 := float32(i+1) / float32(segments)
		g.Positions = append(g.Positions,
			ring(i, radiusBottom, -hh), ring(i+1, radiusBottom, -hh),
			ring(i+1, radiusTop, hh), ring(i, radiusTop, hh))
		n0, n1 := sideNormal(i), sideNormal(i+1)
		g.Normals = append(g.Normals, n0, n1, n1, n0)
		g.UVs = append(g.UVs, mgl32.Vec2{u0, 1}, mgl32.Vec2{u1, 1}, mgl32.Vec2{u1, 0}, mgl32.Vec2{u0, 0})
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}

	addCap := func(r, y float32, up bool) {
		if r <= 0 {
			return
		}
		n := mgl32.Vec3{0, 1, 0}
		if !up {
			n = mgl32.Vec3{0, -1, 0}
		}
		center := uint32(len(g.Positions))
		g.Positions = append(g.Positions, mgl32.Vec3{0, y, 0})
		g.Normals = append(g.Normals, n)
		g.UVs = append(g.UVs, mgl32.Vec2{0.5, 0.5})
		for i := 0; i <= segments; i++ {
			p := ring(i, r, y)
			g.Positions = append(g.Positions, p)
			g.Normals = append(g.Normals, n)
			g.UVs = append(g.UVs, mgl32.Vec2{p.X()/(2*r) + 0.5, p.Z()/(2*r) + 0.5})
		}
		for i := uint32(0); i < uint32(segments); i++ {
			a, b := center+1+i, center+2+i
			if up {
				g.Indices = append(g.Indices, center, a, b)
			} else {
				g.Indices = append(g.Indices, center, b, a)
			}
		}
	}
	addCap(radiusTop, hh, true)
	addCap(radiusBottom, -hh, false)
	return g
}

// NewSphereGeometry builds a latitude/longitude sphere.
func NewSphereGeometry(radius float32, widthSegments, heightSegments int) *Geometry {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}
	g := &Geometry{}
	for j := 0; j <= heightSegments; j++ {
		v := float32(j) / float32(heightSegments)
		phi := float64(v) * math.Pi
		for i := 0; i <= widthSegments; i++ {
			u := float32(i) / float32(widthSegments)
			theta := float64(u) * 2 * math.Pi
			n := mgl32.Vec3{
				float32(math.Sin(phi) * math.Sin(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Cos(theta)),
			}
			g.Positions = append(g.Positions, n.Mul(radius))
			g.Normals = append(g.Normals, n)
			g.UVs = append(g.UVs, mgl32.Vec2{u, v})
		}
	}
	stride := uint32(widthSegments + 1)
	for j := uint32(0); j < uint32(heightSegments); j++ {
		for i := uint32(0); i < uint32(widthSegments); i++ {
			a := j*stride + i
			b := (j+1)*stride + i
			c := (j+1)*stride + i + 1
			d := j*stride + i + 1
			g.Indices = append(g.Indices, a, b, c, a, c, d)
		}
	}
	return g
}
