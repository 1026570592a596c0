package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

// assertOutward checks that every non-degenerate triangle winds
// counter-clockwise seen from outside a convex shape centred on the origin.
func assertOutward(t *testing.T, name string, g *Geometry) {
	t.Helper()
	for i := 0; i < g.TriangleCount(); i++ {
		tri := g.Triangle(i)
		a, b, c := g.Positions[tri[0]], g.Positions[tri[1]], g.Positions[tri[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() < 1e-7 {
			continue
		}
		centroid := a.Add(b).Add(c).Mul(1.0 / 3)
		if n.Dot(centroid) <= 0 {
			t.Errorf("%s: triangle %d faces inward", name, i)
			return
		}
	}
}

func TestPrimitivesWindOutward(t *testing.T) {
	assertOutward(t, "box", NewBoxGeometry(1, 2, 3))
	assertOutward(t, "sphere", NewSphereGeometry(1, 12, 8))
	assertOutward(t, "cylinder", NewCylinderGeometry(0.5, 0.5, 2, 10))
	assertOutward(t, "cone", NewCylinderGeometry(0, 1, 2, 10))
}

func TestBoxGeometry(t *testing.T) {
	g := NewBoxGeometry(1, 2, 3)
	assert.Equal(t, 12, g.TriangleCount())
	assert.Len(t, g.Normals, len(g.Positions))
	assert.Len(t, g.UVs, len(g.Positions))
	for i, p := range g.Positions {
		assert.InDelta(t, 0.5, mgl32.Abs(p.X()), 1e-6)
		assert.InDelta(t, 1, mgl32.Abs(p.Y()), 1e-6)
		assert.InDelta(t, 1.5, mgl32.Abs(p.Z()), 1e-6)
		// The vertex normal points out of the face the vertex lies on.
		assert.Greater(t, g.Normals[i].Dot(p), float32(0))
	}
}

func TestPlaneGeometryFacesZ(t *testing.T) {
	g := NewPlaneGeometry(2, 1)
	tri := g.Triangle(0)
	a, b, c := g.Positions[tri[0]], g.Positions[tri[1]], g.Positions[tri[2]]
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	assert.InDelta(t, 0, n.Sub(mgl32.Vec3{0, 0, 1}).Len(), 1e-5)
	// UV (0,0) is the top-left corner.
	assert.Equal(t, mgl32.Vec2{0, 0}, g.UVs[3])
	assert.Equal(t, mgl32.Vec3{-1, 0.5, 0}, g.Positions[3])
}

func TestSphereGeometryRadius(t *testing.T) {
	g := NewSphereGeometry(2, 16, 8)
	for _, p := range g.Positions {
		assert.InDelta(t, 2, p.Len(), 1e-5)
	}
	assert.InDelta(t, 2, g.BoundingSphere(true).Radius, 1e-5)
}

func TestCylinderSegmentsFloor(t *testing.T) {
	g := NewCylinderGeometry(1, 1, 1, 1)
	// Three sides of two triangles plus two caps of three.
	assert.Equal(t, 12, g.TriangleCount())
}
