package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSphereEmptyAndDegenerate(t *testing.T) {
	e := EmptySphere()
	assert.True(t, e.IsEmpty())
	assert.True(t, e.IsDegenerate())
	assert.True(t, Sphere{Center: mgl32.Vec3{1, 2, 3}}.IsDegenerate())
	assert.False(t, Sphere{Radius: 0.1}.IsDegenerate())
	assert.False(t, e.ContainsPoint(mgl32.Vec3{}))
}

func TestSphereUnion(t *testing.T) {
	a := Sphere{Center: mgl32.Vec3{-2, 0, 0}, Radius: 1}
	b := Sphere{Center: mgl32.Vec3{3, 0, 0}, Radius: 2}

	u := a.Union(b)
	assert.True(t, u.ContainsSphere(a, 1e-5))
	assert.True(t, u.ContainsSphere(b, 1e-5))
	assert.InDelta(t, 4, u.Radius, 1e-5)
	assert.InDelta(t, 0, u.Center.Sub(mgl32.Vec3{1, 0, 0}).Len(), 1e-5)

	// Union never shrinks either input.
	assert.GreaterOrEqual(t, u.Radius, max(a.Radius, b.Radius))

	inner := Sphere{Center: mgl32.Vec3{3.5, 0, 0}, Radius: 0.5}
	assert.Equal(t, b, b.Union(inner))
	assert.Equal(t, b, inner.Union(b))

	assert.Equal(t, a, a.Union(EmptySphere()))
	assert.Equal(t, a, EmptySphere().Union(a))
	assert.True(t, EmptySphere().Union(EmptySphere()).IsEmpty())
}

func TestSphereTransform(t *testing.T) {
	s := Sphere{Center: mgl32.Vec3{1, 0, 0}, Radius: 2}
	m := mgl32.Translate3D(0, 5, 0).Mul4(mgl32.Scale3D(1, 3, 2))

	got := s.Transform(m)
	assert.InDelta(t, 0, got.Center.Sub(mgl32.Vec3{1, 5, 0}).Len(), 1e-5)
	assert.InDelta(t, 6, got.Radius, 1e-5)
	assert.True(t, EmptySphere().Transform(m).IsEmpty())
}

func TestSphereContains(t *testing.T) {
	s := Sphere{Radius: 2}
	assert.True(t, s.ContainsPoint(mgl32.Vec3{0, 2, 0}))
	assert.False(t, s.ContainsPoint(mgl32.Vec3{0, 2.01, 0}))
	assert.True(t, s.ContainsSphere(EmptySphere(), 0))
	assert.False(t, EmptySphere().ContainsSphere(s, 0))
	assert.False(t, s.ContainsSphere(Sphere{Center: mgl32.Vec3{1.5, 0, 0}, Radius: 1}, 1e-5))
}
