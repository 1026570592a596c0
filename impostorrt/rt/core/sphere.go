package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Sphere is a bounding sphere. A negative radius marks the empty sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// EmptySphere returns the sentinel produced when a hierarchy holds no geometry.
func EmptySphere() Sphere {
	return Sphere{Radius: -1}
}

func (s Sphere) IsEmpty() bool {
	return s.Radius < 0
}

// IsDegenerate reports spheres that cannot be used to place a camera:
// empty ones and single points.
func (s Sphere) IsDegenerate() bool {
	return s.Radius <= 0
}

func (s Sphere) ContainsPoint(p mgl32.Vec3) bool {
	return !s.IsEmpty() && p.Sub(s.Center).Len() <= s.Radius
}

// ContainsSphere reports whether o lies fully inside s, with eps slack for
// float rounding.
func (s Sphere) ContainsSphere(o Sphere, eps float32) bool {
	if o.IsEmpty() {
		return true
	}
	if s.IsEmpty() {
		return false
	}
	return o.Center.Sub(s.Center).Len()+o.Radius <= s.Radius+eps
}

// Union returns the minimal sphere enclosing both s and o.
func (s Sphere) Union(o Sphere) Sphere {
	if o.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return o
	}

	delta := o.Center.Sub(s.Center)
	d := delta.Len()
	if d+o.Radius <= s.Radius {
		return s
	}
	if d+s.Radius <= o.Radius {
		return o
	}

	radius := (d + s.Radius + o.Radius) * 0.5
	// d > 0 here: coincident centres are handled by the containment checks.
	center := s.Center.Add(delta.Mul((radius - s.Radius) / d))
	return Sphere{Center: center, Radius: radius}
}

// Transform maps the sphere through an affine matrix. The radius grows by the
// largest axis scale so the result still contains the transformed geometry.
func (s Sphere) Transform(m mgl32.Mat4) Sphere {
	if s.IsEmpty() {
		return s
	}
	return Sphere{
		Center: mgl32.TransformCoordinate(s.Center, m),
		Radius: s.Radius * MaxScale(m),
	}
}
