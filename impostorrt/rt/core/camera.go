package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type ProjectionType int

const (
	Orthographic ProjectionType = iota
	Perspective
)

func (p ProjectionType) String() string {
	switch p {
	case Orthographic:
		return "orthographic"
	case Perspective:
		return "perspective"
	}
	return fmt.Sprintf("ProjectionType(%d)", int(p))
}

func (p ProjectionType) Valid() bool {
	return p == Orthographic || p == Perspective
}

func ParseProjection(s string) (ProjectionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "orthographic", "ortho":
		return Orthographic, nil
	case "perspective", "persp":
		return Perspective, nil
	}
	return 0, fmt.Errorf("unknown camera type %q", s)
}

// WorldUp is the up axis of the impostor domain (Y-up).
var WorldUp = mgl32.Vec3{0, 1, 0}

// ViewBasis returns the right and up vectors of a view looking along forward.
// Looking straight down or up, the up vector falls back to -Z or +Z so the
// basis stays defined. Baking cameras and billboards share this so a baked
// sprite lands upright on the quad.
func ViewBasis(forward mgl32.Vec3) (right, up mgl32.Vec3) {
	up = WorldUp
	if d := forward.Dot(up); d > 0.999 || d < -0.999 {
		if forward.Y() < 0 {
			up = mgl32.Vec3{0, 0, -1}
		} else {
			up = mgl32.Vec3{0, 0, 1}
		}
	}
	right = forward.Cross(up).Normalize()
	up = right.Cross(forward).Normalize()
	return right, up
}

// Camera is a projection camera aimed at a target. One value is reused and
// repositioned per atlas cell while baking.
type Camera struct {
	Type     ProjectionType
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	FovY   float32 // perspective, radians
	Aspect float32
	Near   float32
	Far    float32

	HalfExtent float32 // orthographic half height at zoom 1
	Zoom       float32
}

func NewPerspectiveCamera(fovY, aspect, near, far float32) *Camera {
	return &Camera{
		Type:   Perspective,
		Up:     WorldUp,
		FovY:   fovY,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Zoom:   1,
	}
}

func NewOrthographicCamera(halfExtent, aspect, near, far float32) *Camera {
	return &Camera{
		Type:       Orthographic,
		Up:         WorldUp,
		Aspect:     aspect,
		Near:       near,
		Far:        far,
		HalfExtent: halfExtent,
		Zoom:       1,
	}
}

// LookAt aims the camera at target and picks a non-degenerate up vector.
func (c *Camera) LookAt(target mgl32.Vec3) {
	c.Target = target
	forward := target.Sub(c.Position)
	if forward.Len() < 1e-12 {
		return
	}
	_, c.Up = ViewBasis(forward.Normalize())
}

func (c *Camera) Forward() mgl32.Vec3 {
	f := c.Target.Sub(c.Position)
	if f.Len() < 1e-12 {
		return mgl32.Vec3{0, 0, -1}
	}
	return f.Normalize()
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	if c.Type == Orthographic {
		w, h := c.FrustumSize()
		zoom := c.Zoom
		if zoom <= 0 {
			zoom = 1
		}
		hw, hh := w*0.5/zoom, h*0.5/zoom
		return mgl32.Ortho(-hw, hw, -hh, hh, c.Near, c.Far)
	}
	return mgl32.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// FrustumSize is the orthographic frustum width and height at zoom 1.
func (c *Camera) FrustumSize() (w, h float32) {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	h = c.HalfExtent * 2
	return h * aspect, h
}

// CameraState is the free-flying observer used by the viewer.
type CameraState struct {
	Position    mgl32.Vec3
	Yaw         float32
	Pitch       float32
	Speed       float32
	Sensitivity float32
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position:    mgl32.Vec3{0, 2, 20},
		Speed:       10.0,
		Sensitivity: 0.003,
	}
}

func (c *CameraState) GetForward() mgl32.Vec3 {
	// Y-up: yaw turns around Y, pitch lifts toward +Y.
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		float32(-math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
	}
}

func (c *CameraState) GetRight() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Yaw))),
		0,
		float32(math.Sin(float64(c.Yaw))),
	}
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	eye := c.Position
	return mgl32.LookAtV(eye, eye.Add(c.GetForward()), WorldUp)
}

// ClampPitch keeps the observer short of the poles where LookAtV degenerates.
func (c *CameraState) ClampPitch() {
	const limit = math.Pi/2 - 0.01
	if c.Pitch > limit {
		c.Pitch = limit
	}
	if c.Pitch < -limit {
		c.Pitch = -limit
	}
}

// ExtractFrustum extracts the 6 planes of the frustum from the view-projection matrix.
// Returns planes in order: Left, Right, Bottom, Top, Near, Far.
// Plane is Ax + By + Cz + D = 0 with the normal pointing inside.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(i, 0), vp.At(i, 1), vp.At(i, 2), vp.At(i, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes := [6]mgl32.Vec4{
		r3.Add(r0),
		r3.Sub(r0),
		r3.Add(r1),
		r3.Sub(r1),
		r3.Add(r2), // OpenGL-style -1..1 depth
		r3.Sub(r2),
	}

	for i := range planes {
		length := planes[i].Vec3().Len()
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}
	return planes
}

// SphereInFrustum reports whether any part of s lies inside the planes.
func SphereInFrustum(s Sphere, planes [6]mgl32.Vec4) bool {
	if s.IsEmpty() {
		return false
	}
	for _, p := range planes {
		if p.Vec3().Dot(s.Center)+p.W() < -s.Radius {
			return false
		}
	}
	return true
}
