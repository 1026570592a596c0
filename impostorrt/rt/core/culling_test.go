package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFrustumCulling(t *testing.T) {
	// Camera at origin looking down -Z, 90 deg FOV, aspect 1, near 1, far 100.
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1.0, 1.0, 100.0)
	view := mgl32.LookAtV(
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 0, -1},
		mgl32.Vec3{0, 1, 0},
	)
	planes := ExtractFrustum(proj.Mul4(view))

	tests := []struct {
		name     string
		sphere   Sphere
		expected bool
	}{
		{"Inside (center)", Sphere{Center: mgl32.Vec3{0, 0, -7}, Radius: 1}, true},
		{"Outside (Left)", Sphere{Center: mgl32.Vec3{-17.5, 0, -7.5}, Radius: 2}, false},
		{"Outside (Right)", Sphere{Center: mgl32.Vec3{17.5, 0, -7.5}, Radius: 2}, false},
		{"Outside (Behind/Near)", Sphere{Center: mgl32.Vec3{0, 0, 3.5}, Radius: 1}, false},
		{"Outside (Far)", Sphere{Center: mgl32.Vec3{0, 0, -175}, Radius: 25}, false},
		// Left edge is at x = z at this depth.
		{"Intersecting (Left Plane)", Sphere{Center: mgl32.Vec3{-10, 0, -7.5}, Radius: 5}, true},
		{"Encompassing (Huge sphere)", Sphere{Radius: 1000}, true},
		{"Empty", EmptySphere(), false},
	}

	for _, tc := range tests {
		visible := SphereInFrustum(tc.sphere, planes)
		if visible != tc.expected {
			t.Errorf("Test %s failed: expected %v, got %v", tc.name, tc.expected, visible)
			for i, p := range planes {
				dist := p.Dot(tc.sphere.Center.Vec4(1.0))
				t.Logf("  P%d: %v, Dist(Center)=%f", i, p, dist)
			}
		}
	}
}

func TestFrustumOrtho(t *testing.T) {
	proj := mgl32.Ortho(-10, 10, -10, 10, 0, 20)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	planes := ExtractFrustum(proj.Mul4(view))

	if !SphereInFrustum(Sphere{Center: mgl32.Vec3{0, 0, -5}, Radius: 1}, planes) {
		t.Error("Ortho: sphere should be inside")
	}
	// Far=20 puts the far plane at Z=-20.
	if SphereInFrustum(Sphere{Center: mgl32.Vec3{0, 0, -25}, Radius: 1}, planes) {
		t.Error("Ortho: sphere at -25 should be outside")
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	cam := NewPerspectiveCamera(mgl32.DegToRad(50), 1.5, 0.5, 30)
	cam.Position = mgl32.Vec3{3, 2, 8}
	cam.LookAt(mgl32.Vec3{})
	planes := ExtractFrustum(cam.ProjectionMatrix().Mul4(cam.ViewMatrix()))
	for i, p := range planes {
		if l := p.Vec3().Len(); l < 0.9999 || l > 1.0001 {
			t.Errorf("plane %d has normal length %f", i, l)
		}
		// The target is inside every plane.
		if d := p.Dot(mgl32.Vec4{0, 0, 0, 1}); d <= 0 {
			t.Errorf("plane %d puts the target outside: %f", i, d)
		}
	}
}
