// Package framing computes how far a camera must sit from a bounding sphere
// for the sphere to fill its frustum.
package framing

import (
	"errors"

	"github.com/chewxy/math32"

	"github.com/gekko3d/impostor/impostorrt/rt/core"
)

const (
	// SafetyFactor is applied on top of the exact perspective fit.
	SafetyFactor = 1.1
	// MinDistanceFactor floors every result at this multiple of the radius.
	MinDistanceFactor = 1.5
)

var (
	ErrDegenerateSphere = errors.New("framing: sphere is empty or has zero radius")
	ErrNilCamera        = errors.New("framing: camera is nil")
)

// Distance returns the camera-to-centre distance at which s, grown by
// padding, fills the camera. Orthographic cameras also get their Zoom set,
// since distance does not change their framing.
func Distance(cam *core.Camera, s core.Sphere, padding float32) (float32, error) {
	if cam == nil {
		return 0, ErrNilCamera
	}
	if s.IsDegenerate() {
		return 0, ErrDegenerateSphere
	}
	if padding <= 0 {
		padding = 1
	}
	padded := s.Radius * padding

	var distance float32
	switch cam.Type {
	case core.Perspective:
		vertical := padded / math32.Tan(cam.FovY/2)
		horizontal := vertical * cam.Aspect
		distance = max(vertical, horizontal) * SafetyFactor
	default:
		// Only depth precision depends on distance here.
		distance = padded * 2
		w, h := cam.FrustumSize()
		if w > 0 && h > 0 {
			cam.Zoom = min(w, h) / (padded * 2)
		}
	}
	return max(distance, s.Radius*MinDistanceFactor), nil
}

// Center places the camera on its current view axis at the framing distance
// and aims it at the sphere centre. Near and far are widened to contain the
// padded sphere.
func Center(cam *core.Camera, s core.Sphere, padding float32) error {
	distance, err := Distance(cam, s, padding)
	if err != nil {
		return err
	}
	forward := cam.Forward()
	cam.Position = s.Center.Sub(forward.Mul(distance))
	cam.LookAt(s.Center)

	reach := s.Radius * max(padding, 1)
	cam.Near = max(distance-reach, distance*1e-3)
	cam.Far = distance + reach
	return nil
}
