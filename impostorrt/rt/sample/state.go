package sample

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/impostor/impostorrt/rt/core"
	"github.com/gekko3d/impostor/impostorrt/rt/octa"
)

// HybridRule decides how far a hemispherical billboard may tilt toward an
// observer above it.
type HybridRule int

const (
	// HybridThreshold tilts fully once the observer is higher than
	// HybridDistance and stays upright otherwise.
	HybridThreshold HybridRule = iota
	// HybridSmooth fades between upright and tilted across a deadzone whose
	// width grows with the observer distance.
	HybridSmooth
)

func (h HybridRule) String() string {
	switch h {
	case HybridThreshold:
		return "threshold"
	case HybridSmooth:
		return "smooth"
	}
	return fmt.Sprintf("HybridRule(%d)", int(h))
}

func (h HybridRule) Valid() bool {
	return h == HybridThreshold || h == HybridSmooth
}

func ParseHybridRule(s string) (HybridRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "threshold", "hard", "":
		return HybridThreshold, nil
	case "smooth", "deadzone":
		return HybridSmooth, nil
	}
	return 0, fmt.Errorf("unknown hybrid rule %q", s)
}

const (
	DefaultAlphaClamp     = 0.1
	DefaultHybridDistance = 2.5
	DefaultHybridDeadzone = 0.1
)

// MaterialState is the per-material sampling configuration. It can change
// between frames without a re-bake, except SpritesPerSide and Mode which
// must match the atlas.
type MaterialState struct {
	SpritesPerSide int
	Mode           octa.Mode
	AlphaClamp     float32
	BlendEnabled   bool
	Transparent    bool

	// HybridDistance is a height in the billboard's local frame, so it is
	// measured in billboard half extents (sphere radius times the quad
	// scale), not world units.
	HybridDistance float32
	HybridRule     HybridRule
	// HybridDeadzone is the half width of the smooth band as a fraction of
	// the observer distance.
	HybridDeadzone float32

	// Transform places the unit billboard over the baked sphere in the
	// impostor's object space.
	Transform mgl32.Mat4
}

func DefaultMaterialState(spritesPerSide int, mode octa.Mode) MaterialState {
	return MaterialState{
		SpritesPerSide: spritesPerSide,
		Mode:           mode,
		AlphaClamp:     DefaultAlphaClamp,
		BlendEnabled:   true,
		HybridDistance: DefaultHybridDistance,
		HybridRule:     HybridThreshold,
		HybridDeadzone: DefaultHybridDeadzone,
		Transform:      mgl32.Ident4(),
	}
}

// QuadTransform scales the unit billboard to the baked framing of s. scale
// is the half extent of one cell in radii: the orthographic camera factor.
func QuadTransform(s core.Sphere, scale float32) mgl32.Mat4 {
	if scale <= 0 {
		scale = 1
	}
	r := s.Radius * scale
	return mgl32.Translate3D(s.Center.X(), s.Center.Y(), s.Center.Z()).Mul4(mgl32.Scale3D(r, r, r))
}
