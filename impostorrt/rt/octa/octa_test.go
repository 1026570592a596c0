package octa

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomDirection(rng *rand.Rand, upperOnly bool) mgl32.Vec3 {
	for {
		v := mgl32.Vec3{
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
		}
		l := v.Len()
		if l < 1e-3 || l > 1 {
			continue
		}
		v = v.Mul(1 / l)
		if upperOnly && v.Y() < 0 {
			v[1] = -v[1]
		}
		return v
	}
}

func TestRoundTripDirection(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		upperOnly bool
	}{
		{"spherical", Spherical, false},
		{"hemispherical", Hemispherical, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 10000; i++ {
				d := randomDirection(rng, tc.upperOnly)
				g := tc.mode.Encode(d)
				require.True(t, g.X() >= 0 && g.X() <= 1 && g.Y() >= 0 && g.Y() <= 1, "grid %v out of range for %v", g, d)

				back := tc.mode.Decode(g)
				if back.Sub(d).Len() > 1e-4 {
					t.Fatalf("decode(encode(%v)) = %v", d, back)
				}
			}
		})
	}
}

func TestRoundTripGrid(t *testing.T) {
	const steps = 64
	for _, mode := range []Mode{Spherical, Hemispherical} {
		t.Run(mode.String(), func(t *testing.T) {
			// Interior points only: the outer edge of the spherical square is
			// identified with its mirror image.
			for i := 1; i < steps; i++ {
				for j := 1; j < steps; j++ {
					g := mgl32.Vec2{float32(i) / steps, float32(j) / steps}
					back := mode.Encode(mode.Decode(g))
					if back.Sub(g).Len() > 1e-4 {
						t.Fatalf("encode(decode(%v)) = %v", g, back)
					}
				}
			}
		})
	}
}

func TestHemiGridCoversBoundary(t *testing.T) {
	// The hemi square has no fold, so the boundary round-trips too.
	for _, g := range []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0.5, 0}, {0, 0.5}} {
		d := DecodeHemi(g)
		assert.GreaterOrEqual(t, d.Y(), float32(-1e-6), "grid %v", g)
		assert.InDelta(t, 0, EncodeHemi(d).Sub(g).Len(), 1e-4, "grid %v", g)
	}
}

func TestKnownDirections(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		dir  mgl32.Vec3
		grid mgl32.Vec2
	}{
		{"sphere up", Spherical, mgl32.Vec3{0, 1, 0}, mgl32.Vec2{0.5, 0.5}},
		{"sphere +x", Spherical, mgl32.Vec3{1, 0, 0}, mgl32.Vec2{1, 0.5}},
		{"sphere +z", Spherical, mgl32.Vec3{0, 0, 1}, mgl32.Vec2{0.5, 1}},
		{"sphere down", Spherical, mgl32.Vec3{0, -1, 0}, mgl32.Vec2{1, 1}},
		{"hemi up", Hemispherical, mgl32.Vec3{0, 1, 0}, mgl32.Vec2{0.5, 0.5}},
		{"hemi -z", Hemispherical, mgl32.Vec3{0, 0, -1}, mgl32.Vec2{0, 0}},
		{"hemi +x", Hemispherical, mgl32.Vec3{1, 0, 0}, mgl32.Vec2{1, 0}},
		{"hemi +z", Hemispherical, mgl32.Vec3{0, 0, 1}, mgl32.Vec2{1, 1}},
		{"hemi -x", Hemispherical, mgl32.Vec3{-1, 0, 0}, mgl32.Vec2{0, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := tc.mode.Encode(tc.dir)
			assert.InDelta(t, 0, g.Sub(tc.grid).Len(), 1e-5, "got %v want %v", g, tc.grid)
		})
	}
}

func TestHemiClampsBelowHorizon(t *testing.T) {
	below := mgl32.Vec3{1, -0.5, 0}.Normalize()
	assert.InDelta(t, 0, EncodeHemi(below).Sub(mgl32.Vec2{1, 0}).Len(), 1e-5)

	// Straight down has no horizon projection.
	assert.Equal(t, mgl32.Vec2{0.5, 0.5}, EncodeHemi(mgl32.Vec3{0, -1, 0}))
}

func TestEncodeStableUnderPerturbation(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 2000; i++ {
		d := randomDirection(rng, true)
		if d.Y() < 0.05 {
			continue // keep away from the seam
		}
		eps := mgl32.Vec3{1e-4, -1e-4, 1e-4}
		g0 := Spherical.Encode(d)
		g1 := Spherical.Encode(d.Add(eps).Normalize())
		assert.Less(t, g0.Sub(g1).Len(), float32(1e-2))
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Hemi")
	require.NoError(t, err)
	assert.Equal(t, Hemispherical, m)

	m, err = ParseMode("spherical")
	require.NoError(t, err)
	assert.Equal(t, Spherical, m)

	_, err = ParseMode("cubic")
	assert.Error(t, err)
	assert.False(t, Mode(9).Valid())
}
