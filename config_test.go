package impostor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/impostor/impostorrt/rt/bake"
	"github.com/gekko3d/impostor/impostorrt/rt/core"
	"github.com/gekko3d/impostor/impostorrt/rt/octa"
	"github.com/gekko3d/impostor/impostorrt/rt/sample"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bc, err := cfg.BakeConfig()
	require.NoError(t, err)
	def := bake.DefaultConfig()
	assert.Equal(t, def.SpritesPerSide, bc.SpritesPerSide)
	assert.Equal(t, def.Mode, bc.Mode)
	assert.Equal(t, def.Camera, bc.Camera)
	assert.InDelta(t, def.FovY, bc.FovY, 1e-5)
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	src := `
name: pine
bake:
  sprites_per_side: 8
  texture_size: 512
  mode: spherical
  camera: perspective
  normal_space: local
material:
  alpha_clamp: 0.2
  blend: false
  transparent: true
  hybrid_rule: smooth
scene:
  shape: cone
  color: [0.2, 0.6, 0.2, 1]
`
	cfg, err := ParseConfig(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "pine", cfg.Name)

	bc, err := cfg.BakeConfig()
	require.NoError(t, err)
	assert.Equal(t, 8, bc.SpritesPerSide)
	assert.Equal(t, 512, bc.TextureSize)
	assert.Equal(t, octa.Spherical, bc.Mode)
	assert.Equal(t, core.Perspective, bc.Camera)
	assert.Equal(t, core.LocalNormals, bc.NormalSpace)
	// Unset keys keep their defaults.
	assert.Equal(t, float32(bake.DefaultPadding), bc.Padding)

	ms, err := cfg.MaterialState()
	require.NoError(t, err)
	assert.Equal(t, 8, ms.SpritesPerSide)
	assert.Equal(t, octa.Spherical, ms.Mode)
	assert.Equal(t, float32(0.2), ms.AlphaClamp)
	assert.False(t, ms.BlendEnabled)
	assert.True(t, ms.Transparent)
	assert.Equal(t, sample.HybridSmooth, ms.HybridRule)
	assert.Equal(t, mgl32.Ident4(), ms.Transform)
}

func TestParseConfigEmpty(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfigRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "bake:\n  sprites: 4\n",
		"bad mode":       "bake:\n  mode: cubic\n",
		"bad camera":     "bake:\n  camera: fisheye\n",
		"bad sprites":    "bake:\n  sprites_per_side: 1\n",
		"bad size":       "bake:\n  sprites_per_side: 3\n  texture_size: 512\n",
		"bad rule":       "material:\n  hybrid_rule: magic\n",
		"bad clamp":      "material:\n  alpha_clamp: 1\n",
		"bad shape":      "scene:\n  shape: teapot\n",
		"bad normals":    "bake:\n  normal_space: tangent\n",
		"bad factor":     "bake:\n  camera_factor: 0\n",
		"not yaml":       "bake: [",
		"bad scene size": "scene:\n  size: -1\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestConfigRoundTripThroughFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Name = "roundtrip"
	cfg.Bake.SpritesPerSide = 4
	cfg.Bake.TextureSize = 256
	cfg.Material.HybridRule = "smooth"

	data, err := cfg.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "impostor.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildScene(t *testing.T) {
	for _, shape := range []string{ShapeCube, ShapeSphere, ShapeCone, ShapeTree, "box"} {
		t.Run(shape, func(t *testing.T) {
			root, err := BuildScene(SceneConfig{Shape: shape, Size: 2})
			require.NoError(t, err)
			assert.NotEmpty(t, root.Meshes())
		})
	}

	_, err := BuildScene(SceneConfig{Shape: "teapot"})
	assert.Error(t, err)
}
