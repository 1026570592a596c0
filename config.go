package impostor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/gekko3d/impostor/impostorrt/rt/bake"
	"github.com/gekko3d/impostor/impostorrt/rt/core"
	"github.com/gekko3d/impostor/impostorrt/rt/octa"
	"github.com/gekko3d/impostor/impostorrt/rt/sample"
)

var ErrConfig = errors.New("impostor: invalid config")

// Config is the YAML form of a bake, its sampling material, the procedural
// source object and the viewer layout. Enums are strings.
type Config struct {
	Name     string         `yaml:"name"`
	Bake     BakeConfig     `yaml:"bake"`
	Material MaterialConfig `yaml:"material"`
	Scene    SceneConfig    `yaml:"scene"`
	Viewer   ViewerConfig   `yaml:"viewer"`
}

type BakeConfig struct {
	SpritesPerSide int     `yaml:"sprites_per_side"`
	TextureSize    int     `yaml:"texture_size"`
	Mode           string  `yaml:"mode"`
	Camera         string  `yaml:"camera"`
	CameraFactor   float32 `yaml:"camera_factor"`
	FovYDegrees    float32 `yaml:"fov_y_degrees"`
	Padding        float32 `yaml:"padding"`
	NormalSpace    string  `yaml:"normal_space"`
}

type MaterialConfig struct {
	AlphaClamp     float32 `yaml:"alpha_clamp"`
	Blend          bool    `yaml:"blend"`
	Transparent    bool    `yaml:"transparent"`
	// HybridDistance is in billboard half extents, not world units.
	HybridDistance float32 `yaml:"hybrid_distance"`
	HybridRule     string  `yaml:"hybrid_rule"`
	HybridDeadzone float32 `yaml:"hybrid_deadzone"`
	// Scale is the billboard half extent in radii; 0 uses the bake framing.
	Scale float32 `yaml:"scale"`
}

type SceneConfig struct {
	Shape string     `yaml:"shape"`
	Color [4]float32 `yaml:"color,flow"`
	Size  float32    `yaml:"size"`
}

type ViewerConfig struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Grid    int     `yaml:"grid"`
	Spacing float32 `yaml:"spacing"`
	Workers int     `yaml:"workers"`
}

func DefaultConfig() Config {
	b := bake.DefaultConfig()
	return Config{
		Name: "impostor",
		Bake: BakeConfig{
			SpritesPerSide: b.SpritesPerSide,
			TextureSize:    b.TextureSize,
			Mode:           b.Mode.String(),
			Camera:         b.Camera.String(),
			CameraFactor:   b.CameraFactor,
			FovYDegrees:    mgl32.RadToDeg(b.FovY),
			Padding:        b.Padding,
			NormalSpace:    "world",
		},
		Material: MaterialConfig{
			AlphaClamp:     sample.DefaultAlphaClamp,
			Blend:          true,
			HybridDistance: sample.DefaultHybridDistance,
			HybridRule:     sample.HybridThreshold.String(),
			HybridDeadzone: sample.DefaultHybridDeadzone,
		},
		Scene: SceneConfig{
			Shape: ShapeTree,
			Color: [4]float32{1, 1, 1, 1},
			Size:  1,
		},
		Viewer: ViewerConfig{
			Width:   1280,
			Height:  720,
			Grid:    16,
			Spacing: 4,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("impostor: open config: %w", err)
	}
	defer f.Close()
	return ParseConfig(f)
}

// ParseConfig decodes YAML over DefaultConfig. Unknown keys are errors.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("impostor: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Config) Validate() error {
	bc, err := c.BakeConfig()
	if err != nil {
		return err
	}
	if err := bc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	ms, err := c.MaterialState()
	if err != nil {
		return err
	}
	if ms.AlphaClamp < 0 || ms.AlphaClamp >= 1 {
		return fmt.Errorf("%w: alpha_clamp %v outside [0,1)", ErrConfig, ms.AlphaClamp)
	}
	if ms.HybridDeadzone < 0 {
		return fmt.Errorf("%w: negative hybrid_deadzone", ErrConfig)
	}
	if c.Material.Scale < 0 {
		return fmt.Errorf("%w: negative material scale", ErrConfig)
	}
	if _, err := ParseShape(c.Scene.Shape); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if c.Scene.Size <= 0 {
		return fmt.Errorf("%w: scene size must be positive", ErrConfig)
	}
	if c.Viewer.Grid < 0 || c.Viewer.Workers < 0 {
		return fmt.Errorf("%w: negative viewer grid or workers", ErrConfig)
	}
	return nil
}

// BakeConfig converts the bake section. Logger and Profiler stay unset.
func (c Config) BakeConfig() (bake.Config, error) {
	mode, err := octa.ParseMode(c.Bake.Mode)
	if err != nil {
		return bake.Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	cam, err := core.ParseProjection(c.Bake.Camera)
	if err != nil {
		return bake.Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	space, err := parseNormalSpace(c.Bake.NormalSpace)
	if err != nil {
		return bake.Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return bake.Config{
		SpritesPerSide: c.Bake.SpritesPerSide,
		TextureSize:    c.Bake.TextureSize,
		Mode:           mode,
		Camera:         cam,
		CameraFactor:   c.Bake.CameraFactor,
		FovY:           mgl32.DegToRad(c.Bake.FovYDegrees),
		Padding:        c.Bake.Padding,
		NormalSpace:    space,
	}, nil
}

// MaterialState converts the material section. Transform is left at
// identity; the Impostor sets it from the baked sphere.
func (c Config) MaterialState() (sample.MaterialState, error) {
	mode, err := octa.ParseMode(c.Bake.Mode)
	if err != nil {
		return sample.MaterialState{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	rule, err := sample.ParseHybridRule(c.Material.HybridRule)
	if err != nil {
		return sample.MaterialState{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	s := sample.DefaultMaterialState(c.Bake.SpritesPerSide, mode)
	s.AlphaClamp = c.Material.AlphaClamp
	s.BlendEnabled = c.Material.Blend
	s.Transparent = c.Material.Transparent
	s.HybridDistance = c.Material.HybridDistance
	s.HybridRule = rule
	s.HybridDeadzone = c.Material.HybridDeadzone
	return s, nil
}

func parseNormalSpace(s string) (core.NormalSpace, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "world", "":
		return core.WorldNormals, nil
	case "local", "object":
		return core.LocalNormals, nil
	}
	return 0, fmt.Errorf("unknown normal space %q", s)
}
