// Package bake renders one view of a node hierarchy per atlas cell. Cell
// (col,row) is seen from the direction octa decodes at (col,row)/(N-1).
package bake

import (
	"errors"
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/impostor/impostorrt/rt/atlas"
	"github.com/gekko3d/impostor/impostorrt/rt/bounds"
	"github.com/gekko3d/impostor/impostorrt/rt/core"
	"github.com/gekko3d/impostor/impostorrt/rt/framing"
	"github.com/gekko3d/impostor/impostorrt/rt/octa"
)

var (
	ErrNilRenderer    = errors.New("bake: renderer is nil")
	ErrNilTarget      = errors.New("bake: target is nil")
	ErrInvalidMode    = errors.New("bake: invalid octahedral mode")
	ErrInvalidCamera  = errors.New("bake: invalid camera configuration")
	ErrSpritesPerSide = errors.New("bake: sprites per side must be at least 2")
	ErrTextureSize    = errors.New("bake: texture size must be a positive multiple of sprites per side")
	ErrCameraFactor   = errors.New("bake: camera factor must be positive")
	ErrNestedBake     = errors.New("bake: target is already being baked")
)

const (
	DefaultSpritesPerSide = 16
	DefaultTextureSize    = 2048
	DefaultPadding        = 1.1

	// depthEpsilon widens near/far around the sphere, as a fraction of the radius.
	depthEpsilon = 0.01
)

// DefaultFovY is the perspective bake field of view.
var DefaultFovY = mgl32.DegToRad(50)

// Logger is the subset of the engine logger the baker writes to.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
}

// Profiler receives named timing scopes and counters.
type Profiler interface {
	BeginScope(name string)
	EndScope(name string)
	SetCount(name string, count int)
}

type Config struct {
	SpritesPerSide int
	TextureSize    int
	Mode           octa.Mode
	Camera         core.ProjectionType
	// CameraFactor multiplies the fitted framing; above 1 leaves a margin.
	CameraFactor float32
	FovY         float32 // perspective only, radians
	Padding      float32 // perspective only
	NormalSpace  core.NormalSpace

	Logger   Logger
	Profiler Profiler
}

func DefaultConfig() Config {
	return Config{
		SpritesPerSide: DefaultSpritesPerSide,
		TextureSize:    DefaultTextureSize,
		Mode:           octa.Hemispherical,
		Camera:         core.Orthographic,
		CameraFactor:   1,
		FovY:           DefaultFovY,
		Padding:        DefaultPadding,
		NormalSpace:    core.WorldNormals,
	}
}

// Validate rejects configurations instead of defaulting them.
func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidMode, c.Mode)
	}
	if !c.Camera.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidCamera, c.Camera)
	}
	if c.Camera == core.Perspective && (c.FovY <= 0 || c.FovY >= mgl32.DegToRad(180)) {
		return fmt.Errorf("%w: field of view %v", ErrInvalidCamera, c.FovY)
	}
	if c.SpritesPerSide < 2 {
		return ErrSpritesPerSide
	}
	if c.TextureSize <= 0 || c.TextureSize%c.SpritesPerSide != 0 {
		return fmt.Errorf("%w: %d for %d sprites", ErrTextureSize, c.TextureSize, c.SpritesPerSide)
	}
	if c.CameraFactor <= 0 {
		return ErrCameraFactor
	}
	return nil
}

// CellRects returns the viewport of every cell in bake order.
func CellRects(textureSize, spritesPerSide int) []mgl32.Vec4 {
	rects := atlas.CellRects(textureSize, spritesPerSide)
	out := make([]mgl32.Vec4, len(rects))
	for i, r := range rects {
		out[i] = mgl32.Vec4{float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy())}
	}
	return out
}

// CellDirection returns the view direction baked into cell (col,row): the
// unit vector from the sphere centre toward the camera.
func CellDirection(mode octa.Mode, col, row, spritesPerSide int) mgl32.Vec3 {
	step := 1 / float32(spritesPerSide-1)
	return mode.Decode(mgl32.Vec2{float32(col) * step, float32(row) * step}).Normalize()
}

// Bake renders target into a new atlas. Renderer state and mesh materials
// are restored before returning, also when rendering fails.
func Bake(r core.Renderer, target *core.Node, cfg Config) (*atlas.Image, error) {
	if r == nil {
		return nil, ErrNilRenderer
	}
	if target == nil {
		return nil, ErrNilTarget
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if isBaking(target) {
		return nil, ErrNestedBake
	}

	start := time.Now()
	prof := cfg.Profiler
	if prof != nil {
		prof.BeginScope("bake")
		defer prof.EndScope("bake")
	}

	sphere := bounds.Compute(target, true)
	if err := bounds.Validate(sphere); err != nil {
		return nil, err
	}
	cam, distanceFactor, err := newBakeCamera(cfg, sphere)
	if err != nil {
		return nil, err
	}

	rt, err := r.CreateTarget(cfg.TextureSize, cfg.TextureSize)
	if err != nil {
		return nil, fmt.Errorf("bake: create target: %w", err)
	}
	defer rt.Release()

	saved := r.State()
	defer r.Restore(saved)
	restore := overrideMaterials(target, cfg.NormalSpace)
	defer restore()

	r.SetRenderTarget(rt)
	r.SetPixelRatio(1)
	r.SetClearAlpha(0)
	r.SetScissorTest(true)

	n := cfg.SpritesPerSide
	rects := atlas.CellRects(cfg.TextureSize, n)
	views := make([]atlas.View, 0, n*n)

	if prof != nil {
		prof.BeginScope("bake.cells")
	}
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			dir := CellDirection(cfg.Mode, col, row, n)
			cam.Position = sphere.Center.Add(dir.Mul(sphere.Radius * distanceFactor))
			cam.LookAt(sphere.Center)

			rect := rects[row*n+col]
			r.SetViewport(rect)
			r.SetScissor(rect)
			r.Clear()
			if err := r.Render(target, cam); err != nil {
				return nil, fmt.Errorf("bake: cell %d,%d: %w", col, row, err)
			}
			views = append(views, atlas.View{Cell: atlas.Cell{Col: col, Row: row}, Direction: dir, Rect: rect})
			if cfg.Logger != nil {
				cfg.Logger.Debugf("bake cell %d,%d dir=(%.3f %.3f %.3f)", col, row, dir.X(), dir.Y(), dir.Z())
			}
		}
	}
	if prof != nil {
		prof.EndScope("bake.cells")
		prof.SetCount("bake.cells", n*n)
	}

	c, nd, err := rt.ReadBack()
	if err != nil {
		return nil, fmt.Errorf("bake: read back: %w", err)
	}
	img, err := atlas.FromBuffers(c, nd, n, cfg.Mode)
	if err != nil {
		return nil, err
	}
	img.Views = views
	img.Sphere = sphere
	img.Box, _ = bounds.ComputeBox(target)
	img.HalfExtent = halfExtent(cfg, cam, distanceFactor)

	if cfg.Logger != nil {
		cfg.Logger.Infof("baked %dx%d atlas, %d cells, %v/%v, radius %.3f in %v",
			cfg.TextureSize, cfg.TextureSize, n*n, cfg.Mode, cfg.Camera, sphere.Radius, time.Since(start))
	}
	return img, nil
}

// newBakeCamera builds the camera reused for every cell. The returned factor
// times the radius is the camera distance from the sphere centre.
func newBakeCamera(cfg Config, s core.Sphere) (*core.Camera, float32, error) {
	reach := s.Radius * (1 + depthEpsilon)

	if cfg.Camera == core.Orthographic {
		cam := core.NewOrthographicCamera(s.Radius*cfg.CameraFactor, 1, 0, 2*reach)
		return cam, 1 + depthEpsilon, nil
	}

	cam := core.NewPerspectiveCamera(cfg.FovY, 1, 0.1, 1)
	padding := cfg.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	d, err := framing.Distance(cam, s, padding)
	if err != nil {
		return nil, 0, err
	}
	d *= cfg.CameraFactor
	cam.Near = max(d-reach, d*1e-3)
	cam.Far = d + reach
	return cam, d / s.Radius, nil
}

// halfExtent is the half size of a cell at the sphere centre, in radii.
func halfExtent(cfg Config, cam *core.Camera, distanceFactor float32) float32 {
	if cfg.Camera == core.Orthographic {
		return cfg.CameraFactor
	}
	return distanceFactor * math32.Tan(cam.FovY/2)
}

func isBaking(target *core.Node) bool {
	for _, m := range target.Meshes() {
		if _, ok := m.Material.(*core.FlattenMaterial); ok {
			return true
		}
	}
	return false
}

// overrideMaterials swaps every mesh material for a flattening one and
// returns the function that puts the originals back.
func overrideMaterials(target *core.Node, space core.NormalSpace) func() {
	type saved struct {
		mesh *core.Mesh
		mat  core.Material
	}
	var originals []saved
	seen := make(map[*core.Mesh]bool)
	for _, m := range target.Meshes() {
		if seen[m] {
			continue
		}
		seen[m] = true
		originals = append(originals, saved{m, m.Material})
		m.Material = core.NewFlattenMaterial(m.Material, space)
	}
	return func() {
		for _, s := range originals {
			s.mesh.Material = s.mat
		}
	}
}
