// Package impostor bakes a node hierarchy into an octahedral atlas and draws
// it back as a single camera-facing billboard.
package impostor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/impostor/impostorrt/rt/atlas"
	"github.com/gekko3d/impostor/impostorrt/rt/bake"
	"github.com/gekko3d/impostor/impostorrt/rt/core"
	"github.com/gekko3d/impostor/impostorrt/rt/sample"
)

var ErrReleased = errors.New("impostor: released")

// Resource is anything derived from the atlas that must go away with it,
// such as uploaded GPU textures.
type Resource interface {
	Release()
}

// Impostor owns one baked atlas and the material state used to sample it.
// Transform places the impostor in the world; the baked node's world space
// is the impostor's object space.
type Impostor struct {
	ID        uuid.UUID
	Name      string
	Transform *core.Transform

	mu       sync.RWMutex
	renderer core.Renderer
	target   *core.Node
	cfg      Config
	logger   Logger
	profiler bake.Profiler
	atlas    *atlas.Image
	state    sample.MaterialState
	attached Resource
}

// New validates cfg and bakes target once.
func New(r core.Renderer, target *core.Node, cfg Config, logger Logger) (*Impostor, error) {
	return NewWithProfiler(r, target, cfg, logger, nil)
}

func NewWithProfiler(r core.Renderer, target *core.Node, cfg Config, logger Logger, prof bake.Profiler) (*Impostor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	im := &Impostor{
		ID:        uuid.New(),
		Name:      cfg.Name,
		Transform: core.NewTransform(),
		renderer:  r,
		target:    target,
		cfg:       cfg,
		logger:    orNop(logger),
		profiler:  prof,
	}
	if err := im.Regenerate(); err != nil {
		return nil, err
	}
	return im, nil
}

// Regenerate releases the current atlas and anything attached to it, then
// bakes the target again. On failure the impostor is left without an atlas.
func (im *Impostor) Regenerate() error {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.releaseLocked()

	bc, err := im.cfg.BakeConfig()
	if err != nil {
		return err
	}
	bc.Logger = im.logger
	bc.Profiler = im.profiler

	img, err := bake.Bake(im.renderer, im.target, bc)
	if err != nil {
		im.logger.Errorf("bake %q failed: %v", im.Name, err)
		return fmt.Errorf("impostor: %s: %w", im.Name, err)
	}

	state, err := im.cfg.MaterialState()
	if err != nil {
		img.Release()
		return err
	}
	state.Transform = sample.QuadTransform(img.Sphere, im.quadScale(img))

	im.atlas = img
	im.state = state
	im.logger.Infof("impostor %q ready: atlas %s, %d cells", im.Name, img.ID, len(img.Views))
	return nil
}

func (im *Impostor) quadScale(img *atlas.Image) float32 {
	if im.cfg.Material.Scale > 0 {
		return im.cfg.Material.Scale
	}
	return img.HalfExtent
}

// Release frees the atlas and any attached resource. Safe to call twice.
func (im *Impostor) Release() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.releaseLocked()
}

func (im *Impostor) releaseLocked() {
	if im.attached != nil {
		im.attached.Release()
		im.attached = nil
	}
	if im.atlas != nil {
		im.atlas.Release()
		im.atlas = nil
	}
}

// Attach ties res to the current atlas. It is released by the next
// Regenerate or Release, and immediately if the impostor has no atlas.
func (im *Impostor) Attach(res Resource) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.atlas == nil {
		res.Release()
		return ErrReleased
	}
	if im.attached != nil && im.attached != res {
		im.attached.Release()
	}
	im.attached = res
	return nil
}

// Atlas returns the current atlas, or nil after Release.
func (im *Impostor) Atlas() *atlas.Image {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.atlas
}

func (im *Impostor) State() sample.MaterialState {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.state
}

// Material returns the sampling section of the config.
func (im *Impostor) Material() MaterialConfig {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.cfg.Material
}

// SetMaterial changes the sampling parameters without a re-bake.
func (im *Impostor) SetMaterial(m MaterialConfig) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	cfg := im.cfg
	cfg.Material = m
	if err := cfg.Validate(); err != nil {
		return err
	}
	state, err := cfg.MaterialState()
	if err != nil {
		return err
	}
	if im.atlas != nil {
		state.Transform = sample.QuadTransform(im.atlas.Sphere, scaleOr(m.Scale, im.atlas.HalfExtent))
	}
	im.cfg = cfg
	im.state = state
	return nil
}

func scaleOr(s, fallback float32) float32 {
	if s > 0 {
		return s
	}
	return fallback
}

// BillboardWorld maps the unit billboard into world space.
func (im *Impostor) BillboardWorld() mgl32.Mat4 {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.Transform.ObjectToWorld().Mul4(im.state.Transform)
}

// Vertex runs the vertex stage for an observer at observerWorld.
func (im *Impostor) Vertex(observerWorld mgl32.Vec3) sample.VertexOut {
	world := im.BillboardWorld()
	return sample.Vertex(sample.LocalObserver(world, observerWorld), im.State())
}

// Corners returns the world-space billboard corners for UVs (0,0), (1,0),
// (1,1) and (0,1).
func (im *Impostor) Corners(observerWorld mgl32.Vec3) [4]mgl32.Vec3 {
	world := im.BillboardWorld()
	vo := sample.Vertex(sample.LocalObserver(world, observerWorld), im.State())
	uvs := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	var out [4]mgl32.Vec3
	for i, uv := range uvs {
		out[i] = mgl32.TransformCoordinate(vo.Corner(uv), world)
	}
	return out
}

// Sample shades one billboard fragment. The normal follows Transform's
// rotation into world space. A released impostor discards.
func (im *Impostor) Sample(observerWorld mgl32.Vec3, localUV mgl32.Vec2) sample.Result {
	world := im.BillboardWorld()

	im.mu.RLock()
	defer im.mu.RUnlock()
	if im.atlas == nil {
		return sample.Result{Discard: true}
	}
	res := sample.Sample(sample.LocalObserver(world, observerWorld), localUV, im.atlas, im.state)
	if !res.Discard {
		res.Normal = im.Transform.Rotation.Rotate(res.Normal)
	}
	return res
}
