// Package raster is a software implementation of core.Renderer. It draws
// indexed triangle meshes into a two-attachment target with a linear depth
// test, honouring viewport and scissor rectangles.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/impostor/impostorrt/rt/core"
)

var (
	ErrNoTarget          = errors.New("raster: no render target bound")
	ErrNilCamera         = errors.New("raster: camera is nil")
	ErrUnsupportedTarget = errors.New("raster: render target was not created by this renderer")
)

// Stats counts work done since the last ResetStats.
type Stats struct {
	DrawCalls int
	Triangles int
	Culled    int
	Fragments int
}

type Renderer struct {
	state core.RenderState
	stats Stats
}

func NewRenderer() *Renderer {
	return &Renderer{
		state: core.RenderState{
			PixelRatio: 1,
			ClearAlpha: 1,
		},
	}
}

func (r *Renderer) State() core.RenderState { return r.state }

func (r *Renderer) Restore(s core.RenderState) { r.state = s }

func (r *Renderer) Stats() Stats { return r.stats }

func (r *Renderer) ResetStats() { r.stats = Stats{} }

func (r *Renderer) CreateTarget(w, h int) (core.RenderTarget, error) {
	return NewTarget(w, h)
}

// SetRenderTarget binds t and resets viewport and scissor to its full size,
// or unbinds when t is nil.
func (r *Renderer) SetRenderTarget(t core.RenderTarget) {
	r.state.Target = t
	if t == nil {
		return
	}
	w, h := t.Size()
	full := image.Rect(0, 0, w, h)
	r.state.Viewport = full
	r.state.Scissor = full
}

func (r *Renderer) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	r.state.PixelRatio = ratio
}

func (r *Renderer) SetViewport(rect image.Rectangle) { r.state.Viewport = rect }

func (r *Renderer) SetScissor(rect image.Rectangle) { r.state.Scissor = rect }

func (r *Renderer) SetScissorTest(enabled bool) { r.state.ScissorTest = enabled }

func (r *Renderer) SetClearAlpha(alpha float32) { r.state.ClearAlpha = alpha }

func (r *Renderer) target() (*Target, error) {
	if r.state.Target == nil {
		return nil, ErrNoTarget
	}
	t, ok := r.state.Target.(*Target)
	if !ok {
		return nil, ErrUnsupportedTarget
	}
	if t.released() {
		return nil, ErrReleased
	}
	return t, nil
}

func (r *Renderer) scaled(rect image.Rectangle) image.Rectangle {
	ratio := r.state.PixelRatio
	if ratio == 1 || ratio <= 0 {
		return rect
	}
	s := func(v int) int { return int(math32.Round(float32(v) * ratio)) }
	return image.Rect(s(rect.Min.X), s(rect.Min.Y), s(rect.Max.X), s(rect.Max.Y))
}

// clipRect is the region fragments may be written to.
func (r *Renderer) clipRect(t *Target) image.Rectangle {
	clip := t.Bounds()
	if r.state.ScissorTest {
		clip = clip.Intersect(r.scaled(r.state.Scissor))
	}
	return clip
}

func (r *Renderer) Clear() {
	t, err := r.target()
	if err != nil {
		return
	}
	t.clear(r.clipRect(t), r.state.ClearAlpha)
}

// Render draws every visible mesh under root. Local normals are expressed in
// root's frame. Triangles crossing the camera plane are dropped.
func (r *Renderer) Render(root *core.Node, cam *core.Camera) error {
	t, err := r.target()
	if err != nil {
		return err
	}
	if cam == nil {
		return ErrNilCamera
	}
	if root == nil {
		return nil
	}

	vp := r.scaled(r.state.Viewport)
	if vp.Empty() {
		return fmt.Errorf("raster: empty viewport %v", vp)
	}
	clip := r.clipRect(t).Intersect(vp)
	if clip.Empty() {
		return nil
	}

	p := pass{
		t:      t,
		vp:     vp,
		clip:   clip,
		view:   cam.ViewMatrix(),
		proj:   cam.ProjectionMatrix(),
		near:   cam.Near,
		far:    cam.Far,
		stats:  &r.stats,
		toRoot: root.WorldMatrix().Inv(),
	}
	p.viewProj = p.proj.Mul4(p.view)
	planes := core.ExtractFrustum(p.viewProj)

	root.Traverse(func(n *core.Node, world mgl32.Mat4) bool {
		if !n.Visible {
			return false
		}
		if n.Mesh == nil || n.Mesh.Geometry == nil {
			return true
		}
		bs := n.Mesh.Geometry.BoundingSphere(false).Transform(world)
		if !core.SphereInFrustum(bs, planes) {
			r.stats.Culled++
			return true
		}
		r.stats.DrawCalls++
		p.drawMesh(n.Mesh, world)
		return true
	})
	return nil
}

type pass struct {
	t        *Target
	vp       image.Rectangle
	clip     image.Rectangle
	view     mgl32.Mat4
	proj     mgl32.Mat4
	viewProj mgl32.Mat4
	toRoot   mgl32.Mat4
	near     float32
	far      float32
	stats    *Stats
}

type vertex struct {
	screen mgl32.Vec2
	ndcZ   float32
	invW   float32
	viewZ  float32
	world  mgl32.Vec3
	normal mgl32.Vec3
	local  mgl32.Vec3
	uv     mgl32.Vec2
}

func normalMatrix(m mgl32.Mat4) mgl32.Mat3 {
	return m.Mat3().Inv().Transpose()
}

func (p *pass) drawMesh(mesh *core.Mesh, world mgl32.Mat4) {
	g := mesh.Geometry
	mat := mesh.Material
	if mat == nil {
		mat = core.DefaultMaterial()
	}
	nWorld := normalMatrix(world)
	nLocal := normalMatrix(p.toRoot.Mul4(world))
	mvp := p.viewProj.Mul4(world)
	mv := p.view.Mul4(world)

	for i := 0; i < g.TriangleCount(); i++ {
		idx := g.Triangle(i)
		var tri [3]vertex
		behind := false
		for k, vi := range idx {
			pos := g.Positions[vi]
			c := mvp.Mul4x1(pos.Vec4(1))
			if c.W() <= 1e-6 {
				behind = true
				break
			}
			invW := 1 / c.W()
			ndc := c.Vec3().Mul(invW)
			v := vertex{
				screen: mgl32.Vec2{
					float32(p.vp.Min.X) + (ndc.X()*0.5+0.5)*float32(p.vp.Dx()),
					float32(p.vp.Min.Y) + (0.5-ndc.Y()*0.5)*float32(p.vp.Dy()),
				},
				ndcZ:  ndc.Z(),
				invW:  invW,
				viewZ: -mv.Mul4x1(pos.Vec4(1)).Z(),
				world: mgl32.TransformCoordinate(pos, world),
			}
			if int(vi) < len(g.Normals) {
				n := g.Normals[vi]
				v.normal = nWorld.Mul3x1(n)
				v.local = nLocal.Mul3x1(n)
			}
			if int(vi) < len(g.UVs) {
				v.uv = g.UVs[vi]
			}
			tri[k] = v
		}
		if behind {
			continue
		}
		p.stats.Triangles++
		p.drawTriangle(tri, mat, nLocal)
	}
}

func edge(a, b, c mgl32.Vec2) float32 {
	return (b.X()-a.X())*(c.Y()-a.Y()) - (b.Y()-a.Y())*(c.X()-a.X())
}

func (p *pass) drawTriangle(tri [3]vertex, mat core.Material, nLocal mgl32.Mat3) {
	area := edge(tri[0].screen, tri[1].screen, tri[2].screen)
	if math32.Abs(area) < 1e-12 {
		return
	}
	// Screen Y points down, so counter-clockwise triangles have negative area.
	front := area < 0
	if !front && !mat.DoubleSided() {
		return
	}

	// Flat normal for geometry without vertex normals.
	var faceWorld, faceLocal mgl32.Vec3
	if tri[0].normal.Len() == 0 {
		faceWorld = tri[1].world.Sub(tri[0].world).Cross(tri[2].world.Sub(tri[0].world)).Normalize()
		faceLocal = nLocal.Mul3x1(faceWorld).Normalize()
	}

	minX := max(int(math32.Floor(min(tri[0].screen.X(), tri[1].screen.X(), tri[2].screen.X()))), p.clip.Min.X)
	maxX := min(int(math32.Ceil(max(tri[0].screen.X(), tri[1].screen.X(), tri[2].screen.X()))), p.clip.Max.X-1)
	minY := max(int(math32.Floor(min(tri[0].screen.Y(), tri[1].screen.Y(), tri[2].screen.Y()))), p.clip.Min.Y)
	maxY := min(int(math32.Ceil(max(tri[0].screen.Y(), tri[1].screen.Y(), tri[2].screen.Y()))), p.clip.Max.Y-1)

	depthRange := p.far - p.near
	if depthRange <= 0 {
		depthRange = 1
	}

	var frag core.Fragment
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			pt := mgl32.Vec2{float32(x) + 0.5, float32(y) + 0.5}
			b0 := edge(tri[1].screen, tri[2].screen, pt) / area
			b1 := edge(tri[2].screen, tri[0].screen, pt) / area
			b2 := edge(tri[0].screen, tri[1].screen, pt) / area
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*tri[0].ndcZ + b1*tri[1].ndcZ + b2*tri[2].ndcZ
			if z < -1 || z > 1 {
				continue
			}

			// Perspective-correct weights.
			pw0, pw1, pw2 := b0*tri[0].invW, b1*tri[1].invW, b2*tri[2].invW
			sum := pw0 + pw1 + pw2
			pw0, pw1, pw2 = pw0/sum, pw1/sum, pw2/sum

			viewZ := pw0*tri[0].viewZ + pw1*tri[1].viewZ + pw2*tri[2].viewZ
			depth := clamp01((p.far - viewZ) / depthRange)
			i := y*p.t.w + x
			if depth <= p.t.depth[i] {
				continue
			}

			frag.UV = tri[0].uv.Mul(pw0).Add(tri[1].uv.Mul(pw1)).Add(tri[2].uv.Mul(pw2))
			if faceWorld.Len() > 0 {
				frag.Normal, frag.LocalNormal = faceWorld, faceLocal
			} else {
				frag.Normal = safeNormalize(tri[0].normal.Mul(pw0).Add(tri[1].normal.Mul(pw1)).Add(tri[2].normal.Mul(pw2)))
				frag.LocalNormal = safeNormalize(tri[0].local.Mul(pw0).Add(tri[1].local.Mul(pw1)).Add(tri[2].local.Mul(pw2)))
			}
			frag.Depth = depth
			frag.FrontFacing = front

			out, discard := mat.Shade(&frag)
			if discard {
				continue
			}
			p.t.depth[i] = depth
			p.t.color.SetNRGBA(x, y, toNRGBA(out[0]))
			p.t.normalDepth.SetNRGBA64(x, y, toNRGBA64(out[1]))
			p.stats.Fragments++
		}
	}
}

func safeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	if l := v.Len(); l > 1e-12 {
		return v.Mul(1 / l)
	}
	return mgl32.Vec3{0, 0, 1}
}

func clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}

func toNRGBA(c mgl32.Vec4) color.NRGBA {
	q := func(v float32) uint8 { return uint8(clamp01(v)*255 + 0.5) }
	return color.NRGBA{q(c.X()), q(c.Y()), q(c.Z()), q(c.W())}
}

func toNRGBA64(c mgl32.Vec4) color.NRGBA64 {
	q := func(v float32) uint16 { return uint16(clamp01(v)*0xffff + 0.5) }
	return color.NRGBA64{q(c.X()), q(c.Y()), q(c.Z()), q(c.W())}
}
