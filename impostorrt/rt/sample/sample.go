// Package sample evaluates an impostor for one observer: which three atlas
// cells to read and how to blend them. It runs on the CPU and mirrors the
// WGSL in the shaders package.
package sample

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/impostor/impostorrt/rt/atlas"
	"github.com/gekko3d/impostor/impostorrt/rt/core"
	"github.com/gekko3d/impostor/impostorrt/rt/octa"
)

// Atlas is the read side of a baked atlas.
type Atlas interface {
	SampleColor(uv mgl32.Vec2) mgl32.Vec4
	SampleNormalDepth(uv mgl32.Vec2) mgl32.Vec4
	PremultipliedAlpha() bool
}

// Blend selects three neighbouring cells and their barycentric weights.
type Blend struct {
	Cells   [3]atlas.Cell
	Weights [3]float32
	Flip    bool
}

// Dominant returns the index of the largest weight.
func (b Blend) Dominant() int {
	d := 0
	for i := 1; i < 3; i++ {
		if b.Weights[i] > b.Weights[d] {
			d = i
		}
	}
	return d
}

// Weights splits the unit square along its diagonal and returns the
// barycentric weights of (fx,fy) in the triangle containing it. flip is set
// when the point lies below the diagonal (fx > fy).
func Weights(fx, fy float32) ([3]float32, bool) {
	w := [3]float32{
		min(1-fx, 1-fy),
		math32.Abs(fx - fy),
		min(fx, fy),
	}
	return w, math32.Ceil(fx-fy) > 0
}

// ComputeBlend maps a grid point in [0,1]² to cells of an n x n atlas.
func ComputeBlend(grid mgl32.Vec2, n int) Blend {
	last := float32(n - 1)
	gx := mgl32.Clamp(grid.X(), 0, 1) * last
	gy := mgl32.Clamp(grid.Y(), 0, 1) * last

	fl := mgl32.Vec2{math32.Floor(gx), math32.Floor(gy)}
	fx := mgl32.Clamp(gx-fl.X(), 0, 1)
	fy := mgl32.Clamp(gy-fl.Y(), 0, 1)

	w, flip := Weights(fx, fy)
	col, row := clampCell(int(fl.X()), n), clampCell(int(fl.Y()), n)

	b := Blend{Weights: w, Flip: flip}
	b.Cells[0] = atlas.Cell{Col: col, Row: row}
	if flip {
		b.Cells[1] = atlas.Cell{Col: clampCell(col+1, n), Row: row}
	} else {
		b.Cells[1] = atlas.Cell{Col: col, Row: clampCell(row+1, n)}
	}
	b.Cells[2] = atlas.Cell{Col: clampCell(col+1, n), Row: clampCell(row+1, n)}
	return b
}

func clampCell(i, n int) int {
	return max(0, min(i, n-1))
}

// LocalObserver returns the observer position in the billboard's frame.
func LocalObserver(billboardWorld mgl32.Mat4, observerWorld mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(observerWorld, billboardWorld.Inv())
}

// EffectiveDirection is the view direction used to pick cells. Hemispherical
// atlases hold the billboard upright near ground level.
func EffectiveDirection(local mgl32.Vec3, s MaterialState) mgl32.Vec3 {
	dist := local.Len()
	if dist < 1e-6 {
		return core.WorldUp
	}
	dir := local.Mul(1 / dist)
	if s.Mode != octa.Hemispherical {
		return dir
	}

	flat := mgl32.Vec3{local.X(), 0, local.Z()}
	if flat.Len() < 1e-6 {
		return dir
	}
	flat = flat.Normalize()

	switch s.HybridRule {
	case HybridSmooth:
		band := max(s.HybridDeadzone, 0) * dist
		t := smoothstep(s.HybridDistance-band, s.HybridDistance+band, local.Y())
		mixed := flat.Mul(1 - t).Add(dir.Mul(t))
		if mixed.Len() < 1e-6 {
			return dir
		}
		return mixed.Normalize()
	default:
		if local.Y() > s.HybridDistance {
			return dir
		}
		return flat
	}
}

func smoothstep(e0, e1, x float32) float32 {
	if e1 <= e0 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := mgl32.Clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

// VertexOut is what the vertex stage hands to every fragment of a billboard.
type VertexOut struct {
	Direction mgl32.Vec3
	Blend     Blend
	// Right and Up span the billboard; they match the bake camera for
	// Direction so sprites land upright.
	Right, Up mgl32.Vec3
}

func Vertex(localObserver mgl32.Vec3, s MaterialState) VertexOut {
	dir := EffectiveDirection(localObserver, s)
	right, up := core.ViewBasis(dir.Mul(-1))
	return VertexOut{
		Direction: dir,
		Blend:     ComputeBlend(s.Mode.Encode(dir), s.SpritesPerSide),
		Right:     right,
		Up:        up,
	}
}

// Corner returns the billboard position for a quad UV, before
// MaterialState.Transform. UV (0,0) is the top-left corner.
func (v VertexOut) Corner(uv mgl32.Vec2) mgl32.Vec3 {
	return v.Right.Mul(uv.X()*2 - 1).Add(v.Up.Mul(1 - uv.Y()*2))
}

type Result struct {
	Color   mgl32.Vec4
	Normal  mgl32.Vec3
	Depth   float32
	Discard bool
}

// Fragment blends the three cells at localUV. Cells with zero weight are
// never read.
func Fragment(vo VertexOut, localUV mgl32.Vec2, a Atlas, s MaterialState) Result {
	b := vo.Blend
	var uvs [3]mgl32.Vec2
	for i, c := range b.Cells {
		uvs[i] = atlas.CellUV(c, localUV, s.SpritesPerSide)
	}
	premul := a.PremultipliedAlpha()
	fetch := func(i int) mgl32.Vec4 {
		c := a.SampleColor(uvs[i])
		if !premul {
			c = mgl32.Vec4{c.X() * c.W(), c.Y() * c.W(), c.Z() * c.W(), c.W()}
		}
		return c
	}

	dom := b.Dominant()
	var domColor mgl32.Vec4
	haveDom := false
	if b.Weights[dom] > 1-s.AlphaClamp {
		domColor = fetch(dom)
		haveDom = true
		if domColor.W() <= s.AlphaClamp {
			return Result{Discard: true}
		}
	}

	var color, nd mgl32.Vec4
	if !s.BlendEnabled {
		if !haveDom {
			domColor = fetch(dom)
		}
		color = domColor
		nd = a.SampleNormalDepth(uvs[dom])
	} else {
		for i, w := range b.Weights {
			if w <= 0 {
				continue
			}
			c := domColor
			if i != dom || !haveDom {
				c = fetch(i)
			}
			color = color.Add(c.Mul(w))
			nd = nd.Add(a.SampleNormalDepth(uvs[i]).Mul(w))
		}
	}

	if color.W() <= s.AlphaClamp {
		return Result{Discard: true}
	}
	if !s.Transparent {
		inv := 1 / color.W()
		color = mgl32.Vec4{color.X() * inv, color.Y() * inv, color.Z() * inv, color.W()}
	}
	return Result{
		Color:  color,
		Normal: core.DecodeNormal(nd),
		Depth:  nd.W(),
	}
}

// Sample runs both stages for one observer and quad UV.
func Sample(localObserver mgl32.Vec3, localUV mgl32.Vec2, a Atlas, s MaterialState) Result {
	return Fragment(Vertex(localObserver, s), localUV, a, s)
}
