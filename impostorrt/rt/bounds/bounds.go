// Package bounds computes world-space bounding volumes of node hierarchies.
package bounds

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/impostor/impostorrt/rt/core"
)

var ErrDegenerateSphere = errors.New("bounds: hierarchy has no geometry or zero extent")

// Compute returns the world-space sphere enclosing every mesh under root.
// Per-geometry spheres are cached; force recomputes
// them, which is needed once after the geometry was deformed in place.
// Invisible nodes are skipped together with their children.
func Compute(root *core.Node, force bool) core.Sphere {
	result := core.EmptySphere()
	if root == nil {
		return result
	}
	root.Traverse(func(n *core.Node, world mgl32.Mat4) bool {
		if !n.Visible {
			return false
		}
		if n.Mesh == nil || n.Mesh.Geometry == nil {
			return true
		}
		local := n.Mesh.Geometry.BoundingSphere(force)
		result = result.Union(local.Transform(world))
		return true
	})
	return result
}

// Validate rejects the empty sentinel and zero-radius spheres.
func Validate(s core.Sphere) error {
	if s.IsDegenerate() {
		return ErrDegenerateSphere
	}
	return nil
}

// ComputeBox returns the world AABB of every mesh under root by transforming
// the eight corners of each local box. ok is false when no geometry exists.
func ComputeBox(root *core.Node) (box [2]mgl32.Vec3, ok bool) {
	inf := float32(1e20)
	wMin := mgl32.Vec3{inf, inf, inf}
	wMax := mgl32.Vec3{-inf, -inf, -inf}
	if root == nil {
		return box, false
	}

	root.Traverse(func(n *core.Node, world mgl32.Mat4) bool {
		if !n.Visible {
			return false
		}
		if n.Mesh == nil || n.Mesh.Geometry == nil || len(n.Mesh.Geometry.Positions) == 0 {
			return true
		}
		minB, maxB := localBox(n.Mesh.Geometry)
		corners := [8]mgl32.Vec3{
			{minB.X(), minB.Y(), minB.Z()},
			{maxB.X(), minB.Y(), minB.Z()},
			{minB.X(), maxB.Y(), minB.Z()},
			{maxB.X(), maxB.Y(), minB.Z()},
			{minB.X(), minB.Y(), maxB.Z()},
			{maxB.X(), minB.Y(), maxB.Z()},
			{minB.X(), maxB.Y(), maxB.Z()},
			{maxB.X(), maxB.Y(), maxB.Z()},
		}
		for _, c := range corners {
			wc := mgl32.TransformCoordinate(c, world)
			wMin = mgl32.Vec3{min(wMin.X(), wc.X()), min(wMin.Y(), wc.Y()), min(wMin.Z(), wc.Z())}
			wMax = mgl32.Vec3{max(wMax.X(), wc.X()), max(wMax.Y(), wc.Y()), max(wMax.Z(), wc.Z())}
		}
		ok = true
		return true
	})
	return [2]mgl32.Vec3{wMin, wMax}, ok
}

func localBox(g *core.Geometry) (mgl32.Vec3, mgl32.Vec3) {
	minB, maxB := g.Positions[0], g.Positions[0]
	for _, p := range g.Positions[1:] {
		minB = mgl32.Vec3{min(minB.X(), p.X()), min(minB.Y(), p.Y()), min(minB.Z(), p.Z())}
		maxB = mgl32.Vec3{max(maxB.X(), p.X()), max(maxB.Y(), p.Y()), max(maxB.Z(), p.Z())}
	}
	return minB, maxB
}
