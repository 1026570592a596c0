package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Geometry is an indexed triangle list in object space.
type Geometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32

	boundingSphere *Sphere
}

// TriangleCount returns the number of triangles, falling back to an
// unindexed interpretation when Indices is empty.
func (g *Geometry) TriangleCount() int {
	if len(g.Indices) > 0 {
		return len(g.Indices) / 3
	}
	return len(g.Positions) / 3
}

// Triangle returns the three vertex indices of triangle i.
func (g *Geometry) Triangle(i int) [3]uint32 {
	if len(g.Indices) > 0 {
		return [3]uint32{g.Indices[i*3], g.Indices[i*3+1], g.Indices[i*3+2]}
	}
	base := uint32(i * 3)
	return [3]uint32{base, base + 1, base + 2}
}

// BoundingSphere returns the cached local bounding sphere, computing it on
// first use or when force is set.
func (g *Geometry) BoundingSphere(force bool) Sphere {
	if g.boundingSphere == nil || force {
		s := g.computeBoundingSphere()
		g.boundingSphere = &s
	}
	return *g.boundingSphere
}

// InvalidateBounds drops the cached sphere after the positions were edited.
func (g *Geometry) InvalidateBounds() {
	g.boundingSphere = nil
}

func (g *Geometry) computeBoundingSphere() Sphere {
	if len(g.Positions) == 0 {
		return EmptySphere()
	}

	inf := float32(1e20)
	minB := mgl32.Vec3{inf, inf, inf}
	maxB := mgl32.Vec3{-inf, -inf, -inf}
	for _, p := range g.Positions {
		minB = mgl32.Vec3{min(minB.X(), p.X()), min(minB.Y(), p.Y()), min(minB.Z(), p.Z())}
		maxB = mgl32.Vec3{max(maxB.X(), p.X()), max(maxB.Y(), p.Y()), max(maxB.Z(), p.Z())}
	}

	// Box centre, then the farthest vertex from it.
	center := minB.Add(maxB).Mul(0.5)
	var r2 float32
	for _, p := range g.Positions {
		d := p.Sub(center)
		r2 = max(r2, d.Dot(d))
	}
	return Sphere{Center: center, Radius: math32.Sqrt(r2)}
}

// Mesh binds a geometry to the material used to shade it.
type Mesh struct {
	Geometry *Geometry
	Material Material
}

// Node is one element of a transform hierarchy. Nodes without a mesh are
// pure groups.
type Node struct {
	Name      string
	Transform *Transform
	Mesh      *Mesh
	Visible   bool
	Children  []*Node

	parent *Node
}

func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Transform: NewTransform(),
		Visible:   true,
	}
}

func NewMeshNode(name string, geometry *Geometry, material Material) *Node {
	n := NewNode(name)
	n.Mesh = &Mesh{Geometry: geometry, Material: material}
	return n
}

func (n *Node) Parent() *Node {
	return n.parent
}

// Add attaches children, detaching them from any previous parent.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c.parent != nil {
			c.parent.Remove(c)
		}
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// WorldMatrix composes the local transforms from the root down to n.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.Transform.ObjectToWorld()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Transform.ObjectToWorld().Mul4(m)
	}
	return m
}

// Traverse visits n and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func (n *Node) Traverse(fn func(node *Node, world mgl32.Mat4) bool) {
	var parentWorld mgl32.Mat4
	if n.parent != nil {
		parentWorld = n.parent.WorldMatrix()
	} else {
		parentWorld = mgl32.Ident4()
	}
	n.traverse(parentWorld, fn)
}

func (n *Node) traverse(parentWorld mgl32.Mat4, fn func(*Node, mgl32.Mat4) bool) {
	world := parentWorld.Mul4(n.Transform.ObjectToWorld())
	if !fn(n, world) {
		return
	}
	for _, c := range n.Children {
		c.traverse(world, fn)
	}
}

// Meshes returns every mesh in the hierarchy, in traversal order.
func (n *Node) Meshes() []*Mesh {
	var out []*Mesh
	n.Traverse(func(node *Node, _ mgl32.Mat4) bool {
		if node.Mesh != nil {
			out = append(out, node.Mesh)
		}
		return true
	})
	return out
}
