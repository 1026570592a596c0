package impostor

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/impostor/impostorrt/rt/core"
)

// Procedural source objects for the CLI and the viewer.
const (
	ShapeCube   = "cube"
	ShapeSphere = "sphere"
	ShapeCone   = "cone"
	ShapeTree   = "tree"
)

func ParseShape(s string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case ShapeCube, ShapeSphere, ShapeCone, ShapeTree:
		return v, nil
	case "box":
		return ShapeCube, nil
	}
	return "", fmt.Errorf("unknown shape %q", s)
}

// BuildScene creates the node hierarchy described by c, sized so its
// largest extent is about c.Size.
func BuildScene(c SceneConfig) (*core.Node, error) {
	shape, err := ParseShape(c.Shape)
	if err != nil {
		return nil, err
	}
	size := c.Size
	if size <= 0 {
		size = 1
	}
	col := mgl32.Vec4(c.Color)
	if col == (mgl32.Vec4{}) {
		col = mgl32.Vec4{1, 1, 1, 1}
	}
	mat := core.NewStandardMaterial(col)

	root := core.NewNode(shape)
	switch shape {
	case ShapeCube:
		root.Add(core.NewMeshNode("cube", core.NewBoxGeometry(size, size, size), mat))
	case ShapeSphere:
		root.Add(core.NewMeshNode("sphere", core.NewSphereGeometry(size/2, 24, 16), mat))
	case ShapeCone:
		root.Add(core.NewMeshNode("cone", core.NewCylinderGeometry(0, size/2, size, 24), mat))
	case ShapeTree:
		trunkH := size * 0.4
		trunk := core.NewMeshNode("trunk",
			core.NewCylinderGeometry(size*0.06, size*0.09, trunkH, 12),
			core.NewStandardMaterial(mgl32.Vec4{0.45, 0.3, 0.18, 1}))
		trunk.Transform.SetPosition(mgl32.Vec3{0, trunkH / 2, 0})

		crown := core.NewMeshNode("crown", core.NewCylinderGeometry(0, size*0.35, size*0.7, 16), mat)
		crown.Transform.SetPosition(mgl32.Vec3{0, trunkH + size*0.3, 0})
		root.Add(trunk, crown)
	}
	return root, nil
}
