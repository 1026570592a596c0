package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a local TRS transform. Dirty is raised by every setter and
// consumed by whoever caches data derived from the world matrix.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Dirty    bool
}

func NewTransform() *Transform {
	return &Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Dirty:    true,
	}
}

func (t *Transform) SetPosition(p mgl32.Vec3) {
	t.Position = p
	t.Dirty = true
}

func (t *Transform) SetRotation(q mgl32.Quat) {
	t.Rotation = q.Normalize()
	t.Dirty = true
}

func (t *Transform) SetScale(s mgl32.Vec3) {
	t.Scale = s
	t.Dirty = true
}

func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

func (t *Transform) WorldToObject() mgl32.Mat4 {
	// inv(M) = inv(S) * inv(R) * inv(T)
	invScale := mgl32.Scale3D(1.0/t.Scale.X(), 1.0/t.Scale.Y(), 1.0/t.Scale.Z())
	invRotate := t.Rotation.Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

// MaxScale returns the largest absolute axis scale encoded in m. Used to grow
// bounding radii under non-uniform scale.
// RotationOf returns the rotation part of m with its axis scales divided out.
func RotationOf(m mgl32.Mat4) mgl32.Quat {
	r := mgl32.Mat3FromCols(
		m.Col(0).Vec3().Normalize(),
		m.Col(1).Vec3().Normalize(),
		m.Col(2).Vec3().Normalize(),
	)
	return mgl32.Mat4ToQuat(r.Mat4()).Normalize()
}

func MaxScale(m mgl32.Mat4) float32 {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	return max(sx, sy, sz)
}
