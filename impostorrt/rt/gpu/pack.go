package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/impostor/impostorrt/rt/sample"
)

// ParamsSize is the byte size of the Params uniform in impostor.wgsl.
const ParamsSize = 80

// ImpostorInstance matches the WGSL instance attributes.
type ImpostorInstance struct {
	CenterSize [4]float32 // world centre, half size
	Right      [4]float32
	Up         [4]float32
	Cells01    [4]float32 // col0 row0 col1 row1
	Cell2      [4]float32 // col2 row2
	Weights    [4]float32 // w0 w1 w2
	Rotation   [4]float32 // quaternion x y z w, baked normal to world
}

// NewInstance builds the instance record of one billboard from its vertex
// stage output. rot is the placement rotation applied to baked normals.
func NewInstance(center mgl32.Vec3, halfSize float32, rot mgl32.Quat, vo sample.VertexOut) ImpostorInstance {
	b := vo.Blend
	return ImpostorInstance{
		CenterSize: [4]float32{center.X(), center.Y(), center.Z(), halfSize},
		Right:      [4]float32{vo.Right.X(), vo.Right.Y(), vo.Right.Z(), 0},
		Up:         [4]float32{vo.Up.X(), vo.Up.Y(), vo.Up.Z(), 0},
		Cells01: [4]float32{
			float32(b.Cells[0].Col), float32(b.Cells[0].Row),
			float32(b.Cells[1].Col), float32(b.Cells[1].Row),
		},
		Cell2:   [4]float32{float32(b.Cells[2].Col), float32(b.Cells[2].Row), 0, 0},
		Weights:  [4]float32{b.Weights[0], b.Weights[1], b.Weights[2], 0},
		Rotation: [4]float32{rot.V.X(), rot.V.Y(), rot.V.Z(), rot.W},
	}
}

// PackParams lays out the Params uniform:
//
//	view_proj        mat4x4<f32>  0
//	sprites_per_side f32         64
//	alpha_clamp      f32         68
//	blend_enabled    f32         72
//	transparent      f32         76
func PackParams(viewProj mgl32.Mat4, s sample.MaterialState) []byte {
	buf := make([]byte, ParamsSize)
	for i, v := range viewProj {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(float32(s.SpritesPerSide)))
	binary.LittleEndian.PutUint32(buf[68:], math.Float32bits(s.AlphaClamp))
	binary.LittleEndian.PutUint32(buf[72:], math.Float32bits(boolToFloat(s.BlendEnabled)))
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(boolToFloat(s.Transparent)))
	return buf
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
