package impostor

import (
	"runtime"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/impostor/impostorrt/rt/core"
	"github.com/gekko3d/impostor/impostorrt/rt/sample"
)

// BatchItem is the vertex stage output of one placed copy, in world space.
type BatchItem struct {
	Index    int
	Center   mgl32.Vec3
	HalfSize float32
	// Rotation takes baked normals to world space.
	Rotation mgl32.Quat
	// Vertex.Right and Vertex.Up are world-space unit vectors.
	Vertex   sample.VertexOut
	Distance float32
}

// Batch evaluates the vertex stage for every placement of the impostor
// relative to one observer. Placements are object-to-world matrices that
// replace Transform. Work is split into contiguous chunks over workers
// goroutines; workers <= 0 uses one per CPU.
func (im *Impostor) Batch(placements []mgl32.Mat4, observerWorld mgl32.Vec3, workers int) []BatchItem {
	state := im.State()
	out := make([]BatchItem, len(placements))
	if len(placements) == 0 {
		return out
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(placements))
	per, rem := len(placements)/workers, len(placements)%workers

	var wg sync.WaitGroup
	start := 0
	for w := 0; w < workers; w++ {
		n := per
		if w < rem {
			n++
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				out[i] = batchItem(i, placements[i], state, observerWorld)
			}
		}(start, start+n)
		start += n
	}
	wg.Wait()
	return out
}

func batchItem(i int, placement mgl32.Mat4, state sample.MaterialState, observer mgl32.Vec3) BatchItem {
	world := placement.Mul4(state.Transform)
	vo := sample.Vertex(sample.LocalObserver(world, observer), state)

	center := mgl32.TransformCoordinate(mgl32.Vec3{}, world)
	vo.Right = mgl32.TransformNormal(vo.Right, world).Normalize()
	vo.Up = mgl32.TransformNormal(vo.Up, world).Normalize()
	return BatchItem{
		Index:    i,
		Center:   center,
		HalfSize: core.MaxScale(world),
		Rotation: core.RotationOf(placement),
		Vertex:   vo,
		Distance: center.Sub(observer).Len(),
	}
}

// SortBackToFront orders items farthest first for blending without depth
// writes.
func SortBackToFront(items []BatchItem) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Distance > items[b].Distance
	})
}

// GridPlacements lays out grid x grid copies on the XZ plane, centred on the
// origin, each turned about Y so neighbours show different views.
func GridPlacements(grid int, spacing float32) []mgl32.Mat4 {
	if grid <= 0 {
		return nil
	}
	out := make([]mgl32.Mat4, 0, grid*grid)
	offset := float32(grid-1) * spacing / 2
	for row := 0; row < grid; row++ {
		for col := 0; col < grid; col++ {
			i := row*grid + col
			// golden angle
			yaw := float32(i) * 2.39996323
			t := mgl32.Translate3D(float32(col)*spacing-offset, 0, float32(row)*spacing-offset)
			out = append(out, t.Mul4(mgl32.HomogRotate3DY(yaw)))
		}
	}
	return out
}
