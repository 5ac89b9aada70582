// Package mesh implements the block mesher (C4): extracting a triangle
// mesh for one block at one LOD from a voxel.Tree and a density field,
// using edge-crossing dual contouring.
//
// Ported from original_source/server/terrain/generate.rs's
// generate_block: the same three extract! axis frames, the same
// quad-fan-of-4-triangles emission winding by corner_inside_surface,
// and the same per-triangle EntityId/AABB bookkeeping, minus the
// -1.0 y-padding hack: a Triangle's Bounds is the exact component-wise
// min/max of its three vertices.
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/lod"
	"github.com/playform/terrain/internal/voxel"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Triangle is one emitted polygon: its three world-space vertices and
// normals, its allocated EntityId, and its physics bounding box.
type Triangle struct {
	Vertices [3]mgl32.Vec3
	Normals  [3]mgl32.Vec3
	ID       idalloc.EntityId
	Bounds   AABB
}

// Block is the output of meshing one BlockPosition at one LODIndex: a
// flat list of triangles, each carrying its own ID and bounds.
type Block struct {
	Triangles []Triangle
}

// frame is one of the three axis directions the mesher sweeps an edge
// along, with the two in-plane neighbor offsets that complete a quad.
type frame struct {
	edge, d1, d2 [3]int32
}

var frames = [3]frame{
	{edge: [3]int32{1, 0, 0}, d1: [3]int32{0, -1, 0}, d2: [3]int32{0, 0, -1}},
	{edge: [3]int32{0, 1, 0}, d1: [3]int32{0, 0, -1}, d2: [3]int32{-1, 0, 0}},
	{edge: [3]int32{0, 0, 1}, d1: [3]int32{-1, 0, 0}, d2: [3]int32{0, -1, 0}},
}

func add3(a, b [3]int32) [3]int32 {
	return [3]int32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Generate extracts the mesh for position at lodIndex, sampling and
// materializing voxels from tree/field as needed. Missing neighbor
// surface vertices at a known-crossed edge are a programming error and
// panic rather than silently skipping the triangle.
func Generate(
	tree *voxel.Tree,
	field voxel.DensityField,
	ids *idalloc.Allocator[idalloc.EntityId],
	position lod.BlockPosition,
	lodIndex lod.Index,
) Block {
	block := Block{}

	lateralSamples := lod.EdgeSamples[lodIndex]
	lgSize := lod.LgSampleSize[lodIndex]

	wx, wy, wz := position.WorldMin()
	var origin [3]int32
	if lgSize >= 0 {
		mask := int32(1)<<uint(lgSize) - 1
		if (wx|wy|wz)&mask != 0 {
			panic(fmt.Sprintf("mesh.Generate: block position %+v not a multiple of voxel size 2^%d", position, lgSize))
		}
		origin = [3]int32{wx >> uint(lgSize), wy >> uint(lgSize), wz >> uint(lgSize)}
	} else {
		shift := uint(-lgSize)
		origin = [3]int32{wx << shift, wy << shift, wz << shift}
	}

	getVoxel := func(w [3]int32) (voxel.Voxel, bool) {
		b := voxel.NewBounds(w[0], w[1], w[2], lgSize)
		v := tree.GetOrCreate(b)
		if v == nil {
			generated := voxel.Generate(b, field)
			tree.Set(b, generated)
			v = &generated
		}
		if v.Kind != voxel.KindSurface {
			return *v, false
		}
		return *v, true
	}

	getVertex := func(w [3]int32) (mgl32.Vec3, mgl32.Vec3) {
		b := voxel.NewBounds(w[0], w[1], w[2], lgSize)
		v, ok := getVoxel(w)
		if !ok {
			panic(fmt.Sprintf("mesh.Generate: missing surface voxel at %+v for a known-crossed edge", b))
		}
		return v.InnerVertex.ToWorld(b), v.Normal.ToWorld()
	}

	for _, fr := range frames {
		for x := int32(0); x < lateralSamples; x++ {
			for y := int32(0); y < lateralSamples; y++ {
				for z := int32(0); z < lateralSamples; z++ {
					w := add3(origin, [3]int32{x, y, z})

					voxelHere, ok := getVoxel(w)
					if !ok {
						continue
					}

					neighbor, _ := getVoxel(add3(w, fr.edge))
					neighborInside := neighbor.CornerInside()
					if voxelHere.CornerInsideSurface == neighborInside {
						continue
					}

					b := voxel.NewBounds(w[0], w[1], w[2], lgSize)
					v1, n1 := getVertex(add3(add3(w, fr.d1), fr.d2))
					v2, n2 := getVertex(add3(w, fr.d1))
					v3, n3 := voxelHere.InnerVertex.ToWorld(b), voxelHere.Normal.ToWorld()
					v4, n4 := getVertex(add3(w, fr.d2))

					center := v1.Add(v2).Add(v3).Add(v4).Mul(0.25)
					centerNormal := n1.Add(n2).Add(n3).Add(n4).Mul(0.25)

					addQuad := func(va, na, vb, nb mgl32.Vec3) {
						block.Triangles = append(block.Triangles, newTriangle(ids, va, na, vb, nb, center, centerNormal))
					}

					if voxelHere.CornerInsideSurface {
						addQuad(v1, n1, v4, n4)
						addQuad(v4, n4, v3, n3)
						addQuad(v3, n3, v2, n2)
						addQuad(v2, n2, v1, n1)
					} else {
						addQuad(v1, n1, v2, n2)
						addQuad(v2, n2, v3, n3)
						addQuad(v3, n3, v4, n4)
						addQuad(v4, n4, v1, n1)
					}
				}
			}
		}
	}

	return block
}

func newTriangle(ids *idalloc.Allocator[idalloc.EntityId], v1, n1, v2, n2, center, centerNormal mgl32.Vec3) Triangle {
	id := ids.Allocate()

	min := componentMin(componentMin(v1, v2), center)
	max := componentMax(componentMax(v1, v2), center)

	return Triangle{
		Vertices: [3]mgl32.Vec3{v1, v2, center},
		Normals:  [3]mgl32.Vec3{n1, n2, centerNormal},
		ID:       id,
		Bounds:   AABB{Min: min, Max: max},
	}
}

func componentMin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min32(a.X(), b.X()), min32(a.Y(), b.Y()), min32(a.Z(), b.Z())}
}

func componentMax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max32(a.X(), b.X()), max32(a.Y(), b.Y()), max32(a.Z(), b.Z())}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
