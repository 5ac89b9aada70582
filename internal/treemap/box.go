package treemap

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/mesh"
)

// cornerOffsets are the 8 unit-cube corner directions, low ring first
// (indices 0-3) then high ring (4-7), matching place_block's corners
// array.
var cornerOffsets = [8]mgl32.Vec3{
	{-1, -1, -1}, {-1, -1, 1}, {1, -1, 1}, {1, -1, -1},
	{-1, 1, -1}, {-1, 1, 1}, {1, 1, 1}, {1, 1, -1},
}

func cornerNormal(i int) mgl32.Vec3 {
	return cornerOffsets[i].Normalize()
}

// boxFace names the 4 corner indices of one face of an 8-corner prism,
// matching place_block's 6 place_side calls.
type boxFace struct{ i1, i2, i3, i4 int }

var boxFaces = [6]boxFace{
	{0, 1, 4, 5},
	{1, 2, 5, 6},
	{2, 3, 6, 7},
	{3, 0, 7, 4},
	{1, 0, 2, 3},
	{4, 5, 7, 6},
}

// placeBlock emits a rectangular prism from a (possibly narrower) low
// ring to a high ring, one quad-of-2-triangles per face, matching
// place_block/place_side.
func placeBlock(tris *[]mesh.Triangle, ids *idalloc.Allocator[idalloc.EntityId], lowCenter mgl32.Vec3, lowRadius float32, highCenter mgl32.Vec3, highRadius float32) {
	corners := [8]mgl32.Vec3{
		lowCenter.Add(mgl32.Vec3{-lowRadius, 0, -lowRadius}),
		lowCenter.Add(mgl32.Vec3{-lowRadius, 0, lowRadius}),
		lowCenter.Add(mgl32.Vec3{lowRadius, 0, lowRadius}),
		lowCenter.Add(mgl32.Vec3{lowRadius, 0, -lowRadius}),
		highCenter.Add(mgl32.Vec3{-highRadius, 0, -highRadius}),
		highCenter.Add(mgl32.Vec3{-highRadius, 0, highRadius}),
		highCenter.Add(mgl32.Vec3{highRadius, 0, highRadius}),
		highCenter.Add(mgl32.Vec3{highRadius, 0, -highRadius}),
	}

	for _, f := range boxFaces {
		placeSide(tris, ids, corners, f)
	}
}

func placeSide(tris *[]mesh.Triangle, ids *idalloc.Allocator[idalloc.EntityId], corners [8]mgl32.Vec3, f boxFace) {
	v1, v2, v3, v4 := corners[f.i1], corners[f.i2], corners[f.i3], corners[f.i4]
	n1, n2, n3, n4 := cornerNormal(f.i1), cornerNormal(f.i2), cornerNormal(f.i3), cornerNormal(f.i4)

	bounds := mesh.AABB{
		Min: mgl32.Vec3{min32(v1.X(), v2.X()), v1.Y(), min32(v1.Z(), v2.Z())},
		Max: mgl32.Vec3{max32(v1.X(), v2.X()), v3.Y(), max32(v1.Z(), v2.Z())},
	}

	id1, id2 := ids.Allocate(), ids.Allocate()

	*tris = append(*tris,
		mesh.Triangle{Vertices: [3]mgl32.Vec3{v1, v2, v4}, Normals: [3]mgl32.Vec3{n1, n2, n4}, ID: id1, Bounds: bounds},
		mesh.Triangle{Vertices: [3]mgl32.Vec3{v1, v4, v3}, Normals: [3]mgl32.Vec3{n1, n4, n3}, ID: id2, Bounds: bounds},
	)
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
