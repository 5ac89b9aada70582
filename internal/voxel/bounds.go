// Package voxel implements the sparse voxel octree (C2) and the voxel
// generator (C3): turning a VoxelBounds into Empty/Volume/Surface voxel
// state by sampling a heightmap.Field.
//
// Types are grounded on original_source/server/terrain/voxel.rs
// (Bounds, Fracu8, Vertex, Voxel/SurfaceVoxel) translated into Go in the
// teacher's naming register.
package voxel

import "github.com/go-gl/mathgl/mgl32"

// Bounds identifies a cubic voxel: (x, y, z) are integer coordinates in
// units of 2^LgSize, and LgSize is a signed log-2 size (negative means
// subunit voxels).
type Bounds struct {
	X, Y, Z int32
	LgSize  int16
}

// NewBounds constructs a Bounds value.
func NewBounds(x, y, z int32, lgSize int16) Bounds {
	return Bounds{X: x, Y: y, Z: z, LgSize: lgSize}
}

// Size returns 2^LgSize as a real number.
func (b Bounds) Size() float32 {
	if b.LgSize >= 0 {
		return float32(int64(1) << uint(b.LgSize))
	}
	return 1.0 / float32(int64(1)<<uint(-b.LgSize))
}

// WorldMin returns the world-space coordinate of this voxel's minimum
// corner.
func (b Bounds) WorldMin() mgl32.Vec3 {
	size := b.Size()
	return mgl32.Vec3{float32(b.X) * size, float32(b.Y) * size, float32(b.Z) * size}
}

// Fracu8 expresses a [0,1) fraction as a u8 numerator over a 1/256
// denominator.
type Fracu8 struct {
	Numerator uint8
}

// FracOf constructs a Fracu8 from a raw numerator.
func FracOf(n uint8) Fracu8 {
	return Fracu8{Numerator: n}
}

func (f Fracu8) float32() float32 {
	return float32(f.Numerator) / 256.0
}

// Fraci8 expresses a signed [-1,1] fraction as an i8 numerator over a
// 1/127 denominator, used for stored normals.
type Fraci8 struct {
	Numerator int8
}

// FracOfSigned constructs a Fraci8 from a raw numerator.
func FracOfSigned(n int8) Fraci8 {
	return Fraci8{Numerator: n}
}

func (f Fraci8) float32() float32 {
	return float32(f.Numerator) / 127.0
}

// Vertex is a surface vertex's position relative to its voxel's minimum
// corner, as three [0,1) fractions in 1/256 units.
type Vertex struct {
	X, Y, Z Fracu8
}

// ToWorld converts a voxel-relative vertex to a world-space point given
// the voxel's Bounds.
func (v Vertex) ToWorld(parent Bounds) mgl32.Vec3 {
	local := mgl32.Vec3{v.X.float32(), v.Y.float32(), v.Z.float32()}
	min := mgl32.Vec3{float32(parent.X), float32(parent.Y), float32(parent.Z)}
	return min.Add(local).Mul(parent.Size())
}

// Normal is a signed [-1,1] normal stored in 1/127 units.
type Normal struct {
	X, Y, Z Fraci8
}

// ToWorld converts a stored Normal into an mgl32.Vec3.
func (n Normal) ToWorld() mgl32.Vec3 {
	return mgl32.Vec3{n.X.float32(), n.Y.float32(), n.Z.float32()}
}
