// Package lod defines the LOD lattice shared by the voxel tree, mesher,
// surroundings tracker, and arbitration map: LODIndex (the "how detailed"
// axis) and LOD (LODIndex plus the Placeholder sentinel), along with the
// per-LOD sampling tables.
package lod

import "strconv"

// NumLODs is the number of distinct LODIndex values.
const NumLODs = 4

// EdgeSamples[i] is the number of voxels per block edge at LODIndex(i).
// Finer (lower index) LODs sample more voxels per edge.
var EdgeSamples = [NumLODs]int32{16, 8, 4, 2}

// LgSampleSize[i] is the lg_size of a single voxel at LODIndex(i): the
// block edge (2^BlockLgSize world units) divided into EdgeSamples[i]
// voxels.
var LgSampleSize = [NumLODs]int16{
	BlockLgSize - 4,
	BlockLgSize - 3,
	BlockLgSize - 2,
	BlockLgSize - 1,
}

// BlockLgSize is log2(BLOCK_WIDTH): blocks are 16x16x16 world units.
const BlockLgSize = 4

// BlockWidth is the edge length, in world units, of one BlockPosition's
// cubic region.
const BlockWidth = 1 << BlockLgSize

// Index is a small natural number 0..NumLODs. Lower means more detailed.
type Index uint8

// Valid reports whether i is a legal LODIndex.
func (i Index) Valid() bool {
	return int(i) < NumLODs
}

// LOD is either Placeholder or an Index. The zero value is Placeholder,
// the lattice's bottom element.
type LOD struct {
	isIndex bool
	index   Index
}

// Placeholder denotes "present in physics but without a rendered mesh",
// the lowest element of the LOD lattice.
var Placeholder = LOD{}

// FromIndex builds a LOD wrapping a concrete LODIndex.
func FromIndex(i Index) LOD {
	return LOD{isIndex: true, index: i}
}

// IsPlaceholder reports whether this LOD is the Placeholder sentinel.
func (l LOD) IsPlaceholder() bool {
	return !l.isIndex
}

// Index returns the wrapped LODIndex and true, or (0, false) if this LOD
// is Placeholder.
func (l LOD) Index() (Index, bool) {
	return l.index, l.isIndex
}

// Less implements the arbitration ordering: Placeholder < LodIndex(0) <
// LodIndex(1) < … ; among two LodIndex values, the *higher* index (the
// coarser one) compares greater.
func (l LOD) Less(other LOD) bool {
	if !l.isIndex {
		return other.isIndex
	}
	if !other.isIndex {
		return false
	}
	return l.index < other.index
}

// Max returns whichever of a, b compares greater under Less.
func Max(a, b LOD) LOD {
	if a.Less(b) {
		return b
	}
	return a
}

// String renders the LOD for logs/debugging.
func (l LOD) String() string {
	if !l.isIndex {
		return "Placeholder"
	}
	return "LodIndex(" + strconv.Itoa(int(l.index)) + ")"
}

// BlockPosition is an integer lattice triple identifying a BlockWidth
// cubic region of world space.
type BlockPosition struct {
	X, Y, Z int32
}

// NewBlockPosition constructs a BlockPosition.
func NewBlockPosition(x, y, z int32) BlockPosition {
	return BlockPosition{X: x, Y: y, Z: z}
}

// WorldMin returns this block's minimum-corner world coordinate.
func (p BlockPosition) WorldMin() (x, y, z int32) {
	return p.X * BlockWidth, p.Y * BlockWidth, p.Z * BlockWidth
}

// ChebyshevDistance returns max(|dx|,|dy|,|dz|) between p and q, the
// natural distance for cube-shell iteration.
func ChebyshevDistance(p, q BlockPosition) int32 {
	dx := absInt32(p.X - q.X)
	dy := absInt32(p.Y - q.Y)
	dz := absInt32(p.Z - q.Z)
	return max3(dx, dy, dz)
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func max3(a, b, c int32) int32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// ThresholdsToLOD answers "what does LOD mean at this distance" as a
// plain lookup over an ascending list of radii instead of a callback:
// the LOD at a given Chebyshev distance is
// the index of the smallest threshold >= that distance, or Placeholder
// if the distance exceeds every threshold.
//
// thresholds must be sorted ascending and have at most NumLODs entries;
// thresholds[i] is the max distance at which LodIndex(i) applies.
func ThresholdsToLOD(thresholds []int32, distance int32) LOD {
	for i, t := range thresholds {
		if distance <= t {
			return FromIndex(Index(i))
		}
	}
	return Placeholder
}
