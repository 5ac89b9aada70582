package voxel

import (
	"fmt"
	"sync"

	"github.com/playform/terrain/internal/lod"
)

// body is the contents of one octree node: it is Empty (never
// subdivided), a set of per-LOD Leaf voxels, or a Branch with up to 8
// children.
//
// A node keeps one leaf *per LODIndex* rather than a single leaf, so a
// coarse LOD's voxel and a finer LOD's subdivision of the same region
// coexist instead of one overwriting the other.
type body struct {
	leaves   [lod.NumLODs]*Voxel
	children *[8]*body
}

// rootLgSize is the lg_size of the cube the root body spans. Chosen large
// enough to cover any world content this module's tests or a
// terrain-sized server ever reach (+-2^25 world units at lg_size 0).
// Growing the root upward by splitting a new root over old content is
// equivalent in behavior to fixing a generous root span up front, since
// voxel coordinates are bounded 32-bit integers in practice; fixing it
// avoids re-parenting already-built subtrees under a taller root on
// every growth step.
const rootLgSize int16 = 26

// Tree is a sparse octree storing per-cell voxel state keyed by integer
// coordinates at a log-size. Navigation uses high-order bits of the
// integer coordinates, descending from a root that covers
// [-2^(rootLgSize-1), 2^(rootLgSize-1)) at lg_size 0.
//
// Grounded on a lazy-realize-on-lookup idiom (mutex-guarded map,
// create-if-absent), adapted from a flat chunk-position map to octree
// descent since hierarchical voxel storage at arbitrary lg_size is
// required here.
type Tree struct {
	mu   sync.Mutex
	root *body
}

// NewTree creates an empty voxel tree.
func NewTree() *Tree {
	return &Tree{root: &body{}}
}

// descend walks from the root to the body holding bounds, creating
// Branch nodes along the way. It panics if bounds falls outside the
// fixed root span, a configuration error rather than a runtime one.
func descend(root *body, b Bounds) *body {
	span := int64(1) << uint(rootLgSize-b.LgSize)
	half := span / 2
	if int64(b.X) < -half || int64(b.X) >= half ||
		int64(b.Y) < -half || int64(b.Y) >= half ||
		int64(b.Z) < -half || int64(b.Z) >= half {
		panic(fmt.Sprintf("voxel.Tree: bounds %+v outside root span [-%d,%d)", b, half, half))
	}

	node := root
	// Shift to coordinates relative to the root's minimum corner, so each
	// level's high-order bit picks the child.
	x, y, z := int32(int64(b.X)+half), int32(int64(b.Y)+half), int32(int64(b.Z)+half)
	for span > 1 {
		if node.children == nil {
			node.children = &[8]*body{}
		}
		idx, cx, cy, cz := childIndex(x, y, z, span)
		child := node.children[idx]
		if child == nil {
			child = &body{}
			node.children[idx] = child
		}
		node = child
		x, y, z = cx, cy, cz
		span /= 2
	}
	return node
}

// childIndex returns which of a body's 8 children contains (x,y,z) given
// the parent's span, plus the coordinates relative to that child's
// origin.
func childIndex(x, y, z int32, parentSpan int64) (idx int, cx, cy, cz int32) {
	half := int32(parentSpan / 2)
	bit := func(v int32) (int, int32) {
		if v >= half {
			return 1, v - half
		}
		return 0, v
	}
	var bx, by, bz int
	bx, cx = bit(x)
	by, cy = bit(y)
	bz, cz = bit(z)
	idx = bx | (by << 1) | (bz << 2)
	return
}

// GetOrCreate finds the slot for bounds and returns a pointer to its
// stored Voxel (nil if never written). The returned pointer is valid
// until the next Set call at the same bounds.
func (t *Tree) GetOrCreate(b Bounds) *Voxel {
	t.mu.Lock()
	defer t.mu.Unlock()

	node := descend(t.root, b)
	return node.leaves[LODIndexForLgSize(b.LgSize)]
}

// Set stores v at bounds, creating intermediate branches as needed.
func (t *Tree) Set(b Bounds, v Voxel) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node := descend(t.root, b)
	vv := v
	node.leaves[LODIndexForLgSize(b.LgSize)] = &vv
}

// LODIndexForLgSize maps a voxel's lg_size to the LODIndex slot used to
// store it in a Tree node, by finding the matching entry in
// lod.LgSampleSize. Sizes outside the table clamp to the nearest LOD.
func LODIndexForLgSize(lgSize int16) lod.Index {
	for i, lg := range lod.LgSampleSize {
		if lg == lgSize {
			return lod.Index(i)
		}
	}
	if lgSize < lod.LgSampleSize[0] {
		return 0
	}
	return lod.Index(lod.NumLODs - 1)
}
