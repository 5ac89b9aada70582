// Package treemap implements procedural tree placement: the supplement
// to C4's mesh output that a block's generator offers alongside the
// voxel surface mesh for the column it's rooted in.
//
// Ported from original_source/server/src/terrain/tree_placer.rs's
// TreePlacer: the same TREE_NODES/MAX_BRANCH_LENGTH/LEAF_RADIUS per-LOD
// tables, the same trunk-mass formula, and the same fringe-queue branch
// growth scattering toward random crown points with a leaf block on every
// terminal node. IsaacRng's seeded integer stream is replaced by Go's
// math/rand seeded from a hash of (seed, salt, column), so placement
// decisions and crown scatter stay deterministic per column without
// porting a third-party RNG. Texture pixel coordinates are dropped: this
// port's mesh carries no UV channel (see internal/mesh.Triangle).
package treemap

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/lod"
	"github.com/playform/terrain/internal/mesh"
)

// treeNodeDensity, maxBranchLength, and leafRadius are indexed by
// LODIndex, coarsening the crown's point cloud and branch/leaf sizes at
// lower detail the same way the voxel mesh itself coarsens.
var (
	treeNodeDensity = [lod.NumLODs]float32{1.0 / 16, 1.0 / 16, 1.0 / 64, 1.0 / 128}
	maxBranchLength = [lod.NumLODs]float32{4, 4, 8, 16}
	leafRadius      = [lod.NumLODs]float32{1.5, 1.5, 8, 16}
)

// Placer decides, per column, whether a tree roots there and grows its
// wood/leaf geometry.
type Placer struct {
	seed uint32
}

// NewPlacer creates a Placer from a tree seed, independent of the
// heightmap field's seed (original_source's Terrain::new takes a
// separate terrain_seed and tree_seed for exactly this reason).
func NewPlacer(seed uint32) *Placer {
	return &Placer{seed: seed}
}

// seedFor mixes the placer's seed, a call-site salt distinguishing the
// placement decision from the growth draw, and the column coordinates
// into a reproducible math/rand seed, the same role rng_at's per-call
// IsaacRng construction played.
func seedFor(base, salt uint32, x, z int32) int64 {
	h := uint64(base)
	h = h*31 + uint64(salt)
	h = h*31 + uint64(uint32(x))
	h = h*31 + uint64(uint32(z))
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return int64(h)
}

func (p *Placer) rngAt(center mgl32.Vec3, salt uint32) *rand.Rand {
	seed := seedFor(p.seed, salt, int32(center.X()), int32(center.Z()))
	return rand.New(rand.NewSource(seed))
}

// treeThreshold is should_place_tree's 0xFF7FFFFF cutoff against a
// uniform uint32 draw: a 2^23-in-2^32 (1-in-512) chance per column.
const treeThreshold = 0xFF7FFFFF

// ShouldPlaceTree reports whether a tree roots at center, a deterministic
// function of center's horizontal position only (salt 0, matching
// rng_at(center, vec![0])).
func (p *Placer) ShouldPlaceTree(center mgl32.Vec3) bool {
	r := p.rngAt(center, 0)
	return r.Uint32() > treeThreshold
}

// PlaceTree grows a trunk-and-branches structure rooted at center and
// returns its wood/leaf triangles at the given LOD's detail tables.
// Ported from place_tree: trunk mass drawn from salt 1 (matching
// rng_at(center, vec![1])), a scattered crown of candidate points, then
// a fringe queue connecting the trunk top to crown points within reach,
// recursing until every reachable point is consumed; a fringe node with
// no new branches gets a leaf block instead.
func (p *Placer) PlaceTree(center mgl32.Vec3, ids *idalloc.Allocator[idalloc.EntityId], lodIndex lod.Index) []mesh.Triangle {
	idx := int(lodIndex)
	r := p.rngAt(center, 1)

	mass := 0.1 + r.Float32()*0.9
	if mass > 1 {
		mass = 1
	}
	sqrMass := mass * mass
	trunkRadius := sqrMass * 2.0
	trunkHeight := sqrMass * 16.0

	var tris []mesh.Triangle

	top := center.Add(mgl32.Vec3{0, trunkHeight, 0})
	placeBlock(&tris, ids, center, trunkRadius, top, trunkRadius)
	center = top

	crownRadius := sqrMass * 16.0
	crownHeight := sqrMass * 16.0
	crownWidth := crownRadius * 2.0

	nPoints := int(crownWidth * crownWidth * crownHeight * treeNodeDensity[idx])
	points := make([]mgl32.Vec3, 0, nPoints)
	for i := 0; i < nPoints; i++ {
		offset := mgl32.Vec3{
			r.Float32()*crownWidth - crownRadius,
			r.Float32() * crownHeight,
			r.Float32()*crownWidth - crownRadius,
		}
		points = append(points, center.Add(offset))
	}

	type fringeNode struct {
		center    mgl32.Vec3
		thickness float32
	}
	fringe := []fringeNode{{center, trunkRadius}}
	branchReach := maxBranchLength[idx]

	for len(fringe) > 0 {
		node := fringe[0]
		fringe = fringe[1:]

		anyBranches := false
		i := 0
		for i < len(points) {
			if sqrDistance(node.center, points[i]) > branchReach*branchReach {
				i++
				continue
			}

			nextThickness := node.thickness * 0.6
			if node.center.Y() < points[i].Y() {
				placeBlock(&tris, ids, node.center, node.thickness, points[i], nextThickness)
			} else {
				placeBlock(&tris, ids, points[i], nextThickness, node.center, node.thickness)
			}
			fringe = append(fringe, fringeNode{points[i], nextThickness})

			points[i] = points[len(points)-1]
			points = points[:len(points)-1]
			anyBranches = true
		}

		if !anyBranches {
			radius := leafRadius[idx]
			height := 2 * radius
			placeBlock(&tris, ids, node.center, radius, node.center.Add(mgl32.Vec3{0, height, 0}), radius)
		}
	}

	return tris
}

func sqrDistance(a, b mgl32.Vec3) float32 {
	d := a.Sub(b)
	return d.Dot(d)
}
