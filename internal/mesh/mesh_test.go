package mesh

import (
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/lod"
	"github.com/playform/terrain/internal/voxel"
)

// planeField is solid (density >= 0) below height and air above, a
// minimal stand-in for "a terrain surface crosses this block" (spec
// scenario 1's setup, without depending on real noise output).
type planeField struct{ height float64 }

func (p planeField) Density(x, y, z float64) float64 {
	return p.height - y
}

func (p planeField) Normal(eps, x, y, z float64) mgl32.Vec3 {
	return mgl32.Vec3{0, 1, 0}
}

func TestGenerateCrossingProducesTriangles(t *testing.T) {
	tree := voxel.NewTree()
	field := planeField{height: 8}
	ids := idalloc.NewAllocator[idalloc.EntityId]()

	block := Generate(tree, field, ids, lod.NewBlockPosition(0, 0, 0), 0)

	require.NotEmpty(t, block.Triangles)
	for _, tri := range block.Triangles {
		assert.LessOrEqual(t, tri.Bounds.Min.X(), tri.Bounds.Max.X())
		assert.LessOrEqual(t, tri.Bounds.Min.Y(), tri.Bounds.Max.Y())
		assert.LessOrEqual(t, tri.Bounds.Min.Z(), tri.Bounds.Max.Z())
	}
}

func TestGenerateEntirelyAirBlockIsEmpty(t *testing.T) {
	tree := voxel.NewTree()
	field := planeField{height: -1000}
	ids := idalloc.NewAllocator[idalloc.EntityId]()

	block := Generate(tree, field, ids, lod.NewBlockPosition(0, 0, 0), 0)
	assert.Empty(t, block.Triangles)
}

func TestGenerateTrianglesComeInQuads(t *testing.T) {
	tree := voxel.NewTree()
	field := planeField{height: 8}
	ids := idalloc.NewAllocator[idalloc.EntityId]()

	block := Generate(tree, field, ids, lod.NewBlockPosition(0, 0, 0), 0)
	assert.Zero(t, len(block.Triangles)%4)
}

// TestGenerateDeterministic checks C4's determinism property: two
// independent runs against fresh trees/allocators produce the same
// geometry once sorted, ignoring the arbitrary EntityId values
// themselves (spec's "after sorting by allocated IDs" caveat).
func TestGenerateDeterministic(t *testing.T) {
	field := planeField{height: 8}
	pos := lod.NewBlockPosition(0, 0, 0)

	run := func() []Triangle {
		tree := voxel.NewTree()
		ids := idalloc.NewAllocator[idalloc.EntityId]()
		return Generate(tree, field, ids, pos, 0).Triangles
	}

	a := run()
	b := run()
	require.Equal(t, len(a), len(b))

	key := func(tris []Triangle) []string {
		out := make([]string, len(tris))
		for i, tr := range tris {
			out[i] = vecKey(tr.Vertices[0]) + "|" + vecKey(tr.Vertices[1]) + "|" + vecKey(tr.Vertices[2])
		}
		sort.Strings(out)
		return out
	}

	assert.Equal(t, key(a), key(b))
}

func vecKey(v mgl32.Vec3) string {
	return fmt.Sprintf("%.6f,%.6f,%.6f", v.X(), v.Y(), v.Z())
}

// sphereField is solid inside a radius of a block-interior center, giving
// a closed surface with no boundary edge: every crossing the mesher finds
// is bounded on all sides by other crossings of the same sphere, unlike
// planeField's surface which runs off the block's lateral extent.
type sphereField struct {
	center mgl32.Vec3
	radius float64
}

func (s sphereField) Density(x, y, z float64) float64 {
	dx, dy, dz := x-float64(s.center.X()), y-float64(s.center.Y()), z-float64(s.center.Z())
	return s.radius - math.Sqrt(dx*dx+dy*dy+dz*dz)
}

func (s sphereField) Normal(eps, x, y, z float64) mgl32.Vec3 {
	v := mgl32.Vec3{float32(x - float64(s.center.X())), float32(y - float64(s.center.Y())), float32(z - float64(s.center.Z()))}
	return v.Normalize()
}

// TestGenerateClosedSphereIsManifold checks the mesher's closure property:
// for a surface fully enclosed within a block, every edge of the emitted
// triangles is shared by exactly two triangles, not one (a hole) or three
// or more (a non-manifold seam).
func TestGenerateClosedSphereIsManifold(t *testing.T) {
	tree := voxel.NewTree()
	field := sphereField{center: mgl32.Vec3{8, 8, 8}, radius: 5}
	ids := idalloc.NewAllocator[idalloc.EntityId]()

	block := Generate(tree, field, ids, lod.NewBlockPosition(0, 0, 0), 0)
	require.NotEmpty(t, block.Triangles)

	edgeKey := func(a, b mgl32.Vec3) string {
		ka, kb := vecKey(a), vecKey(b)
		if ka > kb {
			ka, kb = kb, ka
		}
		return ka + "/" + kb
	}

	edgeCounts := make(map[string]int)
	for _, tri := range block.Triangles {
		v := tri.Vertices
		edgeCounts[edgeKey(v[0], v[1])]++
		edgeCounts[edgeKey(v[1], v[2])]++
		edgeCounts[edgeKey(v[2], v[0])]++
	}

	for edge, count := range edgeCounts {
		assert.Equal(t, 2, count, "edge %s shared by %d triangles, want 2", edge, count)
	}
}
