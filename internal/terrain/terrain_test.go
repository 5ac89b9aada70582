package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/lod"
	"github.com/playform/terrain/internal/mesh"
	"github.com/playform/terrain/internal/physics"
	"github.com/playform/terrain/internal/voxel"
)

func newTestLoader() (*Loader, *physics.Store) {
	ps := physics.New()
	ids := idalloc.NewAllocator[idalloc.EntityId]()
	return NewLoader(0, ps, ids), ps
}

func TestLoadPlaceholderInstallsOneCollider(t *testing.T) {
	l, ps := newTestLoader()
	pos := lod.NewBlockPosition(0, 0, 0)

	var enqueued []Request
	l.Load(pos, lod.Placeholder, idalloc.OwnerId(1), func(r Request) {
		enqueued = append(enqueued, r)
	})

	assert.Empty(t, enqueued)
	assert.Equal(t, 1, ps.Len())
}

func TestLoadPlaceholderThenLodIndexSwapsCollider(t *testing.T) {
	l, ps := newTestLoader()
	pos := lod.NewBlockPosition(0, 0, 0)
	owner := idalloc.OwnerId(1)

	l.Load(pos, lod.Placeholder, owner, func(Request) {})
	require.Equal(t, 1, ps.Len())

	var enqueued []Request
	l.Load(pos, lod.FromIndex(3), owner, func(r Request) {
		enqueued = append(enqueued, r)
	})

	require.Len(t, enqueued, 1)
	assert.Equal(t, pos, enqueued[0].Position)
	assert.Equal(t, lod.Index(3), enqueued[0].LODIndex)
	if owner, ok := enqueued[0].Reason.Owner(); ok {
		assert.Equal(t, idalloc.OwnerId(1), owner)
	} else {
		t.Fatal("expected a Local reason")
	}

	// The mesh hasn't been generated yet, so the placeholder collider
	// stays installed until InsertBlock swaps the mesh in.
	assert.Equal(t, 1, ps.Len())
}

func TestInsertBlockCachesAndInstalls(t *testing.T) {
	l, ps := newTestLoader()
	pos := lod.NewBlockPosition(0, 0, 0)
	owner := idalloc.OwnerId(1)

	l.Load(pos, lod.FromIndex(2), owner, func(Request) {})
	block := l.Generate(pos, 2)
	require.NotEmpty(t, block.Triangles)

	l.InsertBlock(block, pos, 2, owner)
	assert.Equal(t, len(block.Triangles), ps.Len())

	// A second Load at the same LOD for the same owner now hits the
	// mipmesh cache and never calls enqueue.
	var enqueued []Request
	l.Load(pos, lod.FromIndex(2), owner, func(r Request) {
		enqueued = append(enqueued, r)
	})
	assert.Empty(t, enqueued)
}

func TestUnloadRetractsInstalledMesh(t *testing.T) {
	l, ps := newTestLoader()
	pos := lod.NewBlockPosition(0, 0, 0)
	owner := idalloc.OwnerId(1)

	l.Load(pos, lod.FromIndex(2), owner, func(Request) {})
	block := l.Generate(pos, 2)
	l.InsertBlock(block, pos, 2, owner)
	require.NotZero(t, ps.Len())

	l.Unload(pos, owner)
	assert.Equal(t, 0, ps.Len())
}

func TestStaleInsertBlockIsDropped(t *testing.T) {
	l, ps := newTestLoader()
	pos := lod.NewBlockPosition(0, 0, 0)
	owner := idalloc.OwnerId(1)

	l.Load(pos, lod.FromIndex(2), owner, func(Request) {})
	block := l.Generate(pos, 2)

	// The owner unloads before the generated mesh is installed: the
	// eventual InsertBlock call should be a silent no-op.
	l.Unload(pos, owner)
	assert.Equal(t, 0, ps.Len())

	l.InsertBlock(block, pos, 2, owner)
	assert.Equal(t, 0, ps.Len())
}

func TestRequestForClientCacheMissEnqueuesForClientReason(t *testing.T) {
	l, _ := newTestLoader()
	pos := lod.NewBlockPosition(5, 5, 5)

	var enqueued []Request
	var sent *mesh.Block
	l.RequestForClient(pos, 1, idalloc.ClientId(9), func(b mesh.Block) {
		sent = &b
	}, func(r Request) {
		enqueued = append(enqueued, r)
	})

	assert.Nil(t, sent)
	require.Len(t, enqueued, 1)
	client, ok := enqueued[0].Reason.Client()
	require.True(t, ok)
	assert.Equal(t, idalloc.ClientId(9), client)
}

func TestCastVoxelFindsGroundBelowOrigin(t *testing.T) {
	l, _ := newTestLoader()
	hit, ok := l.CastVoxel(mgl32.Vec3{0, 200, 0}, mgl32.Vec3{0, -1, 0}, 400)
	require.True(t, ok)
	assert.NotEqual(t, voxel.KindEmpty, l.Tree().GetOrCreate(hit).Kind)
}

func TestCastVoxelMissesWhenAimedAtSky(t *testing.T) {
	l, _ := newTestLoader()
	_, ok := l.CastVoxel(mgl32.Vec3{0, 200, 0}, mgl32.Vec3{0, 1, 0}, 100)
	assert.False(t, ok)
}

func TestRemoveVoxelRegeneratesLoadedBlock(t *testing.T) {
	l, _ := newTestLoader()
	// Seed 0's ground surface crosses block y=-1 (world y in [-16, 0))
	// at this column.
	pos := lod.NewBlockPosition(0, -1, 0)
	owner := idalloc.OwnerId(1)

	l.Load(pos, lod.FromIndex(0), owner, func(Request) {})
	block := l.Generate(pos, 0)
	l.InsertBlock(block, pos, 0, owner)

	x, y, z := pos.WorldMin()
	origin := mgl32.Vec3{float32(x) + 8, float32(y) + 15, float32(z) + 8}
	hit, ok := l.RemoveVoxel(origin, mgl32.Vec3{0, -1, 0}, 16)
	require.True(t, ok)
	assert.NotEqual(t, voxel.Bounds{}, hit)

	// The mipmesh cache for this position now serves a freshly
	// regenerated mesh rather than the pre-dig one.
	_, ok = l.mipMesh(pos).get(0)
	require.True(t, ok)
}

func TestNeighborBlockPositionsAtCornerReturnsEightPositions(t *testing.T) {
	hit := voxel.NewBounds(16, 16, 16, finestVoxelLgSize)
	positions := neighborBlockPositions(hit)
	assert.Len(t, positions, 8)
}

func TestNeighborBlockPositionsInteriorReturnsOnlySelf(t *testing.T) {
	hit := voxel.NewBounds(8, 8, 8, finestVoxelLgSize)
	positions := neighborBlockPositions(hit)
	assert.Equal(t, []lod.BlockPosition{lod.NewBlockPosition(0, 0, 0)}, positions)
}

// TestRemoveVoxelAtBlockBoundaryInvalidatesNeighbor digs a voxel that sits
// on the shared face between two loaded blocks and checks that the
// neighboring block's cached mipmesh, not just the dug-in block's own, is
// replaced rather than left stale.
func TestRemoveVoxelAtBlockBoundaryInvalidatesNeighbor(t *testing.T) {
	l, _ := newTestLoader()
	pos0 := lod.NewBlockPosition(0, -1, 0)
	pos1 := lod.NewBlockPosition(1, -1, 0)
	owner := idalloc.OwnerId(1)

	l.Load(pos0, lod.FromIndex(0), owner, func(Request) {})
	l.Load(pos1, lod.FromIndex(0), owner, func(Request) {})
	block0 := l.Generate(pos0, 0)
	block1 := l.Generate(pos1, 0)
	l.InsertBlock(block0, pos0, 0, owner)
	l.InsertBlock(block1, pos1, 0, owner)

	stale := mesh.Block{Triangles: []mesh.Triangle{{ID: 999999}}}
	l.mipMesh(pos1).set(0, stale)

	x, y, z := pos0.WorldMin()
	origin := mgl32.Vec3{float32(x) + 15.5, float32(y) + 15, float32(z) + 8}
	_, ok := l.RemoveVoxel(origin, mgl32.Vec3{0, -1, 0}, 16)
	require.True(t, ok)

	got, ok := l.mipMesh(pos1).get(0)
	require.True(t, ok)
	assert.NotEqual(t, stale, got)
}

func TestRequestForClientCacheHitSendsImmediately(t *testing.T) {
	l, _ := newTestLoader()
	pos := lod.NewBlockPosition(5, 5, 5)

	block := l.Generate(pos, 1)
	l.mipMesh(pos).set(1, block)

	var sent *mesh.Block
	l.RequestForClient(pos, 1, idalloc.ClientId(9), func(b mesh.Block) {
		sent = &b
	}, func(Request) {
		t.Fatal("should not enqueue on a cache hit")
	})

	require.NotNil(t, sent)
	assert.Equal(t, block, *sent)
}
