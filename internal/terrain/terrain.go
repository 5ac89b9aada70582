// Package terrain implements the terrain game loader (C7): it glues
// the surroundings tracker (C5) through the LOD arbitration map (C6) to
// the block mesher (C4), caches generated meshes per block ("mipmesh"),
// and reconciles installed meshes/placeholders with the physics
// collider store.
//
// Grounded on original_source/server/src/terrain/{terrain.rs,
// terrain_game_loader.rs}: Terrain's lazy per-block mipmesh cache,
// TerrainGameLoader's load/insert_block/unload trio, and
// InProgressTerrain's placeholder-AABB bookkeeping, all folded under one
// mutex the way a single Mutex<TerrainGameLoader> held heightmap, voxel
// tree, mipmesh cache, LODMap, and in-progress set together.
package terrain

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/playform/terrain/internal/heightmap"
	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/lod"
	"github.com/playform/terrain/internal/lodmap"
	"github.com/playform/terrain/internal/mesh"
	"github.com/playform/terrain/internal/physics"
	"github.com/playform/terrain/internal/treemap"
	"github.com/playform/terrain/internal/voxel"
)

// finestVoxelLgSize is the lg_size of one voxel at LODIndex(0), the
// level CastVoxel marches along: LgSampleSize[0].
var finestVoxelLgSize = lod.LgSampleSize[0]

// MipMesh caches one block's mesh per LODIndex, lazily filled.
type MipMesh struct {
	lods [lod.NumLODs]*mesh.Block
}

func (m *MipMesh) get(idx lod.Index) (mesh.Block, bool) {
	b := m.lods[idx]
	if b == nil {
		return mesh.Block{}, false
	}
	return *b, true
}

func (m *MipMesh) set(idx lod.Index, b mesh.Block) {
	bb := b
	m.lods[idx] = &bb
}

// LoadReason says what to do with a block once Gaia (C8) finishes
// generating it: Local installs it into physics on behalf of an owner
// that is part of LOD arbitration; ForClient serializes and sends it to
// a specific remote client without touching arbitration state at all.
type LoadReason struct {
	isClient bool
	owner    idalloc.OwnerId
	client   idalloc.ClientId
}

// Local builds a LoadReason that installs the finished block into
// physics on behalf of owner.
func Local(owner idalloc.OwnerId) LoadReason {
	return LoadReason{owner: owner}
}

// ForClient builds a LoadReason that sends the finished block to a
// remote client instead of installing it.
func ForClient(id idalloc.ClientId) LoadReason {
	return LoadReason{isClient: true, client: id}
}

// Owner returns the reason's owner and true, or (0, false) if this is a
// ForClient reason.
func (r LoadReason) Owner() (idalloc.OwnerId, bool) {
	return r.owner, !r.isClient
}

// Client returns the reason's client ID and true, or (0, false) if this
// is a Local reason.
func (r LoadReason) Client() (idalloc.ClientId, bool) {
	return r.client, r.isClient
}

// Request is one ServerToGaia::Load message: materialize position at
// lodIndex and dispose of it per reason.
type Request struct {
	Position lod.BlockPosition
	LODIndex lod.Index
	Reason   LoadReason
}

// Loader is the terrain game loader (C7): the heightmap/voxel field,
// the tree placer, the per-block mipmesh cache, and the LOD arbitration
// map, all reconciled against a physics store.
type Loader struct {
	mu sync.Mutex

	field  *heightmap.Field
	tree   *voxel.Tree
	trees  *treemap.Placer
	blocks map[lod.BlockPosition]*MipMesh

	// installed tracks, per block, the EntityIds currently present in
	// physics on that block's behalf (one ID for a placeholder AABB, one
	// per triangle for a rendered mesh), so a later LOD change can
	// retract exactly what an earlier one installed.
	installed map[lod.BlockPosition][]idalloc.EntityId

	lodMap  *lodmap.Map
	physics *physics.Store
	ids     *idalloc.Allocator[idalloc.EntityId]
}

// treeSeedSalt derives the tree placer's seed from the world seed so a
// caller only has to thread one seed through, while keeping tree
// placement decisions independent of the heightmap field's own
// noise draws (original_source/server/src/terrain/terrain.rs's
// Terrain::new takes terrain_seed and tree_seed separately).
const treeSeedSalt = 0x5bd1e995

// NewLoader creates a Loader over a fresh heightmap field, voxel tree,
// and tree placer seeded from seed, sharing the given physics store and
// entity ID allocator with the rest of the server.
func NewLoader(seed int64, physicsStore *physics.Store, ids *idalloc.Allocator[idalloc.EntityId]) *Loader {
	return &Loader{
		field:     heightmap.New(seed),
		tree:      voxel.NewTree(),
		trees:     treemap.NewPlacer(uint32(seed) ^ treeSeedSalt),
		blocks:    make(map[lod.BlockPosition]*MipMesh),
		installed: make(map[lod.BlockPosition][]idalloc.EntityId),
		lodMap:    lodmap.New(),
		physics:   physicsStore,
		ids:       ids,
	}
}

// Field returns the loader's density field, for callers (e.g. voxel
// removal) that need to read or mutate world state directly.
func (l *Loader) Field() *heightmap.Field { return l.field }

// Tree returns the loader's voxel tree.
func (l *Loader) Tree() *voxel.Tree { return l.tree }

func (l *Loader) mipMesh(pos lod.BlockPosition) *MipMesh {
	mm, ok := l.blocks[pos]
	if !ok {
		mm = &MipMesh{}
		l.blocks[pos] = mm
	}
	return mm
}

// Load requests that owner claim pos at newLOD. For Placeholder, the
// claim is recorded at once and, if it changes the block's effective
// (arbitrated) LOD, whatever was installed is retracted and the
// placeholder AABB installed. For a LodIndex, Load does not record the
// claim itself: a cached mesh is handed to InsertBlock immediately
// (which records it), and on a cache miss enqueue is called with a Gaia
// request whether or not the claim would change the effective LOD.
func (l *Loader) Load(pos lod.BlockPosition, newLOD lod.LOD, owner idalloc.OwnerId, enqueue func(Request)) {
	idx, isIndex := newLOD.Index()

	if !isIndex {
		l.mu.Lock()
		defer l.mu.Unlock()

		_, _, change := l.lodMap.Insert(pos, newLOD, owner)
		if change == nil {
			return
		}
		l.retract(pos, *change)
		l.installPlaceholder(pos)
		l.lodMap.SetLoaded(pos, lod.Placeholder)
		return
	}

	l.mu.Lock()
	mm := l.mipMesh(pos)
	block, hit := mm.get(idx)
	l.mu.Unlock()

	if hit {
		l.InsertBlock(block, pos, idx, owner)
		return
	}

	enqueue(Request{Position: pos, LODIndex: idx, Reason: Local(owner)})
}

// treeContribution appends procedural tree geometry to a block's mesh
// when the block is the one vertical slab containing its column's
// ground surface, and the column's deterministic draw places a tree
// there (original_source/server/src/terrain/terrain.rs wires treemap
// into generate_block alongside the heightmap mesh for exactly this
// reason).
func (l *Loader) treeContribution(pos lod.BlockPosition, idx lod.Index) []mesh.Triangle {
	wx, wy, wz := pos.WorldMin()
	cx := float64(wx) + lod.BlockWidth/2
	cz := float64(wz) + lod.BlockWidth/2

	ground := l.field.SurfaceHeight(cx, cz)
	if ground < float64(wy) || ground >= float64(wy)+lod.BlockWidth {
		return nil
	}

	center := mgl32.Vec3{float32(cx), float32(ground), float32(cz)}
	if !l.trees.ShouldPlaceTree(center) {
		return nil
	}
	return l.trees.PlaceTree(center, l.ids, idx)
}

// Generate materializes (and caches) pos's mesh at lodIndex via C4, plus
// any tree geometry rooted in pos's column, called by the Gaia worker
// off the world-update path.
func (l *Loader) Generate(pos lod.BlockPosition, idx lod.Index) mesh.Block {
	l.mu.Lock()
	defer l.mu.Unlock()

	mm := l.mipMesh(pos)
	if b, ok := mm.get(idx); ok {
		return b
	}
	b := mesh.Generate(l.tree, l.field, l.ids, pos, idx)
	b.Triangles = append(b.Triangles, l.treeContribution(pos, idx)...)
	mm.set(idx, b)
	return b
}

// InsertBlock installs block (generated for pos at lodIndex) into
// physics on owner's behalf, called either synchronously from Load on a
// cache hit or by the Gaia worker once generation completes. If the
// LODMap's desired state no longer matches (the block was unloaded
// while being built), the mesh is silently discarded: the stale
// mesh completion case from the error taxonomy.
func (l *Loader) InsertBlock(block mesh.Block, pos lod.BlockPosition, lodIndex lod.Index, owner idalloc.OwnerId) {
	l.mu.Lock()
	defer l.mu.Unlock()

	desired := lod.FromIndex(lodIndex)
	_, _, change := l.lodMap.Insert(pos, desired, owner)
	if change == nil {
		return
	}

	l.retract(pos, *change)

	ids := make([]idalloc.EntityId, 0, len(block.Triangles))
	for _, tri := range block.Triangles {
		l.physics.InsertTerrain(tri.ID, physics.Bounds{Min: tri.Bounds.Min, Max: tri.Bounds.Max})
		ids = append(ids, tri.ID)
	}
	l.installed[pos] = ids

	l.lodMap.SetLoaded(pos, desired)
}

// Unload drops owner's claim on pos. If the block's effective LOD
// changes as a result, whatever was installed (placeholder or mesh) is
// removed from physics.
func (l *Loader) Unload(pos lod.BlockPosition, owner idalloc.OwnerId) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _, change := l.lodMap.Remove(pos, owner)
	if change == nil {
		return
	}
	l.retract(pos, *change)
}

// RequestForClient serves pos at lodIndex to a single remote client
// without touching LOD arbitration: a cache hit calls sendToClient
// immediately, a miss enqueues a Gaia request tagged ForClient so the
// worker calls sendToClient once generation finishes instead of
// installing the mesh into physics.
func (l *Loader) RequestForClient(pos lod.BlockPosition, idx lod.Index, client idalloc.ClientId, sendToClient func(mesh.Block), enqueue func(Request)) {
	l.mu.Lock()
	mm := l.mipMesh(pos)
	block, hit := mm.get(idx)
	l.mu.Unlock()

	if hit {
		sendToClient(block)
		return
	}

	enqueue(Request{Position: pos, LODIndex: idx, Reason: ForClient(client)})
}

// retract removes from physics whatever was installed for pos under its
// previous effective LOD (change.Loaded), if anything was. The mesh
// itself, if any, stays cached in the mipmesh: only its physics presence
// is retracted. Called with l.mu held.
func (l *Loader) retract(pos lod.BlockPosition, change lodmap.Change) {
	if !change.HadLoad {
		return
	}
	for _, id := range l.installed[pos] {
		l.physics.RemoveTerrain(id)
	}
	delete(l.installed, pos)
}

func voxelBoundsAt(p mgl32.Vec3, lgSize int16) voxel.Bounds {
	size := math.Pow(2, float64(lgSize))
	return voxel.NewBounds(
		int32(math.Floor(float64(p.X())/size)),
		int32(math.Floor(float64(p.Y())/size)),
		int32(math.Floor(float64(p.Z())/size)),
		lgSize,
	)
}

// CastVoxel marches from origin along direction in finest-LOD voxel
// steps, up to maxDistance, returning the Bounds of the first non-Empty
// voxel it finds (materializing voxels lazily, same as the mesher).
func (l *Loader) CastVoxel(origin, direction mgl32.Vec3, maxDistance float32) (voxel.Bounds, bool) {
	if direction.Len() == 0 {
		return voxel.Bounds{}, false
	}
	dir := direction.Normalize()
	step := float32(math.Pow(2, float64(finestVoxelLgSize)))

	l.mu.Lock()
	defer l.mu.Unlock()

	for d := float32(0); d < maxDistance; d += step {
		p := origin.Add(dir.Mul(d))
		b := voxelBoundsAt(p, finestVoxelLgSize)
		v := l.tree.GetOrCreate(b)
		if v == nil {
			gen := voxel.Generate(b, l.field)
			l.tree.Set(b, gen)
			v = &gen
		}
		if v.Kind != voxel.KindEmpty {
			return b, true
		}
	}
	return voxel.Bounds{}, false
}

// finestEdgeMax is the last valid local voxel index along one block
// edge at LODIndex(0): mesh.Generate's frames read one voxel past this
// index (edge direction) or one voxel before 0 (d1/d2 direction), so a
// dug voxel sitting on either face can stale a neighbor block's cache.
var finestEdgeMax = lod.EdgeSamples[0] - 1

func floorDivMod(v, m int32) (q, r int32) {
	q = v / m
	r = v % m
	if r < 0 {
		r += m
		q--
	}
	return
}

// neighborBlockPositions returns the dug voxel's own BlockPosition plus
// every other BlockPosition whose meshing window reads across that
// voxel's boundary: one offset of -1 on each axis where the voxel sits
// at local index 0 (read by that neighbor's edge-direction sample), and
// one offset of +1 on each axis where the voxel sits at the last local
// index (read by that neighbor's d1/d2-direction sample), per
// mesh.Generate's frames. At most 2^3 positions, so up to 7 neighbors
// beyond the voxel's own block.
func neighborBlockPositions(hit voxel.Bounds) []lod.BlockPosition {
	bw := int32(lod.BlockWidth)
	qx, lx := floorDivMod(hit.X, bw)
	qy, ly := floorDivMod(hit.Y, bw)
	qz, lz := floorDivMod(hit.Z, bw)

	offsetsFor := func(local int32) []int32 {
		offsets := []int32{0}
		if local == 0 {
			offsets = append(offsets, -1)
		}
		if local == finestEdgeMax {
			offsets = append(offsets, 1)
		}
		return offsets
	}

	var positions []lod.BlockPosition
	for _, dx := range offsetsFor(lx) {
		for _, dy := range offsetsFor(ly) {
			for _, dz := range offsetsFor(lz) {
				positions = append(positions, lod.NewBlockPosition(qx+dx, qy+dy, qz+dz))
			}
		}
	}
	return positions
}

// resync invalidates pos's cached mipmesh and, if pos currently has a
// rendered LOD installed, regenerates and reinstalls it into physics
// immediately. Called with l.mu held.
func (l *Loader) resync(pos lod.BlockPosition) {
	if mm, ok := l.blocks[pos]; ok {
		for idx := range mm.lods {
			mm.lods[idx] = nil
		}
	}

	loadedLOD, hasLoad := l.lodMap.Loaded(pos)
	if !hasLoad {
		return
	}
	idx, isIndex := loadedLOD.Index()
	if !isIndex {
		return
	}

	block := mesh.Generate(l.tree, l.field, l.ids, pos, idx)
	block.Triangles = append(block.Triangles, l.treeContribution(pos, idx)...)
	l.mipMesh(pos).set(idx, block)

	for _, id := range l.installed[pos] {
		l.physics.RemoveTerrain(id)
	}
	ids := make([]idalloc.EntityId, 0, len(block.Triangles))
	for _, tri := range block.Triangles {
		l.physics.InsertTerrain(tri.ID, physics.Bounds{Min: tri.Bounds.Min, Max: tri.Bounds.Max})
		ids = append(ids, tri.ID)
	}
	l.installed[pos] = ids
}

// RemoveVoxel digs out the first voxel CastVoxel finds along the ray:
// overwrites it as Volume(false), then invalidates and, where currently
// rendered, immediately regenerates every cached mipmesh slot for every
// BlockPosition whose meshing window reads that voxel, so the dig is
// visible without a fresh Load round-trip and no neighbor keeps a stale
// edge.
func (l *Loader) RemoveVoxel(origin, direction mgl32.Vec3, maxDistance float32) (voxel.Bounds, bool) {
	hit, ok := l.CastVoxel(origin, direction, maxDistance)
	if !ok {
		return voxel.Bounds{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.tree.Set(hit, voxel.Volume(false))

	for _, pos := range neighborBlockPositions(hit) {
		l.resync(pos)
	}

	return hit, true
}

func (l *Loader) installPlaceholder(pos lod.BlockPosition) {
	id := l.ids.Allocate()
	x, y, z := pos.WorldMin()
	min := mgl32.Vec3{float32(x), float32(y), float32(z)}
	max := min.Add(mgl32.Vec3{lod.BlockWidth, lod.BlockWidth, lod.BlockWidth})
	l.physics.InsertTerrain(id, physics.Bounds{Min: min, Max: max})
	l.installed[pos] = []idalloc.EntityId{id}
}
