// Package lodmap implements the LOD arbitration map (C6): for each
// block position, a set of (owner, requested LOD) pairs resolving to
// one effective (maximum) LOD, plus a cached "currently loaded" LOD
// that the caller reports back after a mesh install completes.
//
// Grounded on original_source/server/src/terrain/terrain_game_loader.rs's
// max_lod_changed short-circuit (the count()<2 / count()==0 checks),
// re-expressed as an explicit LODMap type instead of being inlined into
// the loader.
package lodmap

import (
	"sync"

	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/lod"
)

// Change reports that a block's effective (maximum) LOD changed as the
// result of an insert/remove. HasDesired is false when the last owner
// was just removed, in which case Desired is meaningless: lod.Placeholder
// is itself a valid desired value ("claimed, no render") and must be
// distinguishable from "nobody claims this block anymore". Loaded is
// whatever SetLoaded last recorded.
type Change struct {
	Desired    lod.LOD
	HasDesired bool
	Loaded     lod.LOD
	HadLoad    bool
}

type request struct {
	owner idalloc.OwnerId
	lod   lod.LOD
}

type entry struct {
	requests []request
	loaded   lod.LOD
	hasLoad  bool
}

func (e *entry) desired() (lod.LOD, bool) {
	if len(e.requests) == 0 {
		return lod.LOD{}, false
	}
	max := e.requests[0].lod
	for _, r := range e.requests[1:] {
		max = lod.Max(max, r.lod)
	}
	return max, true
}

func (e *entry) indexOf(owner idalloc.OwnerId) int {
	for i, r := range e.requests {
		if r.owner == owner {
			return i
		}
	}
	return -1
}

// Map is the LOD arbitration map itself. Safe for concurrent use.
type Map struct {
	mu      sync.Mutex
	entries map[lod.BlockPosition]*entry
}

// New creates an empty Map.
func New() *Map {
	return &Map{entries: make(map[lod.BlockPosition]*entry)}
}

// Insert records that owner now requests l at pos, overwriting any
// previous request by that owner at that position. Returns the owner's
// previous request (if any) and a Change iff the block's effective
// maximum LOD changed as a result.
func (m *Map) Insert(pos lod.BlockPosition, l lod.LOD, owner idalloc.OwnerId) (prev lod.LOD, hadPrev bool, change *Change) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[pos]
	if !ok {
		e = &entry{}
		m.entries[pos] = e
	}

	prevMax, hadPrevMax := e.desired()

	if idx := e.indexOf(owner); idx >= 0 {
		prev = e.requests[idx].lod
		hadPrev = true
		e.requests[idx].lod = l
	} else {
		e.requests = append(e.requests, request{owner: owner, lod: l})
	}

	newMax, _ := e.desired()
	if hadPrevMax && prevMax == newMax {
		return prev, hadPrev, nil
	}

	loaded, hasLoad := e.loaded, e.hasLoad
	return prev, hadPrev, &Change{Desired: newMax, HasDesired: true, Loaded: loaded, HadLoad: hasLoad}
}

// Remove drops owner's request at pos. Returns the dropped request (if
// any) and a Change iff the effective maximum LOD changed.
func (m *Map) Remove(pos lod.BlockPosition, owner idalloc.OwnerId) (prev lod.LOD, hadPrev bool, change *Change) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[pos]
	if !ok {
		return lod.LOD{}, false, nil
	}

	prevMax, hadPrevMax := e.desired()

	idx := e.indexOf(owner)
	if idx < 0 {
		return lod.LOD{}, false, nil
	}
	prev = e.requests[idx].lod
	hadPrev = true
	e.requests = append(e.requests[:idx], e.requests[idx+1:]...)

	newMax, hasNewMax := e.desired()
	if !hadPrevMax {
		return prev, hadPrev, nil
	}
	if hasNewMax && prevMax == newMax {
		return prev, hadPrev, nil
	}

	loaded, hasLoad := e.loaded, e.hasLoad
	return prev, hadPrev, &Change{Desired: newMax, HasDesired: hasNewMax, Loaded: loaded, HadLoad: hasLoad}
}

// Get returns owner's current request at pos (if any) and the full
// list of (owner, LOD) pairs claiming pos, in insertion order.
func (m *Map) Get(pos lod.BlockPosition, owner idalloc.OwnerId) (l lod.LOD, hasL bool, all []struct {
	Owner idalloc.OwnerId
	LOD   lod.LOD
}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[pos]
	if !ok {
		return lod.LOD{}, false, nil
	}

	if idx := e.indexOf(owner); idx >= 0 {
		l, hasL = e.requests[idx].lod, true
	}

	all = make([]struct {
		Owner idalloc.OwnerId
		LOD   lod.LOD
	}, len(e.requests))
	for i, r := range e.requests {
		all[i].Owner = r.owner
		all[i].LOD = r.lod
	}
	return l, hasL, all
}

// Loaded returns pos's currently-installed LOD, as last recorded by
// SetLoaded.
func (m *Map) Loaded(pos lod.BlockPosition) (lod.LOD, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[pos]
	if !ok {
		return lod.LOD{}, false
	}
	return e.loaded, e.hasLoad
}

// SetLoaded records that pos is now actually installed at l, after the
// caller finishes installing a mesh (or placeholder) into physics.
func (m *Map) SetLoaded(pos lod.BlockPosition, l lod.LOD) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[pos]
	if !ok {
		e = &entry{}
		m.entries[pos] = e
	}
	e.loaded = l
	e.hasLoad = true
}
