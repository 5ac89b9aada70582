// Package surroundings implements the per-observer cube-shell iterator
// (C5): as an observer moves, it emits Load(pos, distance) / Unload(pos)
// events to keep a bounded neighborhood of blocks loaded at the right
// LOD.
//
// Grounded on original_source/common/src/surroundings_loader.rs's
// SurroundingsLoader: same last-position tracking, same to_recheck FIFO
// populated from cube_diff at each lod_threshold (plus max_load_distance)
// on a position change, same cube-shell walk outward when to_recheck is
// drained.
package surroundings

import (
	"github.com/playform/terrain/internal/lod"
)

// Change is one emitted event: either Load(pos, distance) or Unload(pos).
type Change struct {
	Position lod.BlockPosition
	Distance int32
	Unload   bool
}

// Tracker holds one observer's surroundings-loading state.
type Tracker struct {
	lastPosition    lod.BlockPosition
	hasLast         bool
	maxLoadDistance int32
	thresholds      []int32

	shell     *shellIter
	toRecheck []lod.BlockPosition
}

// New creates a Tracker with the given load radius and LOD threshold
// radii (ascending, used only to size recheck passes; the caller still
// maps distance to LOD via lod.ThresholdsToLOD).
func New(maxLoadDistance int32, thresholds []int32) *Tracker {
	if maxLoadDistance < 0 {
		panic("surroundings.New: maxLoadDistance must be >= 0")
	}
	return &Tracker{
		maxLoadDistance: maxLoadDistance,
		thresholds:      thresholds,
	}
}

// Update advances the tracker toward position, calling emit for each
// Load/Unload event, until cond returns false or all pending work is
// drained. cond is the caller's per-tick work budget.
func (t *Tracker) Update(position lod.BlockPosition, cond func() bool, emit func(Change)) {
	if !t.hasLast || t.lastPosition != position {
		t.shell = newShellIter(position, t.maxLoadDistance)

		if t.hasLast {
			radii := append(append([]int32{}, t.thresholds...), t.maxLoadDistance)
			for _, r := range radii {
				t.toRecheck = append(t.toRecheck, cubeDiff(t.lastPosition, position, r)...)
			}
		}

		t.lastPosition = position
		t.hasLast = true
	}

	for cond() {
		if len(t.toRecheck) > 0 {
			q := t.toRecheck[0]
			t.toRecheck = t.toRecheck[1:]
			d := lod.ChebyshevDistance(position, q)
			if d > t.maxLoadDistance {
				emit(Change{Position: q, Unload: true})
			} else {
				emit(Change{Position: q, Distance: d})
			}
			continue
		}

		p, d, ok := t.shell.next()
		if !ok {
			break
		}
		emit(Change{Position: p, Distance: d})
	}
}
