package surroundings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playform/terrain/internal/lod"
)

func unboundedBudget() func() bool {
	return func() bool { return true }
}

func TestScenario3FirstUpdateLoads27Positions(t *testing.T) {
	tr := New(1, nil)
	var got []Change
	tr.Update(lod.NewBlockPosition(0, 0, 0), unboundedBudget(), func(c Change) {
		got = append(got, c)
	})

	require.Len(t, got, 27)
	var centerCount, ringCount int
	for _, c := range got {
		assert.False(t, c.Unload)
		if c.Distance == 0 {
			centerCount++
		} else {
			assert.Equal(t, int32(1), c.Distance)
			ringCount++
		}
	}
	assert.Equal(t, 1, centerCount)
	assert.Equal(t, 26, ringCount)
}

func TestScenario4RecheckEmitsUnloadAndLoadRings(t *testing.T) {
	tr := New(1, nil)
	tr.Update(lod.NewBlockPosition(0, 0, 0), unboundedBudget(), func(Change) {})

	var got []Change
	tr.Update(lod.NewBlockPosition(1, 0, 0), unboundedBudget(), func(c Change) {
		got = append(got, c)
	})

	// Only the recheck pass is counted: after a move the tracker also
	// restarts its shell walk around the new center, which emits loads
	// of its own.
	recheck := got[:len(cubeDiff(lod.NewBlockPosition(0, 0, 0), lod.NewBlockPosition(1, 0, 0), 1))]

	var unloadedXNeg1, loadedX2 int
	for _, c := range recheck {
		if c.Unload && c.Position.X == -1 {
			unloadedXNeg1++
		}
		if !c.Unload && c.Position.X == 2 {
			loadedX2++
		}
	}
	assert.Equal(t, 9, unloadedXNeg1)
	assert.Equal(t, 9, loadedX2)
}

func TestSurroundingsExhaustiveness(t *testing.T) {
	const r = 2
	pa := lod.NewBlockPosition(0, 0, 0)
	pb := lod.NewBlockPosition(1, 1, 0)

	tr := New(r, nil)
	tr.Update(pa, unboundedBudget(), func(Change) {})

	touched := make(map[lod.BlockPosition]bool)
	tr.Update(pb, unboundedBudget(), func(c Change) {
		touched[c.Position] = true
	})

	expected := make(map[lod.BlockPosition]bool)
	for _, p := range cubeDiff(pa, pb, r) {
		expected[p] = true
	}
	for _, p := range shellPositions(pb, 0) {
		expected[p] = true
	}
	// The ball around pb, not just its r-shell: the fresh shell walk
	// after a position change covers every radius 0..r around the new
	// center.
	for radius := int32(0); radius <= r; radius++ {
		for _, p := range shellPositions(pb, radius) {
			expected[p] = true
		}
	}

	assert.Equal(t, expected, touched)
}

func TestBudgetDefersWork(t *testing.T) {
	tr := New(1, nil)
	count := 0
	budget := func() bool {
		count++
		return count <= 5
	}

	var got []Change
	tr.Update(lod.NewBlockPosition(0, 0, 0), budget, func(c Change) {
		got = append(got, c)
	})
	assert.Len(t, got, 5)

	got = nil
	tr.Update(lod.NewBlockPosition(0, 0, 0), unboundedBudget(), func(c Change) {
		got = append(got, c)
	})
	assert.Len(t, got, 22)
}
