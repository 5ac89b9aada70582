package lodmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/lod"
)

func TestScenario2(t *testing.T) {
	m := New()
	pos := lod.NewBlockPosition(0, 0, 0)
	ownerA := idalloc.OwnerId(1)
	ownerB := idalloc.OwnerId(2)

	_, _, change := m.Insert(pos, lod.FromIndex(2), ownerA)
	require.NotNil(t, change)
	assert.Equal(t, lod.FromIndex(2), change.Desired)
	assert.False(t, change.HadLoad)

	_, _, change = m.Insert(pos, lod.FromIndex(0), ownerB)
	assert.Nil(t, change)

	_, _, change = m.Insert(pos, lod.FromIndex(3), ownerB)
	require.NotNil(t, change)
	assert.Equal(t, lod.FromIndex(3), change.Desired)
}

func TestIdempotentLoad(t *testing.T) {
	m := New()
	pos := lod.NewBlockPosition(1, 1, 1)
	owner := idalloc.OwnerId(1)

	_, _, change := m.Insert(pos, lod.FromIndex(1), owner)
	require.NotNil(t, change)

	_, _, change = m.Insert(pos, lod.FromIndex(1), owner)
	assert.Nil(t, change)
}

func TestIdempotentUnload(t *testing.T) {
	m := New()
	pos := lod.NewBlockPosition(2, 2, 2)
	owner := idalloc.OwnerId(1)

	m.Insert(pos, lod.FromIndex(1), owner)
	_, _, change := m.Remove(pos, owner)
	require.NotNil(t, change)
	assert.False(t, change.HasDesired)

	_, hadPrev, change := m.Remove(pos, owner)
	assert.False(t, hadPrev)
	assert.Nil(t, change)
}

func TestArbitrationIsMaxAcrossOwners(t *testing.T) {
	m := New()
	pos := lod.NewBlockPosition(0, 0, 0)

	m.Insert(pos, lod.FromIndex(1), idalloc.OwnerId(1))
	m.Insert(pos, lod.Placeholder, idalloc.OwnerId(2))
	m.Insert(pos, lod.FromIndex(3), idalloc.OwnerId(3))

	_, _, all := m.Get(pos, idalloc.OwnerId(1))
	var max lod.LOD
	for _, r := range all {
		max = lod.Max(max, r.LOD)
	}
	assert.Equal(t, lod.FromIndex(3), max)
}

func TestRemoveLastOwnerLeavesNoDesired(t *testing.T) {
	m := New()
	pos := lod.NewBlockPosition(5, 5, 5)
	owner := idalloc.OwnerId(9)

	m.Insert(pos, lod.FromIndex(2), owner)
	_, _, change := m.Remove(pos, owner)
	require.NotNil(t, change)
	assert.False(t, change.HasDesired)

	l, has, all := m.Get(pos, owner)
	assert.False(t, has)
	assert.Zero(t, l)
	assert.Empty(t, all)
}

func TestSetLoadedReflectedInNextChange(t *testing.T) {
	m := New()
	pos := lod.NewBlockPosition(0, 0, 0)
	owner := idalloc.OwnerId(1)

	m.Insert(pos, lod.FromIndex(0), owner)
	m.SetLoaded(pos, lod.FromIndex(0))

	_, _, change := m.Insert(pos, lod.FromIndex(2), owner)
	require.NotNil(t, change)
	assert.Equal(t, lod.FromIndex(0), change.Loaded)
	assert.True(t, change.HadLoad)
}

func TestLoadedAccessor(t *testing.T) {
	m := New()
	pos := lod.NewBlockPosition(3, 3, 3)

	_, has := m.Loaded(pos)
	assert.False(t, has)

	m.Insert(pos, lod.FromIndex(1), idalloc.OwnerId(1))
	m.SetLoaded(pos, lod.FromIndex(1))

	got, has := m.Loaded(pos)
	require.True(t, has)
	assert.Equal(t, lod.FromIndex(1), got)
}
