package lod

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrdering(t *testing.T) {
	assert.True(t, Placeholder.Less(FromIndex(0)))
	assert.True(t, FromIndex(0).Less(FromIndex(1)))
	assert.False(t, FromIndex(1).Less(FromIndex(0)))
	assert.False(t, Placeholder.Less(Placeholder))
}

func TestMax(t *testing.T) {
	assert.Equal(t, FromIndex(2), Max(FromIndex(0), FromIndex(2)))
	assert.Equal(t, FromIndex(0), Max(Placeholder, FromIndex(0)))
	assert.Equal(t, Placeholder, Max(Placeholder, Placeholder))
}

func TestIndexRoundTrip(t *testing.T) {
	l := FromIndex(3)
	idx, ok := l.Index()
	assert.True(t, ok)
	assert.Equal(t, Index(3), idx)

	_, ok = Placeholder.Index()
	assert.False(t, ok)
}

func TestChebyshevDistance(t *testing.T) {
	p := NewBlockPosition(0, 0, 0)
	q := NewBlockPosition(2, -3, 1)
	assert.Equal(t, int32(3), ChebyshevDistance(p, q))
	assert.Equal(t, int32(0), ChebyshevDistance(p, p))
}

func TestThresholdsToLOD(t *testing.T) {
	thresholds := []int32{4, 16, 64}
	assert.Equal(t, FromIndex(0), ThresholdsToLOD(thresholds, 0))
	assert.Equal(t, FromIndex(0), ThresholdsToLOD(thresholds, 4))
	assert.Equal(t, FromIndex(1), ThresholdsToLOD(thresholds, 5))
	assert.Equal(t, FromIndex(2), ThresholdsToLOD(thresholds, 64))
	assert.Equal(t, Placeholder, ThresholdsToLOD(thresholds, 65))
}
