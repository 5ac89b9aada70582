package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/playform/terrain/internal/idalloc"
)

func TestInsertRemoveRoundTrip(t *testing.T) {
	s := New()
	id := idalloc.EntityId(1)
	b := Bounds{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}

	s.InsertTerrain(id, b)
	got, ok := s.GetBounds(id)
	assert.True(t, ok)
	assert.Equal(t, b, got)
	assert.Equal(t, 1, s.Len())

	s.RemoveTerrain(id)
	_, ok = s.GetBounds(id)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestTranslate(t *testing.T) {
	s := New()
	id := idalloc.EntityId(2)
	s.InsertTerrain(id, Bounds{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}})

	s.TranslateTerrain(id, mgl32.Vec3{1, 0, 0})
	got, ok := s.GetBounds(id)
	assert.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, got.Min)
	assert.Equal(t, mgl32.Vec3{2, 1, 1}, got.Max)
}
