// Package physics is the stub collider store the terrain core relies
// on: insert/remove/translate/get_bounds only, per the out-of-scope
// note that broadphase internals are an external collaborator. It
// exists so the terrain loader (C7) has something concrete to install
// meshes into and tests can assert on the round-trip install/uninstall
// property.
package physics

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/playform/terrain/internal/idalloc"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max mgl32.Vec3
}

// Store holds one AABB per EntityId. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	terrain map[idalloc.EntityId]Bounds
}

// New creates an empty Store.
func New() *Store {
	return &Store{terrain: make(map[idalloc.EntityId]Bounds)}
}

// InsertTerrain records bounds for id, overwriting any prior value.
func (s *Store) InsertTerrain(id idalloc.EntityId, bounds Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terrain[id] = bounds
}

// RemoveTerrain drops id's bounds, if present.
func (s *Store) RemoveTerrain(id idalloc.EntityId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.terrain, id)
}

// TranslateTerrain shifts id's bounds by delta, if present.
func (s *Store) TranslateTerrain(id idalloc.EntityId, delta mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.terrain[id]
	if !ok {
		return
	}
	s.terrain[id] = Bounds{Min: b.Min.Add(delta), Max: b.Max.Add(delta)}
}

// GetBounds returns id's bounds and whether they exist.
func (s *Store) GetBounds(id idalloc.EntityId) (Bounds, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.terrain[id]
	return b, ok
}

// Len returns the number of colliders currently tracked, used by tests
// asserting the round-trip install/uninstall property.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.terrain)
}
