// Package idalloc hands out the opaque 32-bit IDs used throughout the
// terrain core: EntityId (triangles/colliders), OwnerId (LOD requesters),
// and ClientId (remote connections). These are modeled as process-wide
// atomically-incremented counters rather than mutex-guarded fields: IDs
// are never reused, so no teardown step is required.
package idalloc

import "sync/atomic"

// EntityId tags an individual triangle or placeholder collider for
// physics lookup.
type EntityId uint32

// OwnerId tags an LOD-requesting observer (a player, a mob, or any other
// independent claimant of block LODs).
type OwnerId uint32

// ClientId tags a remote client connection.
type ClientId uint32

// Allocator hands out monotonically increasing IDs of type T starting at 1
// (0 is reserved as "no ID" / zero value).
type Allocator[T ~uint32] struct {
	next atomic.Uint32
}

// NewAllocator creates an allocator whose first Allocate() call returns 1.
func NewAllocator[T ~uint32]() *Allocator[T] {
	return &Allocator[T]{}
}

// Allocate returns the next unused ID.
func (a *Allocator[T]) Allocate() T {
	return T(a.next.Add(1))
}
