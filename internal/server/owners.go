package server

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/surroundings"
)

// spawnX, spawnZ is the fixed spawn column, matching a fixed (8, 8)
// spawn lookup against the world generator.
const (
	spawnX = 8.0
	spawnZ = 8.0
)

// playerHalfExtents is a fixed humanoid collision box half-extent,
// since full broadphase is out of scope: player/mob bounds are derived
// directly from position rather than tracked in internal/physics
// (which only ever holds terrain colliders).
var playerHalfExtents = mgl32.Vec3{0.4, 0.9, 0.4}

// mobHalfExtents is the same simplification for mobs, at a smaller box.
var mobHalfExtents = mgl32.Vec3{0.4, 0.4, 0.4}

// walkSpeed, jumpSpeed, and gravity drive the simplified player
// movement integration: no collision resolution against terrain
// geometry beyond a ground-height clamp from the heightmap field,
// matching original_source/server/src/update_world.rs's equally
// simplified per-axis mob translation.
const (
	walkSpeed = 4.3
	jumpSpeed = 6.0
	gravity   = 16.0
)

// PlayerOwner is a connected player's LOD-arbitration identity: an
// OwnerId claiming blocks through its own surroundings tracker, plus
// the player entity's simulated position.
type PlayerOwner struct {
	mu sync.Mutex

	EntityId idalloc.EntityId
	OwnerId  idalloc.OwnerId

	Position      mgl32.Vec3
	Velocity      mgl32.Vec3
	Rotation      mgl32.Vec2 // yaw, pitch, radians
	WalkDirection mgl32.Vec3 // unit-ish horizontal direction, client-supplied
	Jumping       bool
	OnGround      bool

	tracker *surroundings.Tracker
}

// MobOwner is the placeholder-tracking counterpart for a non-player
// entity: it claims only lod.Placeholder at every position its
// tracker visits (original_source's load_placeholders), never a
// rendered mesh.
type MobOwner struct {
	mu sync.Mutex

	EntityId idalloc.EntityId
	OwnerId  idalloc.OwnerId

	Position mgl32.Vec3
	Speed    mgl32.Vec3

	tracker *surroundings.Tracker
}

func (s *Server) maxLoadDistance() int32 {
	if len(s.config.LODThresholds) == 0 {
		return 0
	}
	return s.config.LODThresholds[len(s.config.LODThresholds)-1]
}

// addPlayer allocates a fresh player entity spawning above the fixed
// spawn column's surface height, and registers it under the server.
func (s *Server) addPlayer() *PlayerOwner {
	ownerId := s.ownerIds.Allocate()
	entityId := s.entityIds.Allocate()

	spawnY := s.loader.Field().SurfaceHeight(spawnX, spawnZ) + 1.0

	p := &PlayerOwner{
		EntityId: entityId,
		OwnerId:  ownerId,
		Position: mgl32.Vec3{spawnX, float32(spawnY), spawnZ},
		tracker:  surroundings.New(s.maxLoadDistance(), s.config.LODThresholds),
	}

	s.mu.Lock()
	s.players[entityId] = p
	s.mu.Unlock()
	return p
}

// AddMob allocates a placeholder-only mob entity at position and
// registers it under the server, for callers spawning non-player
// entities (mob AI itself is an external collaborator; this just gives
// it a place in the LOD arbitration and broadcast loops).
func (s *Server) AddMob(position mgl32.Vec3) *MobOwner {
	ownerId := s.ownerIds.Allocate()
	entityId := s.entityIds.Allocate()

	m := &MobOwner{
		EntityId: entityId,
		OwnerId:  ownerId,
		Position: position,
		tracker:  surroundings.New(s.maxLoadDistance(), nil),
	}

	s.mu.Lock()
	s.mobs[entityId] = m
	s.mu.Unlock()
	return m
}

// lookDirection turns a (yaw, pitch) rotation into a unit look vector,
// the standard FPS convention: yaw rotates about Y from +Z, pitch tilts
// toward +Y.
func lookDirection(rotation mgl32.Vec2) mgl32.Vec3 {
	yaw, pitch := float64(rotation.X()), float64(rotation.Y())
	return mgl32.Vec3{
		float32(-math.Sin(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Cos(yaw) * math.Cos(pitch)),
	}
}

// eyeHeight and digDistance bound the RemoveVoxel ray cast from a
// player's simulated eye position.
const (
	eyeHeight   = 1.6
	digDistance = 8.0
)

func (s *Server) handleRemoveVoxel(playerId idalloc.EntityId) {
	s.mu.RLock()
	p, ok := s.players[playerId]
	s.mu.RUnlock()
	if !ok {
		return
	}

	p.mu.Lock()
	origin := p.Position.Add(mgl32.Vec3{0, eyeHeight, 0})
	direction := lookDirection(p.Rotation)
	p.mu.Unlock()

	s.loader.RemoveVoxel(origin, direction, digDistance)
}
