package server

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/playform/terrain/internal/lod"
	"github.com/playform/terrain/internal/protocol"
	"github.com/playform/terrain/internal/surroundings"
)

// tickOpBudget bounds how many surroundings-tracker Load/Unload events
// one owner processes per world-update tick, so a newly connected
// observer's initial cube-shell fill is spread across several ticks
// instead of stalling the loop.
const tickOpBudget = 64

func budget() func() bool {
	remaining := tickOpBudget
	return func() bool {
		if remaining <= 0 {
			return false
		}
		remaining--
		return true
	}
}

func blockPositionAt(p mgl32.Vec3) lod.BlockPosition {
	return lod.NewBlockPosition(
		int32(math.Floor(float64(p.X())/lod.BlockWidth)),
		int32(math.Floor(float64(p.Y())/lod.BlockWidth)),
		int32(math.Floor(float64(p.Z())/lod.BlockWidth)),
	)
}

// tickLoop runs the world-update cycle on config.TickInterval until
// Stop closes stopCh, mirroring update_world's per-frame
// update.player / update.mobs / sun sections as three steps of one
// tick instead of three TimerSet sections.
func (s *Server) tickLoop() {
	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Server) tick() {
	dt := float32(s.config.TickInterval.Seconds())

	s.mu.RLock()
	players := make([]*PlayerOwner, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	mobs := make([]*MobOwner, 0, len(s.mobs))
	for _, m := range s.mobs {
		mobs = append(mobs, m)
	}
	s.mu.RUnlock()

	for _, p := range players {
		s.updatePlayer(p, dt)
	}
	for _, m := range mobs {
		s.updateMob(m, dt)
	}

	if fraction, changed := s.sun.Update(); changed {
		s.broadcast(protocol.UpdateSun{Fraction: fraction}.Encode())
	}
}

func (s *Server) updatePlayer(p *PlayerOwner, dt float32) {
	p.mu.Lock()
	if p.Jumping && p.OnGround {
		p.Velocity = mgl32.Vec3{p.Velocity.X(), jumpSpeed, p.Velocity.Z()}
	}
	p.Velocity = mgl32.Vec3{p.Velocity.X(), p.Velocity.Y() - gravity*dt, p.Velocity.Z()}

	delta := p.WalkDirection.Mul(walkSpeed * dt)
	delta = delta.Add(mgl32.Vec3{0, p.Velocity.Y() * dt, 0})
	p.Position = p.Position.Add(delta)

	ground := s.loader.Field().SurfaceHeight(float64(p.Position.X()), float64(p.Position.Z()))
	if float64(p.Position.Y()) <= ground {
		p.Position = mgl32.Vec3{p.Position.X(), float32(ground), p.Position.Z()}
		p.Velocity = mgl32.Vec3{p.Velocity.X(), 0, p.Velocity.Z()}
		p.OnGround = true
	} else {
		p.OnGround = false
	}

	position := p.Position
	owner := p.OwnerId
	entity := p.EntityId
	p.mu.Unlock()

	p.tracker.Update(blockPositionAt(position), budget(), func(c surroundings.Change) {
		if c.Unload {
			s.loader.Unload(c.Position, owner)
			return
		}
		level := lod.ThresholdsToLOD(s.config.LODThresholds, c.Distance)
		s.loader.Load(c.Position, level, owner, s.enqueue)
	})

	min := position.Sub(playerHalfExtents)
	max := position.Add(playerHalfExtents)
	s.broadcast(protocol.UpdatePlayer{EntityId: entity, Min: min, Max: max}.Encode())
}

func (s *Server) updateMob(m *MobOwner, dt float32) {
	m.mu.Lock()
	m.Speed = mgl32.Vec3{m.Speed.X(), m.Speed.Y() - gravity*dt, m.Speed.Z()}
	m.Position = m.Position.Add(m.Speed.Mul(dt))
	position := m.Position
	owner := m.OwnerId
	entity := m.EntityId
	m.mu.Unlock()

	m.tracker.Update(blockPositionAt(position), budget(), func(c surroundings.Change) {
		if c.Unload {
			s.loader.Unload(c.Position, owner)
			return
		}
		s.loader.Load(c.Position, lod.Placeholder, owner, s.enqueue)
	})

	min := position.Sub(mobHalfExtents)
	max := position.Add(mobHalfExtents)
	s.broadcast(protocol.UpdateMob{EntityId: entity, Min: min, Max: max}.Encode())
}
