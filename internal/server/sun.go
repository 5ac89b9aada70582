package server

import (
	"math"
	"time"
)

// sunPeriod is how long one full day/night cycle takes. The cycle
// itself is an external collaborator (§1 Non-goals name the sun/
// lighting loop out of scope); this is a trivial monotonic fraction
// ticker standing in for it, kept only so UpdateSun has a source.
const sunPeriod = 20 * time.Minute

// sunSteps is how many visible steps one cycle is divided into: the
// reported fraction is floored to a multiple of 1/sunSteps, so it
// changes once per sunPeriod/sunSteps (one second).
const sunSteps = 1200

// Sun tracks a monotonically advancing fraction through one day/night
// cycle, grounded on original_source/server/src/update_world.rs's
// server.sun.lock().unwrap().update() call, which returns Some(fraction)
// only when the visible fraction actually changed.
type Sun struct {
	start       time.Time
	hasStart    bool
	lastSent    float32
	hasLastSent bool
}

// NewSun creates a Sun whose cycle starts on its first Update call.
func NewSun() *Sun {
	return &Sun{}
}

// Update returns the cycle's current fraction in [0, 1) and true if it
// differs from the last value Update returned.
func (s *Sun) Update() (float32, bool) {
	now := time.Now()
	if !s.hasStart {
		s.start = now
		s.hasStart = true
	}

	elapsed := now.Sub(s.start)
	fraction := float32(math.Floor(float64(elapsed%sunPeriod)/float64(sunPeriod)*sunSteps) / sunSteps)

	if s.hasLastSent && fraction == s.lastSent {
		return fraction, false
	}
	s.lastSent = fraction
	s.hasLastSent = true
	return fraction, true
}
