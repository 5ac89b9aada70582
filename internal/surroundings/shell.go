package surroundings

import "github.com/playform/terrain/internal/lod"

// shellIter walks cube shells of increasing Chebyshev radius around a
// fixed center, exhausting radius r (all positions at distance exactly
// r) before advancing to r+1, up to and including maxR.
type shellIter struct {
	center lod.BlockPosition
	maxR   int32
	r      int32
	buf    []lod.BlockPosition
	idx    int
}

func newShellIter(center lod.BlockPosition, maxR int32) *shellIter {
	return &shellIter{center: center, maxR: maxR, r: -1}
}

func (s *shellIter) next() (lod.BlockPosition, int32, bool) {
	for {
		if s.idx < len(s.buf) {
			p := s.buf[s.idx]
			s.idx++
			return p, s.r, true
		}
		s.r++
		if s.r > s.maxR {
			return lod.BlockPosition{}, 0, false
		}
		s.buf = shellPositions(s.center, s.r)
		s.idx = 0
	}
}

// shellPositions returns every BlockPosition at Chebyshev distance
// exactly r from center.
func shellPositions(center lod.BlockPosition, r int32) []lod.BlockPosition {
	if r == 0 {
		return []lod.BlockPosition{center}
	}

	out := make([]lod.BlockPosition, 0, shellSize(r))
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				if absInt32(dx) == r || absInt32(dy) == r || absInt32(dz) == r {
					out = append(out, lod.NewBlockPosition(center.X+dx, center.Y+dy, center.Z+dz))
				}
			}
		}
	}
	return out
}

// shellSize is the number of positions at Chebyshev distance exactly r:
// the volume of a (2r+1) cube minus the volume of a (2r-1) cube.
func shellSize(r int32) int32 {
	outer := (2*r + 1)
	outer = outer * outer * outer
	inner := (2*r - 1)
	inner = inner * inner * inner
	return outer - inner
}

// cubeDiff returns the symmetric difference of the radius-r Chebyshev
// shells around p1 and p2: positions in exactly one of the two shells.
func cubeDiff(p1, p2 lod.BlockPosition, r int32) []lod.BlockPosition {
	a := shellPositions(p1, r)
	b := shellPositions(p2, r)

	inB := make(map[lod.BlockPosition]bool, len(b))
	for _, p := range b {
		inB[p] = true
	}
	inA := make(map[lod.BlockPosition]bool, len(a))
	for _, p := range a {
		inA[p] = true
	}

	out := make([]lod.BlockPosition, 0)
	for _, p := range a {
		if !inB[p] {
			out = append(out, p)
		}
	}
	for _, p := range b {
		if !inA[p] {
			out = append(out, p)
		}
	}
	return out
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
