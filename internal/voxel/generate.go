package voxel

import "github.com/go-gl/mathgl/mgl32"

// DensityField is the subset of heightmap.Field the generator needs:
// a scalar density sample and a gradient-derived normal. Expressed as
// an interface so tests can exercise Generate against hand-built
// density patterns without a real noise field.
type DensityField interface {
	Density(x, y, z float64) float64
	Normal(eps, x, y, z float64) mgl32.Vec3
}

// Generate samples field at b's 8 corners and a ring of weighted
// interior points to produce the Voxel occupying b: Empty if every
// corner is outside the volume, Volume(true) if every corner is inside,
// otherwise Surface with a vertex nudged toward the corners (and extra
// interior samples) that are inside.
//
// Ported from original_source/server/terrain/generate.rs's
// generate_voxel, which this function is a direct analogue of: same
// corner-weighted centroid, same extra-sample refinement pass at
// lg_s=2, same normal sampling/clamping into Fraci8.
func Generate(b Bounds, field DensityField) Voxel {
	fieldContains := func(x, y, z float64) bool {
		return field.Density(x, y, z) >= 0.0
	}

	size := float64(b.Size())
	x1, y1, z1 := float64(b.X)*size, float64(b.Y)*size, float64(b.Z)*size
	x2, y2, z2 := x1+size, y1+size, z1+size

	// corners[x][y][z]
	var corners [2][2][2]bool
	corners[0][0][0] = fieldContains(x1, y1, z1)
	corners[0][0][1] = fieldContains(x1, y1, z2)
	corners[0][1][0] = fieldContains(x1, y2, z1)
	corners[0][1][1] = fieldContains(x1, y2, z2)
	corners[1][0][0] = fieldContains(x2, y1, z1)
	corners[1][0][1] = fieldContains(x2, y1, z2)
	corners[1][1][0] = fieldContains(x2, y2, z1)
	corners[1][1][1] = fieldContains(x2, y2, z2)

	cornerInsideSurface := corners[0][0][0]
	anyInside := false
	allInside := true
	for _, xs := range corners {
		for _, ys := range xs {
			for _, b := range ys {
				anyInside = anyInside || b
				allInside = allInside && b
			}
		}
	}
	if !anyInside {
		return Empty()
	}
	if allInside {
		return Volume(true)
	}

	var vx, vy, vz uint32
	var n uint32
	coord := [2]uint32{0, 0xFF}
	for xi := 0; xi < 2; xi++ {
		for yi := 0; yi < 2; yi++ {
			for zi := 0; zi < 2; zi++ {
				if corners[xi][yi][zi] {
					vx += coord[xi]
					vy += coord[yi]
					vz += coord[zi]
					n++
				}
			}
		}
	}

	// Sample in extra areas to help weight the vertex toward the
	// appropriate place, at a single refinement scale (lg_s=2).
	const lgS = 2
	fs := 1.0 / float64(int(1)<<lgS)
	mfs := 1.0 - fs
	s := uint32(0x100 >> lgS)
	ms := uint32(0x100 - s)

	type sample struct {
		world float64
		coord uint32
	}
	xs := [2]sample{{(float64(b.X) + fs) * size, s}, {(float64(b.X) + mfs) * size, ms}}
	ys := [2]sample{{(float64(b.Y) + fs) * size, s}, {(float64(b.Y) + mfs) * size, ms}}
	zs := [2]sample{{(float64(b.Z) + fs) * size, s}, {(float64(b.Z) + mfs) * size, ms}}

	for _, sx := range xs {
		for _, sy := range ys {
			for _, sz := range zs {
				if fieldContains(sx.world, sy.world, sz.world) {
					vx += sx.coord * lgS
					vy += sy.coord * lgS
					vz += sz.coord * lgS
					n += lgS
				}
			}
		}
	}

	vertex := Vertex{
		X: FracOf(uint8(vx / n)),
		Y: FracOf(uint8(vy / n)),
		Z: FracOf(uint8(vz / n)),
	}

	world := vertex.ToWorld(b)
	g := field.Normal(0.01, float64(world.X()), float64(world.Y()), float64(world.Z()))
	nx := clampI8(int32(g.X() * 127.0))
	ny := clampI8(int32(g.Y() * 127.0))
	nz := clampI8(int32(g.Z() * 127.0))

	normal := Normal{
		X: FracOfSigned(nx),
		Y: FracOfSigned(ny),
		Z: FracOfSigned(nz),
	}

	return Surface(vertex, cornerInsideSurface, normal, true)
}

func clampI8(v int32) int8 {
	if v < -127 {
		return -127
	}
	if v > 127 {
		return 127
	}
	return int8(v)
}
