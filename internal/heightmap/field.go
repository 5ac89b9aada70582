// Package heightmap implements the deterministic 3D scalar density field
// (C1) the rest of the terrain core samples: Field.Density gives the
// signed distance-like value used to classify voxel corners as
// inside/outside the volume, and Field.Normal approximates its gradient.
package heightmap

import "github.com/go-gl/mathgl/mgl32"

// Parameters mirrored from
// original_source/server/src/terrain/terrain.rs's AMPLITUDE/FREQUENCY/
// PERSISTENCE/LACUNARITY/OCTAVES constants.
const (
	Octaves     = 2
	Frequency   = 1.0 / 64.0
	Persistence = 1.0 / 16.0
	Lacunarity  = 8.0
	Amplitude   = 64.0
)

// Field is a seeded, referentially transparent 3D density function. The
// same seed and coordinates always produce the same Density/Normal; Field
// has no mutable state after construction, so it is safe for concurrent
// readers (multiple Gaia/world-update goroutines sample it at once).
type Field struct {
	seed  int64
	noise *perlin
}

// New creates a Field from a world seed.
func New(seed int64) *Field {
	return &Field{
		seed:  seed,
		noise: newPerlin(seed),
	}
}

// Seed returns the seed this field was constructed from.
func (f *Field) Seed() int64 {
	return f.seed
}

// Density returns the scalar density at world-space (x, y, z). A voxel
// corner is classified "inside" the volume when Density >= 0.
//
// The height-field shape (amplitude-scaled octave noise minus the
// sample's height) is the 3D generalization of a 2D terrain
// height function (pkg/world/generator.go's SurfaceHeight), combining
// fractal noise with a linear falloff in y so that everything below the
// noise surface is solid and everything above is air.
func (f *Field) Density(x, y, z float64) float64 {
	h := f.noise.octaveNoise3D(x*Frequency, y*Frequency, z*Frequency, Octaves, Lacunarity, Persistence)
	surface := h * Amplitude
	return surface - y
}

// Normal approximates the gradient of Density at (x, y, z) via central
// differences at step eps, normalized to unit length. Grounded on
// original_source/server/terrain/generate.rs's get_normal closure
// (heightmap.normal_at(0.01, x, y, z)).
func (f *Field) Normal(eps, x, y, z float64) mgl32.Vec3 {
	dx := f.Density(x+eps, y, z) - f.Density(x-eps, y, z)
	dy := f.Density(x, y+eps, z) - f.Density(x, y-eps, z)
	dz := f.Density(x, y, z+eps) - f.Density(x, y, z-eps)

	// The gradient of Density points toward increasing density (further
	// inside the volume); the surface normal points outward, so negate it.
	n := mgl32.Vec3{float32(-dx), float32(-dy), float32(-dz)}
	if n.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

// ceiling bounds the downward scan SurfaceHeight performs: nothing this
// field generates extends above or below it.
const ceiling = 256.0

// SurfaceHeight scans downward in unit steps from ceiling and returns
// the first y at which Density turns solid, the 3D generalization of
// pkg/world/generator.go's SurfaceHeight (there a closed-form 2D noise
// lookup; here Density depends on y too, so the answer is found by
// search rather than evaluated directly). Used for entity spawn/ground
// placement, not voxel meshing.
func (f *Field) SurfaceHeight(x, z float64) float64 {
	for y := ceiling; y > -ceiling; y-- {
		if f.Density(x, y, z) >= 0 {
			return y
		}
	}
	return -ceiling
}
