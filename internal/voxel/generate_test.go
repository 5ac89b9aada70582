package voxel

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playform/terrain/internal/heightmap"
)

// fakeField returns +1 density at (0,0,0) and (0,0,1), -1 everywhere
// else: a single inside edge along +z at the voxel's near corner.
type fakeField struct{}

func (fakeField) Density(x, y, z float64) float64 {
	if (x == 0 && y == 0 && z == 0) || (x == 0 && y == 0 && z == 1) {
		return 1
	}
	return -1
}

func (fakeField) Normal(eps, x, y, z float64) mgl32.Vec3 {
	return mgl32.Vec3{0, 1, 0}
}

func TestGenerateScenario5(t *testing.T) {
	b := NewBounds(0, 0, 0, 0)
	v := Generate(b, fakeField{})

	require.Equal(t, KindSurface, v.Kind)
	assert.True(t, v.CornerInsideSurface)

	x := float64(v.InnerVertex.X.Numerator) / 256.0
	y := float64(v.InnerVertex.Y.Numerator) / 256.0
	z := float64(v.InnerVertex.Z.Numerator) / 256.0

	assert.Greater(t, z, 0.0)
	assert.InDelta(t, 0.0, x, 0.05)
	assert.InDelta(t, 0.0, y, 0.05)
}

type allOutsideField struct{}

func (allOutsideField) Density(x, y, z float64) float64     { return -1 }
func (allOutsideField) Normal(e, x, y, z float64) mgl32.Vec3 { return mgl32.Vec3{0, 1, 0} }

func TestGenerateAllOutsideIsEmpty(t *testing.T) {
	v := Generate(NewBounds(0, 0, 0, 0), allOutsideField{})
	assert.Equal(t, KindEmpty, v.Kind)
}

type allInsideField struct{}

func (allInsideField) Density(x, y, z float64) float64      { return 1 }
func (allInsideField) Normal(e, x, y, z float64) mgl32.Vec3 { return mgl32.Vec3{0, 1, 0} }

func TestGenerateAllInsideIsVolume(t *testing.T) {
	v := Generate(NewBounds(0, 0, 0, 0), allInsideField{})
	require.Equal(t, KindVolume, v.Kind)
	assert.True(t, v.Inside)
}

func TestGenerateDeterministic(t *testing.T) {
	field := heightmap.New(0)
	b := NewBounds(0, 0, 0, 4)

	v1 := Generate(b, field)
	v2 := Generate(b, field)

	assert.Equal(t, v1, v2)
}
