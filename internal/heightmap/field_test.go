package heightmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldDeterminism(t *testing.T) {
	f1 := New(12345)
	f2 := New(12345)

	for i := 0; i < 100; i++ {
		x := float64(i) * 0.37
		y := float64(i) * 0.53
		z := float64(i) * 0.11
		require.Equal(t, f1.Density(x, y, z), f2.Density(x, y, z))
	}
}

func TestFieldDifferentSeeds(t *testing.T) {
	f1 := New(1)
	f2 := New(2)
	same := 0
	for i := 0; i < 100; i++ {
		x := float64(i) * 0.5
		y := float64(i) * 0.3
		z := float64(i) * 0.2
		if f1.Density(x, y, z) == f2.Density(x, y, z) {
			same++
		}
	}
	assert.Less(t, same, 30)
}

func TestFieldAmplitudeBound(t *testing.T) {
	f := New(7)
	for i := 0; i < 2000; i++ {
		x := float64(i)*0.23 - 200
		z := float64(i)*0.17 - 100
		// Far below any plausible surface, density must be positive (inside).
		assert.Greater(t, f.Density(x, -10*Amplitude, z), 0.0)
		// Far above, density must be negative (outside).
		assert.Less(t, f.Density(x, 10*Amplitude, z), 0.0)
	}
}

func TestNormalIsUnitLength(t *testing.T) {
	f := New(42)
	n := f.Normal(0.01, 10, 0, 10)
	length := n.Len()
	assert.InDelta(t, 1.0, length, 1e-4)
}

func TestNormalPointsAwayFromSolid(t *testing.T) {
	f := New(0)
	// Deep underground the field is solid; near the flat extremes the
	// normal should have a dominant positive-y component pointing toward air.
	n := f.Normal(0.01, 0, -5*Amplitude, 0)
	assert.Greater(t, n.Y(), float32(0))
}
