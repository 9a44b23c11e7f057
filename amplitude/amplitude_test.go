package amplitude_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsimlab/groverlab/amplitude"
)

func TestPlanIterations(t *testing.T) {
	tests := []struct {
		name           string
		markedFraction float64
		want           int
	}{
		{"one in sixteen", 1.0 / 16, 2},
		{"one in eight", 4.0 / 32, 1},
		{"four in 4096", 4.0 / 4096, 24},
		{"large fraction clamps to one", 0.4, 1},
		{"half space", 0.5, 1},
		{"zero fraction falls back", 0, 0},
		{"full coverage falls back", 1, 0},
		{"negative fraction falls back", -0.25, 0},
		{"above one falls back", 1.5, 0},
		{"nan falls back", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, amplitude.PlanIterations(tt.markedFraction))
		})
	}
}

func TestPredictSuccessProbability_KnownAngles(t *testing.T) {
	tests := []struct {
		name           string
		markedFraction float64
		iterations     int
		want           float64
	}{
		// sin((2k+1)θ) expands to a polynomial in sqrt(f), so these
		// expectations are exact up to floating point.
		{"one in sixteen, planned rounds", 1.0 / 16, 2, 0.908447265625},
		{"one in sixteen, one extra round", 1.0 / 16, 3, 0.9613189697265625},
		{"four in thirty-two, two rounds", 4.0 / 32, 2, 0.9453125},
		{"four in thirty-two, one round", 4.0 / 32, 1, 0.78125},
		{"no rounds keeps base fraction", 1.0 / 16, 0, 1.0 / 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := amplitude.PredictSuccessProbability(
				tt.markedFraction, tt.iterations)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestPredictSuccessProbability_SparseSpaceNearsCertainty(t *testing.T) {
	f := 4.0 / 4096
	k := amplitude.PlanIterations(f)

	p, err := amplitude.PredictSuccessProbability(f, k)

	require.NoError(t, err)
	assert.Greater(t, p, 0.99)
}

func TestPredictSuccessProbability_StaysInUnitInterval(t *testing.T) {
	for _, f := range []float64{1e-9, 1e-4, 0.01, 0.1, 0.25, 0.5, 0.9, 0.999} {
		for k := 0; k < 50; k++ {
			p, err := amplitude.PredictSuccessProbability(f, k)

			require.NoError(t, err)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
		}
	}
}

func TestPredictSuccessProbability_OverRotationDecays(t *testing.T) {
	for _, f := range []float64{1.0 / 16, 1.0 / 64, 1.0 / 1024} {
		planned := amplitude.PlanIterations(f)
		atPlan, err := amplitude.PredictSuccessProbability(f, planned)
		require.NoError(t, err)

		// Past the amplitude peak the success probability oscillates,
		// so some round count beyond the planned one must do worse.
		decayed := false
		for k := planned + 1; k <= planned+2*planned+2; k++ {
			p, err := amplitude.PredictSuccessProbability(f, k)
			require.NoError(t, err)
			if p < atPlan {
				decayed = true
				break
			}
		}
		assert.True(t, decayed, "marked fraction %v never over-rotated", f)
	}
}

func TestPredictSuccessProbability_DomainViolations(t *testing.T) {
	tests := []struct {
		name           string
		markedFraction float64
		iterations     int
	}{
		{"zero fraction", 0, 1},
		{"full fraction", 1, 1},
		{"negative fraction", -0.1, 1},
		{"fraction above one", 1.1, 1},
		{"nan fraction", math.NaN(), 1},
		{"negative iterations", 0.25, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := amplitude.PredictSuccessProbability(
				tt.markedFraction, tt.iterations)
			require.ErrorIs(t, err, amplitude.ErrDomainPrecondition)
		})
	}
}

func TestModelIsPure(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, 2, amplitude.PlanIterations(1.0/16))

		p, err := amplitude.PredictSuccessProbability(1.0/16, 2)
		require.NoError(t, err)
		assert.Equal(t, 0.908447265625, p)
	}
}
