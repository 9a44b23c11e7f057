// Package numutil provides the numeric helpers shared across the search,
// baseline, and estimation packages: weight normalization, cumulative sums
// for threshold sampling, and thin wrappers over gonum statistics.
package numutil

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrZeroMass indicates that a weight vector cannot be normalized because
// its entries sum to zero.
var ErrZeroMass = errors.New("weight vector has zero total mass")

// ErrNegativeWeight indicates a weight vector with a negative entry.
var ErrNegativeWeight = errors.New("weight vector has a negative entry")

// Normalize scales a vector of non-negative weights so that it sums to 1.
// The input is not modified.
func Normalize(weights []float64) ([]float64, error) {
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("%w: weights[%d] = %v",
				ErrNegativeWeight, i, w)
		}
	}

	total := floats.Sum(weights)
	if total == 0 {
		return nil, ErrZeroMass
	}

	normalized := make([]float64, len(weights))
	copy(normalized, weights)
	floats.Scale(1/total, normalized)

	return normalized, nil
}

// Cumulative returns the prefix sums of a vector. Applied to a probability
// vector, the result is the threshold table used for inverse-CDF sampling.
func Cumulative(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	sums := make([]float64, len(values))
	floats.CumSum(sums, values)

	return sums
}

// IsProbabilityVector reports whether every entry is in [0, 1] and the
// entries sum to 1 within the given tolerance.
func IsProbabilityVector(p []float64, tol float64) bool {
	for _, v := range p {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return false
		}
	}

	return math.Abs(floats.Sum(p)-1) <= tol
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	return stat.Mean(data, nil)
}

// StdDev returns the sample standard deviation, or 0 when fewer than two
// samples are available.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}

	return stat.StdDev(data, nil)
}
