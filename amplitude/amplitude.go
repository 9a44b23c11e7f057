// Package amplitude implements the closed-form amplitude-amplification
// model behind Grover search. Given the fraction of a search space that is
// marked, it plans the number of amplification rounds and predicts the
// probability of measuring a marked item after a given number of rounds.
//
// All functions in this package are pure. The random sampling built on top
// of this model lives in the search package.
package amplitude

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration indicates a search configuration that cannot be
// amplified, such as an empty marked set or a marked set that covers the
// whole space.
var ErrInvalidConfiguration = errors.New("invalid search configuration")

// ErrDomainPrecondition indicates a caller error: an argument outside the
// mathematical domain of the amplitude formulas, such as a marked fraction
// that is not strictly between 0 and 1.
var ErrDomainPrecondition = errors.New("argument outside formula domain")

// Angle returns the base rotation angle theta = arcsin(sqrt(f)) for a
// marked fraction f. One oracle-plus-diffusion round rotates the state
// vector by 2*theta toward the marked subspace.
func Angle(markedFraction float64) float64 {
	return math.Asin(math.Sqrt(markedFraction))
}

// PlanIterations returns the round count that stops closest to, without
// rotating past, the amplitude peak: floor(pi/(4*theta) - 0.5), clamped to
// at least 1. A marked fraction at or outside (0, 1), or a non-finite one,
// yields 0 because no amplification is possible.
func PlanIterations(markedFraction float64) int {
	if !inDomain(markedFraction) {
		return 0
	}

	theta := Angle(markedFraction)
	raw := int(math.Floor(math.Pi/(4*theta) - 0.5))

	if raw < 1 {
		return 1
	}

	return raw
}

// PredictSuccessProbability returns sin((2k+1)*theta)^2, the probability of
// measuring a marked item after k oracle-plus-diffusion rounds applied to a
// uniform superposition. The marked fraction must be strictly inside (0, 1)
// and the round count non-negative; violations surface as
// ErrDomainPrecondition.
func PredictSuccessProbability(
	markedFraction float64,
	iterations int,
) (float64, error) {
	if !inDomain(markedFraction) {
		return 0, fmt.Errorf("%w: marked fraction %v must be in (0, 1)",
			ErrDomainPrecondition, markedFraction)
	}

	if iterations < 0 {
		return 0, fmt.Errorf("%w: iteration count %d must be non-negative",
			ErrDomainPrecondition, iterations)
	}

	finalAngle := float64(2*iterations+1) * Angle(markedFraction)
	s := math.Sin(finalAngle)

	return s * s, nil
}

func inDomain(markedFraction float64) bool {
	if math.IsNaN(markedFraction) || math.IsInf(markedFraction, 0) {
		return false
	}

	return markedFraction > 0 && markedFraction < 1
}
