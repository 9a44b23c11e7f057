// Package baseline computes the classical exhaustive-search baseline and
// the classical-versus-quantum query comparison for problem instances.
package baseline

import (
	"fmt"
	"math"

	"github.com/qsimlab/groverlab/amplitude"
)

// ClassicalQueries returns the expected number of uniformly random probes a
// classical searcher needs to hit a marked item with the given confidence:
// ln(1-c) / ln(1-f).
func ClassicalQueries(markedFraction, confidence float64) (float64, error) {
	if err := checkDomain(markedFraction, confidence); err != nil {
		return 0, err
	}

	return math.Log(1-confidence) / math.Log(1-markedFraction), nil
}

// RoundsToConfidence returns the smallest round count, at or above the
// planned optimum, whose analytic success probability reaches the
// confidence target, together with the probability it achieves. The success
// probability oscillates with the round count, so the scan is bounded by
// one full rotation period; if no round count within that window reaches
// the target, the best round count found is returned and the caller can
// compare the achieved probability against the target.
func RoundsToConfidence(
	markedFraction, confidence float64,
) (rounds int, achieved float64, err error) {
	if err := checkDomain(markedFraction, confidence); err != nil {
		return 0, 0, err
	}

	theta := amplitude.Angle(markedFraction)

	start := int(math.Floor(math.Pi/(4*theta) - 0.5))
	if start < 0 {
		start = 0
	}

	period := int(math.Ceil(math.Pi / theta))

	bestRounds := start
	bestProb := 0.0

	for k := start; k <= start+period; k++ {
		p, err := amplitude.PredictSuccessProbability(markedFraction, k)
		if err != nil {
			return 0, 0, err
		}

		if p >= confidence {
			return k, p, nil
		}

		if p > bestProb {
			bestRounds, bestProb = k, p
		}
	}

	return bestRounds, bestProb, nil
}

func checkDomain(markedFraction, confidence float64) error {
	if markedFraction <= 0 || markedFraction >= 1 ||
		math.IsNaN(markedFraction) {
		return fmt.Errorf("%w: marked fraction %v must be in (0, 1)",
			amplitude.ErrDomainPrecondition, markedFraction)
	}

	if confidence <= 0 || confidence >= 1 || math.IsNaN(confidence) {
		return fmt.Errorf("%w: confidence %v must be in (0, 1)",
			amplitude.ErrDomainPrecondition, confidence)
	}

	return nil
}
