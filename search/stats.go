package search

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ConfidenceInterval returns the normal-approximation interval for the
// empirical success rate of n trials around an analytic probability p. The
// level is two-sided, e.g. 0.99. Bounds are clamped to [0, 1].
func ConfidenceInterval(p float64, trials int, level float64) (lo, hi float64) {
	if trials <= 0 {
		return 0, 1
	}

	z := distuv.UnitNormal.Quantile(0.5 + level/2)
	half := z * math.Sqrt(p*(1-p)/float64(trials))

	return math.Max(0, p-half), math.Min(1, p+half)
}

// WithinConfidence reports whether the batch's empirical success rate lies
// inside the two-sided confidence interval around its analytic prediction.
func (b TrialBatch) WithinConfidence(level float64) bool {
	lo, hi := ConfidenceInterval(b.PredictedProbability, b.TrialCount(), level)
	rate := b.EmpiricalSuccessRate()

	return rate >= lo && rate <= hi
}
