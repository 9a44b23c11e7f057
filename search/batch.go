package search

// A TrialBatch holds the outcomes of a sequence of simulated measurements
// together with the configuration that produced them. Batches are built by
// runners and never mutated afterwards.
type TrialBatch struct {
	SpaceSize   int
	MarkedCount int

	// IterationsUsed is the oracle-plus-diffusion round count every trial
	// in the batch was sampled with.
	IterationsUsed int

	// PredictedProbability is the analytic per-trial success probability.
	PredictedProbability float64

	// Outcomes holds one measured index per trial, in trial order.
	Outcomes []int

	// Successes counts outcomes that landed in the marked set.
	Successes int
}

// TrialCount returns the number of trials in the batch.
func (b TrialBatch) TrialCount() int {
	return len(b.Outcomes)
}

// EmpiricalSuccessRate returns the fraction of trials that measured a
// marked item, or 0 for an empty batch.
func (b TrialBatch) EmpiricalSuccessRate() float64 {
	if len(b.Outcomes) == 0 {
		return 0
	}

	return float64(b.Successes) / float64(len(b.Outcomes))
}
