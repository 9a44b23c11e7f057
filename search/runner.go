package search

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/qsimlab/groverlab/amplitude"
)

// progressChunk is the number of trials completed between progress updates
// and pause checks.
const progressChunk = 1024

// A ProgressObserver receives completion updates while a runner works
// through a batch. monitoring.ProgressBar satisfies this interface.
type ProgressObserver interface {
	IncrementFinished(amount uint64)
}

// A Runner draws a batch of simulated measurement outcomes for a scenario.
// Each trial is independent: with the analytic success probability it
// yields a uniformly chosen marked item, otherwise a uniformly chosen
// unmarked one.
type Runner interface {
	// RunTrials samples trialCount outcomes using the given round count.
	RunTrials(scenario Scenario, iterations, trialCount int) (TrialBatch, error)

	// Pause blocks the runner at the next chunk boundary until Continue.
	Pause()

	// Continue resumes a paused runner.
	Continue()
}

// SerialRunner samples trials one at a time from a single seeded source.
type SerialRunner struct {
	seed      int64
	pauseLock sync.Mutex
	progress  ProgressObserver
}

// NewSerialRunner creates a SerialRunner that derives all randomness from
// the given seed. Identical seeds reproduce identical batches.
func NewSerialRunner(seed int64) *SerialRunner {
	return &SerialRunner{seed: seed}
}

// WithProgress attaches a progress observer.
func (r *SerialRunner) WithProgress(p ProgressObserver) *SerialRunner {
	r.progress = p
	return r
}

// SetProgress replaces the progress observer. A nil observer detaches it.
func (r *SerialRunner) SetProgress(p ProgressObserver) {
	r.progress = p
}

// RunTrials implements Runner.
func (r *SerialRunner) RunTrials(
	scenario Scenario,
	iterations, trialCount int,
) (TrialBatch, error) {
	p, err := prepareBatch(scenario, iterations, trialCount)
	if err != nil {
		return TrialBatch{}, err
	}

	batch := TrialBatch{
		SpaceSize:            scenario.SpaceSize(),
		MarkedCount:          scenario.MarkedCount(),
		IterationsUsed:       iterations,
		PredictedProbability: p,
		Outcomes:             make([]int, trialCount),
	}

	rng := rand.New(rand.NewSource(r.seed))
	for start := 0; start < trialCount; start += progressChunk {
		end := start + progressChunk
		if end > trialCount {
			end = trialCount
		}

		r.pauseLock.Lock()
		for i := start; i < end; i++ {
			outcome, success := sampleTrial(scenario, p, rng)
			batch.Outcomes[i] = outcome
			if success {
				batch.Successes++
			}
		}
		r.pauseLock.Unlock()

		if r.progress != nil {
			r.progress.IncrementFinished(uint64(end - start))
		}
	}

	return batch, nil
}

// Pause implements Runner.
func (r *SerialRunner) Pause() {
	r.pauseLock.Lock()
}

// Continue implements Runner.
func (r *SerialRunner) Continue() {
	r.pauseLock.Unlock()
}

// sampleTrial draws one measurement outcome: a uniform marked element with
// probability p, otherwise a uniform unmarked element.
func sampleTrial(scenario Scenario, p float64, rng *rand.Rand) (int, bool) {
	if rng.Float64() < p {
		return scenario.sampleMarked(rng), true
	}

	return scenario.sampleUnmarked(rng), false
}

// prepareBatch validates the run configuration and computes the per-trial
// success probability shared by all trials in the batch.
func prepareBatch(
	scenario Scenario,
	iterations, trialCount int,
) (float64, error) {
	if err := validateScenario(scenario); err != nil {
		return 0, err
	}

	if trialCount <= 0 {
		return 0, fmt.Errorf("%w: trial count %d must be positive",
			amplitude.ErrInvalidConfiguration, trialCount)
	}

	return amplitude.PredictSuccessProbability(
		scenario.MarkedFraction(), iterations)
}

// validateScenario guards against zero-value scenarios that bypassed
// NewScenario.
func validateScenario(scenario Scenario) error {
	if scenario.spaceSize <= 0 || len(scenario.marked) == 0 ||
		len(scenario.marked) >= scenario.spaceSize {
		return fmt.Errorf("%w: scenario must be built with NewScenario",
			amplitude.ErrInvalidConfiguration)
	}

	return nil
}

// RunTrials is a convenience that runs a batch on a fresh SerialRunner.
func RunTrials(
	scenario Scenario,
	iterations, trialCount int,
	seed int64,
) (TrialBatch, error) {
	return NewSerialRunner(seed).RunTrials(scenario, iterations, trialCount)
}
