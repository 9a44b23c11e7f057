package search

import (
	"math/rand"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// seedStride separates the per-worker generator seeds. Any odd constant
// works; this one spreads nearby seeds across the generator state space.
const seedStride int64 = 0x5851F42D4C957F2D

// ParallelRunner samples the trials of a batch across a pool of workers.
// Trials are statistically independent, so each worker owns a contiguous
// slice of the outcome buffer and a private generator derived from the
// runner seed and the worker index. The result only depends on the seed
// and the worker count.
//
// Workers hold the pause lock as readers while sampling a chunk, so they
// never exclude each other. Pause takes the writer side and blocks until
// every worker reaches its next chunk boundary.
type ParallelRunner struct {
	seed      int64
	workers   int
	pauseLock sync.RWMutex
	progress  ProgressObserver
}

// NewParallelRunner creates a ParallelRunner. A non-positive worker count
// defaults to GOMAXPROCS.
func NewParallelRunner(seed int64, workers int) *ParallelRunner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &ParallelRunner{seed: seed, workers: workers}
}

// WithProgress attaches a progress observer. The observer must be safe for
// concurrent use; monitoring.ProgressBar is.
func (r *ParallelRunner) WithProgress(p ProgressObserver) *ParallelRunner {
	r.progress = p
	return r
}

// SetProgress replaces the progress observer. A nil observer detaches it.
func (r *ParallelRunner) SetProgress(p ProgressObserver) {
	r.progress = p
}

// Workers returns the worker count the runner partitions batches across.
func (r *ParallelRunner) Workers() int {
	return r.workers
}

// RunTrials implements Runner.
func (r *ParallelRunner) RunTrials(
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

	successes := make([]int, r.workers)

	var group errgroup.Group
	for w := 0; w < r.workers; w++ {
		start, end := r.partition(trialCount, w)
		if start == end {
			continue
		}

		worker := w
		group.Go(func() error {
			r.runPartition(scenario, p, batch.Outcomes[start:end],
				&successes[worker], worker)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return TrialBatch{}, err
	}

	for _, s := range successes {
		batch.Successes += s
	}

	return batch, nil
}

// Pause implements Runner.
func (r *ParallelRunner) Pause() {
	r.pauseLock.Lock()
}

// Continue implements Runner.
func (r *ParallelRunner) Continue() {
	r.pauseLock.Unlock()
}

// partition returns the half-open trial range owned by a worker. Ranges
// are contiguous, cover all trials, and differ in length by at most one.
func (r *ParallelRunner) partition(trialCount, worker int) (int, int) {
	base := trialCount / r.workers
	extra := trialCount % r.workers

	start := worker*base + min(worker, extra)
	end := start + base
	if worker < extra {
		end++
	}

	return start, end
}

func (r *ParallelRunner) runPartition(
	scenario Scenario,
	p float64,
	outcomes []int,
	successes *int,
	worker int,
) {
	rng := rand.New(rand.NewSource(r.seed + int64(worker)*seedStride))

	for start := 0; start < len(outcomes); start += progressChunk {
		end := start + progressChunk
		if end > len(outcomes) {
			end = len(outcomes)
		}

		r.pauseLock.RLock()
		for i := start; i < end; i++ {
			outcome, success := sampleTrial(scenario, p, rng)
			outcomes[i] = outcome
			if success {
				*successes++
			}
		}
		r.pauseLock.RUnlock()

		if r.progress != nil {
			r.progress.IncrementFinished(uint64(end - start))
		}
	}
}
