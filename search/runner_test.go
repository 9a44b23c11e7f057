package search_test

import (
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qsimlab/groverlab/amplitude"
	"github.com/qsimlab/groverlab/search"
)

type countingObserver struct {
	total uint64
}

func (o *countingObserver) IncrementFinished(amount uint64) {
	o.total += amount
}

// atomicObserver is safe for use from parallel workers.
type atomicObserver struct {
	total atomic.Uint64
}

func (o *atomicObserver) IncrementFinished(amount uint64) {
	o.total.Add(amount)
}

func (o *atomicObserver) Total() uint64 {
	return o.total.Load()
}

var _ = Describe("SerialRunner", func() {
	var scenario search.Scenario

	BeforeEach(func() {
		var err error
		scenario, err = search.NewScenario(16, []int{7})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should sample a batch that matches its configuration", func() {
		runner := search.NewSerialRunner(42)

		batch, err := runner.RunTrials(scenario, 2, 1000)

		Expect(err).NotTo(HaveOccurred())
		Expect(batch.TrialCount()).To(Equal(1000))
		Expect(batch.SpaceSize).To(Equal(16))
		Expect(batch.MarkedCount).To(Equal(1))
		Expect(batch.IterationsUsed).To(Equal(2))
		Expect(batch.PredictedProbability).
			To(BeNumerically("~", 0.908447265625, 1e-12))
	})

	It("should only produce in-range outcomes and count successes", func() {
		batch, err := search.NewSerialRunner(42).RunTrials(scenario, 2, 1000)
		Expect(err).NotTo(HaveOccurred())

		successes := 0
		for _, outcome := range batch.Outcomes {
			Expect(outcome).To(SatisfyAll(
				BeNumerically(">=", 0),
				BeNumerically("<", 16),
			))
			if outcome == 7 {
				successes++
			}
		}

		Expect(batch.Successes).To(Equal(successes))
	})

	It("should converge to the analytic success probability", func() {
		batch, err := search.NewSerialRunner(42).RunTrials(scenario, 2, 1000)
		Expect(err).NotTo(HaveOccurred())

		Expect(batch.EmpiricalSuccessRate()).
			To(BeNumerically("~", batch.PredictedProbability, 0.05))
	})

	It("should reproduce a batch from the same seed", func() {
		first, err := search.NewSerialRunner(7).RunTrials(scenario, 2, 500)
		Expect(err).NotTo(HaveOccurred())

		second, err := search.NewSerialRunner(7).RunTrials(scenario, 2, 500)
		Expect(err).NotTo(HaveOccurred())

		Expect(second.Outcomes).To(Equal(first.Outcomes))
		Expect(second.Successes).To(Equal(first.Successes))
	})

	It("should sample the base fraction when no rounds are applied", func() {
		batch, err := search.NewSerialRunner(42).RunTrials(scenario, 0, 1000)
		Expect(err).NotTo(HaveOccurred())

		Expect(batch.PredictedProbability).
			To(BeNumerically("~", 1.0/16, 1e-12))
		Expect(batch.EmpiricalSuccessRate()).
			To(BeNumerically("~", 1.0/16, 0.05))
	})

	It("should report progress for every trial exactly once", func() {
		observer := &countingObserver{}
		runner := search.NewSerialRunner(42).WithProgress(observer)

		_, err := runner.RunTrials(scenario, 2, 2500)

		Expect(err).NotTo(HaveOccurred())
		Expect(observer.total).To(Equal(uint64(2500)))
	})

	It("should reject a non-positive trial count", func() {
		_, err := search.NewSerialRunner(42).RunTrials(scenario, 2, 0)
		Expect(err).To(MatchError(amplitude.ErrInvalidConfiguration))
	})

	It("should reject a zero-value scenario", func() {
		_, err := search.NewSerialRunner(42).
			RunTrials(search.Scenario{}, 2, 100)
		Expect(err).To(MatchError(amplitude.ErrInvalidConfiguration))
	})

	It("should reject a negative round count", func() {
		_, err := search.NewSerialRunner(42).RunTrials(scenario, -1, 100)
		Expect(err).To(MatchError(amplitude.ErrDomainPrecondition))
	})
})

var _ = Describe("ParallelRunner", func() {
	var scenario search.Scenario

	BeforeEach(func() {
		var err error
		scenario, err = search.NewScenario(32, []int{3, 9, 14, 21})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should default the worker count to the machine size", func() {
		runner := search.NewParallelRunner(1, 0)
		Expect(runner.Workers()).To(BeNumerically(">", 0))
	})

	It("should sample a complete batch across workers", func() {
		runner := search.NewParallelRunner(42, 4)

		batch, err := runner.RunTrials(scenario, 2, 1000)

		Expect(err).NotTo(HaveOccurred())
		Expect(batch.TrialCount()).To(Equal(1000))

		successes := 0
		for _, outcome := range batch.Outcomes {
			Expect(outcome).To(SatisfyAll(
				BeNumerically(">=", 0),
				BeNumerically("<", 32),
			))
			if scenario.IsMarked(outcome) {
				successes++
			}
		}
		Expect(batch.Successes).To(Equal(successes))
	})

	It("should converge to the analytic success probability", func() {
		runner := search.NewParallelRunner(42, 4)

		batch, err := runner.RunTrials(scenario, 2, 2000)

		Expect(err).NotTo(HaveOccurred())
		Expect(batch.PredictedProbability).
			To(BeNumerically("~", 0.9453125, 1e-12))
		Expect(batch.EmpiricalSuccessRate()).
			To(BeNumerically("~", batch.PredictedProbability, 0.05))
	})

	It("should reproduce a batch from the same seed and worker count", func() {
		first, err := search.NewParallelRunner(7, 4).
			RunTrials(scenario, 2, 1003)
		Expect(err).NotTo(HaveOccurred())

		second, err := search.NewParallelRunner(7, 4).
			RunTrials(scenario, 2, 1003)
		Expect(err).NotTo(HaveOccurred())

		Expect(second.Outcomes).To(Equal(first.Outcomes))
		Expect(second.Successes).To(Equal(first.Successes))
	})

	It("should report progress for every trial exactly once", func() {
		bar := &atomicObserver{}
		runner := search.NewParallelRunner(42, 3).WithProgress(bar)

		_, err := runner.RunTrials(scenario, 2, 4096)

		Expect(err).NotTo(HaveOccurred())
		Expect(bar.Total()).To(Equal(uint64(4096)))
	})

	It("should handle more workers than trials", func() {
		batch, err := search.NewParallelRunner(42, 8).
			RunTrials(scenario, 2, 3)

		Expect(err).NotTo(HaveOccurred())
		Expect(batch.TrialCount()).To(Equal(3))
	})

	It("should reject invalid configurations like the serial runner", func() {
		_, err := search.NewParallelRunner(42, 4).RunTrials(scenario, 2, -5)
		Expect(err).To(MatchError(amplitude.ErrInvalidConfiguration))
	})

	It("should hold every worker at its chunk boundary while paused", func() {
		bar := &atomicObserver{}
		runner := search.NewParallelRunner(42, 4).WithProgress(bar)

		runner.Pause()

		done := make(chan search.TrialBatch, 1)
		go func() {
			defer GinkgoRecover()
			batch, err := runner.RunTrials(scenario, 2, 8192)
			Expect(err).NotTo(HaveOccurred())
			done <- batch
		}()

		Consistently(bar.Total, "100ms").Should(Equal(uint64(0)))

		runner.Continue()

		var batch search.TrialBatch
		Eventually(done, "5s").Should(Receive(&batch))
		Expect(batch.TrialCount()).To(Equal(8192))
		Expect(bar.Total()).To(Equal(uint64(8192)))
	})
})
