// Package experiment wires runners, recording, and monitoring into a single
// reproducible amplitude-amplification study.
package experiment

import (
	"fmt"

	"github.com/qsimlab/groverlab/amplitude"
	"github.com/qsimlab/groverlab/datarecording"
	"github.com/qsimlab/groverlab/monitoring"
	"github.com/qsimlab/groverlab/search"
)

const (
	trialTable = "trial_outcomes"
	batchTable = "trial_batches"
)

// TrialRecord is one simulated measurement outcome, stored per trial when
// trial recording is enabled.
type TrialRecord struct {
	Scenario string
	Trial    int
	Outcome  int
	Success  bool
}

// BatchRecord summarizes one completed batch of trials.
type BatchRecord struct {
	Scenario             string
	SpaceSize            int
	MarkedCount          int
	Iterations           int
	PredictedProbability float64
	Trials               int
	Successes            int
	EmpiricalRate        float64
}

// progressRunner is implemented by runners that can report progress.
type progressRunner interface {
	SetProgress(search.ProgressObserver)
}

// An Experiment holds the scenarios under study together with the runner
// that samples them, the data recorder the results go to, and an optional
// monitor. It is created with a Builder.
type Experiment struct {
	id   string
	name string

	runner   search.Runner
	recorder datarecording.DataRecorder
	monitor  *monitoring.Monitor

	scenarios     []search.Scenario
	scenarioNames []string
	scenarioIndex map[string]int

	recordTrials bool
}

// ID returns the unique ID of the experiment.
func (e *Experiment) ID() string { return e.id }

// Name implements monitoring.Run.
func (e *Experiment) Name() string { return e.name }

// Pause implements monitoring.Run by pausing the runner.
func (e *Experiment) Pause() { e.runner.Pause() }

// Continue implements monitoring.Run by resuming the runner.
func (e *Experiment) Continue() { e.runner.Continue() }

// Runner returns the runner that samples the trials.
func (e *Experiment) Runner() search.Runner { return e.runner }

// DataRecorder returns the recorder the results are written to.
func (e *Experiment) DataRecorder() datarecording.DataRecorder {
	return e.recorder
}

// Monitor returns the monitor, or nil when monitoring is disabled.
func (e *Experiment) Monitor() *monitoring.Monitor { return e.monitor }

// RegisterScenario adds a named scenario to the experiment.
func (e *Experiment) RegisterScenario(name string, s search.Scenario) {
	if _, exists := e.scenarioIndex[name]; exists {
		panic("scenario " + name + " already registered")
	}

	e.scenarios = append(e.scenarios, s)
	e.scenarioNames = append(e.scenarioNames, name)
	e.scenarioIndex[name] = len(e.scenarios) - 1
}

// ScenarioNames returns the registered scenario names in registration order.
func (e *Experiment) ScenarioNames() []string {
	names := make([]string, len(e.scenarioNames))
	copy(names, e.scenarioNames)

	return names
}

// GetScenarioByName returns the scenario registered under the given name.
func (e *Experiment) GetScenarioByName(name string) (search.Scenario, error) {
	index, ok := e.scenarioIndex[name]
	if !ok {
		return search.Scenario{}, fmt.Errorf(
			"%w: scenario %q is not registered",
			amplitude.ErrInvalidConfiguration, name)
	}

	return e.scenarios[index], nil
}

// RunScenario samples trialCount outcomes for a registered scenario and
// records the results. A negative iteration count means the optimal round
// count for the scenario is planned automatically.
func (e *Experiment) RunScenario(
	name string,
	iterations, trialCount int,
) (search.TrialBatch, error) {
	scenario, err := e.GetScenarioByName(name)
	if err != nil {
		return search.TrialBatch{}, err
	}

	if iterations < 0 {
		iterations = amplitude.PlanIterations(scenario.MarkedFraction())
	}

	detach := e.attachProgress(name, trialCount)
	batch, err := e.runner.RunTrials(scenario, iterations, trialCount)
	detach()

	if err != nil {
		return search.TrialBatch{}, err
	}

	e.record(name, scenario, batch)

	return batch, nil
}

// attachProgress creates a progress bar on the monitor and points the
// runner at it. The returned function completes the bar and detaches it.
func (e *Experiment) attachProgress(name string, trialCount int) func() {
	pr, ok := e.runner.(progressRunner)
	if e.monitor == nil || !ok {
		return func() {}
	}

	bar := e.monitor.CreateProgressBar(
		e.name+": "+name, uint64(trialCount))
	pr.SetProgress(bar)

	return func() {
		pr.SetProgress(nil)
		e.monitor.CompleteProgressBar(bar)
	}
}

func (e *Experiment) record(
	name string,
	scenario search.Scenario,
	batch search.TrialBatch,
) {
	e.recorder.InsertData(batchTable, BatchRecord{
		Scenario:             name,
		SpaceSize:            batch.SpaceSize,
		MarkedCount:          batch.MarkedCount,
		Iterations:           batch.IterationsUsed,
		PredictedProbability: batch.PredictedProbability,
		Trials:               batch.TrialCount(),
		Successes:            batch.Successes,
		EmpiricalRate:        batch.EmpiricalSuccessRate(),
	})

	if !e.recordTrials {
		return
	}

	for i, outcome := range batch.Outcomes {
		e.recorder.InsertData(trialTable, TrialRecord{
			Scenario: name,
			Trial:    i,
			Outcome:  outcome,
			Success:  scenario.IsMarked(outcome),
		})
	}
}

// Terminate closes the data recorder and stops the monitor server. It must
// be called exactly once at the end of the experiment.
func (e *Experiment) Terminate() {
	if err := e.recorder.Close(); err != nil {
		panic(err)
	}

	if e.monitor != nil {
		e.monitor.StopServer()
	}
}
