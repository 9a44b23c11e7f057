package experiment

import (
	"github.com/rs/xid"

	"github.com/qsimlab/groverlab/datarecording"
	"github.com/qsimlab/groverlab/monitoring"
	"github.com/qsimlab/groverlab/search"
)

// Builder can be used to build an experiment.
type Builder struct {
	name           string
	seed           int64
	parallelRunner bool
	workers        int
	monitorOn      bool
	monitorPort    int
	outputFileName string
	recordTrials   bool
}

// MakeBuilder creates a new builder with the default configuration: a
// serial runner with seed 0, monitoring on, batch-level recording only.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithName sets the experiment name shown by the monitor.
func (b Builder) WithName(name string) Builder {
	b.name = name
	return b
}

// WithSeed sets the seed all randomness is derived from.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithParallelRunner sets the experiment to sample trials across the given
// number of workers. A non-positive count defaults to GOMAXPROCS.
func (b Builder) WithParallelRunner(workers int) Builder {
	b.parallelRunner = true
	b.workers = workers
	return b
}

// WithoutMonitoring sets the experiment to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port the monitor server listens on.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithTrialRecording sets the experiment to record every individual trial
// outcome in addition to the batch summaries.
func (b Builder) WithTrialRecording() Builder {
	b.recordTrials = true
	return b
}

// Build builds the experiment.
func (b Builder) Build() *Experiment {
	e := &Experiment{
		scenarioIndex: make(map[string]int),
		recordTrials:  b.recordTrials,
	}

	e.id = xid.New().String()
	e.name = b.name
	if e.name == "" {
		e.name = "groverlab_exp_" + e.id
	}

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "groverlab_run_" + e.id
	}
	e.recorder = datarecording.NewRecorder(outputPath)
	e.recorder.CreateTable(batchTable, BatchRecord{})
	if b.recordTrials {
		e.recorder.CreateTable(trialTable, TrialRecord{})
	}

	e.runner = search.NewSerialRunner(b.seed)
	if b.parallelRunner {
		e.runner = search.NewParallelRunner(b.seed, b.workers)
	}

	if b.monitorOn {
		e.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			e.monitor = e.monitor.WithPortNumber(b.monitorPort)
		}
		e.monitor.RegisterRun(e)
		e.monitor.StartServer()
	}

	return e
}
