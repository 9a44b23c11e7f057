package estimation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qsimlab/groverlab/amplitude"
)

// A ProblemConfig names one program to estimate and the targets to run it
// against. An empty target list means all default targets.
type ProblemConfig struct {
	ID      string   `yaml:"id"`
	Program string   `yaml:"program"`
	Targets []string `yaml:"targets"`
}

// A Config drives one estimation batch.
type Config struct {
	Problems []ProblemConfig `yaml:"problems"`
}

// LoadConfig reads a batch configuration from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading estimation config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing estimation config %s: %w",
			path, err)
	}

	if len(cfg.Problems) == 0 {
		return Config{}, fmt.Errorf("%w: estimation config %s lists no problems",
			amplitude.ErrInvalidConfiguration, path)
	}

	return cfg, nil
}

// A RunRecord describes one completed estimation run and where its report
// was filed.
type RunRecord struct {
	ProblemID  string `json:"problem_id"`
	Target     string `json:"target"`
	OutputPath string `json:"output_path"`
}

// A Manager runs estimation batches and files one JSON report per run into
// a timestamped directory.
type Manager struct {
	runner    Runner
	outputDir string
	now       func() time.Time
}

// NewManager creates a Manager writing below outputDir.
func NewManager(runner Runner, outputDir string) *Manager {
	return &Manager{
		runner:    runner,
		outputDir: outputDir,
		now:       time.Now,
	}
}

// RunBatch runs every problem of the config against its targets. The first
// failure aborts the batch; estimator errors are configuration errors and
// are never retried.
func (m *Manager) RunBatch(
	ctx context.Context,
	cfg Config,
) ([]RunRecord, error) {
	batchDir := filepath.Join(m.outputDir,
		m.now().UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(batchDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating batch directory: %w", err)
	}

	var records []RunRecord

	for _, problem := range cfg.Problems {
		targets, err := resolveTargets(problem)
		if err != nil {
			return nil, err
		}

		for _, target := range targets {
			result, err := m.runner.Run(ctx, Request{
				ProblemID: problem.ID,
				Program:   problem.Program,
				Target:    target,
			})
			if err != nil {
				return nil, err
			}

			path := filepath.Join(batchDir,
				problem.ID+"__"+target.Name+".json")
			if err := writeResult(path, result); err != nil {
				return nil, err
			}

			records = append(records, RunRecord{
				ProblemID:  problem.ID,
				Target:     target.Name,
				OutputPath: path,
			})
		}
	}

	return records, nil
}

func resolveTargets(problem ProblemConfig) ([]Target, error) {
	if len(problem.Targets) == 0 {
		return DefaultTargets(), nil
	}

	targets := make([]Target, 0, len(problem.Targets))
	for _, name := range problem.Targets {
		target, ok := TargetByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: problem %s names unknown target %s",
				amplitude.ErrInvalidConfiguration, problem.ID, name)
		}

		targets = append(targets, target)
	}

	return targets, nil
}

func writeResult(path string, result Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
