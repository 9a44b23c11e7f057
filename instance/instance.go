// Package instance loads the YAML problem-instance catalog. Each file
// describes one search instance: the dataset size, the fraction of it that
// is marked, and the confidence target used by the baseline comparison.
package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qsimlab/groverlab/amplitude"
)

// DefaultConfidence is assumed when an instance file omits the confidence
// field.
const DefaultConfidence = 0.95

// An Instance is one entry of the problem catalog. The ID is the file stem
// the instance was loaded from.
type Instance struct {
	ID          string `yaml:"-"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	DatasetSize int    `yaml:"dataset_size"`

	// MarkedFraction is the proportion of the dataset that counts as a
	// hit, strictly between 0 and 1.
	MarkedFraction float64 `yaml:"marked_fraction"`
	Confidence     float64 `yaml:"confidence"`
}

// MarkedCount returns the expected number of marked items in the dataset.
func (i Instance) MarkedCount() float64 {
	return i.MarkedFraction * float64(i.DatasetSize)
}

// Validate checks the instance invariants.
func (i Instance) Validate() error {
	if i.DatasetSize <= 0 {
		return fmt.Errorf("%w: instance %s: dataset size %d must be positive",
			amplitude.ErrInvalidConfiguration, i.ID, i.DatasetSize)
	}

	if i.MarkedFraction <= 0 || i.MarkedFraction >= 1 {
		return fmt.Errorf(
			"%w: instance %s: marked fraction %v must be in (0, 1)",
			amplitude.ErrInvalidConfiguration, i.ID, i.MarkedFraction)
	}

	if i.Confidence <= 0 || i.Confidence >= 1 {
		return fmt.Errorf("%w: instance %s: confidence %v must be in (0, 1)",
			amplitude.ErrInvalidConfiguration, i.ID, i.Confidence)
	}

	return nil
}

// LoadFile loads and validates a single instance file.
func LoadFile(path string) (Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Instance{}, fmt.Errorf("reading instance %s: %w", path, err)
	}

	inst := Instance{Confidence: DefaultConfidence}
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return Instance{}, fmt.Errorf("parsing instance %s: %w", path, err)
	}

	inst.ID = strings.TrimSuffix(filepath.Base(path),
		filepath.Ext(path))
	if inst.Name == "" {
		inst.Name = inst.ID
	}

	if err := inst.Validate(); err != nil {
		return Instance{}, err
	}

	return inst, nil
}

// LoadDir loads every *.yaml file in a directory, sorted by filename. An
// empty catalog is an error: every problem directory must define at least
// one instance.
func LoadDir(dir string) ([]Instance, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no instance files in %s",
			amplitude.ErrInvalidConfiguration, dir)
	}

	sort.Strings(paths)

	instances := make([]Instance, 0, len(paths))
	for _, path := range paths {
		inst, err := LoadFile(path)
		if err != nil {
			return nil, err
		}

		instances = append(instances, inst)
	}

	return instances, nil
}
