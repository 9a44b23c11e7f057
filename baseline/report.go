package baseline

import (
	"encoding/json"
	"io"
	"math"

	"github.com/qsimlab/groverlab/instance"
)

// ModelName identifies the baseline model in report payloads.
const ModelName = "classical_exhaustive_search"

// Metrics holds the per-instance comparison numbers. Query counts are
// clamped to at least one so that the speedup factor stays meaningful for
// degenerate instances.
type Metrics struct {
	ClassicalQueries float64 `json:"classical_queries"`
	QuantumRounds    int     `json:"quantum_rounds"`
	SpeedupFactor    float64 `json:"speedup_factor"`
}

// A Comparison is the baseline result for one instance.
type Comparison struct {
	InstanceID     string  `json:"instance_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	DatasetSize    int     `json:"dataset_size"`
	MarkedFraction float64 `json:"marked_fraction"`
	Confidence     float64 `json:"confidence"`
	Metrics        Metrics `json:"metrics"`
}

// A Report collects the comparisons for one problem.
type Report struct {
	ProblemID string       `json:"problem_id"`
	Model     string       `json:"model"`
	Results   []Comparison `json:"results"`
}

// Compare computes the classical and quantum query counts for an instance.
func Compare(inst instance.Instance) (Comparison, error) {
	classical, err := ClassicalQueries(inst.MarkedFraction, inst.Confidence)
	if err != nil {
		return Comparison{}, err
	}

	rounds, _, err := RoundsToConfidence(inst.MarkedFraction, inst.Confidence)
	if err != nil {
		return Comparison{}, err
	}

	quantumQueries := rounds
	if quantumQueries < 1 {
		quantumQueries = 1
	}

	classicalQueries := math.Max(classical, 1)

	return Comparison{
		InstanceID:     inst.ID,
		Name:           inst.Name,
		Description:    inst.Description,
		DatasetSize:    inst.DatasetSize,
		MarkedFraction: inst.MarkedFraction,
		Confidence:     inst.Confidence,
		Metrics: Metrics{
			ClassicalQueries: classicalQueries,
			QuantumRounds:    quantumQueries,
			SpeedupFactor:    classicalQueries / float64(quantumQueries),
		},
	}, nil
}

// BuildReport compares every instance and assembles the report payload.
func BuildReport(
	problemID string,
	instances []instance.Instance,
) (Report, error) {
	report := Report{
		ProblemID: problemID,
		Model:     ModelName,
		Results:   make([]Comparison, 0, len(instances)),
	}

	for _, inst := range instances {
		comparison, err := Compare(inst)
		if err != nil {
			return Report{}, err
		}

		report.Results = append(report.Results, comparison)
	}

	return report, nil
}

// Encode writes the report as indented JSON.
func (r Report) Encode(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(r)
}
