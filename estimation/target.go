// Package estimation wraps the external quantum resource-estimator CLI.
// It runs the estimator for problem programs against standardized hardware
// targets and writes one JSON report per run. The estimator itself is an
// opaque external collaborator; this package only shells out, validates the
// output, and files it.
package estimation

// A Target is a standardized hardware model the estimator is run against.
type Target struct {
	Name        string
	Description string
	ErrorBudget float64
	Constraints map[string]string
}

// DefaultTargets returns the standard estimator targets, in a fixed order.
func DefaultTargets() []Target {
	return []Target{
		{
			Name:        "surface_code_generic_v1",
			Description: "Generic surface code with standard parameters",
			ErrorBudget: 0.001,
			Constraints: map[string]string{"max_duration": "1 hour"},
		},
		{
			Name:        "qubit_gate_ns_e3",
			Description: "Gate-based model, 1us gate time, 1e-3 error rate",
			ErrorBudget: 0.001,
			Constraints: map[string]string{"max_duration": "1 day"},
		},
		{
			Name:        "qubit_gate_ns_e4",
			Description: "Gate-based model, 1us gate time, 1e-4 error rate",
			ErrorBudget: 0.0001,
			Constraints: map[string]string{"max_duration": "1 week"},
		},
	}
}

// TargetByName looks up a default target.
func TargetByName(name string) (Target, bool) {
	for _, t := range DefaultTargets() {
		if t.Name == name {
			return t, true
		}
	}

	return Target{}, false
}
