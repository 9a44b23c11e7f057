package estimation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "estimator.sh")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755)
	require.NoError(t, err)

	return path
}

func TestCLIRunner_BuildArgs(t *testing.T) {
	target, ok := TargetByName("qubit_gate_ns_e4")
	require.True(t, ok)

	runner := NewCLIRunner("qre").WithWorkspace(Workspace{
		Name:          "lab",
		ResourceGroup: "research",
		Location:      "eastus",
	})

	args := runner.buildArgs(Request{
		ProblemID: "15_database_search",
		Program:   "grover.qs",
		Target:    target,
	})

	assert.Equal(t, []string{
		"estimate",
		"--program", "grover.qs",
		"--target", "qubit_gate_ns_e4",
		"--error-budget", "0.0001",
		"--output", "json",
		"--constraint", "max_duration=1 week",
		"--workspace-name", "lab",
		"--resource-group", "research",
		"--location", "eastus",
	}, args)
}

func TestCLIRunner_Run(t *testing.T) {
	script := writeScript(t, `echo '{"logical_qubits": 5, "runtime_ns": 120}'`)
	target, _ := TargetByName("surface_code_generic_v1")

	result, err := NewCLIRunner(script).Run(context.Background(), Request{
		ProblemID: "15_database_search",
		Program:   "grover.qs",
		Target:    target,
	})

	require.NoError(t, err)
	assert.Equal(t, "15_database_search", result.ProblemID)
	assert.Equal(t, "surface_code_generic_v1", result.Target)
	assert.JSONEq(t, `{"logical_qubits": 5, "runtime_ns": 120}`,
		string(result.Payload))
}

func TestCLIRunner_Run_CommandFails(t *testing.T) {
	script := writeScript(t, `echo "workspace not found" >&2; exit 1`)
	target, _ := TargetByName("surface_code_generic_v1")

	_, err := NewCLIRunner(script).Run(context.Background(), Request{
		Program: "grover.qs",
		Target:  target,
	})

	require.ErrorIs(t, err, ErrEstimatorFailed)
	assert.Contains(t, err.Error(), "workspace not found")
}

func TestCLIRunner_Run_MalformedOutput(t *testing.T) {
	script := writeScript(t, `echo "this is not json"`)
	target, _ := TargetByName("surface_code_generic_v1")

	_, err := NewCLIRunner(script).Run(context.Background(), Request{
		Program: "grover.qs",
		Target:  target,
	})

	require.ErrorIs(t, err, ErrMalformedOutput)
}

func TestDefaultTargets(t *testing.T) {
	targets := DefaultTargets()

	require.Len(t, targets, 3)
	assert.Equal(t, "surface_code_generic_v1", targets[0].Name)

	_, ok := TargetByName("no_such_target")
	assert.False(t, ok)
}
