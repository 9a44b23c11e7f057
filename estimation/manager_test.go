package estimation_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/qsimlab/groverlab/amplitude"
	"github.com/qsimlab/groverlab/estimation"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "estimation.yaml")
	err := os.WriteFile(path, []byte(`
problems:
  - id: 15_database_search
    program: problems/15_database_search/grover.qs
    targets: [surface_code_generic_v1]
  - id: 09_factorization
    program: problems/09_factorization/shor.qs
`), 0o644)
	require.NoError(t, err)

	cfg, err := estimation.LoadConfig(path)

	require.NoError(t, err)
	require.Len(t, cfg.Problems, 2)
	assert.Equal(t, []string{"surface_code_generic_v1"},
		cfg.Problems[0].Targets)
	assert.Empty(t, cfg.Problems[1].Targets)
}

func TestLoadConfig_NoProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("problems: []\n"), 0o644))

	_, err := estimation.LoadConfig(path)
	require.ErrorIs(t, err, amplitude.ErrInvalidConfiguration)
}

func TestManager_RunBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := estimation.NewMockRunner(ctrl)

	runner.EXPECT().
		Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(
			_ context.Context,
			req estimation.Request,
		) (estimation.Result, error) {
			return estimation.Result{
				ProblemID: req.ProblemID,
				Target:    req.Target.Name,
				Payload:   json.RawMessage(`{"logical_qubits": 7}`),
			}, nil
		}).
		Times(4)

	outputDir := t.TempDir()
	manager := estimation.NewManager(runner, outputDir)

	records, err := manager.RunBatch(context.Background(), estimation.Config{
		Problems: []estimation.ProblemConfig{
			{
				ID:      "15_database_search",
				Program: "grover.qs",
				Targets: []string{"surface_code_generic_v1"},
			},
			{
				// No explicit targets: runs against all defaults.
				ID:      "09_factorization",
				Program: "shor.qs",
			},
		},
	})

	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "15_database_search", records[0].ProblemID)
	assert.Equal(t, "surface_code_generic_v1", records[0].Target)

	for _, record := range records {
		data, err := os.ReadFile(record.OutputPath)
		require.NoError(t, err)

		var result estimation.Result
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, record.ProblemID, result.ProblemID)
		assert.Equal(t, record.Target, result.Target)
	}
}

func TestManager_RunBatch_UnknownTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := estimation.NewMockRunner(ctrl)

	manager := estimation.NewManager(runner, t.TempDir())

	_, err := manager.RunBatch(context.Background(), estimation.Config{
		Problems: []estimation.ProblemConfig{
			{ID: "bad", Program: "bad.qs", Targets: []string{"nope"}},
		},
	})

	require.ErrorIs(t, err, amplitude.ErrInvalidConfiguration)
}

func TestManager_RunBatch_SurfacesRunnerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := estimation.NewMockRunner(ctrl)

	runner.EXPECT().
		Run(gomock.Any(), gomock.Any()).
		Return(estimation.Result{}, estimation.ErrEstimatorFailed)

	manager := estimation.NewManager(runner, t.TempDir())

	_, err := manager.RunBatch(context.Background(), estimation.Config{
		Problems: []estimation.ProblemConfig{
			{
				ID:      "15_database_search",
				Program: "grover.qs",
				Targets: []string{"surface_code_generic_v1"},
			},
		},
	})

	require.ErrorIs(t, err, estimation.ErrEstimatorFailed)
}
