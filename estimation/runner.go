package estimation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

//go:generate mockgen -source runner.go -destination mock_runner.go -package estimation

// ErrEstimatorFailed indicates that the external estimator CLI exited with
// an error.
var ErrEstimatorFailed = errors.New("resource estimator invocation failed")

// ErrMalformedOutput indicates that the estimator produced output that is
// not valid JSON.
var ErrMalformedOutput = errors.New("resource estimator produced malformed output")

// A Request describes one estimation run: the program file handed to the
// external CLI and the hardware target to estimate against.
type Request struct {
	ProblemID string
	Program   string
	Target    Target
}

// A Result holds the raw JSON payload the estimator produced for one run.
type Result struct {
	ProblemID string          `json:"problem_id"`
	Target    string          `json:"target"`
	Payload   json.RawMessage `json:"payload"`
}

// A Runner executes estimation requests. The CLI-backed implementation is
// CLIRunner; tests substitute a mock.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// A Workspace identifies the remote estimation workspace the CLI submits
// to. Zero value means the CLI's own default workspace.
type Workspace struct {
	Name          string
	ResourceGroup string
	Location      string
}

// WorkspaceFromEnv reads the workspace from the environment, loading a
// .env file first when one is present in the working directory.
func WorkspaceFromEnv() Workspace {
	_ = godotenv.Load()

	return Workspace{
		Name:          os.Getenv("GROVERLAB_WORKSPACE"),
		ResourceGroup: os.Getenv("GROVERLAB_RESOURCE_GROUP"),
		Location:      os.Getenv("GROVERLAB_LOCATION"),
	}
}

// CLIRunner runs the external resource-estimator CLI.
type CLIRunner struct {
	Command   string
	Workspace Workspace
}

// NewCLIRunner creates a runner for the given estimator command.
func NewCLIRunner(command string) *CLIRunner {
	return &CLIRunner{Command: command}
}

// WithWorkspace sets the workspace the CLI submits to.
func (r *CLIRunner) WithWorkspace(ws Workspace) *CLIRunner {
	r.Workspace = ws
	return r
}

// Run implements Runner. The CLI is expected to print a single JSON
// document on stdout.
func (r *CLIRunner) Run(ctx context.Context, req Request) (Result, error) {
	cmd := exec.CommandContext(ctx, r.Command, r.buildArgs(req)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("%w: %s for target %s: %v: %s",
			ErrEstimatorFailed, req.Program, req.Target.Name, err,
			strings.TrimSpace(stderr.String()))
	}

	payload := bytes.TrimSpace(stdout.Bytes())
	if !json.Valid(payload) {
		return Result{}, fmt.Errorf("%w: %s for target %s",
			ErrMalformedOutput, req.Program, req.Target.Name)
	}

	return Result{
		ProblemID: req.ProblemID,
		Target:    req.Target.Name,
		Payload:   json.RawMessage(payload),
	}, nil
}

func (r *CLIRunner) buildArgs(req Request) []string {
	args := []string{
		"estimate",
		"--program", req.Program,
		"--target", req.Target.Name,
		"--error-budget", strconv.FormatFloat(
			req.Target.ErrorBudget, 'g', -1, 64),
		"--output", "json",
	}

	for _, key := range sortedKeys(req.Target.Constraints) {
		args = append(args, "--constraint",
			key+"="+req.Target.Constraints[key])
	}

	if r.Workspace.Name != "" {
		args = append(args,
			"--workspace-name", r.Workspace.Name,
			"--resource-group", r.Workspace.ResourceGroup)
		if r.Workspace.Location != "" {
			args = append(args, "--location", r.Workspace.Location)
		}
	}

	return args
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
