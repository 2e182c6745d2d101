// Package slurm wraps submission and status queries against the external
// batch scheduler. It is the only package that shells out to the scheduler
// CLI.
package slurm

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/pkg/errors"
)

// CommandRunner executes a scheduler command and returns its output. The
// context bounds execution time; implementations must kill the process when
// the deadline passes.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, exitCode int, err error)
}

type execRunner struct{}

// NewCommandRunner returns a CommandRunner backed by os/exec.
func NewCommandRunner() CommandRunner {
	return &execRunner{}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return stdout.String(), stderr.String(), -1, errors.Wrapf(ctx.Err(), "command %s timed out", name)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
		}
		return stdout.String(), stderr.String(), -1, errors.Wrapf(err, "failed to run command %s", name)
	}

	return stdout.String(), stderr.String(), 0, nil
}
