// Package helmexec runs synthesized invocations as subprocesses.
package helmexec

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/nathantilsley/helm-deploy/internal/deploy/domain"
)

// Adapter implements ports.ExecutorPort by shelling out to the release tool.
type Adapter struct {
	logger *slog.Logger
}

// New creates a subprocess executor.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// Run executes one invocation. The invocation's environment overlay is
// applied to the spawned process on top of the ambient environment; ambient
// process state is never mutated. A non-zero exit propagates as an error
// unless the invocation is marked ignorable, in which case it is logged and
// swallowed.
func (a *Adapter) Run(ctx context.Context, inv domain.Invocation) error {
	bin, err := exec.LookPath(inv.Name)
	if err != nil {
		return fmt.Errorf("%s binary not found: %w", inv.Name, err)
	}

	cmd := exec.CommandContext(ctx, bin, inv.Args...)
	cmd.Env = append(os.Environ(), inv.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	a.logger.Info("running command", "name", inv.Name, "args", inv.Args)
	if err := cmd.Run(); err != nil {
		if inv.IgnoreFailure {
			a.logger.Warn("ignoring command failure",
				"name", inv.Name, "error", err, "stderr", stderr.String())
			return nil
		}
		return fmt.Errorf("%s failed: %w\nstderr: %s", inv.Name, err, stderr.String())
	}

	a.logger.Debug("command completed", "name", inv.Name, "output", stdout.String())
	return nil
}
