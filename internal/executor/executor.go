package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// Runner locates executables and runs them, capturing their output
type Runner struct {
	logger *zap.Logger
}

// New creates a runner that logs through logger
func New(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger.Named("executor")}
}

// LookPath reports the resolved path of name on PATH
func (r *Runner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		r.logger.Debug("executable not found", zap.String("name", name))
		return "", err
	}
	return path, nil
}

// CombinedOutput runs name with args and returns stdout and stderr interleaved.
// Stdin is left unattached so a command waiting for input sees EOF.
func (r *Runner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	r.logger.Debug("running", zap.String("name", name), zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			r.logger.Debug("command failed", zap.String("name", name), zap.Int("exit_code", exitErr.ExitCode()))
		} else {
			r.logger.Debug("command failed", zap.String("name", name), zap.Error(err))
		}
		return out.Bytes(), fmt.Errorf("command failed: %w", err)
	}

	return out.Bytes(), nil
}
