// Package toolexec runs external analysis tools and normalizes their
// outcomes. A tool that starts and exits non-zero is reported as a
// Result, not an error; failing to start the process at all is an error
// classified under services.ErrLaunch.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"murmur/internal/services"
)

// Command describes one external tool invocation.
type Command struct {
	Binary string
	Args   []string
	Dir    string
	Env    []string
}

// Result captures the observable outcome of a completed process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the process exited cleanly.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// StderrTail returns the last portion of stderr for failure messages.
func (r Result) StderrTail(limit int) string {
	trimmed := strings.TrimSpace(r.Stderr)
	if limit <= 0 || len(trimmed) <= limit {
		return trimmed
	}
	return "..." + trimmed[len(trimmed)-limit:]
}

// Executor launches external tool processes.
type Executor struct {
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewExecutor returns an executor backed by os/exec.
func NewExecutor() *Executor {
	return &Executor{commandContext: exec.CommandContext}
}

// Run starts the tool and waits for it to finish. Non-zero exits are
// returned in the Result so callers can attach stage context; only
// launch problems and context cancellation produce errors.
func (e *Executor) Run(ctx context.Context, command Command) (Result, error) {
	var result Result
	binary := strings.TrimSpace(command.Binary)
	if binary == "" {
		return result, services.Wrap(services.ErrConfiguration, "", "toolexec", "tool command is empty", nil)
	}

	cmd := e.commandContext(ctx, binary, command.Args...) //nolint:gosec
	if command.Dir != "" {
		cmd.Dir = command.Dir
	}
	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, classifyContextError(ctxErr, binary)
		}
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, classifyContextError(ctxErr, binary)
	}
	return result, launchError(binary, err)
}

func classifyContextError(ctxErr error, binary string) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "", "toolexec", binary+" timed out", ctxErr)
	}
	return services.Wrap(services.ErrTimeout, "", "toolexec", binary+" canceled", ctxErr)
}

func launchError(binary string, err error) error {
	message := "failed to launch " + binary
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		message = binary + " not found on PATH"
	}
	return services.Wrap(services.ErrLaunch, "", "toolexec", message, err)
}
