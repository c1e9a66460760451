// Package semantics implements the semantic scoring pipeline stage.
// It runs after transcription and shells out to the configured scorer
// with the transcript as input.
package semantics

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"murmur/internal/config"
	"murmur/internal/fileutil"
	"murmur/internal/logging"
	"murmur/internal/queue"
	"murmur/internal/services"
	"murmur/internal/services/toolexec"
	"murmur/internal/stage"
	"murmur/internal/transcription"
)

// StageName identifies this stage on job records.
const StageName = "semantics"

const stderrTailLimit = 600

// Handler runs the external scoring tool against a job's transcript.
type Handler struct {
	cfg      *config.Config
	logger   *slog.Logger
	executor *toolexec.Executor
}

// NewHandler builds the semantics stage handler.
func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, StageName),
		executor: toolexec.NewExecutor(),
	}
}

func (h *Handler) Name() string { return StageName }

// OutputPath derives the scoring artifact location from the transcript
// path, replacing the .transcript.json suffix with .semantics.json.
func OutputPath(transcriptPath string) string {
	base := strings.TrimSuffix(transcriptPath, filepath.Ext(transcriptPath))
	base = strings.TrimSuffix(base, ".transcript")
	return base + ".semantics.json"
}

// Prepare verifies the transcript produced by the previous stage exists.
func (h *Handler) Prepare(ctx context.Context, job *queue.Job) error {
	transcriptPath, ok := job.OutputFor(transcription.StageName)
	if !ok {
		return services.Wrap(services.ErrValidation, StageName, "prepare",
			"job has no transcript to score", nil)
	}
	if err := fileutil.CheckReadableFile(transcriptPath); err != nil {
		return services.Wrap(services.ErrValidation, StageName, "prepare",
			"transcript is not readable", err)
	}
	return nil
}

// Execute runs the scorer and records the scoring artifact on the job.
func (h *Handler) Execute(ctx context.Context, job *queue.Job) error {
	transcriptPath, ok := job.OutputFor(transcription.StageName)
	if !ok {
		return services.Wrap(services.ErrValidation, StageName, "execute",
			"job has no transcript to score", nil)
	}
	outputPath := OutputPath(transcriptPath)

	args := []string{
		"--input", transcriptPath,
		"--output", outputPath,
		"--threshold", strconv.FormatFloat(h.cfg.Semantics.Threshold, 'f', -1, 64),
	}
	args = append(args, h.cfg.Semantics.ExtraArgs...)

	logger := logging.WithContext(ctx, h.logger)
	logger.Info("scoring transcript",
		logging.String("input", transcriptPath),
		logging.String("output", outputPath),
		logging.String("command", h.cfg.Semantics.Command))

	runCtx := ctx
	if timeout := h.cfg.Semantics.TimeoutSeconds; timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	result, err := h.executor.Run(runCtx, toolexec.Command{
		Binary: h.cfg.Semantics.Command,
		Args:   args,
	})
	if err != nil {
		return err
	}
	if !result.Success() {
		return services.Wrap(services.ErrExternalTool, StageName, "execute",
			fmt.Sprintf("scorer exited with code %d: %s",
				result.ExitCode, result.StderrTail(stderrTailLimit)), nil)
	}
	if _, statErr := os.Stat(outputPath); statErr != nil {
		return services.Wrap(services.ErrExternalTool, StageName, "execute",
			"scorer exited cleanly but wrote no output", statErr)
	}

	job.AppendOutput(StageName, outputPath)
	logger.Info("scoring complete", logging.String("scores", outputPath))
	return nil
}

// HealthCheck reports whether the configured scorer resolves on PATH.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	command := strings.TrimSpace(h.cfg.Semantics.Command)
	if command == "" {
		return stage.Unhealthy(StageName, "semantics command not configured")
	}
	if _, err := exec.LookPath(command); err != nil {
		return stage.Unhealthy(StageName, fmt.Sprintf("binary %q not found", command))
	}
	return stage.Healthy(StageName)
}
