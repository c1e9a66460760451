// Package transcription implements the speech-to-text pipeline stage.
// It shells out to the configured transcriber and records the transcript
// artifact on the job.
package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"murmur/internal/config"
	"murmur/internal/fileutil"
	"murmur/internal/language"
	"murmur/internal/logging"
	"murmur/internal/queue"
	"murmur/internal/services"
	"murmur/internal/services/toolexec"
	"murmur/internal/stage"
)

// StageName identifies this stage on job records.
const StageName = "transcription"

// MetadataLocaleKey is the job metadata key carrying a language hint.
const MetadataLocaleKey = "locale"

const stderrTailLimit = 600

// Handler runs the external transcription tool for each claimed job.
type Handler struct {
	cfg      *config.Config
	logger   *slog.Logger
	executor *toolexec.Executor
}

// NewHandler builds the transcription stage handler.
func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, StageName),
		executor: toolexec.NewExecutor(),
	}
}

func (h *Handler) Name() string { return StageName }

// OutputPath derives the transcript location for an audio clip.
// The transcript is written beside the input as <base>.transcript.json.
func OutputPath(audioPath string) string {
	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	return base + ".transcript.json"
}

// Prepare verifies the audio file is still readable before the tool runs.
func (h *Handler) Prepare(ctx context.Context, job *queue.Job) error {
	if err := fileutil.CheckReadableFile(job.AudioPath); err != nil {
		return services.Wrap(services.ErrValidation, StageName, "prepare",
			"audio file is not readable", err)
	}
	return nil
}

// Execute runs the transcriber and records the transcript on the job.
func (h *Handler) Execute(ctx context.Context, job *queue.Job) error {
	outputPath := OutputPath(job.AudioPath)
	args := h.buildArgs(job, outputPath)

	logger := logging.WithContext(ctx, h.logger)
	logger.Info("transcribing audio",
		logging.String("input", job.AudioPath),
		logging.String("output", outputPath),
		logging.String("command", h.cfg.Transcription.Command))

	runCtx := ctx
	if timeout := h.cfg.Transcription.TimeoutSeconds; timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	result, err := h.executor.Run(runCtx, toolexec.Command{
		Binary: h.cfg.Transcription.Command,
		Args:   args,
	})
	if err != nil {
		return err
	}
	if !result.Success() {
		return services.Wrap(services.ErrExternalTool, StageName, "execute",
			fmt.Sprintf("transcriber exited with code %d: %s",
				result.ExitCode, result.StderrTail(stderrTailLimit)), nil)
	}
	if _, statErr := os.Stat(outputPath); statErr != nil {
		return services.Wrap(services.ErrExternalTool, StageName, "execute",
			"transcriber exited cleanly but wrote no transcript", statErr)
	}

	job.AppendOutput(StageName, outputPath)
	logger.Info("transcription complete", logging.String("transcript", outputPath))
	return nil
}

// HealthCheck reports whether the configured transcriber resolves on PATH.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	command := strings.TrimSpace(h.cfg.Transcription.Command)
	if command == "" {
		return stage.Unhealthy(StageName, "transcription command not configured")
	}
	if _, err := exec.LookPath(command); err != nil {
		return stage.Unhealthy(StageName, fmt.Sprintf("binary %q not found", command))
	}
	return stage.Healthy(StageName)
}

func (h *Handler) buildArgs(job *queue.Job, outputPath string) []string {
	args := []string{
		"--input", job.AudioPath,
		"--output", outputPath,
	}
	if model := strings.TrimSpace(h.cfg.Transcription.Model); model != "" {
		args = append(args, "--model", model)
	}
	if hint, ok := job.Meta(MetadataLocaleKey); ok {
		lang := hint
		if normalized, ok := language.Normalize(hint); ok {
			lang = normalized
		}
		if lang = strings.TrimSpace(lang); lang != "" {
			args = append(args, "--language", lang)
		}
	}
	args = append(args, h.cfg.Transcription.ExtraArgs...)
	return args
}
