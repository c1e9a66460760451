package transcription_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"murmur/internal/logging"
	"murmur/internal/queue"
	"murmur/internal/services"
	"murmur/internal/testsupport"
	"murmur/internal/transcription"
)

func TestOutputPath(t *testing.T) {
	cases := map[string]string{
		"/clips/voice.wav":       "/clips/voice.transcript.json",
		"/clips/voice.mp3":       "/clips/voice.transcript.json",
		"/clips/no-extension":    "/clips/no-extension.transcript.json",
		"/clips/dots.in.name.m4a": "/clips/dots.in.name.transcript.json",
	}
	for input, want := range cases {
		if got := transcription.OutputPath(input); got != want {
			t.Fatalf("OutputPath(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestExecuteWritesTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	cfg.Transcription.Command = testsupport.CopyTool(t, dir, "transcriber")

	audio := testsupport.WriteAudio(t, filepath.Join(dir, "clip.wav"))
	job := &queue.Job{AudioPath: audio, Metadata: map[string]string{"locale": "French"}}

	handler := transcription.NewHandler(cfg, logging.NewNop())
	if err := handler.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	transcript, ok := job.OutputFor(transcription.StageName)
	if !ok {
		t.Fatal("transcript not recorded on job")
	}
	if transcript != transcription.OutputPath(audio) {
		t.Fatalf("unexpected transcript path: %q", transcript)
	}
	if _, err := os.Stat(transcript); err != nil {
		t.Fatalf("transcript file missing: %v", err)
	}
}

func TestExecutePassesNormalizedLanguage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	cfg.Transcription.Command = testsupport.WriteTool(t, dir, "transcriber", `printf '%s\n' "$@" > `+argsFile+`
out=""
while [ $# -gt 0 ]; do
  [ "$1" = "--output" ] && out="$2"
  shift
done
: > "$out"`)

	audio := testsupport.WriteAudio(t, filepath.Join(dir, "clip.wav"))
	job := &queue.Job{AudioPath: audio, Metadata: map[string]string{"locale": "French"}}

	handler := transcription.NewHandler(cfg, logging.NewNop())
	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	args := strings.Split(strings.TrimSpace(string(raw)), "\n")
	lang := flagValue(args, "--language")
	if lang != "fr" {
		t.Fatalf("expected normalized language fr, got %q (args %v)", lang, args)
	}
	if flagValue(args, "--model") != cfg.Transcription.Model {
		t.Fatalf("model flag missing: %v", args)
	}
}

func TestExecuteUnrecognizedLocalePassedThrough(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	cfg.Transcription.Command = testsupport.WriteTool(t, dir, "transcriber", `printf '%s\n' "$@" > `+argsFile+`
out=""
while [ $# -gt 0 ]; do
  [ "$1" = "--output" ] && out="$2"
  shift
done
: > "$out"`)

	audio := testsupport.WriteAudio(t, filepath.Join(dir, "clip.wav"))
	job := &queue.Job{AudioPath: audio, Metadata: map[string]string{"locale": "qqx-mystery"}}

	handler := transcription.NewHandler(cfg, logging.NewNop())
	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	args := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if lang := flagValue(args, "--language"); lang != "qqx-mystery" {
		t.Fatalf("expected raw hint passthrough, got %q", lang)
	}
}

func TestExecuteToolFailureCarriesStderr(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	cfg.Transcription.Command = testsupport.FailTool(t, dir, "transcriber", "model checkpoint corrupt", 2)

	audio := testsupport.WriteAudio(t, filepath.Join(dir, "clip.wav"))
	job := &queue.Job{AudioPath: audio}

	handler := transcription.NewHandler(cfg, logging.NewNop())
	err := handler.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected stage failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got: %v", err)
	}
	if !strings.Contains(err.Error(), "model checkpoint corrupt") {
		t.Fatalf("stderr missing from error: %v", err)
	}
	if _, ok := job.OutputFor(transcription.StageName); ok {
		t.Fatal("failed stage must not record an output")
	}
}

func TestExecuteCleanExitWithoutOutputIsFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	cfg.Transcription.Command = testsupport.WriteTool(t, dir, "transcriber", "exit 0")

	audio := testsupport.WriteAudio(t, filepath.Join(dir, "clip.wav"))
	job := &queue.Job{AudioPath: audio}

	handler := transcription.NewHandler(cfg, logging.NewNop())
	err := handler.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool for missing artifact, got: %v", err)
	}
}

func TestExecuteMissingBinaryIsLaunchFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	cfg.Transcription.Command = filepath.Join(dir, "does-not-exist")

	audio := testsupport.WriteAudio(t, filepath.Join(dir, "clip.wav"))
	job := &queue.Job{AudioPath: audio}

	handler := transcription.NewHandler(cfg, logging.NewNop())
	err := handler.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrLaunch) {
		t.Fatalf("expected ErrLaunch, got: %v", err)
	}
}

func TestPrepareRejectsMissingAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	job := &queue.Job{AudioPath: filepath.Join(t.TempDir(), "gone.wav")}

	handler := transcription.NewHandler(cfg, logging.NewNop())
	err := handler.Prepare(context.Background(), job)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()

	cfg.Transcription.Command = "definitely-not-installed-anywhere"
	handler := transcription.NewHandler(cfg, logging.NewNop())
	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatalf("expected unhealthy for missing binary: %#v", health)
	}

	cfg.Transcription.Command = testsupport.CopyTool(t, dir, "transcriber")
	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %#v", health)
	}
}

func flagValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
