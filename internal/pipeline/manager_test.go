package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"murmur/internal/logging"
	"murmur/internal/pipeline"
	"murmur/internal/queue"
	"murmur/internal/semantics"
	"murmur/internal/services"
	"murmur/internal/stage"
	"murmur/internal/testsupport"
	"murmur/internal/transcription"
)

type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (r *recordingNotifier) NotifyJobCompleted(_ context.Context, jobID, _ string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, jobID)
	return nil
}

func (r *recordingNotifier) NotifyJobFailed(_ context.Context, jobID, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, jobID)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func (r *recordingNotifier) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed), len(r.failed)
}

func waitForTerminal(t *testing.T, store *queue.Store, id string) *queue.Job {
	t.Helper()
	deadline := time.After(15 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s did not reach a terminal status", id)
		case <-time.After(25 * time.Millisecond):
		}
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if job != nil && job.Status.IsTerminal() {
			return job
		}
	}
}

func TestManagerProcessesJobThroughBothStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	cfg.Transcription.Command = testsupport.CopyTool(t, dir, "transcriber")
	cfg.Semantics.Command = testsupport.CopyTool(t, dir, "scorer")

	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	manager := pipeline.NewManager(cfg, store, logging.NewNop(), notifier,
		transcription.NewHandler(cfg, logging.NewNop()),
		semantics.NewHandler(cfg, logging.NewNop()))

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	audio := testsupport.WriteAudio(t, filepath.Join(dir, "clip.wav"))
	job, err := manager.Submit(context.Background(), audio, map[string]string{"locale": "en"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	done := waitForTerminal(t, store, job.ID)
	if done.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s: %s)", done.Status, done.ErrorStage, done.ErrorMessage)
	}
	if len(done.StageOutputs) != 2 {
		t.Fatalf("expected both stage outputs, got %#v", done.StageOutputs)
	}
	if done.StageOutputs[0].Stage != transcription.StageName || done.StageOutputs[1].Stage != semantics.StageName {
		t.Fatalf("outputs out of order: %#v", done.StageOutputs)
	}
	if done.CompletedAt == nil || !done.CompletedAt.After(done.CreatedAt) {
		t.Fatalf("completion timestamp not ordered: %v / %v", done.CompletedAt, done.CreatedAt)
	}
	if completed, failed := notifier.counts(); completed != 1 || failed != 0 {
		t.Fatalf("unexpected notifications: %d completed, %d failed", completed, failed)
	}
}

func TestManagerHaltsOnSecondStageFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	cfg.Transcription.Command = testsupport.CopyTool(t, dir, "transcriber")
	cfg.Semantics.Command = testsupport.FailTool(t, dir, "scorer", "embedding model unavailable", 1)

	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	manager := pipeline.NewManager(cfg, store, logging.NewNop(), notifier,
		transcription.NewHandler(cfg, logging.NewNop()),
		semantics.NewHandler(cfg, logging.NewNop()))

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	audio := testsupport.WriteAudio(t, filepath.Join(dir, "clip.wav"))
	job, err := manager.Submit(context.Background(), audio, nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	done := waitForTerminal(t, store, job.ID)
	if done.Status != queue.StatusError {
		t.Fatalf("expected error status, got %s", done.Status)
	}
	if done.ErrorStage != semantics.StageName {
		t.Fatalf("failure attributed to wrong stage: %q", done.ErrorStage)
	}
	if done.ErrorMessage == "" {
		t.Fatal("expected a failure message")
	}
	if len(done.StageOutputs) != 1 || done.StageOutputs[0].Stage != transcription.StageName {
		t.Fatalf("transcript from the first stage must survive: %#v", done.StageOutputs)
	}
	if done.CurrentStage != "" {
		t.Fatalf("terminal job must not carry a stage: %q", done.CurrentStage)
	}
	if completed, failed := notifier.counts(); completed != 0 || failed != 1 {
		t.Fatalf("unexpected notifications: %d completed, %d failed", completed, failed)
	}
}

type countingHandler struct {
	name    string
	active  atomic.Int32
	peak    atomic.Int32
	handled atomic.Int32
}

func (h *countingHandler) Name() string { return h.name }

func (h *countingHandler) Prepare(context.Context, *queue.Job) error { return nil }

func (h *countingHandler) Execute(ctx context.Context, job *queue.Job) error {
	current := h.active.Add(1)
	defer h.active.Add(-1)
	for {
		peak := h.peak.Load()
		if current <= peak || h.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	time.Sleep(40 * time.Millisecond)
	job.AppendOutput(h.name, job.AudioPath+"."+h.name)
	h.handled.Add(1)
	return nil
}

func (h *countingHandler) HealthCheck(context.Context) stage.Health { return stage.Healthy(h.name) }

func TestManagerBoundsConcurrencyToWorkerCount(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(2))
	store := testsupport.MustOpenStore(t, cfg)
	handler := &countingHandler{name: "analysis"}
	manager := pipeline.NewManager(cfg, store, logging.NewNop(), &recordingNotifier{}, handler)

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	dir := t.TempDir()
	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		audio := testsupport.WriteAudio(t, filepath.Join(dir, fmt.Sprintf("clip-%d.wav", i)))
		job, err := manager.Submit(context.Background(), audio, nil)
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		ids = append(ids, job.ID)
	}

	for _, id := range ids {
		done := waitForTerminal(t, store, id)
		if done.Status != queue.StatusCompleted {
			t.Fatalf("job %s ended as %s", id, done.Status)
		}
	}

	if handled := handler.handled.Load(); handled != 10 {
		t.Fatalf("expected 10 jobs handled, got %d", handled)
	}
	if peak := handler.peak.Load(); peak > 2 {
		t.Fatalf("concurrency exceeded worker count: peak %d", peak)
	}
}

func TestSubmitRejectsUnreadableFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := pipeline.NewManager(cfg, store, logging.NewNop(), &recordingNotifier{},
		transcription.NewHandler(cfg, logging.NewNop()))

	_, err := manager.Submit(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got: %v", err)
	}

	jobs, listErr := store.List(context.Background())
	if listErr != nil {
		t.Fatalf("List failed: %v", listErr)
	}
	if len(jobs) != 0 {
		t.Fatalf("rejected submission must not enqueue: %#v", jobs)
	}
}

func TestSubmitDoesNotWaitForWorkers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := pipeline.NewManager(cfg, store, logging.NewNop(), &recordingNotifier{},
		&countingHandler{name: "analysis"})
	// Pipeline intentionally not started.

	dir := t.TempDir()
	audio := testsupport.WriteAudio(t, filepath.Join(dir, "clip.wav"))

	start := time.Now()
	job, err := manager.Submit(context.Background(), audio, nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Submit blocked for %s", elapsed)
	}

	fetched, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusQueued {
		t.Fatalf("expected job to stay queued, got %s", fetched.Status)
	}
}

func TestStopMarksInterruptedJobsFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	cfg.Transcription.Command = testsupport.WriteTool(t, dir, "transcriber", "sleep 60")

	store := testsupport.MustOpenStore(t, cfg)
	manager := pipeline.NewManager(cfg, store, logging.NewNop(), &recordingNotifier{},
		transcription.NewHandler(cfg, logging.NewNop()))

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	audio := testsupport.WriteAudio(t, filepath.Join(dir, "clip.wav"))
	job, err := manager.Submit(context.Background(), audio, nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	deadline := time.After(10 * time.Second)
	for {
		fetched, err := store.GetByID(context.Background(), job.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if fetched.Status == queue.StatusRunning {
			break
		}
		select {
		case <-deadline:
			t.Fatal("job never started running")
		case <-time.After(25 * time.Millisecond):
		}
	}

	manager.Stop()

	fetched, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusError {
		t.Fatalf("interrupted job should be failed, got %s", fetched.Status)
	}
	if fetched.ErrorMessage != queue.DaemonStopReason {
		t.Fatalf("unexpected failure message: %q", fetched.ErrorMessage)
	}
}

func TestStatusReportsStageHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	cfg.Transcription.Command = testsupport.CopyTool(t, dir, "transcriber")
	cfg.Semantics.Command = "definitely-not-installed-anywhere"

	store := testsupport.MustOpenStore(t, cfg)
	manager := pipeline.NewManager(cfg, store, logging.NewNop(), &recordingNotifier{},
		transcription.NewHandler(cfg, logging.NewNop()),
		semantics.NewHandler(cfg, logging.NewNop()))

	summary := manager.Status(context.Background())
	if summary.Running {
		t.Fatal("pipeline should not report running before Start")
	}
	if !summary.StageHealth[transcription.StageName].Ready {
		t.Fatalf("transcription should be healthy: %#v", summary.StageHealth)
	}
	if summary.StageHealth[semantics.StageName].Ready {
		t.Fatalf("semantics should be unhealthy: %#v", summary.StageHealth)
	}
}
