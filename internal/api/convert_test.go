package api_test

import (
	"testing"
	"time"

	"murmur/internal/api"
	"murmur/internal/pipeline"
	"murmur/internal/queue"
	"murmur/internal/stage"
)

func TestFromJobCompleted(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(90 * time.Second)
	job := &queue.Job{
		ID:        "job-1",
		AudioPath: "/clips/voice.wav",
		Status:    queue.StatusCompleted,
		Metadata:  map[string]string{"locale": "fr"},
		StageOutputs: []queue.StageOutput{
			{Stage: "transcription", Path: "/clips/voice.transcript.json"},
			{Stage: "semantics", Path: "/clips/voice.semantics.json"},
		},
		CreatedAt:   created,
		UpdatedAt:   completed,
		CompletedAt: &completed,
	}

	dto := api.FromJob(job)
	if dto.ID != "job-1" || dto.Status != "completed" {
		t.Fatalf("unexpected dto: %#v", dto)
	}
	if dto.Error != nil {
		t.Fatalf("completed job must not carry an error: %#v", dto.Error)
	}
	if len(dto.Outputs) != 2 || dto.Outputs[1].Stage != "semantics" {
		t.Fatalf("unexpected outputs: %#v", dto.Outputs)
	}
	if dto.ElapsedSeconds != 90 {
		t.Fatalf("unexpected elapsed: %v", dto.ElapsedSeconds)
	}
	if dto.CreatedAt != "2026-03-01T10:00:00.000Z" {
		t.Fatalf("unexpected created timestamp: %q", dto.CreatedAt)
	}
	if dto.CompletedAt == "" {
		t.Fatal("expected completion timestamp")
	}
}

func TestFromJobFailed(t *testing.T) {
	job := &queue.Job{
		ID:           "job-2",
		AudioPath:    "/clips/voice.wav",
		Status:       queue.StatusError,
		ErrorStage:   "semantics",
		ErrorMessage: "scorer exited with code 1",
	}

	dto := api.FromJob(job)
	if dto.Error == nil {
		t.Fatal("expected error payload")
	}
	if dto.Error.Stage != "semantics" || dto.Error.Message != "scorer exited with code 1" {
		t.Fatalf("unexpected error payload: %#v", dto.Error)
	}
}

func TestSortJobsNewestFirst(t *testing.T) {
	jobs := []api.Job{
		{ID: "a", CreatedAt: "2026-03-01T10:00:00.000Z"},
		{ID: "c", CreatedAt: "2026-03-01T12:00:00.000Z"},
		{ID: "b", CreatedAt: "2026-03-01T11:00:00.000Z"},
	}
	sorted := api.SortJobsNewestFirst(jobs)
	if sorted[0].ID != "c" || sorted[1].ID != "b" || sorted[2].ID != "a" {
		t.Fatalf("unexpected order: %#v", sorted)
	}
	if jobs[0].ID != "a" {
		t.Fatal("input slice must not be mutated")
	}
}

func TestFromStatusSummaryOrdersHealth(t *testing.T) {
	summary := pipeline.StatusSummary{
		Running: true,
		QueueStats: map[queue.Status]int{
			queue.StatusQueued: 2,
		},
		StageHealth: map[string]stage.Health{
			"transcription": stage.Healthy("transcription"),
			"semantics":     stage.Unhealthy("semantics", "binary missing"),
		},
	}

	status := api.FromStatusSummary(summary)
	if !status.Running || status.QueueStats["queued"] != 2 {
		t.Fatalf("unexpected status: %#v", status)
	}
	if len(status.StageHealth) != 2 || status.StageHealth[0].Name != "semantics" {
		t.Fatalf("stage health not ordered: %#v", status.StageHealth)
	}
	if status.StageHealth[0].Detail != "binary missing" {
		t.Fatalf("detail lost: %#v", status.StageHealth[0])
	}
}
