package api

import (
	"context"
	"encoding/json"
	"os"

	"murmur/internal/queue"
	"murmur/internal/services"
)

// Submitter accepts new jobs for processing.
type Submitter interface {
	Submit(ctx context.Context, audioPath string, metadata map[string]string) (*queue.Job, error)
}

// QueueReader abstracts queue persistence interactions needed for API queries.
type QueueReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByID(ctx context.Context, id string) (*queue.Job, error)
	ClearFinished(ctx context.Context) (int64, error)
}

// QueueService exposes queue operations returning API DTOs.
type QueueService struct {
	store     QueueReader
	submitter Submitter
}

// NewQueueService constructs a QueueService around the provided reader
// and submitter.
func NewQueueService(store QueueReader, submitter Submitter) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store, submitter: submitter}
}

// Submit enqueues a new job and returns its transport view.
func (s *QueueService) Submit(ctx context.Context, req SubmitRequest) (*Job, error) {
	if s == nil || s.submitter == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "api", "submission is not available", nil)
	}
	job, err := s.submitter.Submit(ctx, req.AudioPath, req.Metadata)
	if err != nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// Describe fetches a single job. When includeResults is set, the stage
// artifacts that parse as JSON are inlined on the response.
func (s *QueueService) Describe(ctx context.Context, id string, includeResults bool) (*Job, error) {
	if s == nil || s.store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "api", "queue is not available", nil)
	}
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "", "api", "unknown job "+id, nil)
	}
	dto := FromJob(job)
	if includeResults {
		dto.Results = loadResults(job)
	}
	return &dto, nil
}

// List returns jobs filtered by status, newest first.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return SortJobsNewestFirst(FromJobs(jobs)), nil
}

// Stats returns queue summary counts keyed by status string.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		merged[string(status)] = stats[status]
	}
	return merged, nil
}

// ClearFinished removes terminal jobs and reports how many went away.
func (s *QueueService) ClearFinished(ctx context.Context) (int64, error) {
	if s == nil || s.store == nil {
		return 0, nil
	}
	return s.store.ClearFinished(ctx)
}

// loadResults reads stage artifacts off disk. Artifacts that are missing
// or not valid JSON are skipped rather than failing the status query.
func loadResults(job *queue.Job) map[string]json.RawMessage {
	if len(job.StageOutputs) == 0 {
		return nil
	}
	results := make(map[string]json.RawMessage, len(job.StageOutputs))
	for _, output := range job.StageOutputs {
		data, err := os.ReadFile(output.Path)
		if err != nil {
			continue
		}
		if !json.Valid(data) {
			continue
		}
		results[output.Stage] = json.RawMessage(data)
	}
	if len(results) == 0 {
		return nil
	}
	return results
}
