package api

import (
	"sort"
	"time"

	"murmur/internal/deps"
	"murmur/internal/pipeline"
	"murmur/internal/queue"
)

// FromJob converts a queue job into its transport representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:             job.ID,
		AudioPath:      job.AudioPath,
		Status:         string(job.Status),
		CurrentStage:   job.CurrentStage,
		Outputs:        make([]StageOutput, 0, len(job.StageOutputs)),
		Metadata:       job.Metadata,
		ElapsedSeconds: job.Elapsed().Seconds(),
		CreatedAt:      formatTime(job.CreatedAt),
		UpdatedAt:      formatTime(job.UpdatedAt),
	}
	for _, output := range job.StageOutputs {
		dto.Outputs = append(dto.Outputs, StageOutput{Stage: output.Stage, Path: output.Path})
	}
	if job.CompletedAt != nil {
		dto.CompletedAt = formatTime(*job.CompletedAt)
	}
	if job.Status == queue.StatusError {
		dto.Error = &JobError{Stage: job.ErrorStage, Message: job.ErrorMessage}
	}
	return dto
}

// FromJobs converts a job slice, preserving order.
func FromJobs(jobs []*queue.Job) []Job {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts pipeline diagnostics.
func FromStatusSummary(summary pipeline.StatusSummary) PipelineStatus {
	status := PipelineStatus{
		Running:    summary.Running,
		LastError:  summary.LastError,
		QueueStats: make(map[string]int, len(summary.QueueStats)),
	}
	for key, count := range summary.QueueStats {
		status.QueueStats[string(key)] = count
	}
	status.StageHealth = make([]StageHealth, 0, len(summary.StageHealth))
	for _, health := range summary.StageHealth {
		status.StageHealth = append(status.StageHealth, StageHealth{
			Name:   health.Name,
			Ready:  health.Ready,
			Detail: health.Detail,
		})
	}
	sort.Slice(status.StageHealth, func(i, j int) bool {
		return status.StageHealth[i].Name < status.StageHealth[j].Name
	})
	return status
}

// FromDependencyStatuses converts external tool availability reports.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]DependencyStatus, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, DependencyStatus{
			Name:        status.Name,
			Command:     status.Command,
			Description: status.Description,
			Optional:    status.Optional,
			Available:   status.Available,
			Detail:      status.Detail,
		})
	}
	return out
}

// SortJobsNewestFirst orders jobs by CreatedAt descending, breaking ties
// by ID so the order is stable.
func SortJobsNewestFirst(jobs []Job) []Job {
	if len(jobs) == 0 {
		return nil
	}
	sorted := make([]Job, len(jobs))
	copy(sorted, jobs)
	sort.Slice(sorted, func(i, j int) bool {
		ti := ParseJobTime(sorted[i].CreatedAt)
		tj := ParseJobTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

// ParseJobTime parses API timestamps for display formatting.
func ParseJobTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(dateTimeFormat)
}
