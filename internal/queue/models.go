package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// DaemonStopReason is the error message set on running jobs when the daemon
// shuts down mid-pipeline.
const DaemonStopReason = "daemon stopped before the pipeline finished"

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusCompleted,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// StageOutput records one finished stage's artifact.
type StageOutput struct {
	Stage string `json:"stage"`
	Path  string `json:"path"`
}

// Job is the state-machine record for one submitted audio clip.
//
// Invariants maintained by the store and the pipeline:
//   - CurrentStage is non-empty exactly while Status is running.
//   - StageOutputs only grows, one entry per finished stage, in stage order.
//   - completed and error are terminal.
type Job struct {
	ID           string
	AudioPath    string
	Metadata     map[string]string
	Status       Status
	CurrentStage string
	StageOutputs []StageOutput
	ErrorStage   string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// Meta returns the metadata value for key, if any.
func (j *Job) Meta(key string) (string, bool) {
	if j == nil || j.Metadata == nil {
		return "", false
	}
	value, ok := j.Metadata[key]
	return value, ok
}

// OutputFor returns the recorded output path for a stage.
func (j *Job) OutputFor(stage string) (string, bool) {
	for _, out := range j.StageOutputs {
		if out.Stage == stage {
			return out.Path, true
		}
	}
	return "", false
}

// AppendOutput records a finished stage's artifact. Outputs are append-only;
// a stage that already has one keeps it.
func (j *Job) AppendOutput(stage, path string) {
	if _, ok := j.OutputFor(stage); ok {
		return
	}
	j.StageOutputs = append(j.StageOutputs, StageOutput{Stage: stage, Path: path})
}

// LastOutput returns the most recently recorded output path, or the audio
// path when no stage has finished yet. This is the next stage's input.
func (j *Job) LastOutput() string {
	if len(j.StageOutputs) == 0 {
		return j.AudioPath
	}
	return j.StageOutputs[len(j.StageOutputs)-1].Path
}

// SetFailed marks the job terminally failed at the named stage.
func (j *Job) SetFailed(stage, message string) {
	now := time.Now().UTC()
	j.Status = StatusError
	j.CurrentStage = ""
	j.ErrorStage = stage
	j.ErrorMessage = message
	j.CompletedAt = &now
}

// SetCompleted marks the job terminally successful.
func (j *Job) SetCompleted() {
	now := time.Now().UTC()
	j.Status = StatusCompleted
	j.CurrentStage = ""
	j.ErrorStage = ""
	j.ErrorMessage = ""
	j.CompletedAt = &now
}

// Elapsed returns the job's wall-clock duration: creation to completion for
// terminal jobs, creation to now otherwise.
func (j *Job) Elapsed() time.Duration {
	if j.CompletedAt != nil {
		return j.CompletedAt.Sub(j.CreatedAt)
	}
	return time.Since(j.CreatedAt)
}
