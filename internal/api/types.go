package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// StageOutput describes one produced artifact on a job.
type StageOutput struct {
	Stage string `json:"stage"`
	Path  string `json:"path"`
}

// JobError carries failure details for a job that ended in error.
type JobError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Job describes a pipeline job in a transport-friendly format.
type Job struct {
	ID             string            `json:"id"`
	AudioPath      string            `json:"audioPath"`
	Status         string            `json:"status"`
	CurrentStage   string            `json:"currentStage,omitempty"`
	Outputs        []StageOutput     `json:"outputs"`
	Error          *JobError         `json:"error,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	ElapsedSeconds float64           `json:"elapsedSeconds"`
	CreatedAt      string            `json:"createdAt,omitempty"`
	UpdatedAt      string            `json:"updatedAt,omitempty"`
	CompletedAt    string            `json:"completedAt,omitempty"`

	// Results holds inlined stage artifacts keyed by stage name when the
	// caller asked for them.
	Results map[string]json.RawMessage `json:"results,omitempty"`
}

// PipelineStatus summarizes pipeline execution state.
type PipelineStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external tool.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Pipeline     PipelineStatus     `json:"pipeline"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// SubmitRequest is the POST /api/jobs payload.
type SubmitRequest struct {
	AudioPath string            `json:"audioPath"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// ClearFinishedResponse reports how many terminal jobs were removed.
type ClearFinishedResponse struct {
	Removed int64 `json:"removed"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
