package services

import "errors"

// Kind is a coarse failure category derived from the sentinel markers.
// It is stable across the API surface and failure messages.
type Kind string

const (
	KindInvalidSubmission Kind = "invalid_submission"
	KindLaunchFailure     Kind = "launch_failure"
	KindStageFailure      Kind = "stage_failure"
	KindConfiguration     Kind = "configuration"
	KindNotFound          Kind = "not_found"
	KindTimeout           Kind = "timeout"
	KindInternal          Kind = "internal"
)

// KindOf maps a classified error back to its failure category.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindInvalidSubmission
	case errors.Is(err, ErrLaunch):
		return KindLaunchFailure
	case errors.Is(err, ErrExternalTool):
		return KindStageFailure
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	default:
		return KindInternal
	}
}
