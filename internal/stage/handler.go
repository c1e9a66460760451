// Package stage defines the contract pipeline stages implement.
package stage

import (
	"context"

	"murmur/internal/queue"
)

// Handler describes the contract the pipeline manager needs from each stage.
type Handler interface {
	// Name reports the stage identifier recorded on jobs while the
	// stage is running.
	Name() string
	// Prepare validates inputs and derives output locations before
	// the external tool runs.
	Prepare(context.Context, *queue.Job) error
	// Execute runs the stage and records its output artifact on the job.
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}
