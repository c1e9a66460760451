// Package logging constructs the slog loggers used across murmur and defines
// the standardized structured field names and attribute helpers shared by the
// daemon, the pipeline, and the stage handlers.
package logging
