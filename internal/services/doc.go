// Package services defines shared utilities consumed by the pipeline stage
// handlers and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (validation vs launch vs tool failure) uniform across
//     the pipeline and the API surface.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays consistent.
package services
