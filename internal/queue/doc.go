// Package queue defines the job model, its lifecycle state machine, and the
// SQLite-backed store that serves as both the job registry and the work
// queue feeding the pipeline workers.
//
// Job state is process-scoped: the database is recreated empty every time the
// daemon starts, so entries live exactly as long as the serving process.
package queue
