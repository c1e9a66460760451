// Package daemon hosts the long-running murmurd process: it enforces
// single-instance execution with a file lock, runs the pipeline manager,
// and serves the HTTP API clients use to submit and poll jobs.
package daemon
