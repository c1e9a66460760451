// Package testsupport provides shared fixtures for murmur's tests: temp
// configs, job stores, audio fixtures, and stub stage tools.
package testsupport

import (
	"path/filepath"
	"testing"

	"murmur/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.IncomingDir = filepath.Join(base, "incoming")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Pipeline.QueuePollInterval = 1
	cfg.Logging.Format = "console"
	cfg.Logging.Level = "info"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWorkers overrides the worker pool size on the test config.
func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.Workers = n
	}
}
