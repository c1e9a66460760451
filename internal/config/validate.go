package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Transcription.Command == "" {
		return errors.New("transcription.command must be set")
	}
	if c.Semantics.Command == "" {
		return errors.New("semantics.command must be set")
	}
	if c.Semantics.Threshold < 0 || c.Semantics.Threshold > 1 {
		return errors.New("semantics.threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers < 1 {
		return errors.New("pipeline.workers must be at least 1")
	}
	if c.Pipeline.Workers > 64 {
		return fmt.Errorf("pipeline.workers %d is unreasonably large; the stage tools are resource-heavy", c.Pipeline.Workers)
	}
	if c.Pipeline.QueuePollInterval < 1 {
		return errors.New("pipeline.queue_poll_interval must be at least 1 second")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
