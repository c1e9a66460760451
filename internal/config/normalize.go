package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeSemantics()
	c.normalizePipeline()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.IncomingDir) == "" {
		c.Paths.IncomingDir = defaultIncomingDir
	}
	if c.Paths.IncomingDir, err = expandPath(c.Paths.IncomingDir); err != nil {
		return fmt.Errorf("paths.incoming_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Command = strings.TrimSpace(c.Transcription.Command)
	if c.Transcription.Command == "" {
		c.Transcription.Command = defaultTranscriptionCommand
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
}

func (c *Config) normalizeSemantics() {
	c.Semantics.Command = strings.TrimSpace(c.Semantics.Command)
	if c.Semantics.Command == "" {
		c.Semantics.Command = defaultSemanticsCommand
	}
	if c.Semantics.TimeoutSeconds <= 0 {
		c.Semantics.TimeoutSeconds = defaultSemanticsTimeout
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultWorkers
	}
	if c.Pipeline.QueuePollInterval <= 0 {
		c.Pipeline.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Pipeline.RetentionMinutes < 0 {
		c.Pipeline.RetentionMinutes = 0
	}
	if c.Pipeline.RetentionSweep <= 0 {
		c.Pipeline.RetentionSweep = defaultRetentionSweep
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
