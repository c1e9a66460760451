package config

const (
	defaultIncomingDir          = "~/.local/share/murmur/incoming"
	defaultLogDir               = "~/.local/share/murmur/logs"
	defaultAPIBind              = "127.0.0.1:7733"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultTranscriptionCommand = "transcribe-audio"
	defaultTranscriptionModel   = "medium"
	defaultTranscriptionTimeout = 1800
	defaultSemanticsCommand     = "semantic-score"
	defaultSemanticsThreshold   = 0.1
	defaultSemanticsTimeout     = 600
	defaultWorkers              = 2
	defaultQueuePollInterval    = 2
	defaultRetentionSweep       = 300
	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			IncomingDir: defaultIncomingDir,
			LogDir:      defaultLogDir,
			APIBind:     defaultAPIBind,
		},
		Transcription: Transcription{
			Command:        defaultTranscriptionCommand,
			Model:          defaultTranscriptionModel,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		Semantics: Semantics{
			Command:        defaultSemanticsCommand,
			Threshold:      defaultSemanticsThreshold,
			TimeoutSeconds: defaultSemanticsTimeout,
		},
		Pipeline: Pipeline{
			Workers:           defaultWorkers,
			QueuePollInterval: defaultQueuePollInterval,
			RetentionMinutes:  0,
			RetentionSweep:    defaultRetentionSweep,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
