package main

import (
	"log/slog"

	"murmur/internal/config"
	"murmur/internal/notifications"
	"murmur/internal/pipeline"
	"murmur/internal/queue"
	"murmur/internal/semantics"
	"murmur/internal/transcription"
)

// buildPipeline wires the stage handlers in processing order.
func buildPipeline(cfg *config.Config, store *queue.Store, logger *slog.Logger) *pipeline.Manager {
	return pipeline.NewManager(cfg, store, logger, notifications.NewService(cfg),
		transcription.NewHandler(cfg, logger),
		semantics.NewHandler(cfg, logger))
}
