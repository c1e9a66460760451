package services_test

import (
	"context"
	"testing"

	"murmur/internal/services"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, "job-1")
	ctx = services.WithStage(ctx, "transcription")
	ctx = services.WithRequestID(ctx, "req-9")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-1" {
		t.Fatalf("job id not preserved: %q %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcription" {
		t.Fatalf("stage not preserved: %q %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-9" {
		t.Fatalf("request id not preserved: %q %v", rid, ok)
	}

	if _, ok := services.JobIDFromContext(context.Background()); ok {
		t.Fatal("empty context should not report a job id")
	}
}
