package queue

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const jobColumns = "id, audio_path, metadata_json, status, current_stage, stage_outputs_json, error_stage, error_message, created_at, updated_at, completed_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           string
		audioPath    string
		metadata     sql.NullString
		statusStr    string
		currentStage sql.NullString
		outputs      sql.NullString
		errorStage   sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&audioPath,
		&metadata,
		&statusStr,
		&currentStage,
		&outputs,
		&errorStage,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		AudioPath:    audioPath,
		Status:       Status(statusStr),
		CurrentStage: currentStage.String,
		ErrorStage:   errorStage.String,
		ErrorMessage: errorMessage.String,
	}

	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &job.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if outputs.Valid && outputs.String != "" {
		if err := json.Unmarshal([]byte(outputs.String), &job.StageOutputs); err != nil {
			return nil, fmt.Errorf("decode stage outputs: %w", err)
		}
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			job.CompletedAt = &completed
		}
	}

	return job, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
