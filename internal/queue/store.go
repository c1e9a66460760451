package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"murmur/internal/config"
)

// Store manages job persistence backed by SQLite. One Store instance is
// shared by the admission path, the status path, and every pipeline worker.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the job database for this daemon run. Any database left over
// from a previous run is discarded first: job state is process-scoped.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "jobs.db"))
}

// OpenPath opens a fresh job database at the given location.
func OpenPath(dbPath string) (*Store, error) {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("discard previous job database: %w", err)
		}
	}

	// database/sql pools connections, and a pragma applied with Exec only
	// configures the connection it happens to run on. Repeat the pragmas in
	// the DSN so every pooled connection gets them. Transactions must begin
	// as writers (_txlock=immediate): a deferred transaction upgrading from
	// read to write against a stale WAL snapshot fails with SQLITE_BUSY
	// immediately, bypassing busy_timeout.
	dsn := dbPath + "?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewJob inserts a queued job for the given audio clip and returns it.
func (s *Store) NewJob(ctx context.Context, audioPath string, metadata map[string]string) (*Job, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, errors.New("audio path required")
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	metadataJSON, err := marshalMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            id, audio_path, metadata_json, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		audioPath,
		metadataJSON,
		StatusQueued,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. Returns (nil, nil) when unknown.
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update persists the full job row keyed by id.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil || job.ID == "" {
		return errors.New("job with id required")
	}

	job.UpdatedAt = time.Now().UTC()
	metadataJSON, err := marshalMetadata(job.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	outputsJSON, err := marshalOutputs(job.StageOutputs)
	if err != nil {
		return fmt.Errorf("marshal stage outputs: %w", err)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET
            audio_path = ?, metadata_json = ?, status = ?, current_stage = ?,
            stage_outputs_json = ?, error_stage = ?, error_message = ?,
            updated_at = ?, completed_at = ?
        WHERE id = ?`,
		job.AudioPath,
		metadataJSON,
		job.Status,
		nullableString(job.CurrentStage),
		outputsJSON,
		nullableString(job.ErrorStage),
		nullableString(job.ErrorMessage),
		job.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(job.CompletedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s not found", job.ID)
	}
	return nil
}

// ClaimNext atomically takes the oldest queued job for a worker, moving it to
// running with the given first stage. Returns (nil, nil) when the queue is
// empty. Safe to call from concurrent workers; each queued job is claimed at
// most once.
func (s *Store) ClaimNext(ctx context.Context, firstStage string) (*Job, error) {
	for {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin claim tx: %w", err)
		}

		var id string
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM jobs WHERE status = ? ORDER BY created_at, id LIMIT 1`,
			StatusQueued,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			_ = tx.Rollback()
			return nil, nil
		}
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("select next queued job: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, current_stage = ?, updated_at = ? WHERE id = ? AND status = ?`,
			StatusRunning,
			firstStage,
			time.Now().UTC().Format(time.RFC3339Nano),
			id,
			StatusQueued,
		)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("claim job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("claim job rows: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit claim: %w", err)
		}
		if affected == 0 {
			// Another worker won the race for this row; look again.
			continue
		}
		return s.GetByID(ctx, id)
	}
}

// List returns jobs ordered by creation time, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Stats returns job counts per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// CountByStatus returns the number of jobs currently in the given status.
func (s *Store) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs WHERE status = ?`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

// RemoveFinishedBefore deletes terminal jobs whose completion predates cutoff.
func (s *Store) RemoveFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE status IN (?, ?) AND completed_at IS NOT NULL AND completed_at < ?`,
		StatusCompleted,
		StatusError,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("remove finished jobs: %w", err)
	}
	return res.RowsAffected()
}

// ClearFinished deletes all terminal jobs.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE status IN (?, ?)`,
		StatusCompleted,
		StatusError,
	)
	if err != nil {
		return 0, fmt.Errorf("clear finished jobs: %w", err)
	}
	return res.RowsAffected()
}

// FailRunning marks every running job as errored with the given cause. Used
// at daemon shutdown so interrupted jobs do not present as running forever.
func (s *Store) FailRunning(ctx context.Context, message string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error_stage = current_stage, current_stage = NULL,
            error_message = ?, updated_at = ?, completed_at = ?
        WHERE status = ?`,
		StatusError,
		message,
		now,
		now,
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("fail running jobs: %w", err)
	}
	return res.RowsAffected()
}

func marshalMetadata(metadata map[string]string) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func marshalOutputs(outputs []StageOutput) (any, error) {
	if len(outputs) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(outputs)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}
