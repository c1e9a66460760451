package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"murmur/internal/config"
	"murmur/internal/fileutil"
	"murmur/internal/logging"
	"murmur/internal/notifications"
	"murmur/internal/queue"
	"murmur/internal/services"
	"murmur/internal/stage"
)

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	notifier     notifications.Service
	stages       []stage.Handler
	pollInterval time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a pipeline manager. Stages run in registration
// order for every job.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, stages ...stage.Handler) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		notifier:     notifier,
		stages:       stages,
		pollInterval: time.Duration(cfg.Pipeline.QueuePollInterval) * time.Second,
	}
}

// Submit validates the clip and enqueues a new job. It returns as soon
// as the job row exists; processing happens on the worker pool.
func (m *Manager) Submit(ctx context.Context, audioPath string, metadata map[string]string) (*queue.Job, error) {
	if err := fileutil.CheckReadableFile(audioPath); err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "submit",
			"audio file is not readable", err)
	}

	job, err := m.store.NewJob(ctx, audioPath, metadata)
	if err != nil {
		return nil, err
	}

	logging.WithContext(services.WithJobID(ctx, job.ID), m.logger).Info("job submitted",
		logging.String("audio", job.AudioPath),
		logging.Int("metadata_keys", len(job.Metadata)))
	return job, nil
}

// Start launches the worker pool and the retention sweeper.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("pipeline already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("pipeline stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	workers := m.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	m.wg.Add(workers)
	m.mu.Unlock()

	for i := 0; i < workers; i++ {
		go m.runWorker(runCtx, i)
	}
	if m.cfg.Pipeline.RetentionMinutes > 0 {
		m.wg.Add(1)
		go m.runRetentionSweeper(runCtx)
	}

	m.logger.Info("pipeline started",
		logging.Int("workers", workers),
		logging.Int("stages", len(m.stages)))
	return nil
}

// Stop terminates background processing and waits for workers to drain.
// Jobs interrupted mid-stage are marked failed so clients never observe
// a running job after shutdown.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	ctx, cancelFail := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFail()
	if count, err := m.store.FailRunning(ctx, queue.DaemonStopReason); err != nil {
		m.logger.Error("failed to mark interrupted jobs", logging.Error(err))
	} else if count > 0 {
		m.logger.Warn("marked interrupted jobs as failed", logging.Int64("count", count))
	}
	m.logger.Info("pipeline stopped")
}

func (m *Manager) runWorker(ctx context.Context, index int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int("worker", index))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.store.ClaimNext(ctx, m.stages[0].Name())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setLastError(err)
			logger.Error("failed to claim next job", logging.Error(err))
			m.waitForJobOrShutdown(ctx)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}

		if err := m.processJob(ctx, logger, job); err != nil && errors.Is(err, context.Canceled) {
			return
		}
	}
}

func (m *Manager) processJob(ctx context.Context, workerLogger *slog.Logger, job *queue.Job) error {
	jobCtx := services.WithJobID(ctx, job.ID)
	start := time.Now()

	for i, handler := range m.stages {
		stageCtx := services.WithStage(jobCtx, handler.Name())
		stageLogger := logging.WithContext(stageCtx, workerLogger)

		if i > 0 {
			job.CurrentStage = handler.Name()
			if err := m.store.Update(stageCtx, job); err != nil {
				m.setLastError(err)
				stageLogger.Error("failed to persist stage transition", logging.Error(err))
				return err
			}
		}

		stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
		stageStart := time.Now()

		if err := handler.Prepare(stageCtx, job); err != nil {
			return m.handleStageFailure(stageCtx, stageLogger, handler.Name(), job, err)
		}
		if err := handler.Execute(stageCtx, job); err != nil {
			if errors.Is(err, context.Canceled) {
				stageLogger.Debug("stage interrupted by shutdown")
				return err
			}
			return m.handleStageFailure(stageCtx, stageLogger, handler.Name(), job, err)
		}
		if err := m.store.Update(stageCtx, job); err != nil {
			m.setLastError(err)
			stageLogger.Error("failed to persist stage result", logging.Error(err))
			return err
		}

		stageLogger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("stage_duration", time.Since(stageStart)))
	}

	job.SetCompleted()
	if err := m.store.Update(jobCtx, job); err != nil {
		m.setLastError(err)
		workerLogger.Error("failed to persist job completion", logging.Error(err))
		return err
	}

	logging.WithContext(jobCtx, workerLogger).Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Duration("job_duration", time.Since(start)))

	if err := m.notifier.NotifyJobCompleted(jobCtx, job.ID, job.AudioPath, time.Since(start)); err != nil {
		workerLogger.Debug("completion notification failed", logging.Error(err))
	}
	return nil
}

func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, stageName string, job *queue.Job, stageErr error) error {
	message := failureMessage(stageErr)
	job.SetFailed(stageName, message)

	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("failure_kind", string(services.KindOf(stageErr))),
		logging.String("error_message", message),
		logging.Error(stageErr))

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
	m.setLastError(stageErr)

	if err := m.notifier.NotifyJobFailed(ctx, job.ID, stageName, message); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
	return stageErr
}

func failureMessage(stageErr error) string {
	if stageErr == nil {
		return "stage failed without error detail"
	}
	return stageErr.Error()
}

func (m *Manager) runRetentionSweeper(ctx context.Context) {
	defer m.wg.Done()

	interval := time.Duration(m.cfg.Pipeline.RetentionSweep) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	retention := time.Duration(m.cfg.Pipeline.RetentionMinutes) * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-retention)
			removed, err := m.store.RemoveFinishedBefore(ctx, cutoff)
			if err != nil {
				if ctx.Err() == nil {
					m.logger.Warn("retention sweep failed", logging.Error(err))
				}
				continue
			}
			if removed > 0 {
				m.logger.Info("retention sweep removed finished jobs", logging.Int64("removed", removed))
			}
		}
	}
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
