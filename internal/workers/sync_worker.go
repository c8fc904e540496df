package workers

import (
	"context"
	"time"

	"github.com/forgedao/forgeboard/internal/services"
	"github.com/forgedao/forgeboard/pkg/logger"
)

// SyncWorker periodically pulls GitHub activity into active event
// participations.
type SyncWorker struct {
	*BaseWorker
	syncService *services.SyncService
	interval    time.Duration
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(workerID string, syncService *services.SyncService, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		BaseWorker:  NewBaseWorker(workerID),
		syncService: syncService,
		interval:    interval,
	}
}

// Start begins the periodic sync loop. The first pass runs immediately.
func (w *SyncWorker) Start(ctx context.Context) error {
	w.Running = true
	logger.WithField("worker_id", w.WorkerID).Info("Sync worker started")

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WithField("worker_id", w.WorkerID).Info("Sync worker stopping")
			return ctx.Err()
		case <-w.StopChan:
			logger.WithField("worker_id", w.WorkerID).Info("Sync worker stopped")
			return nil
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *SyncWorker) runOnce(ctx context.Context) {
	start := time.Now()
	if err := w.syncService.SyncAll(ctx); err != nil {
		logger.WithError(err).WithField("worker_id", w.WorkerID).Error("Sync pass failed")
		return
	}
	logger.WithFields(map[string]interface{}{
		"worker_id": w.WorkerID,
		"duration":  time.Since(start).String(),
	}).Info("Sync pass completed")
}
