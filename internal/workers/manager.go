package workers

import (
	"context"
	"sync"
	"time"

	"github.com/forgedao/forgeboard/internal/services"
	"github.com/forgedao/forgeboard/pkg/logger"
)

// WorkerManager manages the lifecycle of all background workers
type WorkerManager struct {
	workers []Worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager() *WorkerManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerManager{
		workers: make([]Worker, 0),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// StartAll starts the background workers
func (wm *WorkerManager) StartAll(syncService *services.SyncService, syncInterval time.Duration) error {
	worker := NewSyncWorker("sync-1", syncService, syncInterval)
	wm.workers = append(wm.workers, worker)
	wm.startWorker(worker)

	logger.WithField("count", len(wm.workers)).Info("Started workers")
	return nil
}

// StopAll gracefully stops all workers
func (wm *WorkerManager) StopAll() error {
	logger.Info("Stopping all workers...")

	// Cancel the context to signal all workers to stop
	wm.cancel()

	for _, worker := range wm.workers {
		if err := worker.Stop(); err != nil {
			logger.WithError(err).WithField("worker_id", worker.GetWorkerID()).Error("Error stopping worker")
		}
	}

	// Wait for all workers to finish
	wm.wg.Wait()

	logger.Info("All workers stopped")
	return nil
}

// startWorker starts a single worker in a goroutine
func (wm *WorkerManager) startWorker(worker Worker) {
	wm.wg.Add(1)
	go func() {
		defer wm.wg.Done()
		if err := worker.Start(wm.ctx); err != nil && err != context.Canceled {
			logger.WithError(err).WithField("worker_id", worker.GetWorkerID()).Error("Worker stopped with error")
		}
	}()
}

// GetWorkerStatus returns the running state of all workers
func (wm *WorkerManager) GetWorkerStatus() map[string]bool {
	status := make(map[string]bool)
	for _, worker := range wm.workers {
		if syncWorker, ok := worker.(*SyncWorker); ok {
			status[worker.GetWorkerID()] = syncWorker.IsRunning()
		} else {
			status[worker.GetWorkerID()] = false
		}
	}
	return status
}
