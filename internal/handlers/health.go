package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forgedao/forgeboard/internal/workers"
)

type HealthHandler struct {
	workerManager *workers.WorkerManager
	startedAt     time.Time
}

func NewHealthHandler(workerManager *workers.WorkerManager) *HealthHandler {
	return &HealthHandler{
		workerManager: workerManager,
		startedAt:     time.Now(),
	}
}

// Health reports liveness and worker state
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(h.startedAt).String(),
		"workers": h.workerManager.GetWorkerStatus(),
	})
}
