package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BackendStatus is the readiness view of the analysis backend handle.
type BackendStatus interface {
	IsReady() bool
	ModelVersion() string
}

type HealthHandler struct {
	backend BackendStatus
}

func NewHealthHandler(backend BackendStatus) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// Live reports process liveness; always healthy once the process is up.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports healthy only once the analysis backend finished loading.
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.backend.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "model_version": h.backend.ModelVersion()})
}

// Root is a small diagnostic payload for humans poking the service.
func (h *HealthHandler) Root(c *gin.Context) {
	status := "Loading"
	if h.backend.IsReady() {
		status = "Ready"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "sonaguard voice authenticity API",
		"status":  status,
		"endpoints": gin.H{
			"detection": "/detect-voice",
			"health":    "/health/live",
		},
	})
}
