package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether the store answers.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

type HealthHandler struct {
	checker HealthChecker
	timeout time.Duration
}

func NewHealthHandler(checker HealthChecker, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthHandler{checker: checker, timeout: timeout}
}

// Healthz answers 200 while the store is reachable and 503 otherwise.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if !h.checker.HealthCheck(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
