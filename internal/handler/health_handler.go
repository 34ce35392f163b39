package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Baaaki/procurehub/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PingFunc reports whether a backing store is reachable.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	ping PingFunc
}

func NewHealthHandler(ping PingFunc) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Health(c *gin.Context) {
	status, code := "ok", http.StatusOK

	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			logger.Log.Warn("Health check failed", zap.Error(err))
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
