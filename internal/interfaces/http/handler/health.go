package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Pinger is a dependency the health check can ping
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// PingContext calls f
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler reports database and cache reachability
type HealthHandler struct {
	db      Pinger
	redis   Pinger
	timeout time.Duration
	now     func() time.Time
}

// NewHealthHandler creates a new HealthHandler. redis may be nil when the
// summary cache runs in memory.
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, timeout: 2 * time.Second, now: time.Now}
}

// Check answers 200 when every dependency responds and 503 otherwise.
// A failing cache only degrades the report since summaries fall back to
// direct computation.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":   "healthy",
		"time":     h.now().UTC().Format(time.RFC3339),
		"database": "ok",
	}

	if err := h.db.PingContext(ctx); err != nil {
		logger.FromContext(ctx).Warn("health check: database unreachable", zap.Error(err))
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
		body["database"] = "error"
	}

	if h.redis == nil {
		body["cache"] = "memory"
	} else if err := h.redis.PingContext(ctx); err != nil {
		logger.FromContext(ctx).Warn("health check: redis unreachable", zap.Error(err))
		body["cache"] = "error"
		if status == http.StatusOK {
			body["status"] = "degraded"
		}
	} else {
		body["cache"] = "ok"
	}

	c.JSON(status, body)
}
