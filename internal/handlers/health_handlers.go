package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const migrateTimeout = 30 * time.Second

// Health is the handler for GET /api/health
// The service is ready once the database answers and the schema is in place.
func (h *Handlers) Health(c *gin.Context) {
	// 1. --- Ping ---
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "Database not ready"})
		return
	}

	// 2. --- Schema ---
	// A database that came up after the API is migrated here.
	if !h.SchemaReady() {
		mctx, mcancel := context.WithTimeout(c.Request.Context(), migrateTimeout)
		defer mcancel()
		if err := h.EnsureSchema(mctx); err != nil {
			h.Logger.Warn("Schema migration failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "Database not ready"})
			return
		}
		h.Logger.Info("Schema is up to date")
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// WaitForSchema retries EnsureSchema every interval until it succeeds or ctx ends.
func (h *Handlers) WaitForSchema(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		mctx, cancel := context.WithTimeout(ctx, migrateTimeout)
		err := h.EnsureSchema(mctx)
		cancel()
		if err == nil {
			h.Logger.Info("Schema is up to date")
			return
		}
		h.Logger.Warn("Schema migration failed, retrying", zap.Error(err), zap.Duration("every", every))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
