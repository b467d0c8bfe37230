package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutribowl/storefront/internal/checkout"
	"github.com/nutribowl/storefront/internal/config"
	"github.com/nutribowl/storefront/internal/database"
	"github.com/nutribowl/storefront/internal/metrics"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB       *sql.DB
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Checkout *checkout.Service

	migrate     func(context.Context) error
	migrateMu   sync.Mutex
	schemaReady atomic.Bool
}

// New wires the handlers and the checkout service onto one pool.
func New(db *sql.DB, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *Handlers {
	return &Handlers{
		DB:       db,
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Checkout: checkout.NewService(db, m),
		migrate: func(ctx context.Context) error {
			return database.Migrate(ctx, db)
		},
	}
}

// SchemaReady reports whether a migration has completed since startup.
func (h *Handlers) SchemaReady() bool {
	return h.schemaReady.Load()
}

// EnsureSchema migrates the database once. After the first success it is a no-op.
func (h *Handlers) EnsureSchema(ctx context.Context) error {
	if h.schemaReady.Load() {
		return nil
	}

	h.migrateMu.Lock()
	defer h.migrateMu.Unlock()
	if h.schemaReady.Load() {
		return nil
	}
	if err := h.migrate(ctx); err != nil {
		return err
	}
	h.schemaReady.Store(true)
	return nil
}

// serverError logs err and answers 500 with a message that never carries the cause.
func (h *Handlers) serverError(c *gin.Context, message string, err error) {
	h.Logger.Error(message, zap.Error(err), zap.String("route", c.FullPath()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
