package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/nutribowl/storefront/internal/config"
	"github.com/nutribowl/storefront/internal/database"
	"github.com/nutribowl/storefront/internal/handlers"
	"github.com/nutribowl/storefront/internal/logging"
	"github.com/nutribowl/storefront/internal/metrics"
	"github.com/nutribowl/storefront/internal/routes"
)

func main() {
	// 0. --- Load Configuration (.env + environment) ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 1. --- Logger ---
	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. --- Database Connection & Schema ---
	// An unreachable database is not fatal: /api/health reports 503 until it is migrated.
	db, err := database.OpenDB(ctx, cfg.Database.DSN, logger)
	if db == nil {
		logger.Fatal("Failed to configure database", zap.Error(err))
	}
	defer db.Close()

	// 3. --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// --- Application Setup ---
	app := handlers.New(db, cfg, logger, m)
	// Health answers 503 until this has migrated the schema.
	go app.WaitForSchema(ctx, 5*time.Second)
	router, err := routes.SetupRouter(app, registry)
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting storefront API server", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}
