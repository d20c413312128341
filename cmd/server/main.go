package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/dues-engine/internal/app"
	"github.com/segyhp/dues-engine/internal/config"
	"github.com/segyhp/dues-engine/internal/handler"
	"github.com/segyhp/dues-engine/internal/metrics"
	"github.com/segyhp/dues-engine/pkg/logger"
	"github.com/segyhp/dues-engine/pkg/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format, "dues-engine")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(ctx, cfg, zl)
	cancel()
	if err != nil {
		zl.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	duesHandler := handler.NewDuesHandler(application.Service, cfg.Location(), time.Now)
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"database": application.Repo,
		"redis":    application.KV,
	}, cfg.Health.Timeout)

	router := setupRoutes(duesHandler, healthHandler, application.Metrics, zl)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zl.Info("Server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	zl.Info("Server exited")
}

func setupRoutes(duesHandler *handler.DuesHandler, healthHandler *handler.HealthHandler, m *metrics.Metrics, zl *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.RequestIDMiddleware)
	router.Use(response.LoggingMiddleware(zl))
	router.Use(response.CORSMiddleware)
	router.Use(m.Middleware)

	router.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	duesHandler.Register(api)

	return router
}
