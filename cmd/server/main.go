package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aigoflow/attrition-service/internal/config"
	"github.com/aigoflow/attrition-service/internal/metrics"
	"github.com/aigoflow/attrition-service/internal/repository"
	"github.com/aigoflow/attrition-service/internal/services"
	"github.com/aigoflow/attrition-service/internal/store"
	"github.com/aigoflow/attrition-service/pkg/server"
)

func main() {
	var envFile = flag.String("env", "", "Optional .env file to load")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	slog.SetDefault(cfg.NewLogger())

	// Initialize database
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.Event("info", "startup", "Server starting", map[string]interface{}{
		"service_name": cfg.ServiceName,
		"http_addr":    cfg.HTTPAddr,
		"db_path":      cfg.DBPath,
	})

	repo := repository.NewSQLiteRepository(db)
	model := services.LoadModel(context.Background(), cfg.ModelPath, repo.Event())

	var rng *rand.Rand
	if cfg.ContributionSeed != 0 {
		rng = rand.New(rand.NewPCG(cfg.ContributionSeed, cfg.ContributionSeed))
	}

	m := metrics.New()
	predictionService := services.NewPredictionService(model, repo, m, rng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var healthService *services.HealthService
	if cfg.NatsEnabled {
		db.Event("info", "services.init", "Initializing queue services", map[string]interface{}{
			"nats_url":        cfg.NatsURL,
			"subject":         cfg.Subject,
			"response_prefix": cfg.ResponsePrefix,
		})

		natsService, err := services.NewNATSService(cfg, predictionService)
		if err != nil {
			db.Event("error", "nats.failed", "NATS service initialization failed", map[string]interface{}{
				"nats_url": cfg.NatsURL,
				"error":    err.Error(),
			})
			slog.Error("Failed to create NATS service", "error", err)
			os.Exit(1)
		}
		defer natsService.Close()

		healthService = services.NewHealthService(natsService.GetConnection(), cfg, predictionService, natsService.GetMonitoringService())

		go func() {
			if err := natsService.Start(ctx); err != nil {
				db.Event("error", "nats.failed", "NATS service failed", map[string]interface{}{
					"error": err.Error(),
				})
				slog.Error("NATS service failed", "error", err)
			}
		}()

		go func() {
			if err := healthService.Start(ctx); err != nil {
				db.Event("error", "health.failed", "Health service failed", map[string]interface{}{
					"error": err.Error(),
				})
				slog.Error("Health service failed", "error", err)
			}
		}()
	}

	httpServer := server.NewServer(cfg.HTTPAddr, predictionService, healthService, m)

	db.Event("info", "server.ready", "Server ready to accept requests", map[string]interface{}{
		"http_addr": cfg.HTTPAddr,
		"mode":      predictionService.Mode(),
		"nats":      cfg.NatsEnabled,
	})

	httpDone := make(chan struct{})
	go func() {
		defer close(httpDone)
		if err := httpServer.Start(ctx); err != nil {
			db.Event("error", "http.failed", "HTTP server failed", map[string]interface{}{
				"error": err.Error(),
			})
			slog.Error("HTTP server failed", "error", err)
			cancel()
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	cancel()
	<-httpDone
}
