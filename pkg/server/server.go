package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aigoflow/attrition-service/internal/capabilities"
	"github.com/aigoflow/attrition-service/internal/handlers"
	"github.com/aigoflow/attrition-service/internal/metrics"
	"github.com/aigoflow/attrition-service/internal/services"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	httpAddr          string
	predictionService *services.PredictionService
	healthService     *services.HealthService
	metrics           *metrics.Metrics
}

// NewServer builds the HTTP front end. healthService and m may be nil.
func NewServer(httpAddr string, predictionService *services.PredictionService, healthService *services.HealthService, m *metrics.Metrics) *Server {
	return &Server{
		httpAddr:          httpAddr,
		predictionService: predictionService,
		healthService:     healthService,
		metrics:           m,
	}
}

// Handler returns the routed mux without binding a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	detector := capabilities.NewAutoCapabilityDetector()
	detected := detector.DetectCapabilities(s.predictionService.Model())

	slog.Info("Registering endpoints for detected capabilities",
		"mode", s.predictionService.Mode(),
		"capabilities", detector.GetCapabilitiesSummary(detected))

	handlers.NewPredictHandler(s.predictionService, s.healthService).RegisterRoutes(mux)
	handlers.NewIndexHandler(s.predictionService.Mode()).RegisterRoutes(mux)
	endpoints := []string{"/", "/predict", "/healthz", "/logs"}

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
		endpoints = append(endpoints, "/metrics")
	}

	slog.Info("Registered endpoints", "endpoints", endpoints)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.httpAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", s.httpAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
