package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aigoflow/attrition-service/internal/capabilities"
	"github.com/aigoflow/attrition-service/internal/config"
)

const serviceVersion = "1.0.0"

type HealthService struct {
	nats         *nats.Conn
	config       *config.Config
	prediction   *PredictionService
	monitoring   *MonitoringService
	capabilities []string
	startedAt    time.Time
}

type HealthStatus struct {
	ServiceName  string              `json:"service_name"`
	Status       string              `json:"status"` // online, offline, busy
	Mode         string              `json:"mode"`   // model, heuristic
	LastActivity time.Time           `json:"last_activity"`
	StartedAt    time.Time           `json:"started_at"`
	Capabilities []string            `json:"capabilities"`
	Endpoint     string              `json:"endpoint"`
	NATSTopic    string              `json:"nats_topic"`
	Version      string              `json:"version"`
	Queue        *BackpressureReport `json:"queue,omitempty"`
}

// NewHealthService answers health probes for the prediction service. monitoring
// may be nil when the queue consumer is not running.
func NewHealthService(natsConn *nats.Conn, cfg *config.Config, prediction *PredictionService, monitoring *MonitoringService) *HealthService {
	detector := capabilities.NewAutoCapabilityDetector()
	return &HealthService{
		nats:         natsConn,
		config:       cfg,
		prediction:   prediction,
		monitoring:   monitoring,
		capabilities: detector.GetCapabilityStrings(detector.DetectCapabilities(prediction.Model())),
		startedAt:    time.Now(),
	}
}

func (h *HealthService) Start(ctx context.Context) error {
	healthTopic := fmt.Sprintf("models.%s.health", h.config.ServiceName)

	sub, err := h.nats.Subscribe(healthTopic, func(msg *nats.Msg) {
		statusData, err := json.Marshal(h.Status())
		if err != nil {
			slog.Error("Failed to marshal health status", "error", err)
			return
		}

		if err := msg.Respond(statusData); err != nil {
			slog.Error("Failed to respond to health check", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to health topic: %w", err)
	}

	slog.Info("Health service started", "topic", healthTopic)

	go h.publishHeartbeats(ctx)

	<-ctx.Done()
	return sub.Unsubscribe()
}

func (h *HealthService) publishHeartbeats(ctx context.Context) {
	ticker := time.NewTicker(h.config.HeartbeatInterval)
	defer ticker.Stop()

	heartbeatTopic := fmt.Sprintf("%s.heartbeat.%s", h.config.MonitoringTopic, h.config.ServiceName)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			statusData, err := json.Marshal(h.Status())
			if err != nil {
				continue
			}

			if err := h.nats.Publish(heartbeatTopic, statusData); err != nil {
				slog.Warn("Failed to publish heartbeat", "error", err)
			}
		}
	}
}

// Status describes the running service; it is also served on /healthz.
func (h *HealthService) Status() HealthStatus {
	status := HealthStatus{
		ServiceName:  h.config.ServiceName,
		Status:       "online",
		Mode:         h.prediction.Mode(),
		LastActivity: time.Now(),
		StartedAt:    h.startedAt,
		Capabilities: h.capabilities,
		Endpoint:     fmt.Sprintf("http://localhost%s", h.config.HTTPAddr),
		Version:      serviceVersion,
	}
	if h.config.NatsEnabled {
		status.NATSTopic = h.config.Subject
	}
	if h.monitoring != nil {
		report := h.monitoring.Report()
		status.Queue = &report
		if report.Status == "critical" {
			status.Status = "busy"
		}
	}
	return status
}
