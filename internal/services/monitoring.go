package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aigoflow/attrition-service/internal/config"
)

type MonitoringService struct {
	nats           *nats.Conn
	config         *config.Config
	pendingCount   int64 // atomic counter
	activeCount    int64 // atomic counter for active processing
	processedCount int64 // atomic counter
}

type BackpressureReport struct {
	ServiceName      string    `json:"service_name"`
	PendingMessages  int64     `json:"pending_messages"`
	ActiveProcessing int64     `json:"active_processing"`
	TotalProcessed   int64     `json:"total_processed"`
	Timestamp        time.Time `json:"timestamp"`
	WorkerCount      int       `json:"worker_count"`
	QueueCapacity    int       `json:"queue_capacity"`
	Status           string    `json:"status"` // healthy, warning, critical
}

func NewMonitoringService(natsConn *nats.Conn, cfg *config.Config) *MonitoringService {
	return &MonitoringService{
		nats:   natsConn,
		config: cfg,
	}
}

func (m *MonitoringService) Start(ctx context.Context) error {
	slog.Info("Starting monitoring service",
		"topic", m.topic(),
		"threshold", m.config.BackpressureThreshold)

	go m.monitorBackpressure(ctx)

	return nil
}

func (m *MonitoringService) topic() string {
	return fmt.Sprintf("%s.backpressure.%s", m.config.MonitoringTopic, m.config.ServiceName)
}

func (m *MonitoringService) monitorBackpressure(ctx context.Context) {
	highLoadTicker := time.NewTicker(1 * time.Second) // When pending > 0
	lowLoadTicker := time.NewTicker(10 * time.Second) // When pending = 0
	defer highLoadTicker.Stop()
	defer lowLoadTicker.Stop()

	currentTicker := lowLoadTicker

	for {
		select {
		case <-ctx.Done():
			return
		case <-currentTicker.C:
			pending := atomic.LoadInt64(&m.pendingCount)

			if pending > 0 && currentTicker == lowLoadTicker {
				currentTicker = highLoadTicker
				slog.Debug("Switched to high-frequency monitoring", "pending", pending)
			} else if pending == 0 && currentTicker == highLoadTicker {
				currentTicker = lowLoadTicker
				slog.Debug("Switched to low-frequency monitoring")
			}

			m.reportBackpressure()
		}
	}
}

// Report snapshots the counters.
func (m *MonitoringService) Report() BackpressureReport {
	pending := atomic.LoadInt64(&m.pendingCount)
	active := atomic.LoadInt64(&m.activeCount)

	return BackpressureReport{
		ServiceName:      m.config.ServiceName,
		PendingMessages:  pending,
		ActiveProcessing: active,
		TotalProcessed:   atomic.LoadInt64(&m.processedCount),
		Timestamp:        time.Now(),
		WorkerCount:      m.config.Concurrency,
		QueueCapacity:    m.config.MaxMsgs,
		Status:           m.calculateStatus(pending, active),
	}
}

func (m *MonitoringService) reportBackpressure() {
	report := m.Report()

	reportData, err := json.Marshal(report)
	if err != nil {
		slog.Error("Failed to marshal backpressure report", "error", err)
		return
	}

	if err := m.nats.Publish(m.topic(), reportData); err != nil {
		slog.Warn("Failed to publish backpressure report", "error", err)
		return
	}

	if report.PendingMessages > 0 || report.Status != "healthy" {
		slog.Info("Backpressure report",
			"pending", report.PendingMessages,
			"active", report.ActiveProcessing,
			"status", report.Status)
	}
}

func (m *MonitoringService) calculateStatus(pending, active int64) string {
	total := pending + active
	threshold := int64(m.config.BackpressureThreshold)

	if total == 0 {
		return "healthy"
	} else if total < threshold {
		return "warning"
	}
	return "critical"
}

// IncrementPending atomically increments pending message count
func (m *MonitoringService) IncrementPending() {
	atomic.AddInt64(&m.pendingCount, 1)
}

// DecrementPending atomically decrements pending message count
func (m *MonitoringService) DecrementPending() {
	atomic.AddInt64(&m.pendingCount, -1)
}

// IncrementActive atomically increments active processing count
func (m *MonitoringService) IncrementActive() {
	atomic.AddInt64(&m.activeCount, 1)
}

// DecrementActive atomically decrements active processing count
func (m *MonitoringService) DecrementActive() {
	atomic.AddInt64(&m.activeCount, -1)
}

func (m *MonitoringService) IncrementProcessed() {
	atomic.AddInt64(&m.processedCount, 1)
}
