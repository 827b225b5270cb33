package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigoflow/attrition-service/internal/capabilities"
	"github.com/aigoflow/attrition-service/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		ServiceName:           "attrition",
		HTTPAddr:              ":5000",
		Subject:               "attrition.predict.request",
		MonitoringTopic:       "monitoring.models",
		BackpressureThreshold: 10,
		Concurrency:           2,
		MaxMsgs:               2000,
	}
}

func TestCalculateStatus(t *testing.T) {
	m := NewMonitoringService(nil, testConfig())

	assert.Equal(t, "healthy", m.calculateStatus(0, 0))
	assert.Equal(t, "warning", m.calculateStatus(4, 5))
	assert.Equal(t, "critical", m.calculateStatus(6, 4))
}

func TestMonitoringReport(t *testing.T) {
	m := NewMonitoringService(nil, testConfig())
	m.IncrementPending()
	m.IncrementPending()
	m.IncrementActive()
	m.IncrementProcessed()
	m.DecrementPending()

	report := m.Report()
	assert.Equal(t, "attrition", report.ServiceName)
	assert.Equal(t, int64(1), report.PendingMessages)
	assert.Equal(t, int64(1), report.ActiveProcessing)
	assert.Equal(t, int64(1), report.TotalProcessed)
	assert.Equal(t, "warning", report.Status)
	assert.Equal(t, 2, report.WorkerCount)
	assert.Equal(t, "monitoring.models.backpressure.attrition", m.topic())
}

func TestHealthStatusHeuristic(t *testing.T) {
	svc := NewPredictionService(nil, nil, nil, nil)
	h := NewHealthService(nil, testConfig(), svc, nil)

	status := h.Status()
	assert.Equal(t, "online", status.Status)
	assert.Equal(t, ModeHeuristic, status.Mode)
	assert.Contains(t, status.Capabilities, string(capabilities.CapabilityHeuristicFallback))
	assert.Empty(t, status.NATSTopic)
	assert.Nil(t, status.Queue)
}

func TestHealthStatusBusyUnderBackpressure(t *testing.T) {
	cfg := testConfig()
	cfg.NatsEnabled = true
	cfg.BackpressureThreshold = 1

	clf := &recordingEstimator{recordingClassifier: recordingClassifier{proba: []float64{0.5, 0.5}}}
	monitoring := NewMonitoringService(nil, cfg)
	monitoring.IncrementActive()
	h := NewHealthService(nil, cfg, NewPredictionService(clf, nil, nil, nil), monitoring)

	status := h.Status()
	assert.Equal(t, "busy", status.Status)
	assert.Equal(t, ModeModel, status.Mode)
	assert.Equal(t, cfg.Subject, status.NATSTopic)
	assert.Contains(t, status.Capabilities, string(capabilities.CapabilityProbabilityEstimation))
	require.NotNil(t, status.Queue)
	assert.Equal(t, int64(1), status.Queue.ActiveProcessing)
}

func TestBuildReply(t *testing.T) {
	svc := NewPredictionService(nil, nil, nil, nil)

	result, err := svc.ProcessPrediction(context.Background(), PredictionRequest{Features: features(1, 1, 1, 1, 0)}, "test", "w")
	require.NoError(t, err)
	reply := BuildReply("r1", result, nil)
	assert.Equal(t, "r1", reply.ReqID)
	assert.Empty(t, reply.Error)
	assert.Equal(t, 95.0, reply.AttritionProbability)

	_, err = svc.ProcessPrediction(context.Background(), PredictionRequest{Features: map[string]interface{}{}}, "test", "w")
	reply = BuildReply("r2", nil, err)
	assert.Nil(t, reply.PredictionResult)
	assert.Equal(t, "JobRole is required", reply.Error)

	reply = BuildReply("r3", nil, newInferenceError(errors.New("leaf index 12 out of range")))
	assert.Equal(t, "model inference failed", reply.Error)

	reply = BuildReply("r4", nil, errors.New("boom"))
	assert.Equal(t, "model inference failed", reply.Error)
}
