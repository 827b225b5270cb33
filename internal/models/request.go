package models

import "time"

// PredictionLog represents a logged attrition prediction
type PredictionLog struct {
	Timestamp    time.Time `json:"ts"`
	TraceID      string    `json:"trace_id"`
	ReqID        string    `json:"req_id"`
	WorkerID     string    `json:"worker_id"`
	Source       string    `json:"source"`
	Mode         string    `json:"mode"`
	FeaturesJSON string    `json:"features_json"`
	Prediction   int       `json:"prediction"`
	Probability  float64   `json:"probability"`
	RiskLevel    string    `json:"risk_level"`
	Summary      string    `json:"summary"`
	DurationMs   float64   `json:"dur_ms"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Event represents a lifecycle event recorded by the service
type Event struct {
	Timestamp time.Time `json:"ts"`
	Level     string    `json:"level"`
	Code      string    `json:"code"`
	Msg       string    `json:"msg"`
	Meta      string    `json:"meta"`
}
