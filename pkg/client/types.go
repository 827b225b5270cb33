package client

import "time"

// Features are the five employee attributes, in the order the classifier
// consumes them.
type Features struct {
	JobRole          int `json:"JobRole"`
	Department       int `json:"Department"`
	WorkLifeBalance  int `json:"WorkLifeBalance"`
	JobSatisfaction  int `json:"JobSatisfaction"`
	StockOptionLevel int `json:"StockOptionLevel"`
}

type PredictionRequest struct {
	TraceID  string   `json:"trace_id,omitempty"`
	ReqID    string   `json:"req_id"`
	Features Features `json:"features"`
	ReplyTo  string   `json:"reply_to,omitempty"`
}

type PredictionResponse struct {
	ReqID                string             `json:"req_id"`
	AttritionPrediction  int                `json:"attrition_prediction"`
	AttritionProbability float64            `json:"attrition_probability"`
	RiskLevel            string             `json:"risk_level"`
	FeatureSummary       string             `json:"feature_summary"`
	FeatureContributions map[string]float64 `json:"feature_contributions"`
	Error                string             `json:"error,omitempty"`
}

type QueueStatus struct {
	PendingMessages  int64  `json:"pending_messages"`
	ActiveProcessing int64  `json:"active_processing"`
	TotalProcessed   int64  `json:"total_processed"`
	Status           string `json:"status"`
}

type HealthStatus struct {
	ServiceName  string       `json:"service_name"`
	Status       string       `json:"status"`
	Mode         string       `json:"mode"`
	LastActivity time.Time    `json:"last_activity"`
	StartedAt    time.Time    `json:"started_at"`
	Capabilities []string     `json:"capabilities"`
	Endpoint     string       `json:"endpoint"`
	NATSTopic    string       `json:"nats_topic"`
	Version      string       `json:"version"`
	Queue        *QueueStatus `json:"queue,omitempty"`
}
