package repository

import (
	"context"

	"github.com/aigoflow/attrition-service/internal/models"
)

// Repository aggregates all repository interfaces
type Repository interface {
	Prediction() PredictionRepositoryInterface
	Event() EventRepositoryInterface
}

// PredictionRepositoryInterface defines prediction logging operations
type PredictionRepositoryInterface interface {
	LogPrediction(ctx context.Context, log *models.PredictionLog) error
	GetPredictionLogs(ctx context.Context, limit int) ([]*models.PredictionLog, error)
}

// EventRepositoryInterface defines event logging operations
type EventRepositoryInterface interface {
	LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error
	GetEvents(ctx context.Context, limit int) ([]*models.Event, error)
}
