package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aigoflow/attrition-service/internal/models"
	"github.com/aigoflow/attrition-service/internal/store"
)

// SQLiteRepository implements Repository interface using SQLite
type SQLiteRepository struct {
	db             *store.DB
	predictionRepo PredictionRepositoryInterface
	eventRepo      EventRepositoryInterface
}

func NewSQLiteRepository(db *store.DB) Repository {
	return &SQLiteRepository{
		db:             db,
		predictionRepo: &SQLitePredictionRepository{db: db},
		eventRepo:      &SQLiteEventRepository{db: db},
	}
}

func (r *SQLiteRepository) Prediction() PredictionRepositoryInterface {
	return r.predictionRepo
}

func (r *SQLiteRepository) Event() EventRepositoryInterface {
	return r.eventRepo
}

// SQLitePredictionRepository handles prediction logging
type SQLitePredictionRepository struct {
	db *store.DB
}

func (r *SQLitePredictionRepository) LogPrediction(ctx context.Context, log *models.PredictionLog) error {
	err := r.db.Prediction(
		log.Timestamp,
		log.TraceID,
		log.ReqID,
		log.WorkerID,
		log.Source,
		log.Mode,
		log.FeaturesJSON,
		log.Prediction,
		log.Probability,
		log.RiskLevel,
		log.Summary,
		time.Duration(log.DurationMs*float64(time.Millisecond)),
		log.Status,
		log.ErrorKind,
		log.Error,
	)
	if err != nil {
		return fmt.Errorf("insert prediction log: %w", err)
	}
	return nil
}

func (r *SQLitePredictionRepository) GetPredictionLogs(ctx context.Context, limit int) ([]*models.PredictionLog, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ts,trace_id,req_id,worker_id,source,mode,features_json,prediction,probability,risk_level,summary,dur_ms,status,error_kind,error FROM predictions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query prediction logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.PredictionLog, 0)
	for rows.Next() {
		var log models.PredictionLog
		var tsFloat float64

		if err := rows.Scan(
			&tsFloat, &log.TraceID, &log.ReqID, &log.WorkerID, &log.Source, &log.Mode,
			&log.FeaturesJSON, &log.Prediction, &log.Probability, &log.RiskLevel,
			&log.Summary, &log.DurationMs, &log.Status, &log.ErrorKind, &log.Error,
		); err != nil {
			return nil, fmt.Errorf("scan prediction log: %w", err)
		}
		log.Timestamp = store.FromUnixSeconds(tsFloat)
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// SQLiteEventRepository handles event logging
type SQLiteEventRepository struct {
	db *store.DB
}

func (r *SQLiteEventRepository) LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error {
	if err := r.db.Event(level, code, msg, meta); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) GetEvents(ctx context.Context, limit int) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ts,level,code,msg,meta FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		var ev models.Event
		var tsFloat float64
		if err := rows.Scan(&tsFloat, &ev.Level, &ev.Code, &ev.Msg, &ev.Meta); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Timestamp = store.FromUnixSeconds(tsFloat)
		events = append(events, &ev)
	}

	return events, rows.Err()
}
