package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/aigoflow/attrition-service/internal/classifier"
	"github.com/aigoflow/attrition-service/internal/metrics"
	"github.com/aigoflow/attrition-service/internal/models"
	"github.com/aigoflow/attrition-service/internal/repository"
)

const (
	ModeModel     = "model"
	ModeHeuristic = "heuristic"
)

// PredictionRequest is the queue envelope; HTTP callers send Features as the
// whole body.
type PredictionRequest struct {
	TraceID  string                 `json:"trace_id,omitempty"`
	ReqID    string                 `json:"req_id"`
	Features map[string]interface{} `json:"features"`
	ReplyTo  string                 `json:"reply_to,omitempty"`
}

// PredictionResult is the public prediction payload.
type PredictionResult struct {
	AttritionPrediction  int                `json:"attrition_prediction"`
	AttritionProbability float64            `json:"attrition_probability"`
	RiskLevel            string             `json:"risk_level"`
	FeatureSummary       string             `json:"feature_summary"`
	FeatureContributions map[string]float64 `json:"feature_contributions"`
}

// PredictionReply wraps a result for queue replies.
type PredictionReply struct {
	ReqID string `json:"req_id"`
	*PredictionResult
	Error string `json:"error,omitempty"`
}

type PredictionService struct {
	model     classifier.Classifier
	estimator classifier.ProbabilityEstimator
	repo      repository.Repository
	metrics   *metrics.Metrics

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPredictionService wires the scoring pipeline. model may be nil, in which
// case every request takes the heuristic path. Whether the model estimates
// probabilities is decided here, once. A nil rng draws contributions from the
// unseeded global source.
func NewPredictionService(model classifier.Classifier, repo repository.Repository, m *metrics.Metrics, rng *rand.Rand) *PredictionService {
	s := &PredictionService{
		model:   model,
		repo:    repo,
		metrics: m,
		rng:     rng,
	}
	if est, ok := model.(classifier.ProbabilityEstimator); ok {
		s.estimator = est
	}
	if m != nil {
		m.SetModelLoaded(model != nil)
	}
	return s
}

// Mode reports which scoring path requests take.
func (s *PredictionService) Mode() string {
	if s.model != nil {
		return ModeModel
	}
	return ModeHeuristic
}

// Model returns the loaded classifier, or nil in heuristic mode.
func (s *PredictionService) Model() classifier.Classifier {
	return s.model
}

func (s *PredictionService) ProcessPrediction(ctx context.Context, req PredictionRequest, source string, workerID string) (*PredictionResult, error) {
	start := time.Now()
	mode := s.Mode()

	traceID := req.TraceID
	if traceID == "" {
		traceID = req.ReqID
	}

	predictionLog := &models.PredictionLog{
		Timestamp:    start,
		TraceID:      traceID,
		ReqID:        req.ReqID,
		WorkerID:     workerID,
		Source:       source,
		Mode:         mode,
		FeaturesJSON: toJSON(req.Features),
		Status:       "ok",
	}

	result, err := s.predict(req.Features)
	predictionLog.DurationMs = float64(time.Since(start).Microseconds()) / 1e3

	if err != nil {
		var perr *PredictionError
		kind := "unknown"
		if errors.As(err, &perr) {
			kind = perr.Kind.String()
		}
		predictionLog.Status = "error"
		predictionLog.ErrorKind = kind
		predictionLog.Error = err.Error()

		slog.Warn("Prediction failed",
			"req_id", req.ReqID,
			"trace_id", traceID,
			"worker_id", workerID,
			"mode", mode,
			"kind", kind,
			"error", err)

		if s.metrics != nil {
			s.metrics.ObserveError(kind)
		}
		s.logPrediction(ctx, predictionLog)
		return nil, err
	}

	predictionLog.Prediction = result.AttritionPrediction
	predictionLog.Probability = result.AttritionProbability
	predictionLog.RiskLevel = result.RiskLevel
	predictionLog.Summary = result.FeatureSummary

	slog.Debug("Prediction completed",
		"req_id", req.ReqID,
		"trace_id", traceID,
		"mode", mode,
		"prediction", result.AttritionPrediction,
		"probability", result.AttritionProbability,
		"risk_level", result.RiskLevel)

	if s.metrics != nil {
		s.metrics.ObservePrediction(mode, result.RiskLevel, time.Since(start))
	}
	s.logPrediction(ctx, predictionLog)
	return result, nil
}

func (s *PredictionService) predict(raw map[string]interface{}) (*PredictionResult, error) {
	features, err := ParseFeatures(raw)
	if err != nil {
		return nil, err
	}

	var prediction int
	var probability float64
	if s.model != nil {
		prediction, probability, err = s.infer(features.Vector())
		if err != nil {
			return nil, newInferenceError(err)
		}
	} else {
		prediction, probability = Heuristic(features)
	}

	return &PredictionResult{
		AttritionPrediction:  prediction,
		AttritionProbability: RoundProbability(probability),
		RiskLevel:            RiskTier(probability),
		FeatureSummary:       strings.Join(Insights(features, prediction), " "),
		FeatureContributions: Contributions(features, s.uniform),
	}, nil
}

// infer runs the label and probability calls separately, so the two may
// disagree for estimators whose label is not the argmax of their probabilities.
func (s *PredictionService) infer(x []float64) (prediction int, probability float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			prediction, probability, err = 0, 0, fmt.Errorf("classifier panic: %v", r)
		}
	}()

	prediction, err = s.model.Predict(x)
	if err != nil {
		return 0, 0, err
	}

	if s.estimator == nil {
		if prediction == 1 {
			return prediction, 85.0, nil
		}
		return prediction, 15.0, nil
	}

	proba, err := s.estimator.PredictProba(x)
	if err != nil {
		return 0, 0, err
	}
	if len(proba) < 2 {
		return 0, 0, fmt.Errorf("no probability for class index 1: classifier returned %d classes", len(proba))
	}
	return prediction, proba[1] * 100, nil
}

func (s *PredictionService) uniform() float64 {
	if s.rng == nil {
		return rand.Float64()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *PredictionService) logPrediction(ctx context.Context, predictionLog *models.PredictionLog) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Prediction().LogPrediction(ctx, predictionLog); err != nil {
		slog.Error("Failed to store prediction log", "req_id", predictionLog.ReqID, "error", err)
	}
}

// GetPredictionLogs retrieves recent prediction logs through the repository
func (s *PredictionService) GetPredictionLogs(ctx context.Context, limit int) ([]*models.PredictionLog, error) {
	if s.repo == nil {
		return []*models.PredictionLog{}, nil
	}
	return s.repo.Prediction().GetPredictionLogs(ctx, limit)
}

// GetRepository returns the repository for use by other services
func (s *PredictionService) GetRepository() repository.Repository {
	return s.repo
}

func toJSON(v interface{}) string {
	if v == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
