package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/oklog/ulid/v2"

	"github.com/aigoflow/attrition-service/internal/services"
)

const defaultLogLimit = 50

type PredictHandler struct {
	predictionService *services.PredictionService
	healthService     *services.HealthService
}

// NewPredictHandler serves the prediction API. healthService may be nil, in
// which case /healthz reports only the scoring mode.
func NewPredictHandler(predictionService *services.PredictionService, healthService *services.HealthService) *PredictHandler {
	return &PredictHandler{
		predictionService: predictionService,
		healthService:     healthService,
	}
}

func (h *PredictHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/predict", h.handlePredict)
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/logs", h.handleLogs)
}

func (h *PredictHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.healthService != nil {
		writeJSON(w, http.StatusOK, h.healthService.Status())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "online",
		"mode":   h.predictionService.Mode(),
	})
}

func (h *PredictHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body interface{}
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	features, ok := body.(map[string]interface{})
	if !ok {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	req := services.PredictionRequest{
		ReqID:    ulid.Make().String(),
		TraceID:  r.Header.Get("X-Trace-ID"),
		Features: features,
	}

	result, err := h.predictionService.ProcessPrediction(r.Context(), req, "http.predict", "http-worker")
	if err != nil {
		var perr *services.PredictionError
		if errors.As(err, &perr) {
			status := http.StatusInternalServerError
			if perr.Kind == services.ValidationError {
				status = http.StatusBadRequest
			}
			writeError(w, status, perr.PublicMessage())
			return
		}
		slog.Error("Unexpected prediction error", "req_id", req.ReqID, "error", err)
		writeError(w, http.StatusInternalServerError, "model inference failed")
		return
	}

	w.Header().Set("X-Request-ID", req.ReqID)
	writeJSON(w, http.StatusOK, result)
}

func (h *PredictHandler) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := h.predictionService.GetPredictionLogs(r.Context(), limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to get logs: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
