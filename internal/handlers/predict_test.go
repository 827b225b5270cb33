package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigoflow/attrition-service/internal/classifier"
	"github.com/aigoflow/attrition-service/internal/repository"
	"github.com/aigoflow/attrition-service/internal/services"
	"github.com/aigoflow/attrition-service/internal/store"
)

const validBody = `{"JobRole": 2, "Department": 1, "WorkLifeBalance": 1, "JobSatisfaction": 1, "StockOptionLevel": 0}`

func newMux(t *testing.T, model classifier.Classifier) (*http.ServeMux, repository.Repository) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "handlers.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLiteRepository(db)
	svc := services.NewPredictionService(model, repo, nil, nil)

	mux := http.NewServeMux()
	NewPredictHandler(svc, nil).RegisterRoutes(mux)
	NewIndexHandler(svc.Mode()).RegisterRoutes(mux)
	return mux, repo
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// badFeatureArtifact splits on a feature index the five-field vector does not have.
func badFeatureArtifact() classifier.Classifier {
	artifact := &classifier.Artifact{
		Format:  classifier.ArtifactFormat,
		Version: classifier.ArtifactVersion,
		Voting:  classifier.VotingSoft,
		Classes: []int{0, 1},
		Trees: []classifier.Tree{{Nodes: []classifier.Node{
			{Feature: 7, Threshold: 0.5, Left: 1, Right: 2},
			{Left: -1, Right: -1, Value: []float64{1, 0}},
			{Left: -1, Right: -1, Value: []float64{0, 1}},
		}}},
	}
	return artifact.Classifier()
}

func TestPredictHeuristic(t *testing.T) {
	mux, _ := newMux(t, nil)

	rec := do(mux, http.MethodPost, "/predict", validBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decodeBody(t, rec)
	assert.Len(t, body, 5)
	assert.Equal(t, 1.0, body["attrition_prediction"])
	assert.Equal(t, 95.0, body["attrition_probability"])
	assert.Equal(t, "High", body["risk_level"])
	assert.Contains(t, body["feature_summary"], "Low job satisfaction")
	assert.Len(t, body["feature_contributions"], 5)
}

func TestPredictValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		error string
	}{
		{"missing field", `{"JobRole": 2, "Department": 1, "WorkLifeBalance": 1, "JobSatisfaction": 1}`, "StockOptionLevel is required"},
		{"non-numeric field", `{"JobRole": "sales", "Department": 1, "WorkLifeBalance": 1, "JobSatisfaction": 1, "StockOptionLevel": 0}`, "JobRole must be an integer"},
		{"invalid json", `{"JobRole": `, "Invalid JSON"},
		{"array body", `[2, 1, 1, 1, 0]`, "request body must be a JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, _ := newMux(t, nil)

			rec := do(mux, http.MethodPost, "/predict", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeBody(t, rec)["error"], tt.error)
		})
	}
}

func TestPredictMethodNotAllowed(t *testing.T) {
	mux, _ := newMux(t, nil)

	rec := do(mux, http.MethodGet, "/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestPredictInferenceFailureHidesCause(t *testing.T) {
	mux, repo := newMux(t, badFeatureArtifact())

	rec := do(mux, http.MethodPost, "/predict", validBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "model inference failed"}, decodeBody(t, rec))
	assert.NotContains(t, rec.Body.String(), "feature index")

	logs, err := repo.Prediction().GetPredictionLogs(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "inference", logs[0].ErrorKind)
	assert.Contains(t, logs[0].Error, "feature index 7 out of range")
}

func TestTraceIDPropagates(t *testing.T) {
	mux, repo := newMux(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(validBody))
	req.Header.Set("X-Trace-ID", "trace-abc")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	logs, err := repo.Prediction().GetPredictionLogs(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "trace-abc", logs[0].TraceID)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), logs[0].ReqID)
	assert.Equal(t, "http.predict", logs[0].Source)
}

func TestLogsNewestFirst(t *testing.T) {
	mux, _ := newMux(t, nil)

	do(mux, http.MethodPost, "/predict", validBody)
	do(mux, http.MethodPost, "/predict", `{"JobRole": 0, "Department": 0, "WorkLifeBalance": 4, "JobSatisfaction": 4, "StockOptionLevel": 3}`)

	rec := do(mux, http.MethodGet, "/logs?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var logs []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "Low", logs[0]["risk_level"])
}

func TestHealthWithoutQueue(t *testing.T) {
	mux, _ := newMux(t, nil)

	rec := do(mux, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, services.ModeHeuristic, body["mode"])
}

func TestIndexPage(t *testing.T) {
	mux, _ := newMux(t, nil)

	rec := do(mux, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	for _, name := range services.FeatureOrder {
		assert.Contains(t, rec.Body.String(), `name="`+name+`"`)
	}
	assert.Contains(t, rec.Body.String(), "heuristic")

	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, "/nope", "").Code)
}
