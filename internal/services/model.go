package services

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/aigoflow/attrition-service/internal/classifier"
	"github.com/aigoflow/attrition-service/internal/repository"
)

// LoadModel makes the single startup attempt to read the classifier at path.
// A missing or unreadable artifact is not fatal: it returns nil and the
// service answers every request with the heuristic. events may be nil.
func LoadModel(ctx context.Context, path string, events repository.EventRepositoryInterface) classifier.Classifier {
	logEvent(ctx, events, "info", "model.loading", "Model loading started", map[string]interface{}{
		"model_path": path,
	})

	model, err := classifier.Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Warn("Model file not found, using heuristic scoring", "model_path", path)
		logEvent(ctx, events, "warn", "model.missing", "Model file not found", map[string]interface{}{
			"model_path": path,
		})
		return nil
	case err != nil:
		slog.Error("Failed to load model, using heuristic scoring", "model_path", path, "error", err)
		logEvent(ctx, events, "error", "model.failed", "Model loading failed", map[string]interface{}{
			"model_path": path,
			"error":      err.Error(),
		})
		return nil
	}

	slog.Info("Model loaded", "model_path", path)
	logEvent(ctx, events, "info", "model.loaded", "Model loaded successfully", map[string]interface{}{
		"model_path": path,
	})
	return model
}

func logEvent(ctx context.Context, events repository.EventRepositoryInterface, level, code, msg string, meta map[string]interface{}) {
	if events == nil {
		return
	}
	if err := events.LogEvent(ctx, level, code, msg, meta); err != nil {
		slog.Error("Failed to store event", "code", code, "error", err)
	}
}
