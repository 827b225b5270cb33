// Package classifier holds the attrition classifier artifacts: the capability
// interfaces the prediction service depends on, the tree ensemble that
// implements them, and the loader/trainer for its on-disk JSON form.
package classifier

import "errors"

// Classifier produces a class label for a single feature row.
type Classifier interface {
	Predict(x []float64) (int, error)
}

// ProbabilityEstimator is a Classifier that can also report per-class
// probabilities. The returned slice is indexed like the artifact's classes.
type ProbabilityEstimator interface {
	Classifier
	PredictProba(x []float64) ([]float64, error)
}

var (
	ErrEmptyEnsemble = errors.New("classifier has no trees")
	ErrUnknownFormat = errors.New("unknown classifier format")
)
