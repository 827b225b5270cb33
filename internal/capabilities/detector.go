package capabilities

import (
	"log/slog"
	"strings"

	"github.com/aigoflow/attrition-service/internal/classifier"
)

// AutoCapabilityDetector inspects a loaded classifier once, at load time
type AutoCapabilityDetector struct{}

// NewAutoCapabilityDetector creates a new auto-capability detector
func NewAutoCapabilityDetector() *AutoCapabilityDetector {
	return &AutoCapabilityDetector{}
}

// DetectCapabilities reports the capabilities of model, which is either nil
// (heuristic mode) or a classifier.Classifier.
func (d *AutoCapabilityDetector) DetectCapabilities(model interface{}) []Capability {
	capabilities := []Capability{{
		Type:        CapabilityAttritionPrediction,
		Version:     "1.0",
		Description: "Predict employee attrition from five features",
		Parameters: map[string]interface{}{
			"features": []string{"JobRole", "Department", "WorkLifeBalance", "JobSatisfaction", "StockOptionLevel"},
		},
	}}

	switch model.(type) {
	case classifier.ProbabilityEstimator:
		capabilities = append(capabilities, Capability{
			Type:        CapabilityProbabilityEstimation,
			Version:     "1.0",
			Description: "Positive-class probability from the loaded classifier",
		})
		slog.Debug("Detected probability estimation capability")
	case classifier.Classifier:
		capabilities = append(capabilities, Capability{
			Type:        CapabilityLabelOnly,
			Version:     "1.0",
			Description: "Labels only; probability is fixed at 85.0 or 15.0",
		})
		slog.Debug("Detected label-only classifier")
	default:
		capabilities = append(capabilities, Capability{
			Type:        CapabilityHeuristicFallback,
			Version:     "1.0",
			Description: "Fixed-weight heuristic scoring, no classifier loaded",
		})
		slog.Debug("No classifier loaded, heuristic fallback active")
	}

	capabilities = append(capabilities, Capability{
		Type:        CapabilityContributions,
		Version:     "1.0",
		Description: "Mock per-feature contribution scores",
	})

	slog.Info("Capability detection completed", "total_capabilities", len(capabilities))

	return capabilities
}

// SupportsCapability checks if a model supports a specific capability
func (d *AutoCapabilityDetector) SupportsCapability(model interface{}, capability CapabilityType) bool {
	for _, c := range d.DetectCapabilities(model) {
		if c.Type == capability {
			return true
		}
	}
	return false
}

// GetCapabilityStrings converts capabilities to string array for JSON serialization
func (d *AutoCapabilityDetector) GetCapabilityStrings(capabilities []Capability) []string {
	out := make([]string, len(capabilities))
	for i, c := range capabilities {
		out[i] = string(c.Type)
	}
	return out
}

// GetCapabilitiesSummary returns a human-readable summary of capabilities
func (d *AutoCapabilityDetector) GetCapabilitiesSummary(capabilities []Capability) string {
	var summary []string

	for _, c := range capabilities {
		switch c.Type {
		case CapabilityAttritionPrediction:
			summary = append(summary, "Attrition Prediction")
		case CapabilityProbabilityEstimation:
			summary = append(summary, "Probabilities")
		case CapabilityLabelOnly:
			summary = append(summary, "Labels Only")
		case CapabilityHeuristicFallback:
			summary = append(summary, "Heuristic Fallback")
		case CapabilityContributions:
			summary = append(summary, "Contributions")
		}
	}

	if len(summary) == 0 {
		return "None"
	}

	return strings.Join(summary, ", ")
}
