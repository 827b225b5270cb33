package capabilities

// CapabilityType represents what the loaded attrition model can do
type CapabilityType string

const (
	CapabilityAttritionPrediction   CapabilityType = "attrition-prediction"
	CapabilityProbabilityEstimation CapabilityType = "probability-estimation"
	CapabilityLabelOnly             CapabilityType = "label-only"
	CapabilityHeuristicFallback     CapabilityType = "heuristic-fallback"
	CapabilityContributions         CapabilityType = "feature-contributions"
)

// Capability represents a specific capability with metadata
type Capability struct {
	Type        CapabilityType         `json:"type"`
	Version     string                 `json:"version"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	Description string                 `json:"description,omitempty"`
}

// CapabilityDetector interface for detecting classifier capabilities
type CapabilityDetector interface {
	DetectCapabilities(model interface{}) []Capability
	SupportsCapability(model interface{}, capability CapabilityType) bool
	GetCapabilityStrings(capabilities []Capability) []string
}
