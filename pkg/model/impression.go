package model

// Evaluation kinds carried on impression events.
const (
	EvaluationIsEnabled  = "isEnabled"
	EvaluationGetVariant = "getVariant"
)

// ImpressionEvent records a single evaluation of a toggle that has
// impression data enabled.
type ImpressionEvent struct {
	EventID        string  `json:"eventId"`
	Context        Context `json:"context"`
	Enabled        bool    `json:"enabled"`
	ToggleName     string  `json:"toggleName"`
	EvaluationKind string  `json:"evaluationKind"`
	VariantName    string  `json:"variantName,omitempty"`
}
