package models

// Label is the verdict of a detection backend
type Label string

const (
	LabelReal Label = "Real"
	LabelFake Label = "Fake"
)

// DetectionMethod selects the backend that analyzes a text
type DetectionMethod string

const (
	// MethodCustom routes to the deterministic classifier service
	MethodCustom DetectionMethod = "custom"
	// MethodLLM routes to the generative model with the fact-check tool
	MethodLLM DetectionMethod = "llm"
)

// AnalysisRequest is a single user submission for detection
type AnalysisRequest struct {
	Text   string          `json:"text" yaml:"text"`
	Method DetectionMethod `json:"method,omitempty" yaml:"method,omitempty"`
}

// FactCheck is one published review of a claim found in the text
type FactCheck struct {
	Source        string `json:"source"`
	ClaimReviewed string `json:"claimReviewed"`
	Rating        string `json:"rating"`
	URL           string `json:"url,omitempty"`
}

// DetectionResult is the backend-independent outcome of a detection.
// Confidence is always within [0,100] with one decimal place.
type DetectionResult struct {
	Label         Label       `json:"label"`
	Confidence    float64     `json:"confidence"`
	Justification string      `json:"justification,omitempty"`
	FactChecks    []FactCheck `json:"factChecks,omitempty"`
}
