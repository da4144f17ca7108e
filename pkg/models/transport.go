package models

import apperrors "go-news-inspector/internal/errors"

// DetectRequest is the body of POST /api/v1/detect
type DetectRequest struct {
	Text   string `json:"text" binding:"required"`
	Method string `json:"method,omitempty"`
}

// BatchRequest is the body of POST /api/v1/generate/batch
type BatchRequest struct {
	Requests []GenerationRequest `json:"requests" yaml:"requests" binding:"required"`
	// Limit caps concurrent generations; 0 uses the server default
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// ErrorResponse represents an error response.
// Kind, Stage and Retriable are set for classified failures only.
type ErrorResponse struct {
	Error     string          `json:"error"`
	Kind      apperrors.Kind  `json:"kind,omitempty"`
	Stage     apperrors.Stage `json:"stage,omitempty"`
	Retriable *bool           `json:"retriable,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
