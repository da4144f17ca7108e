package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/pkg/models"
)

// Bounds on analyzed text, counted in characters
const (
	MinTextLength = 50
	MaxTextLength = 10000
)

// Bounds on generation request fields
const (
	MaxFieldLength   = 200
	MaxSnippetLength = 5000
	MaxPromptLength  = 4000
)

// ValidateAnalysisText checks the length of a text submitted for detection
func ValidateAnalysisText(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case n < MinTextLength:
		return apperrors.NewValidationError("text",
			fmt.Sprintf("text must be at least %d characters, got %d", MinTextLength, n), nil)
	case n > MaxTextLength:
		return apperrors.NewValidationError("text",
			fmt.Sprintf("text must be at most %d characters, got %d", MaxTextLength, n), nil)
	}
	return nil
}

// ValidateGenerationRequest requires topic, category and tone unless a
// custom prompt replaces them
func ValidateGenerationRequest(req models.GenerationRequest) error {
	custom := strings.TrimSpace(req.CustomPrompt)
	if utf8.RuneCountInString(custom) > MaxPromptLength {
		return apperrors.NewValidationError("customPrompt",
			fmt.Sprintf("custom prompt must be at most %d characters", MaxPromptLength), nil)
	}
	if utf8.RuneCountInString(req.ArticleSnippet) > MaxSnippetLength {
		return apperrors.NewValidationError("articleSnippet",
			fmt.Sprintf("article snippet must be at most %d characters", MaxSnippetLength), nil)
	}

	fields := []struct {
		name  string
		value string
	}{
		{"topic", req.Topic},
		{"category", req.Category},
		{"tone", req.Tone},
	}
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" && custom == "" {
			return apperrors.NewValidationError(f.name, f.name+" is required", nil)
		}
		if utf8.RuneCountInString(v) > MaxFieldLength {
			return apperrors.NewValidationError(f.name,
				fmt.Sprintf("%s must be at most %d characters", f.name, MaxFieldLength), nil)
		}
	}
	return nil
}

// MaxBatchSize bounds the number of requests in one batch
const MaxBatchSize = 25

// ValidateBatch checks the batch size and every entry; the first invalid
// entry rejects the whole batch
func ValidateBatch(reqs []models.GenerationRequest) error {
	if len(reqs) == 0 {
		return apperrors.NewValidationError("requests", "requests must not be empty", nil)
	}
	if len(reqs) > MaxBatchSize {
		return apperrors.NewValidationError("requests",
			fmt.Sprintf("at most %d requests per batch, got %d", MaxBatchSize, len(reqs)), nil)
	}
	for i, req := range reqs {
		if err := ValidateGenerationRequest(req); err != nil {
			var verr *apperrors.ValidationError
			if errors.As(err, &verr) {
				return apperrors.NewValidationError(fmt.Sprintf("requests[%d].%s", i, verr.Field), verr.Message, verr.Cause)
			}
			return err
		}
	}
	return nil
}
