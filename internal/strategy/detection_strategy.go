package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/internal/logger"
	"go-news-inspector/pkg/models"

	"github.com/sirupsen/logrus"
)

// DetectionStrategy is one detection backend
type DetectionStrategy interface {
	Detect(ctx context.Context, text string) (models.DetectionResult, error)
	Name() string
}

// Orchestrator dispatches a detection to the backend the caller selected.
// It is stateless and never retries.
type Orchestrator struct {
	strategies    map[models.DetectionMethod]DetectionStrategy
	defaultMethod models.DetectionMethod
}

// NewOrchestrator registers the classifier under "custom" and the
// generative adapter under "llm"
func NewOrchestrator(custom, llm DetectionStrategy) *Orchestrator {
	return &Orchestrator{
		strategies: map[models.DetectionMethod]DetectionStrategy{
			models.MethodCustom: custom,
			models.MethodLLM:    llm,
		},
		defaultMethod: models.MethodCustom,
	}
}

// ParseMethod validates a caller-supplied method name. Empty selects the default.
func ParseMethod(method string) (models.DetectionMethod, error) {
	switch m := models.DetectionMethod(strings.ToLower(strings.TrimSpace(method))); m {
	case "":
		return "", nil
	case models.MethodCustom, models.MethodLLM:
		return m, nil
	default:
		return "", apperrors.NewValidationError("method",
			fmt.Sprintf("unknown detection method %q, expected %q or %q", method, models.MethodCustom, models.MethodLLM), nil)
	}
}

// Detect runs the selected strategy and returns its result unchanged
func (o *Orchestrator) Detect(ctx context.Context, text string, method models.DetectionMethod) (models.DetectionResult, error) {
	if method == "" {
		method = o.defaultMethod
	}

	s, ok := o.strategies[method]
	if !ok {
		return models.DetectionResult{}, apperrors.NewValidationError("method",
			fmt.Sprintf("unknown detection method %q", method), nil)
	}
	if s == nil {
		return models.DetectionResult{}, apperrors.NewConfigMissing(apperrors.StageDetection, string(method)+" detection backend")
	}

	start := time.Now()
	result, err := s.Detect(ctx, text)
	fields := logrus.Fields{
		"method":      method,
		"backend":     s.Name(),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		classified := apperrors.Classify(apperrors.StageDetection, err)
		logger.FromContext(ctx).WithFields(fields).WithField("kind", classified.Kind).WithError(err).Error("Detection failed")
		return models.DetectionResult{}, classified
	}

	logger.FromContext(ctx).WithFields(fields).WithField("label", result.Label).Info("Detection completed")
	return result, nil
}
