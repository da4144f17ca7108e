// Package classifier adapts the deterministic fake-news classifier service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-news-inspector/internal/detection"
	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/pkg/models"
)

// BackendName identifies this adapter in logs and diagnostics
const BackendName = "classifier"

const maxResponseBytes = 1 << 20

// Client calls the classifier endpoint with {text} and expects
// {prediction: "real"|"fake", confidence: [0,1]}.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient creates a reusable classifier client. An empty endpoint is
// accepted here and reported as ConfigMissing on every call.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Name returns the backend name
func (c *Client) Name() string {
	return BackendName
}

// Detect sends the text to the classifier and normalizes its verdict
func (c *Client) Detect(ctx context.Context, text string) (models.DetectionResult, error) {
	if c.endpoint == "" {
		return models.DetectionResult{}, apperrors.NewConfigMissing(apperrors.StageDetection, "CLASSIFIER_ENDPOINT")
	}

	raw, err := c.post(ctx, map[string]string{"text": text})
	if err != nil {
		return models.DetectionResult{}, apperrors.Classify(apperrors.StageDetection, err)
	}

	adapted, err := adapt(raw)
	if err != nil {
		return models.DetectionResult{}, apperrors.Classify(apperrors.StageDetection, err)
	}

	// The classifier never produces justification or fact checks.
	return detection.NormalizeAndReport(BackendName, adapted), nil
}

func (c *Client) post(ctx context.Context, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewConfigMissing(apperrors.StageDetection, "valid CLASSIFIER_ENDPOINT")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewStatusError(resp.StatusCode, data)
	}

	return detection.DecodeObject(data)
}

// adapt maps the classifier vocabulary onto the normalizer's keys. A body
// carrying neither field is the wrong shape entirely; a present but bad
// value is left for the normalizer to repair.
func adapt(raw map[string]any) (map[string]any, error) {
	prediction, hasPrediction := raw["prediction"]
	confidence, hasConfidence := raw["confidence"]
	if !hasPrediction && !hasConfidence {
		return nil, fmt.Errorf("response lacks prediction and confidence: %w", apperrors.ErrMalformed)
	}

	adapted := map[string]any{}
	if hasPrediction {
		adapted[detection.KeyLabel] = prediction
	}
	if hasConfidence {
		if f, ok := detection.ParseNumber(confidence); ok {
			if !isPercent(confidence) {
				f *= 100
			}
			adapted[detection.KeyConfidence] = f
		} else {
			adapted[detection.KeyConfidence] = confidence
		}
	}
	return adapted, nil
}

// isPercent reports whether a confidence already arrived on the 0-100 scale
func isPercent(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasSuffix(strings.TrimSpace(s), "%")
}
