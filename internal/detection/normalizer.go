// Package detection converges the raw payloads of every detection backend
// into a single DetectionResult.
package detection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/internal/logger"
	"go-news-inspector/pkg/models"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultConfidence replaces a missing or unparseable confidence
	DefaultConfidence = 50.0

	minConfidence = 0.0
	maxConfidence = 100.0
)

// Raw payload keys shared by both backends after adaptation
const (
	KeyLabel         = "label"
	KeyConfidence    = "confidence"
	KeyJustification = "justification"
	KeyFactChecks    = "factChecks"
)

// Diagnostics records the repairs applied during normalization.
// They are logged, never surfaced to the user.
type Diagnostics struct {
	LowConfidenceDefault bool
	LabelDefaulted       bool
	FactChecksDropped    bool
}

// Repaired reports whether any field had to be repaired
func (d Diagnostics) Repaired() bool {
	return d.LowConfidenceDefault || d.LabelDefaulted || d.FactChecksDropped
}

// Normalize coerces a raw backend payload into a DetectionResult
func Normalize(raw map[string]any) (models.DetectionResult, Diagnostics) {
	var diag Diagnostics

	confidence, ok := parseConfidence(raw[KeyConfidence])
	if !ok {
		confidence = DefaultConfidence
		diag.LowConfidenceDefault = true
	}

	label, ok := parseLabel(raw[KeyLabel])
	if !ok {
		label = models.LabelFake
		diag.LabelDefaulted = true
	}

	factChecks, ok := parseFactChecks(raw[KeyFactChecks])
	if !ok {
		diag.FactChecksDropped = true
	}

	return models.DetectionResult{
		Label:         label,
		Confidence:    roundConfidence(clamp(confidence)),
		Justification: stringify(raw[KeyJustification]),
		FactChecks:    factChecks,
	}, diag
}

// NormalizeAndReport normalizes and logs any repairs under the backend name
func NormalizeAndReport(backend string, raw map[string]any) models.DetectionResult {
	result, diag := Normalize(raw)
	if diag.Repaired() {
		logger.WithFields(logrus.Fields{
			"backend":                backend,
			"low_confidence_default": diag.LowConfidenceDefault,
			"label_defaulted":        diag.LabelDefaulted,
			"fact_checks_dropped":    diag.FactChecksDropped,
		}).Warn("Detection result repaired during normalization")
	}
	return result
}

// ToRaw renders a result back into the raw payload shape
func ToRaw(result models.DetectionResult) map[string]any {
	raw := map[string]any{
		KeyLabel:      string(result.Label),
		KeyConfidence: result.Confidence,
	}
	if result.Justification != "" {
		raw[KeyJustification] = result.Justification
	}
	if len(result.FactChecks) > 0 {
		raw[KeyFactChecks] = result.FactChecks
	}
	return raw
}

// DecodeObject parses a JSON document that must be an object.
// Numbers are kept as json.Number so string and numeric confidences parse alike.
func DecodeObject(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body: %w", apperrors.ErrMalformed)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode object: %w: %w", apperrors.ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("body is null: %w", apperrors.ErrMalformed)
	}
	return raw, nil
}

// ParseNumber reads a numeric value from any of the shapes upstream JSON produces
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%")), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseConfidence(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return ParseNumber(v)
}

func parseLabel(v any) (models.Label, bool) {
	var s string
	switch l := v.(type) {
	case string:
		s = l
	case models.Label:
		s = string(l)
	default:
		return "", false
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "real":
		return models.LabelReal, true
	case "fake":
		return models.LabelFake, true
	}
	return "", false
}

func clamp(c float64) float64 {
	return math.Max(minConfidence, math.Min(maxConfidence, c))
}

func roundConfidence(c float64) float64 {
	return math.Round(c*10) / 10
}

func stringify(v any) string {
	switch j := v.(type) {
	case nil:
		return ""
	case string:
		return j
	case fmt.Stringer:
		return j.String()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// parseFactChecks returns ok=false when a value was present but malformed;
// in that case the whole list is omitted.
func parseFactChecks(v any) ([]models.FactCheck, bool) {
	switch list := v.(type) {
	case nil:
		return nil, true
	case []models.FactCheck:
		for _, fc := range list {
			if !validFactCheck(fc) {
				return nil, false
			}
		}
		if len(list) == 0 {
			return nil, true
		}
		return list, true
	case []map[string]any:
		items := make([]any, len(list))
		for i := range list {
			items[i] = list[i]
		}
		return parseFactCheckItems(items)
	case []any:
		return parseFactCheckItems(list)
	}
	return nil, false
}

func parseFactCheckItems(items []any) ([]models.FactCheck, bool) {
	if len(items) == 0 {
		return nil, true
	}

	out := make([]models.FactCheck, 0, len(items))
	for _, item := range items {
		var fc models.FactCheck
		switch entry := item.(type) {
		case models.FactCheck:
			fc = entry
		case map[string]any:
			var ok bool
			if fc, ok = factCheckFromMap(entry); !ok {
				return nil, false
			}
		default:
			return nil, false
		}
		if !validFactCheck(fc) {
			return nil, false
		}
		out = append(out, fc)
	}
	return out, true
}

func factCheckFromMap(m map[string]any) (models.FactCheck, bool) {
	source, ok1 := m["source"].(string)
	claim, ok2 := m["claimReviewed"].(string)
	rating, ok3 := m["rating"].(string)
	if !ok1 || !ok2 || !ok3 {
		return models.FactCheck{}, false
	}

	fc := models.FactCheck{Source: source, ClaimReviewed: claim, Rating: rating}
	if raw, present := m["url"]; present && raw != nil {
		u, ok := raw.(string)
		if !ok {
			return models.FactCheck{}, false
		}
		fc.URL = u
	}
	return fc, true
}

func validFactCheck(fc models.FactCheck) bool {
	return strings.TrimSpace(fc.Source) != "" &&
		strings.TrimSpace(fc.ClaimReviewed) != "" &&
		strings.TrimSpace(fc.Rating) != ""
}
