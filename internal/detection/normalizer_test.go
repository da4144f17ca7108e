package detection

import (
	"encoding/json"
	"math"
	"testing"

	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/pkg/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Confidence(t *testing.T) {
	tests := []struct {
		name        string
		confidence  any
		expected    float64
		defaultFlag bool
	}{
		{"float in range", 87.26, 87.3, false},
		{"numeric string", "42.44", 42.4, false},
		{"percent string", " 73% ", 73, false},
		{"json number", json.Number("120.5"), 100, false},
		{"int", 12, 12, false},
		{"above range", 250.0, 100, false},
		{"below range", -3.0, 0, false},
		{"positive infinity", math.Inf(1), 100, false},
		{"missing", nil, 50, true},
		{"NaN", math.NaN(), 50, true},
		{"unparseable string", "very sure", 50, true},
		{"boolean", true, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{KeyLabel: "real"}
			if tt.confidence != nil {
				raw[KeyConfidence] = tt.confidence
			}

			result, diag := Normalize(raw)

			assert.Equal(t, tt.expected, result.Confidence)
			assert.Equal(t, tt.defaultFlag, diag.LowConfidenceDefault)
			assert.GreaterOrEqual(t, result.Confidence, 0.0)
			assert.LessOrEqual(t, result.Confidence, 100.0)
		})
	}
}

func TestNormalize_ClassifierScaleOutOfRange(t *testing.T) {
	// Classifier confidences are in [0,1] and scaled by 100 before normalization.
	for _, c := range []float64{-0.5, 1.7, 12, -100} {
		result, _ := Normalize(map[string]any{KeyLabel: "fake", KeyConfidence: c * 100})
		assert.GreaterOrEqual(t, result.Confidence, 0.0, "confidence %v", c)
		assert.LessOrEqual(t, result.Confidence, 100.0, "confidence %v", c)
	}
}

func TestNormalize_Label(t *testing.T) {
	tests := []struct {
		name      string
		label     any
		expected  models.Label
		defaulted bool
	}{
		{"lowercase real", "real", models.LabelReal, false},
		{"mixed case fake", " FaKe ", models.LabelFake, false},
		{"typed label", models.LabelReal, models.LabelReal, false},
		{"missing", nil, models.LabelFake, true},
		{"unknown word", "satire", models.LabelFake, true},
		{"number", 1, models.LabelFake, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{KeyConfidence: 60}
			if tt.label != nil {
				raw[KeyLabel] = tt.label
			}

			result, diag := Normalize(raw)

			assert.Equal(t, tt.expected, result.Label)
			assert.Equal(t, tt.defaulted, diag.LabelDefaulted)
		})
	}
}

func TestNormalize_Justification(t *testing.T) {
	result, _ := Normalize(map[string]any{
		KeyLabel:         "fake",
		KeyConfidence:    10,
		KeyJustification: map[string]any{"reason": "no sources"},
	})
	assert.Equal(t, `{"reason":"no sources"}`, result.Justification)

	result, _ = Normalize(map[string]any{KeyJustification: []any{"a", "b"}})
	assert.Equal(t, `["a","b"]`, result.Justification)

	result, _ = Normalize(map[string]any{KeyJustification: "plain"})
	assert.Equal(t, "plain", result.Justification)
}

func TestNormalize_FactChecks(t *testing.T) {
	valid := []any{
		map[string]any{"source": "Snopes", "claimReviewed": "Moon is cheese", "rating": "False", "url": "https://snopes.example/moon"},
		map[string]any{"source": "PolitiFact", "claimReviewed": "Water is wet", "rating": "True"},
	}

	result, diag := Normalize(map[string]any{KeyFactChecks: valid})

	expected := []models.FactCheck{
		{Source: "Snopes", ClaimReviewed: "Moon is cheese", Rating: "False", URL: "https://snopes.example/moon"},
		{Source: "PolitiFact", ClaimReviewed: "Water is wet", Rating: "True"},
	}
	if diff := cmp.Diff(expected, result.FactChecks); diff != "" {
		t.Errorf("fact checks mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, diag.FactChecksDropped)

	malformed := []struct {
		name  string
		value any
	}{
		{"not a list", "Snopes said false"},
		{"entry missing rating", []any{map[string]any{"source": "S", "claimReviewed": "C"}}},
		{"entry wrong type", []any{"S"}},
		{"one bad entry poisons list", append([]any{valid[0]}, map[string]any{"source": 3})},
		{"url not a string", []any{map[string]any{"source": "S", "claimReviewed": "C", "rating": "R", "url": 5}}},
	}
	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			result, diag := Normalize(map[string]any{KeyFactChecks: tt.value})
			assert.Nil(t, result.FactChecks)
			assert.True(t, diag.FactChecksDropped)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []map[string]any{
		{KeyLabel: "REAL", KeyConfidence: "91.27", KeyJustification: map[string]any{"k": 1}},
		{KeyConfidence: 1234},
		{KeyLabel: "fake", KeyConfidence: json.Number("0.05"), KeyFactChecks: []any{
			map[string]any{"source": "AFP", "claimReviewed": "claim", "rating": "Misleading"},
		}},
		{},
	}

	for _, raw := range inputs {
		first, _ := Normalize(raw)
		second, diag := Normalize(ToRaw(first))

		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("normalization not idempotent (-first +second):\n%s", diff)
		}
		assert.False(t, diag.Repaired(), "an already-normalized result needs no repair")
	}
}

func TestDecodeObject(t *testing.T) {
	raw, err := DecodeObject([]byte(`{"prediction":"real","confidence":0.91}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("0.91"), raw["confidence"])

	for _, body := range []string{"", "   ", "null", "[1,2]", "<html>oops</html>", `"string"`} {
		_, err := DecodeObject([]byte(body))
		require.Error(t, err, "body %q", body)
		assert.Equal(t, apperrors.KindMalformedResponse, apperrors.Classify(apperrors.StageDetection, err).Kind, "body %q", body)
	}
}
