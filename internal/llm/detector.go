package llm

import (
	"context"
	"fmt"
	"time"

	"go-news-inspector/internal/detection"
	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/internal/logger"
	"go-news-inspector/pkg/models"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// DetectorName identifies the generative backend in logs
const DetectorName = "llm"

// DefaultMaxToolRounds bounds how often the model may call tools per detection
const DefaultMaxToolRounds = 3

const detectionInstruction = `You are a news verification analyst. Decide whether the article the user submits is real or fake news.
Call the factCheck tool with the article text before answering, at most once per distinct claim.
Answer only with JSON matching the response schema:
- label: "Real" or "Fake"
- confidence: a number from 0 to 100
- justification: two to four sentences explaining the verdict
- factChecks: the entries the factCheck tool returned, unchanged; omit when it returned none`

// Detector asks a generative model for a verdict, with a bound fact-check tool
type Detector struct {
	gen           ContentGenerator
	model         string
	factChecker   FactChecker
	maxToolRounds int
}

// DetectorOption configures a Detector
type DetectorOption func(*Detector)

// WithMaxToolRounds overrides DefaultMaxToolRounds
func WithMaxToolRounds(n int) DetectorOption {
	return func(d *Detector) {
		if n > 0 {
			d.maxToolRounds = n
		}
	}
}

// NewDetector creates the generative detection adapter. A nil generator
// yields ConfigMissing on every call.
func NewDetector(gen ContentGenerator, model string, factChecker FactChecker, opts ...DetectorOption) *Detector {
	if model == "" {
		model = DefaultTextModel
	}
	if factChecker == nil {
		factChecker = NewMockFactChecker()
	}
	d := &Detector{
		gen:           gen,
		model:         model,
		factChecker:   factChecker,
		maxToolRounds: DefaultMaxToolRounds,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the backend name
func (d *Detector) Name() string {
	return DetectorName
}

// Detect runs the tool loop and normalizes the structured verdict
func (d *Detector) Detect(ctx context.Context, text string) (models.DetectionResult, error) {
	if d.gen == nil {
		return models.DetectionResult{}, apperrors.NewConfigMissing(apperrors.StageDetection, "GEMINI_API_KEY")
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	config := d.config()

	var toolResults []models.FactCheck
	var resp *genai.GenerateContentResponse
	for round := 0; ; round++ {
		var err error
		resp, err = d.gen.GenerateContent(ctx, d.model, contents, config)
		if err != nil {
			return models.DetectionResult{}, classifyCallError(apperrors.StageDetection, err)
		}

		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}
		if round >= d.maxToolRounds {
			return models.DetectionResult{}, apperrors.NewMalformedResponse(apperrors.StageDetection, "",
				fmt.Errorf("model still calling tools after %d rounds: %w", d.maxToolRounds, apperrors.ErrMalformed))
		}

		contents = append(contents, firstCandidate(resp).Content)
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			output, checks := d.invokeTool(ctx, call, text)
			toolResults = append(toolResults, checks...)
			parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: output,
			}})
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	answer := responseText(resp)
	if answer == "" {
		return models.DetectionResult{}, noOutputError(apperrors.StageDetection, resp, "structured verdict")
	}

	raw, err := detection.DecodeObject([]byte(stripFences(answer)))
	if err != nil {
		if blocked := blockedError(apperrors.StageDetection, resp); blocked != nil {
			return models.DetectionResult{}, blocked
		}
		return models.DetectionResult{}, apperrors.Classify(apperrors.StageDetection, err)
	}

	if _, ok := raw[detection.KeyFactChecks]; !ok && len(toolResults) > 0 {
		raw[detection.KeyFactChecks] = toolResults
	}

	return detection.NormalizeAndReport(DetectorName, raw), nil
}

// invokeTool never fails: a failing or unknown tool yields an empty result
func (d *Detector) invokeTool(ctx context.Context, call *genai.FunctionCall, text string) (map[string]any, []models.FactCheck) {
	if call.Name != FactCheckToolName {
		logger.FromContext(ctx).WithField("tool", call.Name).Warn("Model called an unknown tool")
		return map[string]any{"error": "unknown tool " + call.Name}, nil
	}

	articleText, _ := call.Args[factCheckArg].(string)
	if articleText == "" {
		articleText = text
	}

	start := time.Now()
	checks, err := d.factChecker.FactCheck(ctx, articleText)
	if err != nil {
		logger.FromContext(ctx).WithFields(logrus.Fields{
			"tool":        call.Name,
			"duration_ms": time.Since(start).Milliseconds(),
		}).WithError(err).Warn("Fact-check tool failed; continuing without fact checks")
		checks = nil
	}
	if checks == nil {
		checks = []models.FactCheck{}
	}

	return map[string]any{"output": checks}, checks
}

func (d *Detector) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(detectionInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    verdictSchema(),
		Tools: []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{FactCheckDeclaration()},
		}},
		SafetySettings: safetySettings(),
	}
}

func verdictSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			detection.KeyLabel: {
				Type: genai.TypeString,
				Enum: []string{string(models.LabelReal), string(models.LabelFake)},
			},
			detection.KeyConfidence: {
				Type: genai.TypeNumber,
			},
			detection.KeyJustification: {
				Type: genai.TypeString,
			},
			detection.KeyFactChecks: {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"source":        {Type: genai.TypeString},
						"claimReviewed": {Type: genai.TypeString},
						"rating":        {Type: genai.TypeString},
						"url":           {Type: genai.TypeString},
					},
					Required: []string{"source", "claimReviewed", "rating"},
				},
			},
		},
		Required: []string{detection.KeyLabel, detection.KeyConfidence},
	}
}
