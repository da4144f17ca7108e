// Package llm holds the generative-model adapters: detection with the
// fact-check tool, article writing, and illustration.
package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Default model names
const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
)

// ContentGenerator is the slice of the genai client the adapters use.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGenerator builds a Gemini API backed generator. It returns nil without
// an error when no API key is configured; adapters report ConfigMissing on use.
func NewGenerator(ctx context.Context, apiKey string) (ContentGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client.Models, nil
}

// safetySettings blocks medium-and-above harm in every category
func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}

	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return settings
}
