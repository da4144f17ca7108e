package llm

import (
	"context"
	"fmt"
	"strings"

	"go-news-inspector/internal/detection"
	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/pkg/models"

	"google.golang.org/genai"
)

// Writer produces the article text for a generation request
type Writer struct {
	gen   ContentGenerator
	model string
}

// NewWriter creates the text-stage adapter
func NewWriter(gen ContentGenerator, model string) *Writer {
	if model == "" {
		model = DefaultTextModel
	}
	return &Writer{gen: gen, model: model}
}

// ArticlePrompt builds the text-stage prompt. A non-blank custom prompt
// replaces the synthesized one entirely.
func ArticlePrompt(req models.GenerationRequest) string {
	if custom := strings.TrimSpace(req.CustomPrompt); custom != "" {
		return custom
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a short news article about %q for the %s section in a %s tone.\n",
		strings.TrimSpace(req.Topic), strings.TrimSpace(req.Category), strings.TrimSpace(req.Tone))
	if snippet := strings.TrimSpace(req.ArticleSnippet); snippet != "" {
		fmt.Fprintf(&sb, "Base it on this excerpt, keeping its facts and names:\n%s\n", snippet)
	}
	sb.WriteString("Keep it between 250 and 450 words with a headline of at most 12 words.\n")
	sb.WriteString("Write prose only: no embedded text, captions, logos, watermarks or markup.\n")
	sb.WriteString(`Respond with JSON: {"title": string, "content": string}.`)
	return sb.String()
}

// WriteArticle calls the language model and requires a non-empty body
func (w *Writer) WriteArticle(ctx context.Context, req models.GenerationRequest) (models.ArticleDraft, error) {
	if w.gen == nil {
		return models.ArticleDraft{}, apperrors.NewConfigMissing(apperrors.StageText, "GEMINI_API_KEY")
	}

	resp, err := w.gen.GenerateContent(ctx, w.model,
		[]*genai.Content{genai.NewContentFromText(ArticlePrompt(req), genai.RoleUser)},
		w.config())
	if err != nil {
		return models.ArticleDraft{}, classifyCallError(apperrors.StageText, err)
	}

	text := responseText(resp)
	if text == "" {
		return models.ArticleDraft{}, noOutputError(apperrors.StageText, resp, "article text")
	}

	raw, err := detection.DecodeObject([]byte(stripFences(text)))
	if err != nil {
		return models.ArticleDraft{}, apperrors.Classify(apperrors.StageText, err)
	}

	title, _ := raw["title"].(string)
	content, _ := raw["content"].(string)
	if strings.TrimSpace(content) == "" {
		if blocked := blockedError(apperrors.StageText, resp); blocked != nil {
			return models.ArticleDraft{}, blocked
		}
		return models.ArticleDraft{}, apperrors.NewMalformedResponse(apperrors.StageText, "",
			fmt.Errorf("article body is empty: %w", apperrors.ErrMalformed))
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(req.Topic)
	}
	return models.ArticleDraft{Title: title, Content: strings.TrimSpace(content)}, nil
}

func (w *Writer) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.9),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":   {Type: genai.TypeString},
				"content": {Type: genai.TypeString},
			},
			Required: []string{"title", "content"},
		},
		SafetySettings: safetySettings(),
	}
}
