package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/pkg/models"

	"google.golang.org/genai"
)

const maxImagePromptContext = 600

// Illustrator renders a cover image for an article
type Illustrator struct {
	gen   ContentGenerator
	model string
}

// NewIllustrator creates the image-stage adapter
func NewIllustrator(gen ContentGenerator, model string) *Illustrator {
	if model == "" {
		model = DefaultImageModel
	}
	return &Illustrator{gen: gen, model: model}
}

// ImagePrompt describes the cover image for an article
func ImagePrompt(article models.GeneratedArticle) string {
	summary := strings.TrimSpace(article.Content)
	if utf8.RuneCountInString(summary) > maxImagePromptContext {
		summary = string([]rune(summary)[:maxImagePromptContext])
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a photorealistic editorial cover photo for a %s news article titled %q.\n",
		strings.TrimSpace(article.Category), article.Title)
	if summary != "" {
		fmt.Fprintf(&sb, "The article says: %s\n", summary)
	}
	sb.WriteString("The image must contain no embedded text, letters, numbers, captions, logos or watermarks.")
	return sb.String()
}

// RenderImage returns the image bytes, or a classified error when the
// model produced no media
func (i *Illustrator) RenderImage(ctx context.Context, article models.GeneratedArticle) (models.GeneratedImage, error) {
	if i.gen == nil {
		return models.GeneratedImage{}, apperrors.NewConfigMissing(apperrors.StageImage, "GEMINI_API_KEY")
	}

	resp, err := i.gen.GenerateContent(ctx, i.model,
		[]*genai.Content{genai.NewContentFromText(ImagePrompt(article), genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			SafetySettings:     safetySettings(),
		})
	if err != nil {
		return models.GeneratedImage{}, classifyCallError(apperrors.StageImage, err)
	}

	blob := inlineImage(resp)
	if blob == nil {
		return models.GeneratedImage{}, noOutputError(apperrors.StageImage, resp, "image data")
	}

	return models.GeneratedImage{Data: blob.Data, MIMEType: blob.MIMEType}, nil
}
