package models

import (
	apperrors "go-news-inspector/internal/errors"
)

// GenerationRequest describes one article to fabricate
type GenerationRequest struct {
	Topic          string `json:"topic" yaml:"topic"`
	Category       string `json:"category" yaml:"category"`
	Tone           string `json:"tone" yaml:"tone"`
	ArticleSnippet string `json:"articleSnippet,omitempty" yaml:"articleSnippet,omitempty"`
	CustomPrompt   string `json:"customPrompt,omitempty" yaml:"customPrompt,omitempty"`
}

// GeneratedArticle is the deliverable of the generation pipeline.
// An empty ImageURL is a valid terminal state.
type GeneratedArticle struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Tone     string `json:"tone"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// StageStatus is the terminal state of one pipeline stage
type StageStatus string

const (
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// StageResult tags a pipeline stage with its outcome
type StageResult struct {
	Status    StageStatus    `json:"status"`
	Kind      apperrors.Kind `json:"kind,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Retriable bool           `json:"retriable,omitempty"`
}

// Succeeded builds a successful stage result
func Succeeded() StageResult {
	return StageResult{Status: StageSucceeded}
}

// Skipped builds a result for a stage that had nothing to do
func Skipped(reason string) StageResult {
	return StageResult{Status: StageSkipped, Reason: reason}
}

// FailedWith builds a failed stage result from a classified error
func FailedWith(err *apperrors.ClassifiedError) StageResult {
	return StageResult{
		Status:    StageFailed,
		Kind:      err.Kind,
		Reason:    err.Message,
		Retriable: err.Retriable,
	}
}

// Failed reports whether the stage ended in failure
func (r StageResult) Failed() bool {
	return r.Status == StageFailed
}

// PipelineOutcome records the result of every generation stage
type PipelineOutcome struct {
	Text    StageResult `json:"text"`
	Image   StageResult `json:"image"`
	Storage StageResult `json:"storage"`
}

// GenerationResult pairs an article with its stage outcome
type GenerationResult struct {
	Article GeneratedArticle `json:"article"`
	Outcome PipelineOutcome  `json:"outcome"`
}

// BatchFailure records why one batch entry was dropped
type BatchFailure struct {
	Index   int             `json:"index"`
	Kind    apperrors.Kind  `json:"kind,omitempty"`
	Stage   apperrors.Stage `json:"stage,omitempty"`
	Message string          `json:"message"`
}

// BatchResult holds the successful articles of a batch in request order.
// Requested is the submitted count, Succeeded the count actually delivered.
type BatchResult struct {
	Requested int                `json:"requested"`
	Succeeded int                `json:"succeeded"`
	Results   []GenerationResult `json:"results"`
	Failures  []BatchFailure     `json:"failures,omitempty"`
}

// Articles returns the successful articles in request order
func (b BatchResult) Articles() []GeneratedArticle {
	articles := make([]GeneratedArticle, 0, len(b.Results))
	for _, r := range b.Results {
		articles = append(articles, r.Article)
	}
	return articles
}

// ArticleDraft is the output of the text stage
type ArticleDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// GeneratedImage is the output of the image stage
type GeneratedImage struct {
	Data     []byte
	MIMEType string
}
