// Package pipeline runs the text, image and storage stages that turn a
// generation request into a deliverable article.
package pipeline

import (
	"context"
	"strings"
	"time"

	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/internal/observer"
	"go-news-inspector/pkg/models"
)

// TextGenerator writes the article body
type TextGenerator interface {
	WriteArticle(ctx context.Context, req models.GenerationRequest) (models.ArticleDraft, error)
}

// ImageGenerator renders the article's cover image
type ImageGenerator interface {
	RenderImage(ctx context.Context, article models.GeneratedArticle) (models.GeneratedImage, error)
}

// ImageStore persists image bytes and returns a public URL
type ImageStore interface {
	Store(ctx context.Context, data []byte, hint string) (string, error)
}

// Pipeline is safe for concurrent use; each call carries its own state.
type Pipeline struct {
	writer      TextGenerator
	illustrator ImageGenerator
	store       ImageStore
	events      observer.Subject
}

// New creates a pipeline. events may be nil.
func New(writer TextGenerator, illustrator ImageGenerator, store ImageStore, events observer.Subject) *Pipeline {
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &Pipeline{
		writer:      writer,
		illustrator: illustrator,
		store:       store,
		events:      events,
	}
}

// Generate runs the three stages in order. Only a text-stage failure is
// returned as an error; image and storage failures are recorded in the
// outcome and the article is delivered without an image.
func (p *Pipeline) Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	start := time.Now()
	result := models.GenerationResult{
		Outcome: models.PipelineOutcome{
			Image:   models.Skipped("text stage did not complete"),
			Storage: models.Skipped("text stage did not complete"),
		},
	}

	draft, err := p.textStage(ctx, req)
	if err != nil {
		result.Outcome.Text = models.FailedWith(err)
		p.publish(ctx, observer.StageEvent{
			EventType:    observer.PipelineFailed,
			Topic:        req.Topic,
			Duration:     time.Since(start),
			Kind:         err.Kind,
			ErrorMessage: err.Error(),
		})
		return result, err
	}
	result.Outcome.Text = models.Succeeded()

	result.Article = models.GeneratedArticle{
		Title:    draft.Title,
		Content:  draft.Content,
		Topic:    req.Topic,
		Category: req.Category,
		Tone:     req.Tone,
	}

	image, imageResult := p.imageStage(ctx, req, result.Article)
	result.Outcome.Image = imageResult

	if imageResult.Failed() || len(image.Data) == 0 {
		result.Outcome.Storage = models.Skipped("no image to store")
		p.publish(ctx, observer.StageEvent{
			EventType: observer.StageSkipped,
			Stage:     apperrors.StageStorage,
			Topic:     req.Topic,
		})
	} else {
		url, storageResult := p.storageStage(ctx, req, result.Article, image)
		result.Outcome.Storage = storageResult
		result.Article.ImageURL = url
	}

	p.publish(ctx, observer.StageEvent{
		EventType: observer.PipelineCompleted,
		Topic:     req.Topic,
		Duration:  time.Since(start),
		Metadata:  map[string]interface{}{"text_only": result.Article.ImageURL == ""},
	})
	return result, nil
}

func (p *Pipeline) textStage(ctx context.Context, req models.GenerationRequest) (models.ArticleDraft, *apperrors.ClassifiedError) {
	var draft models.ArticleDraft
	err := p.runStage(ctx, apperrors.StageText, req.Topic, func() error {
		var err error
		draft, err = p.writer.WriteArticle(ctx, req)
		if err == nil && strings.TrimSpace(draft.Content) == "" {
			err = apperrors.NewMalformedResponse(apperrors.StageText, "", apperrors.ErrMalformed)
		}
		return err
	})
	return draft, err
}

func (p *Pipeline) imageStage(ctx context.Context, req models.GenerationRequest, article models.GeneratedArticle) (models.GeneratedImage, models.StageResult) {
	var image models.GeneratedImage
	err := p.runStage(ctx, apperrors.StageImage, req.Topic, func() error {
		var err error
		image, err = p.illustrator.RenderImage(ctx, article)
		if err == nil && len(image.Data) == 0 {
			err = apperrors.NewMalformedResponse(apperrors.StageImage, "", apperrors.ErrMalformed)
		}
		return err
	})
	if err != nil {
		return models.GeneratedImage{}, models.FailedWith(err)
	}
	return image, models.Succeeded()
}

func (p *Pipeline) storageStage(ctx context.Context, req models.GenerationRequest, article models.GeneratedArticle, image models.GeneratedImage) (string, models.StageResult) {
	hint := article.Title
	if strings.TrimSpace(hint) == "" {
		hint = req.Topic
	}

	var url string
	err := p.runStage(ctx, apperrors.StageStorage, req.Topic, func() error {
		var err error
		url, err = p.store.Store(ctx, image.Data, hint)
		return err
	})
	if err != nil {
		return "", models.FailedWith(err)
	}
	return url, models.Succeeded()
}

// runStage publishes start and end events and classifies any failure
// under the stage it happened in
func (p *Pipeline) runStage(ctx context.Context, stage apperrors.Stage, topic string, fn func() error) *apperrors.ClassifiedError {
	start := time.Now()
	p.publish(ctx, observer.StageEvent{EventType: observer.StageStarted, Stage: stage, Topic: topic})

	if err := fn(); err != nil {
		classified := apperrors.Classify(stage, err)
		p.publish(ctx, observer.StageEvent{
			EventType:    observer.StageFailed,
			Stage:        stage,
			Topic:        topic,
			Duration:     time.Since(start),
			Kind:         classified.Kind,
			ErrorMessage: classified.Error(),
		})
		return classified
	}

	p.publish(ctx, observer.StageEvent{
		EventType: observer.StageSucceeded,
		Stage:     stage,
		Topic:     topic,
		Duration:  time.Since(start),
	})
	return nil
}

func (p *Pipeline) publish(ctx context.Context, event observer.StageEvent) {
	p.events.NotifyObservers(ctx, event)
}
