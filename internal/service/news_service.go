package service

import (
	"context"
	"time"

	"go-news-inspector/internal/batch"
	"go-news-inspector/internal/strategy"
	"go-news-inspector/pkg/models"
	"go-news-inspector/pkg/textutil"
	"go-news-inspector/pkg/validation"
)

// NewsService is the single entry point shared by the HTTP API and the CLI
type NewsService interface {
	Detect(ctx context.Context, req models.AnalysisRequest) (models.DetectionResult, error)
	Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error)
	GenerateBatch(ctx context.Context, reqs []models.GenerationRequest, limit int) (models.BatchResult, error)
}

// Detector dispatches a detection to the selected backend
type Detector interface {
	Detect(ctx context.Context, text string, method models.DetectionMethod) (models.DetectionResult, error)
}

// Generator runs the generation pipeline for one request
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error)
}

// Timeouts bound each operation; zero leaves the caller's deadline alone
type Timeouts struct {
	Detection  time.Duration
	Generation time.Duration
}

type newsService struct {
	detector  Detector
	generator Generator
	batch     *batch.Orchestrator
	timeouts  Timeouts
}

// NewNewsService creates the service. batchLimit caps concurrent
// generations per batch when the caller does not pass one.
func NewNewsService(detector Detector, generator Generator, batchLimit int, timeouts Timeouts) NewsService {
	s := &newsService{
		detector:  detector,
		generator: generator,
		timeouts:  timeouts,
	}
	// batch entries get the same per-article deadline as a single generate
	s.batch = batch.NewOrchestrator(timedGenerator{generator, timeouts.Generation}, batchLimit)
	return s
}

// Detect reduces pasted markup to text, validates it and dispatches it
func (s *newsService) Detect(ctx context.Context, req models.AnalysisRequest) (models.DetectionResult, error) {
	method, err := strategy.ParseMethod(string(req.Method))
	if err != nil {
		return models.DetectionResult{}, err
	}

	text := textutil.ExtractText(req.Text)
	if err := validation.ValidateAnalysisText(text); err != nil {
		return models.DetectionResult{}, err
	}

	ctx, cancel := withTimeout(ctx, s.timeouts.Detection)
	defer cancel()

	return s.detector.Detect(ctx, text, method)
}

// Generate validates the request and runs the pipeline
func (s *newsService) Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	req = cleanRequest(req)
	if err := validation.ValidateGenerationRequest(req); err != nil {
		return models.GenerationResult{}, err
	}
	return timedGenerator{s.generator, s.timeouts.Generation}.Generate(ctx, req)
}

// GenerateBatch validates every entry up front; one invalid entry rejects
// the batch. Valid batches never fail as a whole.
func (s *newsService) GenerateBatch(ctx context.Context, reqs []models.GenerationRequest, limit int) (models.BatchResult, error) {
	cleaned := make([]models.GenerationRequest, len(reqs))
	for i, req := range reqs {
		cleaned[i] = cleanRequest(req)
	}
	if err := validation.ValidateBatch(cleaned); err != nil {
		return models.BatchResult{}, err
	}

	if limit > 0 {
		return s.batch.GenerateBatchWithLimit(ctx, cleaned, limit), nil
	}
	return s.batch.GenerateBatch(ctx, cleaned), nil
}

func cleanRequest(req models.GenerationRequest) models.GenerationRequest {
	if req.ArticleSnippet != "" {
		req.ArticleSnippet = textutil.ExtractText(req.ArticleSnippet)
	}
	return req
}

type timedGenerator struct {
	next    Generator
	timeout time.Duration
}

func (g timedGenerator) Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()
	return g.next.Generate(ctx, req)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
