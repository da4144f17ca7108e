package container

import (
	"context"
	"fmt"
	"net/http"

	"go-news-inspector/internal/classifier"
	"go-news-inspector/internal/config"
	"go-news-inspector/internal/factory"
	"go-news-inspector/internal/llm"
	"go-news-inspector/internal/logger"
	"go-news-inspector/internal/observer"
	"go-news-inspector/internal/pipeline"
	"go-news-inspector/internal/service"
	"go-news-inspector/internal/strategy"
	"go-news-inspector/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config  *config.Config
	service service.NewsService
	metrics *observer.MetricsObserver
	handler http.Handler
}

// NewContainer creates a new dependency injection container. Missing
// provider credentials do not fail construction; the affected operations
// report ConfigMissing when called.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger.Setup(cfg.LogLevel)

	// Build dependency graph
	gen, err := llm.NewGenerator(ctx, cfg.GenAI.APIKey)
	if err != nil {
		return nil, err
	}

	factChecker := llm.NewMockFactChecker(
		llm.WithHitRate(cfg.FactCheck.HitRate),
		llm.WithLatency(cfg.FactCheck.Latency),
	)
	detectors := strategy.NewOrchestrator(
		classifier.NewClient(cfg.Classifier.Endpoint, cfg.Classifier.APIKey, cfg.Classifier.Timeout),
		llm.NewDetector(gen, cfg.GenAI.TextModel, factChecker, llm.WithMaxToolRounds(cfg.GenAI.MaxToolRounds)),
	)

	store, err := factory.NewStorageFactory(cfg.Storage).CreateStorage(ctx, factory.StorageType(cfg.Storage.Provider))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image storage: %w", err)
	}

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	generator := pipeline.New(
		llm.NewWriter(gen, cfg.GenAI.TextModel),
		llm.NewIllustrator(gen, cfg.GenAI.ImageModel),
		store,
		events,
	)

	newsService := service.NewNewsService(detectors, generator, cfg.Batch.Concurrency, service.Timeouts{
		Detection:  cfg.DetectionTimeout,
		Generation: cfg.GenerationTimeout,
	})

	return &Container{
		config:  cfg,
		service: newsService,
		metrics: metrics,
		handler: transport.NewHandler(newsService, metrics, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the news service shared by the API and the CLI
func (c *Container) Service() service.NewsService {
	return c.service
}

// Metrics returns the pipeline metrics observer
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}
