package observer

import (
	"context"
	"sync"
	"time"

	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/internal/logger"

	"github.com/sirupsen/logrus"
)

// StageEvent represents a generation pipeline event
type StageEvent struct {
	EventType    EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	Stage        apperrors.Stage        `json:"stage,omitempty"`
	Topic        string                 `json:"topic,omitempty"`
	Duration     time.Duration          `json:"duration"`
	Kind         apperrors.Kind         `json:"kind,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// StageStarted when a stage begins
	StageStarted EventType = "stage_started"
	// StageSucceeded when a stage finishes successfully
	StageSucceeded EventType = "stage_succeeded"
	// StageFailed when a stage fails
	StageFailed EventType = "stage_failed"
	// StageSkipped when a stage had no input to work on
	StageSkipped EventType = "stage_skipped"
	// PipelineCompleted when an article is delivered, possibly without image
	PipelineCompleted EventType = "pipeline_completed"
	// PipelineFailed when the text stage failed and nothing was delivered
	PipelineFailed EventType = "pipeline_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event StageEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event StageEvent)
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) *LoggingObserver {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event StageEvent) {
	fields := logrus.Fields{
		"event_type":  event.EventType,
		"duration_ms": event.Duration.Milliseconds(),
	}
	if id := logger.RequestID(ctx); id != "" {
		fields["request_id"] = id
	}
	if event.Stage != "" {
		fields["stage"] = event.Stage
	}
	if event.Topic != "" {
		fields["topic"] = event.Topic
	}
	if event.Kind != "" {
		fields["kind"] = event.Kind
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case StageStarted:
		entry.Debug("Pipeline stage started")
	case StageSucceeded:
		entry.Info("Pipeline stage succeeded")
	case StageFailed:
		// Image and storage failures are downgraded to partial results.
		if event.Stage == apperrors.StageText {
			entry.Error("Pipeline stage failed")
		} else {
			entry.Warn("Pipeline stage failed; continuing with partial result")
		}
	case StageSkipped:
		entry.Info("Pipeline stage skipped")
	case PipelineCompleted:
		entry.Info("Article generated")
	case PipelineFailed:
		entry.Error("Article generation failed")
	default:
		entry.Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

type stageCounters struct {
	Started   int64 `json:"started"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
}

// MetricsObserver collects counters from pipeline events
type MetricsObserver struct {
	mu                 sync.RWMutex
	stages             map[apperrors.Stage]*stageCounters
	failuresByKind     map[apperrors.Kind]int64
	pipelinesCompleted int64
	pipelinesFailed    int64
	textOnly           int64
	totalPipelineTime  time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		stages:         make(map[apperrors.Stage]*stageCounters),
		failuresByKind: make(map[apperrors.Kind]int64),
	}
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event StageEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case StageStarted:
		o.counters(event.Stage).Started++
	case StageSucceeded:
		o.counters(event.Stage).Succeeded++
	case StageFailed:
		o.counters(event.Stage).Failed++
		if event.Kind != "" {
			o.failuresByKind[event.Kind]++
		}
	case StageSkipped:
		o.counters(event.Stage).Skipped++
	case PipelineCompleted:
		o.pipelinesCompleted++
		o.totalPipelineTime += event.Duration
		if partial, _ := event.Metadata["text_only"].(bool); partial {
			o.textOnly++
		}
	case PipelineFailed:
		o.pipelinesFailed++
	}
}

func (o *MetricsObserver) counters(stage apperrors.Stage) *stageCounters {
	c, ok := o.stages[stage]
	if !ok {
		c = &stageCounters{}
		o.stages[stage] = c
	}
	return c
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgPipelineTime := time.Duration(0)
	if o.pipelinesCompleted > 0 {
		avgPipelineTime = o.totalPipelineTime / time.Duration(o.pipelinesCompleted)
	}

	stages := make(map[string]stageCounters, len(o.stages))
	for stage, c := range o.stages {
		stages[string(stage)] = *c
	}
	kinds := make(map[string]int64, len(o.failuresByKind))
	for kind, n := range o.failuresByKind {
		kinds[string(kind)] = n
	}

	return map[string]interface{}{
		"pipelines_completed":  o.pipelinesCompleted,
		"pipelines_failed":     o.pipelinesFailed,
		"text_only_articles":   o.textOnly,
		"avg_pipeline_time_ms": avgPipelineTime.Milliseconds(),
		"stages":               stages,
		"failures_by_kind":     kinds,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer in turn. Observers
// must be quick; a panicking observer is logged and skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event StageEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		notify(ctx, obs, event)
	}
}

func notify(ctx context.Context, obs Observer, event StageEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
