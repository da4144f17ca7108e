// Package batch fans generation requests out concurrently and keeps the
// ones that succeed.
package batch

import (
	"context"
	"fmt"
	"time"

	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/internal/logger"
	"go-news-inspector/pkg/models"

	"github.com/sirupsen/logrus"
)

// Generator produces one article; the pipeline satisfies it
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error)
}

// Orchestrator runs a batch of independent generation requests
type Orchestrator struct {
	generator Generator
	limit     int
}

// NewOrchestrator creates a batch orchestrator. limit caps concurrent
// requests; zero or less runs every request at once.
func NewOrchestrator(generator Generator, limit int) *Orchestrator {
	return &Orchestrator{generator: generator, limit: limit}
}

// slot holds one request's settled result; a nil result means it failed
type slot struct {
	result  *models.GenerationResult
	failure *models.BatchFailure
}

// GenerateBatch launches every request, waits for all of them to settle
// and returns the successes in request order. A failed request never
// aborts the others; it is dropped and counted.
func (o *Orchestrator) GenerateBatch(ctx context.Context, requests []models.GenerationRequest) models.BatchResult {
	return o.GenerateBatchWithLimit(ctx, requests, o.limit)
}

// GenerateBatchWithLimit is GenerateBatch with a per-call concurrency cap
func (o *Orchestrator) GenerateBatchWithLimit(ctx context.Context, requests []models.GenerationRequest, limit int) models.BatchResult {
	start := time.Now()
	slots := make([]slot, len(requests))

	workers := len(requests)
	if limit > 0 && limit < workers {
		workers = limit
	}

	if len(requests) > 0 {
		pool := NewWorkerPool(workers)
		pool.Start()
		for i := range requests {
			pool.Submit(func() {
				slots[i] = o.run(ctx, i, requests[i])
			})
		}
		pool.Wait()
		pool.Close()
	}

	result := models.BatchResult{
		Requested: len(requests),
		Results:   make([]models.GenerationResult, 0, len(requests)),
	}
	for _, s := range slots {
		if s.result != nil {
			result.Results = append(result.Results, *s.result)
			continue
		}
		if s.failure != nil {
			result.Failures = append(result.Failures, *s.failure)
		}
	}
	result.Succeeded = len(result.Results)

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"requested":   result.Requested,
		"succeeded":   result.Succeeded,
		"workers":     workers,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Batch generation settled")

	return result
}

// run resolves its own failure, including panics, into a dropped slot
func (o *Orchestrator) run(ctx context.Context, index int, req models.GenerationRequest) (s slot) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("generation panicked: %v", r)
			s = slot{failure: failureFor(index, apperrors.Classify(apperrors.StageText, err))}
		}
	}()

	res, err := o.generator.Generate(ctx, req)
	if err != nil {
		classified := apperrors.Classify(apperrors.StageText, err)
		logger.FromContext(ctx).WithFields(logrus.Fields{
			"index": index,
			"topic": req.Topic,
			"stage": classified.Stage,
			"kind":  classified.Kind,
		}).WithError(err).Warn("Batch entry dropped")
		return slot{failure: failureFor(index, classified)}
	}
	return slot{result: &res}
}

func failureFor(index int, err *apperrors.ClassifiedError) *models.BatchFailure {
	return &models.BatchFailure{
		Index:   index,
		Kind:    err.Kind,
		Stage:   err.Stage,
		Message: err.Message,
	}
}
