package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-news-inspector/internal/config"
	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/internal/logger"
	"go-news-inspector/internal/service"
	"go-news-inspector/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

const requestIDHeader = "X-Request-ID"

// StatsProvider exposes pipeline metrics
type StatsProvider interface {
	GetMetrics() map[string]interface{}
}

func NewHandler(svc service.NewsService, stats StatsProvider, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestID(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/stats", statsHandler(stats))

	v1 := r.Group("/api/v1")
	v1.POST("/detect", detect(svc))
	v1.POST("/generate", generate(svc))
	v1.POST("/generate/batch", generateBatch(svc))

	return r
}

func detect(svc service.NewsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		var req models.DetectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(bindError(err))
			return
		}

		result, err := svc.Detect(c.Request.Context(), models.AnalysisRequest{
			Text:   req.Text,
			Method: models.DetectionMethod(req.Method),
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		requestLog(c).WithFields(logrus.Fields{
			"method":      req.Method,
			"label":       result.Label,
			"confidence":  result.Confidence,
			"duration_ms": time.Since(startTime).Milliseconds(),
		}).Info("Detection completed")

		c.JSON(http.StatusOK, result)
	}
}

func generate(svc service.NewsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		var req models.GenerationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(bindError(err))
			return
		}

		result, err := svc.Generate(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			return
		}

		requestLog(c).WithFields(logrus.Fields{
			"topic":       req.Topic,
			"image":       result.Outcome.Image.Status,
			"storage":     result.Outcome.Storage.Status,
			"duration_ms": time.Since(startTime).Milliseconds(),
		}).Info("Generation completed")

		c.JSON(http.StatusOK, result)
	}
}

func generateBatch(svc service.NewsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(bindError(err))
			return
		}
		if req.Limit < 0 {
			_ = c.Error(apperrors.NewValidationError("limit", "limit must not be negative", nil))
			return
		}

		result, err := svc.GenerateBatch(c.Request.Context(), req.Requests, req.Limit)
		if err != nil {
			_ = c.Error(err)
			return
		}

		requestLog(c).WithFields(logrus.Fields{
			"requested": result.Requested,
			"succeeded": result.Succeeded,
		}).Info("Batch completed")

		c.JSON(http.StatusOK, result)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "available",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func statsHandler(stats StatsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if stats == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, stats.GetMetrics())
	}
}

// Middleware and helper functions
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apperrors.NewValidationError("body", "invalid request format", err)
}

func determineStatusCode(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}

	if _, classified := apperrors.KindOf(err); classified || apperrors.IsValidation(err) {
		return apperrors.GetStatusCode(err)
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	body := models.ErrorResponse{Error: http.StatusText(code)}

	var classified *apperrors.ClassifiedError
	var invalid *apperrors.ValidationError
	switch {
	case errors.As(err, &classified):
		retriable := classified.Retriable
		body.Kind = classified.Kind
		body.Stage = classified.Stage
		body.Retriable = &retriable
		body.Message = classified.Message
	case errors.As(err, &invalid):
		body.Message = invalid.Error()
	case code == http.StatusRequestEntityTooLarge:
		body.Message = "request body too large"
	default:
		body.Message = "request processing failed"
	}

	// Log the error with context
	entry := requestLog(c).WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"kind":        body.Kind,
		"stage":       body.Stage,
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, body)
}

func requestLog(c *gin.Context) *logrus.Entry {
	return logger.FromContext(c.Request.Context()).WithFields(logrus.Fields{
		"path":        c.Request.URL.Path,
		"http_method": c.Request.Method,
		"ip":          c.ClientIP(),
	})
}
