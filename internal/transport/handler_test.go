package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-news-inspector/internal/config"
	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/internal/logger"
	"go-news-inspector/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	requestID string

	detect   func(models.AnalysisRequest) (models.DetectionResult, error)
	generate func(models.GenerationRequest) (models.GenerationResult, error)
	batch    func([]models.GenerationRequest, int) (models.BatchResult, error)
}

func (s *stubService) Detect(ctx context.Context, req models.AnalysisRequest) (models.DetectionResult, error) {
	s.requestID = logger.RequestID(ctx)
	return s.detect(req)
}

func (s *stubService) Generate(_ context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	return s.generate(req)
}

func (s *stubService) GenerateBatch(_ context.Context, reqs []models.GenerationRequest, limit int) (models.BatchResult, error) {
	return s.batch(reqs, limit)
}

type stubStats map[string]interface{}

func (s stubStats) GetMetrics() map[string]interface{} { return s }

func newTestHandler(svc *stubService) http.Handler {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.MaxRequestBodySize = 1024
	return NewHandler(svc, stubStats{"pipelines_completed": 3}, cfg)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthAndStats(t *testing.T) {
	h := newTestHandler(&stubService{})

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"available"`)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = do(t, h, http.MethodGet, "/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pipelines_completed":3}`, rec.Body.String())
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestHandler(&stubService{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestRequestIDReachesService(t *testing.T) {
	svc := &stubService{detect: func(models.AnalysisRequest) (models.DetectionResult, error) {
		return models.DetectionResult{Label: models.LabelFake, Confidence: 50}, nil
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", strings.NewReader(`{"text":"x"}`))
	req.Header.Set(requestIDHeader, "trace-7")
	rec := httptest.NewRecorder()

	newTestHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trace-7", svc.requestID)
}

func TestDetectEndpoint(t *testing.T) {
	var got models.AnalysisRequest
	svc := &stubService{detect: func(req models.AnalysisRequest) (models.DetectionResult, error) {
		got = req
		return models.DetectionResult{Label: models.LabelReal, Confidence: 91.5}, nil
	}}
	h := newTestHandler(svc)

	rec := do(t, h, http.MethodPost, "/api/v1/detect", `{"text":"some article","method":"llm"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"label":"Real","confidence":91.5}`, rec.Body.String())
	assert.Equal(t, models.DetectionMethod("llm"), got.Method)
	assert.Equal(t, "some article", got.Text)
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		err        error
		wantStatus int
		wantKind   apperrors.Kind
		wantStage  apperrors.Stage
		retriable  *bool
	}{
		{
			name:       "malformed json",
			path:       "/api/v1/detect",
			body:       `{"text":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "validation from service",
			path:       "/api/v1/detect",
			body:       `{"text":"short"}`,
			err:        apperrors.NewValidationError("text", "text must be at least 50 characters", nil),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "config missing",
			path:       "/api/v1/detect",
			body:       `{"text":"anything"}`,
			err:        apperrors.NewConfigMissing(apperrors.StageDetection, "CLASSIFIER_ENDPOINT"),
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   apperrors.KindConfigMissing,
			wantStage:  apperrors.StageDetection,
			retriable:  new(bool),
		},
		{
			name:       "text stage policy block",
			path:       "/api/v1/generate",
			body:       `{"topic":"t","category":"c","tone":"n"}`,
			err:        apperrors.NewContentPolicyBlock(apperrors.StageText, apperrors.MessageSafetyBlock, nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   apperrors.KindContentPolicyBlock,
			wantStage:  apperrors.StageText,
			retriable:  new(bool),
		},
		{
			name:       "unclassified deadline",
			path:       "/api/v1/generate",
			body:       `{"topic":"t","category":"c","tone":"n"}`,
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "body too large",
			path:       "/api/v1/detect",
			body:       `{"text":"` + strings.Repeat("x", 2048) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				detect: func(models.AnalysisRequest) (models.DetectionResult, error) {
					return models.DetectionResult{}, tt.err
				},
				generate: func(models.GenerationRequest) (models.GenerationResult, error) {
					return models.GenerationResult{}, tt.err
				},
			}
			rec := do(t, newTestHandler(svc), http.MethodPost, tt.path, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, http.StatusText(tt.wantStatus), body.Error)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.Equal(t, tt.wantStage, body.Stage)
			assert.Equal(t, tt.retriable, body.Retriable)
		})
	}
}

func TestGenerateEndpoint_DowngradedStagesStillSucceed(t *testing.T) {
	svc := &stubService{generate: func(req models.GenerationRequest) (models.GenerationResult, error) {
		return models.GenerationResult{
			Article: models.GeneratedArticle{Title: "Quiet week", Content: "Nothing happened.", Topic: req.Topic},
			Outcome: models.PipelineOutcome{
				Text:    models.Succeeded(),
				Image:   models.FailedWith(apperrors.NewContentPolicyBlock(apperrors.StageImage, "", nil)),
				Storage: models.Skipped("no image"),
			},
		}, nil
	}}

	rec := do(t, newTestHandler(svc), http.MethodPost, "/api/v1/generate", `{"topic":"Town","category":"Local","tone":"dry"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.GenerationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Quiet week", got.Article.Title)
	assert.Empty(t, got.Article.ImageURL)
	assert.Equal(t, models.StageFailed, got.Outcome.Image.Status)
	assert.Equal(t, apperrors.KindContentPolicyBlock, got.Outcome.Image.Kind)
	assert.Equal(t, models.StageSkipped, got.Outcome.Storage.Status)
}

func TestBatchEndpoint(t *testing.T) {
	var gotLimit, gotCount int
	svc := &stubService{batch: func(reqs []models.GenerationRequest, limit int) (models.BatchResult, error) {
		gotLimit, gotCount = limit, len(reqs)
		return models.BatchResult{Requested: len(reqs), Succeeded: 1, Results: []models.GenerationResult{{}}}, nil
	}}
	h := newTestHandler(svc)

	payload, err := json.Marshal(models.BatchRequest{
		Requests: []models.GenerationRequest{{Topic: "a", Category: "b", Tone: "c"}, {Topic: "d", Category: "e", Tone: "f"}},
		Limit:    1,
	})
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/api/v1/generate/batch", string(payload))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, gotLimit)
	assert.Equal(t, 2, gotCount)
	assert.Contains(t, rec.Body.String(), `"succeeded":1`)

	rec = do(t, h, http.MethodPost, "/api/v1/generate/batch", `{"requests":[{"topic":"a"}],"limit":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetermineStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, determineStatusCode(&http.MaxBytesError{Limit: 1}))
	assert.Equal(t, http.StatusInternalServerError, determineStatusCode(errors.New("boom")))
	assert.Equal(t, http.StatusBadGateway, determineStatusCode(
		apperrors.Classify(apperrors.StageText, apperrors.NewStatusError(500, bytes.Repeat([]byte("x"), 4)))))
}
