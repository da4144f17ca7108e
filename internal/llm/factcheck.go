package llm

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"go-news-inspector/pkg/models"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// FactCheckToolName is the function name the model calls
const FactCheckToolName = "factCheck"

const factCheckArg = "articleText"

// FactChecker looks up published reviews of the claims in a text
type FactChecker interface {
	FactCheck(ctx context.Context, articleText string) ([]models.FactCheck, error)
}

// FactCheckDeclaration describes the tool to the model
func FactCheckDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        FactCheckToolName,
		Description: "Looks up published fact checks for the main claims of a news article. Returns a possibly empty list of {source, claimReviewed, rating, url}.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				factCheckArg: {
					Type:        genai.TypeString,
					Description: "The article text, or the claim to check.",
				},
			},
			Required: []string{factCheckArg},
		},
	}
}

// MockFactChecker simulates a fact-check service: after a short delay it
// returns nothing most of the time and one synthetic review otherwise.
type MockFactChecker struct {
	hitRate float64
	latency time.Duration
	roll    func() float64
}

// MockOption configures a MockFactChecker
type MockOption func(*MockFactChecker)

// WithHitRate sets the probability of returning a review
func WithHitRate(rate float64) MockOption {
	return func(m *MockFactChecker) {
		m.hitRate = rate
	}
}

// WithLatency sets the simulated lookup delay
func WithLatency(d time.Duration) MockOption {
	return func(m *MockFactChecker) {
		m.latency = d
	}
}

// WithRoll replaces the random source, for deterministic tests
func WithRoll(roll func() float64) MockOption {
	return func(m *MockFactChecker) {
		m.roll = roll
	}
}

// NewMockFactChecker creates the mock with a 30% hit rate
func NewMockFactChecker(opts ...MockOption) *MockFactChecker {
	m := &MockFactChecker{
		hitRate: 0.3,
		latency: 400 * time.Millisecond,
		roll:    rand.Float64,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FactCheck implements FactChecker
func (m *MockFactChecker) FactCheck(ctx context.Context, articleText string) ([]models.FactCheck, error) {
	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if m.roll() >= m.hitRate {
		return []models.FactCheck{}, nil
	}

	return []models.FactCheck{{
		Source:        "Mock Fact Check Network",
		ClaimReviewed: leadClaim(articleText),
		Rating:        "Unverified",
		URL:           "https://factcheck.example.org/reviews/" + uuid.NewString()[:8],
	}}, nil
}

// leadClaim returns the first sentence, capped at 160 characters
func leadClaim(text string) string {
	claim := strings.TrimSpace(text)
	if i := strings.IndexAny(claim, ".!?\n"); i > 0 {
		claim = claim[:i]
	}
	if utf8.RuneCountInString(claim) > 160 {
		claim = string([]rune(claim)[:160]) + "..."
	}
	if claim == "" {
		claim = "Unspecified claim"
	}
	return claim
}
