package llm

import (
	"errors"
	"fmt"
	"strings"

	apperrors "go-news-inspector/internal/errors"

	"google.golang.org/genai"
)

func firstCandidate(resp *genai.GenerateContentResponse) *genai.Candidate {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	return resp.Candidates[0]
}

func candidateParts(resp *genai.GenerateContentResponse) []*genai.Part {
	c := firstCandidate(resp)
	if c == nil || c.Content == nil {
		return nil
	}
	return c.Content.Parts
}

// responseText concatenates the visible text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, p := range candidateParts(resp) {
		if p == nil || p.Thought || p.Text == "" {
			continue
		}
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

func functionCalls(resp *genai.GenerateContentResponse) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, p := range candidateParts(resp) {
		if p != nil && p.FunctionCall != nil {
			calls = append(calls, p.FunctionCall)
		}
	}
	return calls
}

func inlineImage(resp *genai.GenerateContentResponse) *genai.Blob {
	for _, p := range candidateParts(resp) {
		if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
			continue
		}
		if p.InlineData.MIMEType == "" || strings.HasPrefix(p.InlineData.MIMEType, "image/") {
			return p.InlineData
		}
	}
	return nil
}

// stripFences removes a markdown code fence some models wrap JSON in
func stripFences(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "```"))
}

func isSafetyStop(reason genai.FinishReason) bool {
	switch reason {
	case genai.FinishReasonSafety,
		genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII,
		genai.FinishReason("IMAGE_SAFETY"),
		genai.FinishReason("IMAGE_PROHIBITED_CONTENT"):
		return true
	}
	return false
}

func isRecitationStop(reason genai.FinishReason) bool {
	return reason == genai.FinishReasonRecitation || reason == genai.FinishReason("IMAGE_RECITATION")
}

// blockedError reports a provider refusal, or nil when the response was not blocked
func blockedError(stage apperrors.Stage, resp *genai.GenerateContentResponse) *apperrors.ClassifiedError {
	if resp == nil {
		return nil
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReason("BLOCKED_REASON_UNSPECIFIED") {
		return apperrors.NewContentPolicyBlock(stage, apperrors.MessageSafetyBlock,
			fmt.Errorf("prompt blocked: %s", fb.BlockReason))
	}

	c := firstCandidate(resp)
	if c == nil {
		return nil
	}
	switch {
	case isSafetyStop(c.FinishReason):
		return apperrors.NewContentPolicyBlock(stage, apperrors.MessageSafetyBlock,
			fmt.Errorf("finish reason %s", c.FinishReason))
	case isRecitationStop(c.FinishReason):
		return apperrors.NewContentPolicyBlock(stage, apperrors.MessageRecitationBlock,
			fmt.Errorf("finish reason %s", c.FinishReason))
	}
	return nil
}

// noOutputError classifies a response that lacks the expected output
func noOutputError(stage apperrors.Stage, resp *genai.GenerateContentResponse, what string) *apperrors.ClassifiedError {
	if blocked := blockedError(stage, resp); blocked != nil {
		return blocked
	}

	reason := "none"
	if c := firstCandidate(resp); c != nil && c.FinishReason != "" {
		reason = string(c.FinishReason)
	}
	return apperrors.NewMalformedResponse(stage, "",
		fmt.Errorf("no %s in response (finish reason %s): %w", what, reason, apperrors.ErrMalformed))
}

// classifyCallError maps a failed GenerateContent call into the taxonomy
func classifyCallError(stage apperrors.Stage, err error) *apperrors.ClassifiedError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.Classify(stage, apiStatusError(apiErr, err))
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apperrors.Classify(stage, apiStatusError(*apiErrPtr, err))
	}
	return apperrors.Classify(stage, err)
}

func apiStatusError(apiErr genai.APIError, cause error) error {
	body := apiErr.Message
	if apiErr.Status != "" {
		body = apiErr.Status + ": " + body
	}
	return fmt.Errorf("%w: %v", apperrors.NewStatusError(apiErr.Code, []byte(body)), cause)
}
