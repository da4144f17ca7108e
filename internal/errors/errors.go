package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Kind is the closed set of failure categories every stage reports
type Kind string

const (
	KindConfigMissing      Kind = "config_missing"
	KindUpstreamHTTP       Kind = "upstream_http_error"
	KindMalformedResponse  Kind = "malformed_response"
	KindContentPolicyBlock Kind = "content_policy_block"
	KindStorageFailure     Kind = "storage_failure"
)

// Stage identifies where a failure happened
type Stage string

const (
	StageDetection Stage = "detection"
	StageText      Stage = "text"
	StageImage     Stage = "image"
	StageStorage   Stage = "storage"
)

// User-facing messages for cases that share a kind but need different remediation
const (
	MessageSafetyBlock            = "The provider blocked this content for safety reasons; rephrase or change the input and try again."
	MessageRecitationBlock        = "The provider stopped because the output would reproduce copyrighted material; change the input and try again."
	MessageStorageRateLimited     = "The image store is rate limiting uploads; retry the upload later."
	MessageStoragePayloadRejected = "The image store rejected the image payload as malformed; regenerate the image before retrying."
)

var (
	// ErrConfigMissing marks a required endpoint or credential that is not set
	ErrConfigMissing = errors.New("required configuration missing")

	// ErrMalformed marks an upstream payload whose shape is not what the caller needs
	ErrMalformed = errors.New("malformed upstream response")
)

var defaultMessages = map[Kind]string{
	KindConfigMissing:      "The service is missing a required endpoint or credential; reconfigure it before retrying.",
	KindUpstreamHTTP:       "An upstream provider did not respond successfully; try again later.",
	KindMalformedResponse:  "An upstream provider returned an unexpected response; retrying the same request will not help.",
	KindContentPolicyBlock: "The provider refused this content under its content policy; change the input and try again.",
	KindStorageFailure:     "The generated image could not be stored; retry the upload.",
}

var statusCodes = map[Kind]int{
	KindConfigMissing:      http.StatusServiceUnavailable,
	KindUpstreamHTTP:       http.StatusBadGateway,
	KindMalformedResponse:  http.StatusBadGateway,
	KindContentPolicyBlock: http.StatusUnprocessableEntity,
	KindStorageFailure:     http.StatusBadGateway,
}

// ClassifiedError is a failure mapped into the closed taxonomy
type ClassifiedError struct {
	Kind       Kind   `json:"kind"`
	Stage      Stage  `json:"stage,omitempty"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Retriable  bool   `json:"retriable"`
	StatusCode int    `json:"-"`
	Cause      error  `json:"-"`
}

// Error implements the error interface
func (e *ClassifiedError) Error() string {
	prefix := string(e.Kind)
	if e.Stage != "" {
		prefix = string(e.Stage) + ": " + prefix
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// New builds a classified error. An empty message falls back to the kind's default.
func New(kind Kind, stage Stage, message string, cause error) *ClassifiedError {
	if message == "" {
		message = DefaultMessage(kind)
	}
	return &ClassifiedError{
		Kind:       kind,
		Stage:      stage,
		Message:    message,
		Retriable:  Retriable(kind),
		StatusCode: statusCode(kind),
		Cause:      cause,
	}
}

// NewConfigMissing reports a missing endpoint or credential by name
func NewConfigMissing(stage Stage, what ...string) *ClassifiedError {
	cause := ErrConfigMissing
	if len(what) > 0 {
		cause = fmt.Errorf("%w: %s", ErrConfigMissing, strings.Join(what, ", "))
	}
	return New(KindConfigMissing, stage, "", cause)
}

// NewUpstreamHTTPError reports a failed or non-2xx external call
func NewUpstreamHTTPError(stage Stage, message string, cause error) *ClassifiedError {
	return New(KindUpstreamHTTP, stage, message, cause)
}

// NewMalformedResponse reports an upstream payload of the wrong shape
func NewMalformedResponse(stage Stage, message string, cause error) *ClassifiedError {
	return New(KindMalformedResponse, stage, message, cause)
}

// NewContentPolicyBlock reports a provider refusal
func NewContentPolicyBlock(stage Stage, message string, cause error) *ClassifiedError {
	return New(KindContentPolicyBlock, stage, message, cause)
}

// NewStorageFailure reports a failed upload after content was generated
func NewStorageFailure(message string, cause error) *ClassifiedError {
	return New(KindStorageFailure, StageStorage, message, cause)
}

// DefaultMessage returns the actionable message for a kind
func DefaultMessage(kind Kind) string {
	if msg, ok := defaultMessages[kind]; ok {
		return msg
	}
	return "The request failed."
}

// Retriable reports whether a caller may re-issue the same request for this kind
func Retriable(kind Kind) bool {
	return kind == KindUpstreamHTTP || kind == KindStorageFailure
}

func statusCode(kind Kind) int {
	if code, ok := statusCodes[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// StatusError carries a non-2xx response from an external call
type StatusError struct {
	StatusCode int
	Body       string
}

// maxBodyLen bounds the diagnostic body kept on a StatusError
const maxBodyLen = 512

// NewStatusError builds a StatusError, truncating the body
func NewStatusError(code int, body []byte) *StatusError {
	text := strings.TrimSpace(string(body))
	if len(text) > maxBodyLen {
		cut := maxBodyLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "...(truncated)"
	}
	return &StatusError{StatusCode: code, Body: text}
}

// Error implements the error interface
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Classify maps any failure from a stage into the taxonomy. Errors that are
// already classified keep their kind; the stage is filled in when missing.
func Classify(stage Stage, err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		out := *classified
		if out.Stage == "" {
			out.Stage = stage
		}
		return &out
	}

	switch {
	case errors.Is(err, ErrConfigMissing):
		return New(KindConfigMissing, stage, "", err)
	case errors.Is(err, ErrMalformed):
		return New(KindMalformedResponse, stage, "", err)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(stage, statusErr)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return New(KindMalformedResponse, stage, "", err)
	}

	if stage == StageStorage {
		return New(KindStorageFailure, stage, "", err)
	}

	// Transport failures, timeouts and cancellations all mean the far end
	// never produced a usable answer.
	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindUpstreamHTTP, stage, "The upstream provider timed out; try again later.", err)
	}
	return New(KindUpstreamHTTP, stage, "", err)
}

func classifyStatus(stage Stage, statusErr *StatusError) *ClassifiedError {
	if stage == StageStorage {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			ce := New(KindStorageFailure, stage, MessageStorageRateLimited, statusErr)
			ce.Details = statusErr.Body
			return ce
		case http.StatusBadRequest:
			ce := New(KindUpstreamHTTP, stage, MessageStoragePayloadRejected, statusErr)
			ce.Details = statusErr.Body
			return ce
		default:
			ce := New(KindStorageFailure, stage, "", statusErr)
			ce.Details = statusErr.Body
			return ce
		}
	}

	ce := New(KindUpstreamHTTP, stage, "", statusErr)
	ce.Details = statusErr.Body
	return ce
}

// KindOf extracts the kind of a classified error
func KindOf(err error) (Kind, bool) {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Kind, true
	}
	return "", false
}

// IsKind checks if the error is classified as a specific kind
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// ValidationError reports a caller input problem. It sits outside the stage
// taxonomy because no provider was involved.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	}
	return "validation: " + e.Message
}

// Unwrap returns the underlying error
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Cause: cause}
}

// IsValidation reports whether err is an input validation failure
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var classified *ClassifiedError
	if errors.As(err, &classified) && classified.StatusCode != 0 {
		return classified.StatusCode
	}
	if IsValidation(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
