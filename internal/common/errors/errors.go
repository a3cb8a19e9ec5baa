// Package errors provides the structured error type shared by the dashboard and its gateway.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeEmptyQuestion ErrorCode = "INPUT_EMPTY_QUESTION"
	ErrCodeUnknownField  ErrorCode = "INPUT_UNKNOWN_FIELD"

	ErrCodeClassificationFailed ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeGenerationFailed     ErrorCode = "GENERATION_FAILED"

	ErrCodeRemoteStatus    ErrorCode = "REMOTE_STATUS"
	ErrCodeRemoteTransport ErrorCode = "REMOTE_TRANSPORT"
	ErrCodeRemoteDecode    ErrorCode = "REMOTE_DECODE"
	ErrCodeSchemaDrift     ErrorCode = "SCHEMA_DRIFT"

	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewEmptyQuestionError is raised when classification is requested for a blank question.
func NewEmptyQuestionError() *StandardError {
	return newError(ErrCodeEmptyQuestion, UserMessage(ErrCodeEmptyQuestion), "", false, nil)
}

// NewUnknownFieldError is raised for product field names outside the fixed set.
func NewUnknownFieldError(field string) *StandardError {
	return newError(ErrCodeUnknownField, "Unknown product field", field, false, nil)
}

// NewRemoteStatusError reports a non-2xx answer from the co-host API.
func NewRemoteStatusError(endpoint string, status int) *StandardError {
	e := newError(ErrCodeRemoteStatus, "Co-host API returned an error status",
		fmt.Sprintf("%s: status %d", endpoint, status), status >= 500, nil)
	e.Metadata = map[string]interface{}{"endpoint": endpoint, "status": status}
	return e
}

// NewRemoteTransportError reports a request that never produced a response.
func NewRemoteTransportError(endpoint string, err error) *StandardError {
	e := newError(ErrCodeRemoteTransport, "Co-host API unreachable",
		fmt.Sprintf("%s: %v", endpoint, err), true, err)
	e.Metadata = map[string]interface{}{"endpoint": endpoint}
	return e
}

// NewRemoteDecodeError reports a 2xx body that is not JSON.
func NewRemoteDecodeError(endpoint string, err error) *StandardError {
	e := newError(ErrCodeRemoteDecode, "Co-host API returned an unreadable body",
		fmt.Sprintf("%s: %v", endpoint, err), false, err)
	e.Metadata = map[string]interface{}{"endpoint": endpoint}
	return e
}

// NewSchemaDriftError reports a JSON body that does not match the expected shape.
func NewSchemaDriftError(endpoint string, violations []string) *StandardError {
	e := newError(ErrCodeSchemaDrift, "Co-host API response does not match the expected schema",
		fmt.Sprintf("%s: %s", endpoint, strings.Join(violations, "; ")), false, nil)
	e.Metadata = map[string]interface{}{"endpoint": endpoint, "violations": violations}
	return e
}

// NewSessionNotFoundError reports an unknown or expired session. cause is usually the
// store's sentinel so callers can still match it with errors.Is.
func NewSessionNotFoundError(sessionID string, cause error) *StandardError {
	return newError(ErrCodeSessionNotFound, "Session not found", sessionID, false, cause)
}

// NewSessionStoreError reports a failing session backend.
func NewSessionStoreError(operation string, err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store failure",
		fmt.Sprintf("%s: %v", operation, err), true, err)
}

// ==========================
// 3. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INPUT"):
		return "INPUT"
	case strings.HasPrefix(codeStr, "REMOTE") || strings.Contains(codeStr, "SCHEMA"):
		return "REMOTE"
	case strings.Contains(codeStr, "CLASSIFICATION") || strings.Contains(codeStr, "GENERATION"):
		return "REMOTE"
	case strings.HasPrefix(codeStr, "SESSION"):
		return "SESSION"
	default:
		return "OTHER"
	}
}
