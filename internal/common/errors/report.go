package errors

import (
	"context"
	"errors"
	"time"
)

var userMessages = map[ErrorCode]string{
	ErrCodeEmptyQuestion:        "Please enter a question",
	ErrCodeClassificationFailed: "Failed to classify message. Check your API connection.",
	ErrCodeGenerationFailed:     "Failed to generate response. Check your API connection.",
}

// UserMessage returns the fixed text shown to the seller for an error code.
func UserMessage(code ErrorCode) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newError(ErrCodeRemoteTransport, "Request cancelled", err.Error(), true, err)
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// CodeOf returns the code of the first StandardError in err's chain.
func CodeOf(err error) ErrorCode {
	if stdErr := Normalize(err); stdErr != nil {
		return stdErr.Code
	}
	return ""
}

// LogFields flattens err into structured log fields.
func LogFields(err error) map[string]interface{} {
	stdErr := Normalize(err)
	if stdErr == nil {
		return map[string]interface{}{}
	}
	fields := map[string]interface{}{
		"error":         err.Error(),
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}
	return fields
}
