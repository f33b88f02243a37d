// Package errors provides the error taxonomy workers report to the workflow
// engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode is an internal error code. BPMN error codes mirror it.
type ErrorCode string

const (
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidProfile ErrorCode = "INVALID_PROFILE"

	ErrCodeProfileNotFound     ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileLookupFailed ErrorCode = "PROFILE_LOOKUP_FAILED"

	ErrCodeCandidateSearchFailed ErrorCode = "CANDIDATE_SEARCH_FAILED"
	ErrCodeEmptyCandidatePool    ErrorCode = "EMPTY_CANDIDATE_POOL"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeTimeout  ErrorCode = "TIMEOUT"
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured application error.
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to Metadata and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// BPMNError is an error thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables sent with a failed or thrown job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
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

// NewInvalidInputError reports malformed job variables.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

// NewInvalidProfileError reports a profile that failed schema or field
// validation.
func NewInvalidProfileError(err error) *StandardError {
	return newError(ErrCodeInvalidProfile, "Invalid diner profile", err.Error(), false, err)
}

func NewProfileNotFoundError(id string) *StandardError {
	return newError(ErrCodeProfileNotFound, "Diner profile not found", id, false, nil).
		WithMetadata("dinerId", id)
}

// NewProfileLookupFailedError wraps a storage failure. Retryable.
func NewProfileLookupFailedError(err error) *StandardError {
	return newError(ErrCodeProfileLookupFailed, "Failed to load diner profile", err.Error(), true, err)
}

// NewCandidateSearchFailedError wraps a search index failure. Retryable.
func NewCandidateSearchFailedError(city string, err error) *StandardError {
	return newError(ErrCodeCandidateSearchFailed, "Candidate pool search failed", err.Error(), true, err).
		WithMetadata("city", city)
}

// NewEmptyCandidatePoolError is informational: workers complete with an empty
// result rather than throwing it.
func NewEmptyCandidatePoolError(dinerID string) *StandardError {
	return newError(ErrCodeEmptyCandidatePool, "No candidates available", dinerID, false, nil)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Failed to send "+channel+" notification", err.Error(), true, err).
		WithMetadata("channel", channel)
}

func NewTimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeTimeout, operation+" timed out", err.Error(), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// BPMNErrorMapping maps internal codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:           "INVALID_INPUT",
	ErrCodeInvalidProfile:         "INVALID_PROFILE",
	ErrCodeProfileNotFound:        "PROFILE_NOT_FOUND",
	ErrCodeProfileLookupFailed:    "PROFILE_LOOKUP_FAILED",
	ErrCodeCandidateSearchFailed:  "CANDIDATE_SEARCH_FAILED",
	ErrCodeEmptyCandidatePool:     "EMPTY_CANDIDATE_POOL",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeTimeout:                "TIMEOUT",
	ErrCodeInternal:               "INTERNAL_ERROR",
}

// GetRetryCount returns how many job retries a code warrants.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProfileLookupFailed,
		ErrCodeCandidateSearchFailed,
		ErrCodeNotificationSendFailed:
		return 3
	case ErrCodeTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// AsStandardError finds a StandardError in err's chain, or wraps err as an
// internal error.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROFILE_LOOKUP") || strings.Contains(codeStr, "NOT_FOUND"):
		return "STORAGE"
	case strings.Contains(codeStr, "CANDIDATE"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "TIMEOUT"):
		return "TIMEOUT"
	default:
		return "OTHER"
	}
}
