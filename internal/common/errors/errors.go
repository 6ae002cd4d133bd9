// Package errors provides standardized error handling for upstream dining sources.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Transport-layer failures while fetching an upstream source.
	ErrCodeNetworkError       ErrorCode = "NETWORK_ERROR"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeUpstreamHTTPError  ErrorCode = "UPSTREAM_HTTP_ERROR"

	// Payload-level failures while decoding an upstream response.
	ErrCodePayloadNotFound ErrorCode = "PAYLOAD_NOT_FOUND"
	ErrCodePayloadInvalid  ErrorCode = "PAYLOAD_INVALID"

	// Store failures.
	ErrCodeRatingStoreFailed ErrorCode = "RATING_STORE_FAILED"
	ErrCodeCacheWriteFailed  ErrorCode = "CACHE_WRITE_FAILED"
	ErrCodeIndexWriteFailed  ErrorCode = "INDEX_WRITE_FAILED"
)

// UpstreamError represents a failure produced by the fetch layer for one venue.
// The status classifier passes these through verbatim instead of guessing from
// the schedule.
type UpstreamError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("UpstreamError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewNetworkError creates a retryable transport error (host unreachable, DNS,
// timeout).
func NewNetworkError(source string, err error) *UpstreamError {
	return &UpstreamError{
		Code:      ErrCodeNetworkError,
		Message:   fmt.Sprintf("Unable to reach %s", source),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewServiceUnavailableError creates a retryable error for an upstream 503.
func NewServiceUnavailableError(source string) *UpstreamError {
	return &UpstreamError{
		Code:      ErrCodeServiceUnavailable,
		Message:   fmt.Sprintf("%s is temporarily down", source),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamHTTPError creates a non-retryable error for unexpected HTTP statuses.
func NewUpstreamHTTPError(source string, statusCode int) *UpstreamError {
	return &UpstreamError{
		Code:      ErrCodeUpstreamHTTPError,
		Message:   fmt.Sprintf("%s returned an unexpected response", source),
		Details:   fmt.Sprintf("status: %d", statusCode),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadNotFoundError creates a non-retryable error for pages that no longer
// embed the expected menu payload.
func NewPayloadNotFoundError(source, details string) *UpstreamError {
	return &UpstreamError{
		Code:      ErrCodePayloadNotFound,
		Message:   fmt.Sprintf("No menu payload found in %s response", source),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadInvalidError creates a non-retryable error for undecodable payloads.
func NewPayloadInvalidError(source string, err error) *UpstreamError {
	return &UpstreamError{
		Code:      ErrCodePayloadInvalid,
		Message:   fmt.Sprintf("Malformed menu payload from %s", source),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsTransport reports whether the code represents a transport-layer failure as
// opposed to a payload decoding problem.
func IsTransport(code ErrorCode) bool {
	switch code {
	case ErrCodeNetworkError, ErrCodeServiceUnavailable, ErrCodeUpstreamHTTPError:
		return true
	default:
		return false
	}
}
