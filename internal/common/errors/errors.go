// Package errors provides the structured error type shared by the submission
// pipeline and its HTTP rendering.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeCaptchaFailed      ErrorCode = "CAPTCHA_FAILED"
	ErrCodeInvalidFileUpload  ErrorCode = "INVALID_FILE_UPLOAD"
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeCRMCreateFailed    ErrorCode = "CRM_CREATE_FAILED"
	ErrCodeCRMUpdateFailed    ErrorCode = "CRM_UPDATE_FAILED"
	ErrCodeFileUploadFailed   ErrorCode = "FILE_UPLOAD_FAILED"
	ErrCodeTokenFailed        ErrorCode = "TOKEN_GENERATION_FAILED"
	ErrCodeCaptchaUnavailable ErrorCode = "CAPTCHA_UNAVAILABLE"
	ErrCodeConfiguration      ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	se := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		se.Details = cause.Error()
	}
	return se
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError carries the path-keyed error tree in Metadata["fields"].
func NewValidationError(tree map[string][]string) *StandardError {
	se := newError(ErrCodeValidationFailed, "Validation failed", nil, false)
	se.Metadata = map[string]interface{}{"fields": tree}
	return se
}

func NewCaptchaFailedError(details string) *StandardError {
	se := newError(ErrCodeCaptchaFailed, "Captcha verification failed", nil, false)
	se.Details = details
	return se
}

// NewCaptchaUnavailableError is returned when the verification service itself
// cannot be reached. It is reported to the client like any captcha failure.
func NewCaptchaUnavailableError(err error) *StandardError {
	return newError(ErrCodeCaptchaUnavailable, "Captcha verification failed", err, true)
}

func NewInvalidFileUploadError(details string) *StandardError {
	se := newError(ErrCodeInvalidFileUpload, "Invalid file upload", nil, false)
	se.Details = details
	return se
}

func NewInvalidRequestError(err error) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request body", err, false)
}

func NewInvalidTokenError(details string) *StandardError {
	se := newError(ErrCodeInvalidToken, "Invalid or expired token", nil, false)
	se.Details = details
	return se
}

func NewCRMCreateFailedError(err error) *StandardError {
	return newError(ErrCodeCRMCreateFailed, "Failed to submit application", err, true)
}

func NewCRMUpdateFailedError(err error) *StandardError {
	return newError(ErrCodeCRMUpdateFailed, "Failed to record feedback", err, true)
}

// NewFileUploadFailedError records the application id that survives the failed upload.
func NewFileUploadFailedError(applicationID string, err error) *StandardError {
	se := newError(ErrCodeFileUploadFailed, "Failed to upload file", err, true)
	se.Metadata = map[string]interface{}{"applicationId": applicationID}
	return se
}

func NewTokenFailedError(err error) *StandardError {
	return newError(ErrCodeTokenFailed, "Failed to submit application", err, false)
}

func NewConfigurationError(details string) *StandardError {
	se := newError(ErrCodeConfiguration, "Service misconfigured", nil, false)
	se.Details = details
	return se
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Internal server error", err, false)
}

// ==========================
// 3. HTTP Rendering
// ==========================

// HTTPStatus maps an error code onto the response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeCaptchaFailed, ErrCodeCaptchaUnavailable,
		ErrCodeInvalidFileUpload, ErrCodeInvalidRequest, ErrCodeInvalidToken:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ToResponse renders err as a status and `{error, details?}` body. Only
// validation failures expose details; downstream failures stay generic.
func ToResponse(err error) (int, map[string]interface{}) {
	var se *StandardError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError, map[string]interface{}{"error": "Internal server error"}
	}

	body := map[string]interface{}{"error": se.Message}
	if se.Code == ErrCodeValidationFailed {
		if fields, ok := se.Metadata["fields"]; ok {
			body["details"] = fields
		}
	}
	return HTTPStatus(se.Code), body
}

// CodeOf returns the code of a wrapped StandardError, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsRetryable reports whether err is a StandardError marked retryable.
func IsRetryable(err error) bool {
	var se *StandardError
	return errors.As(err, &se) && se.Retryable
}
