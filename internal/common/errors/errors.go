// Package errors provides the standardized error taxonomy shared by the portal's
// operations, its HTTP boundary and its workflow workers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthenticated   ErrorCode = "UNAUTHENTICATED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInvalidStatus     ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeDuplicateID       ErrorCode = "DUPLICATE_ID"
	ErrCodeStoreUnavailable  ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeIDExhausted       ErrorCode = "ID_EXHAUSTED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Fields    []string               `json:"fields,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a StandardError with the same code, so callers can
// write errors.Is(err, errors.ErrNotFound).
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons. Only the Code is compared.
var (
	ErrValidationFailed  = &StandardError{Code: ErrCodeValidationFailed}
	ErrUnauthenticated   = &StandardError{Code: ErrCodeUnauthenticated}
	ErrForbidden         = &StandardError{Code: ErrCodeForbidden}
	ErrNotFound          = &StandardError{Code: ErrCodeNotFound}
	ErrInvalidStatus     = &StandardError{Code: ErrCodeInvalidStatus}
	ErrInvalidTransition = &StandardError{Code: ErrCodeInvalidTransition}
	ErrDuplicateID       = &StandardError{Code: ErrCodeDuplicateID}
	ErrStoreUnavailable  = &StandardError{Code: ErrCodeStoreUnavailable}
	ErrIDExhausted       = &StandardError{Code: ErrCodeIDExhausted}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable error naming the offending fields.
func NewValidationFailedError(fields ...string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Submission validation failed",
		Details:   fmt.Sprintf("invalid or missing fields: %s", strings.Join(fields, ", ")),
		Fields:    fields,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestValidationError is NewValidationFailedError for malformed request
// input that is not a submission.
func NewRequestValidationError(fields ...string) *StandardError {
	err := NewValidationFailedError(fields...)
	err.Message = "Request validation failed"
	return err
}

// NewUnauthenticatedError creates a non-retryable authentication error.
func NewUnauthenticatedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthenticated,
		Message:   "Authentication required",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForbiddenError creates a non-retryable authorization error.
func NewForbiddenError(operation, role string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   "Insufficient role for operation",
		Details:   fmt.Sprintf("operation: %s, role: %s", operation, role),
		Retryable: false,
		Metadata:  map[string]interface{}{"operation": operation, "role": role},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable unknown-application error.
func NewNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   "Application not found",
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStatusError creates a non-retryable error for a status outside the enumerated set.
func NewInvalidStatusError(status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStatus,
		Message:   "Unsupported application status",
		Details:   fmt.Sprintf("status: %q", status),
		Fields:    []string{"status"},
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError creates a non-retryable error for a transition the lifecycle table forbids.
func NewInvalidTransitionError(from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Status transition not allowed",
		Details:   fmt.Sprintf("from: %s, to: %s", from, to),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateIDError creates a retryable uniqueness collision error.
func NewDuplicateIDError(applicationID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateID,
		Message:   "Application identifier already in use",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewStoreUnavailableError creates a retryable infrastructure error.
func NewStoreUnavailableError(operation string, err error) *StandardError {
	details := fmt.Sprintf("operation: %s", operation)
	if err != nil {
		details = fmt.Sprintf("operation: %s, error: %s", operation, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Application store unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewIDExhaustedError creates a non-retryable error after identifier issuance gave up.
func NewIDExhaustedError(attempts int) *StandardError {
	return &StandardError{
		Code:      ErrCodeIDExhausted,
		Message:   "Could not issue a unique application identifier",
		Details:   fmt.Sprintf("attempts: %d", attempts),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Conversion and Mapping
// ==========================

// AsStandardError normalizes any error into a StandardError.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return AsStandardError(err).Code
}

// HTTPStatus maps an error code to its transport-level status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidStatus:
		return http.StatusBadRequest
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidTransition, ErrCodeDuplicateID:
		return http.StatusConflict
	case ErrCodeStoreUnavailable, ErrCodeIDExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:  string(ErrCodeValidationFailed),
	ErrCodeUnauthenticated:   string(ErrCodeUnauthenticated),
	ErrCodeForbidden:         string(ErrCodeForbidden),
	ErrCodeNotFound:          string(ErrCodeNotFound),
	ErrCodeInvalidStatus:     string(ErrCodeInvalidStatus),
	ErrCodeInvalidTransition: string(ErrCodeInvalidTransition),
	ErrCodeDuplicateID:       string(ErrCodeDuplicateID),
	ErrCodeStoreUnavailable:  string(ErrCodeStoreUnavailable),
	ErrCodeIDExhausted:       string(ErrCodeIDExhausted),
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable:
		return 3
	case ErrCodeDuplicateID:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	code, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		code = string(ErrCodeInternal)
	}

	vars := map[string]interface{}{}
	if len(stdErr.Fields) > 0 {
		vars["invalidFields"] = stdErr.Fields
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           code,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        GetRetryCount(stdErr.Code),
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidStatus, ErrCodeInvalidTransition:
		return "INPUT"
	case ErrCodeUnauthenticated, ErrCodeForbidden:
		return "ACCESS"
	case ErrCodeNotFound:
		return "RESOURCE"
	case ErrCodeDuplicateID, ErrCodeIDExhausted:
		return "IDENTIFIER"
	case ErrCodeStoreUnavailable:
		return "INFRASTRUCTURE"
	default:
		return "UNKNOWN"
	}
}
