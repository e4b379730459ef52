// Package errors provides the error taxonomy shared by the engine packages
// and its mapping onto BPMN errors thrown back to the workflow engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode is a stable, machine readable failure code.
type ErrorCode string

const (
	// Local input rejected before it reaches the scorer or matcher.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInputParsing     ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeInvalidAction    ErrorCode = "INVALID_ACTION"

	// Persisted record store.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreReadCorrupt ErrorCode = "STORE_READ_CORRUPT"

	// Remote collaborators.
	ErrCodeNetworkUnreachable ErrorCode = "NETWORK_UNREACHABLE"
	ErrCodeServerRejected     ErrorCode = "SERVER_REJECTED"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"

	// Shortlist, lock and task tracker.
	ErrCodeLockFailed         ErrorCode = "LOCK_FAILED"
	ErrCodeTaskNotFound       ErrorCode = "TASK_NOT_FOUND"
	ErrCodeUniversityNotFound ErrorCode = "UNIVERSITY_NOT_FOUND"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the structured error every engine operation returns.
// Retryable tells the caller the user may re-trigger the operation; nothing
// in this module retries on its own.
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
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
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

// NewValidationError reports a rejected field.
func NewValidationError(field, details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false, nil).
		WithMetadata("field", field)
}

func NewInputParsingError(err error) *StandardError {
	return newError(ErrCodeInputParsing, "Failed to parse job variables", err.Error(), false, err)
}

func NewInvalidActionError(action string) *StandardError {
	return newError(ErrCodeInvalidAction, "Unsupported action", fmt.Sprintf("action: %s", action), false, nil)
}

// NewStoreUnavailableError wraps a transport failure of the record store.
func NewStoreUnavailableError(op, key string, err error) *StandardError {
	return newError(ErrCodeStoreUnavailable, "Record store unavailable",
		fmt.Sprintf("op: %s, key: %s, error: %v", op, key, err), true, err)
}

func NewNetworkUnreachableError(endpoint string, err error) *StandardError {
	return newError(ErrCodeNetworkUnreachable, "Unable to reach the server",
		fmt.Sprintf("endpoint: %s, error: %v", endpoint, err), true, err)
}

// NewServerRejectedError reports a non-2xx answer from a remote collaborator.
func NewServerRejectedError(endpoint string, status int, message string) *StandardError {
	return newError(ErrCodeServerRejected, message,
		fmt.Sprintf("endpoint: %s, status: %d", endpoint, status), status >= 500, nil).
		WithMetadata("status", status)
}

func NewUnauthorizedError(endpoint string) *StandardError {
	return newError(ErrCodeUnauthorized, "Session expired. Please log in again.",
		fmt.Sprintf("endpoint: %s", endpoint), false, nil).
		WithMetadata("status", 401)
}

func NewCatalogUnavailableError(source string, err error) *StandardError {
	return newError(ErrCodeCatalogUnavailable, "University catalog unavailable",
		fmt.Sprintf("source: %s, error: %v", source, err), true, err)
}

// NewLockFailedError wraps the remote lock failure; nothing local was committed.
func NewLockFailedError(universityID string, err error) *StandardError {
	return newError(ErrCodeLockFailed, "Failed to lock university",
		fmt.Sprintf("universityId: %s, error: %v", universityID, err), true, err)
}

func NewTaskNotFoundError(universityID, taskID string) *StandardError {
	return newError(ErrCodeTaskNotFound, "Application task not found",
		fmt.Sprintf("universityId: %s, taskId: %s", universityID, taskID), false, nil)
}

func NewUniversityNotFoundError(universityID string) *StandardError {
	return newError(ErrCodeUniversityNotFound, "University not found",
		fmt.Sprintf("universityId: %s", universityID), false, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// AsStandard extracts a StandardError from an error chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// BPMNError is thrown to the workflow engine when a job cannot complete.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables flattens the error into job variables.
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

// bpmnCodes collapses internal codes onto the boundary events modelled in
// the process definitions. Codes not listed pass through unchanged.
var bpmnCodes = map[ErrorCode]string{
	ErrCodeInputParsing:       string(ErrCodeValidationFailed),
	ErrCodeStoreReadCorrupt:   string(ErrCodeStoreUnavailable),
	ErrCodeCatalogUnavailable: string(ErrCodeNetworkUnreachable),
}

// ConvertToBPMNError converts a StandardError into the thrown form.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	code, ok := bpmnCodes[stdErr.Code]
	if !ok {
		code = string(stdErr.Code)
	}
	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}
	return &BPMNError{
		Code:           code,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		ErrorVariables: vars,
	}
}

// GetErrorCategory groups codes for logs and dashboards.
func GetErrorCategory(code ErrorCode) string {
	c := string(code)
	switch {
	case strings.HasPrefix(c, "STORE"):
		return "STORE"
	case code == ErrCodeNetworkUnreachable, code == ErrCodeServerRejected, code == ErrCodeCatalogUnavailable:
		return "REMOTE"
	case code == ErrCodeUnauthorized:
		return "AUTH"
	case strings.Contains(c, "VALIDATION"), strings.Contains(c, "INVALID"), strings.Contains(c, "PARSING"):
		return "VALIDATION"
	case code == ErrCodeLockFailed, code == ErrCodeTaskNotFound, code == ErrCodeUniversityNotFound:
		return "APPLICATION"
	default:
		return "OTHER"
	}
}
