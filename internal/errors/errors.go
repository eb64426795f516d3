package errors

import "fmt"

// ErrorCode represents a callscribe error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrIngestNetwork  ErrorCode = "INGEST_NETWORK"  // 422
	ErrIngestStorage  ErrorCode = "INGEST_STORAGE"  // 422
	ErrEngineFailure  ErrorCode = "ENGINE_FAILURE"  // 502
	ErrConflict       ErrorCode = "CONFLICT"        // 422
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConnection     ErrorCode = "CONNECTION"      // 500
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause when one was recorded in Details.
func (e *AppError) Unwrap() error {
	if cause, ok := e.Details["cause"].(error); ok {
		return cause
	}
	return nil
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewIngestNetwork creates a 422 error for a failed audio download.
// Ingest errors fail the request before any inference or store access.
func NewIngestNetwork(url string, err error) *AppError {
	return &AppError{
		Code:    ErrIngestNetwork,
		Status:  422,
		Message: fmt.Sprintf("failed to fetch audio: %v", err),
		Details: map[string]any{"audio_url": url, "cause": err},
	}
}

// NewIngestStorage creates a 422 error for a failed content-store write.
func NewIngestStorage(id string, err error) *AppError {
	return &AppError{
		Code:    ErrIngestStorage,
		Status:  422,
		Message: fmt.Sprintf("failed to store audio content: %v", err),
		Details: map[string]any{"content_id": id, "cause": err},
	}
}

// NewEngineFailure creates a 502 error for an inference engine failure.
// The pipeline stage and call id are carried for observability.
func NewEngineFailure(stage, callID string, err error) *AppError {
	return &AppError{
		Code:    ErrEngineFailure,
		Status:  502,
		Message: fmt.Sprintf("%s inference failed: %v", stage, err),
		Details: map[string]any{"stage": stage, "call_id": callID, "cause": err},
	}
}

// NewConflict creates a 422 error for a uniqueness violation.
// Category title collisions are reported as unprocessable, not 409.
func NewConflict(msg string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Status:  422,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing row.
func NewNotFound(identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewConnection creates a 500 error for a store connection failure.
func NewConnection(err error) *AppError {
	return &AppError{
		Code:    ErrConnection,
		Status:  500,
		Message: fmt.Sprintf("store connection failure: %v", err),
		Details: map[string]any{"cause": err},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*AppError); ok {
		return aErr.Code == code
	}
	return false
}
