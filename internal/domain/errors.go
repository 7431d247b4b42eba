package domain

import (
	"fmt"
	"strings"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodePrediction     = "PREDICTION_ERROR"
	ErrCodeModelBackend   = "MODEL_BACKEND_ERROR"
	ErrCodeDatabaseError  = "DATABASE_ERROR"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
)

// ValidationError represents one out-of-range or malformed input field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors collects every field violation of one FieldSet.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the names of the offending fields in table order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, len(v))
	for i, e := range v {
		fields[i] = e.Field
	}
	return fields
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message string, details any, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
