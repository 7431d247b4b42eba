package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		requestID string
	}{
		{
			name:      "Validation error",
			code:      ErrCodeValidation,
			message:   "Observation out of range",
			requestID: "req-123",
		},
		{
			name:      "Prediction error",
			code:      ErrCodePrediction,
			message:   "Model backend unavailable",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.code, tt.message, nil, tt.requestID)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}

			if err.RequestID != tt.requestID {
				t.Errorf("Expected requestID %s, got %s", tt.requestID, err.RequestID)
			}

			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", err.Timestamp)
			}

			expectedError := tt.code + ": " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("systolic", "must be between 60 and 250", 300)

	expected := "validation error for field 'systolic': must be between 60 and 250"
	if err.Error() != expected {
		t.Errorf("Expected error string %s, got %s", expected, err.Error())
	}
	if err.Value != 300 {
		t.Errorf("Expected value 300, got %v", err.Value)
	}
}

func TestValidationErrors(t *testing.T) {
	var err error = ValidationErrors{
		NewValidationError("age", "must be between 10 and 60", 5),
		NewValidationError("spo2", "must be between 60 and 100", 101),
	}

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatal("Expected errors.As to find ValidationErrors")
	}
	if got := verrs.Fields(); len(got) != 2 || got[0] != "age" || got[1] != "spo2" {
		t.Errorf("Unexpected fields %v", got)
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Expected joined message, got %s", err.Error())
	}
}
