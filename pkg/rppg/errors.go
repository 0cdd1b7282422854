package rppg

import "errors"

// Common error codes
const (
	ErrCodeInsufficientSamples = "INSUFFICIENT_SAMPLES"
	ErrCodeInvalidConfig       = "INVALID_CONFIG"
)

// AnalysisError represents a fatal analysis input or configuration error
type AnalysisError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// NewAnalysisError creates a new analysis error
func NewAnalysisError(code, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsCode reports whether err is (or wraps) an AnalysisError with the given code
func IsCode(err error, code string) bool {
	var analysisErr *AnalysisError
	return errors.As(err, &analysisErr) && analysisErr.Code == code
}
