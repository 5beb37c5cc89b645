// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters and schedules
//   - Configuration errors (200-299): Loading, parsing and version checks
//   - Indicator errors (300-399): Shock resistance and surface evaluation
//   - Storage errors (400-499): Step store and result export
//   - Render errors (500-599): Chart rendering and the chart server
//
// Usage:
//
//	err := errors.New(errors.ErrCodeInvalidParameter, "density must be positive")
//	err := errors.Wrap(errors.ErrCodeConfigParse, "failed to parse scenario", cause)
//	if errors.HasCode(err, errors.ErrCodeIndicatorSingularity) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// SingularityError is returned when the smoothed value lands on ±1 and the
// shock resistance indicator has no finite value.
type SingularityError struct {
	Step int     // Zero-based step that hit the singularity
	Mu   float64 // Smoothed value that caused it
}

// NewSingularityError creates a new SingularityError.
func NewSingularityError(step int, mu float64) *SingularityError {
	return &SingularityError{
		Step: step,
		Mu:   mu,
	}
}

// Error implements the error interface.
func (e *SingularityError) Error() string {
	return fmt.Sprintf("[%d] shock resistance is singular at step %d (mu=%v)", ErrCodeIndicatorSingularity, e.Step, e.Mu)
}

// Code returns the error code associated with a singularity.
func (e *SingularityError) Code() ErrorCode {
	return ErrCodeIndicatorSingularity
}

// IsSingularityError checks if an error is a SingularityError.
// It uses errors.As to check the error chain.
func IsSingularityError(err error) bool {
	var singularErr *SingularityError

	return errors.As(err, &singularErr)
}
