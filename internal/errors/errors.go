// Package errors provides a lightweight structured error type (BinderyError)
// for category-based classification across the build pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a Bindery error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig ErrorCategory = "config"

	// Task graph registration and execution errors
	CategoryTask ErrorCategory = "task"

	// Content pipeline errors
	CategoryTransform  ErrorCategory = "transform"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Output and tooling errors
	CategoryPackaging  ErrorCategory = "packaging"
	CategoryValidation ErrorCategory = "validation"

	// Runtime and infrastructure errors
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// BinderyError is a structured error with category, severity, and context
type BinderyError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BinderyError
type ContextFields map[string]any

// Error implements the error interface
func (e *BinderyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BinderyError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BinderyError) WithContext(key string, value any) *BinderyError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithSeverity overrides the error severity
func (e *BinderyError) WithSeverity(severity ErrorSeverity) *BinderyError {
	e.Severity = severity
	return e
}

// New creates a new BinderyError
func New(category ErrorCategory, severity ErrorSeverity, message string) *BinderyError {
	return &BinderyError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new BinderyError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BinderyError {
	return &BinderyError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapError wraps an existing error with severity SeverityError
func WrapError(err error, category ErrorCategory, message string) *BinderyError {
	return Wrap(err, category, SeverityError, message)
}

// ConfigError creates a fatal configuration error
func ConfigError(message string) *BinderyError {
	return New(CategoryConfig, SeverityFatal, message)
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if be, ok := err.(*BinderyError); ok {
		return be.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a BinderyError
func GetCategory(err error) ErrorCategory {
	if be, ok := err.(*BinderyError); ok {
		return be.Category
	}
	return CategoryInternal
}
