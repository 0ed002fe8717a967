// Package errors provides structured error types for FraudCheck report
// generation. Errors carry a stable code, a category, and optional context.
package errors

import (
	"fmt"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryRecord   Category = "record"   // Analysis record decoding/validation errors
	CategoryLayout   Category = "layout"   // Measurement/flow failures during layout
	CategoryExport   Category = "export"   // Artifact serialization/write failures
	CategoryConfig   Category = "config"   // Configuration loading/parsing errors
	CategoryStore    Category = "store"    // Audit store errors
	CategoryAPI      Category = "api"      // HTTP/WebSocket surface errors
	CategoryInternal Category = "internal" // Internal/unexpected errors
)

// FraudCheckError is a structured error with a stable code and context.
// It implements the error interface and supports error wrapping.
type FraudCheckError struct {
	// Code is a unique identifier for this error type (e.g., "LAYOUT_MEASURE")
	Code string

	// Category classifies this error for consistent handling
	Category Category

	// Message is the primary error message describing what went wrong
	Message string

	// Context provides additional key-value details about the error
	Context map[string]string

	// Cause is the underlying error that triggered this error (for wrapping)
	Cause error
}

// Error implements the error interface.
func (e *FraudCheckError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *FraudCheckError) Unwrap() error {
	return e.Cause
}

// Is reports whether e matches target for errors.Is() checks.
// Two FraudCheckErrors match if they have the same Code.
func (e *FraudCheckError) Is(target error) bool {
	if t, ok := target.(*FraudCheckError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new FraudCheckError with the given code, category, and message.
func New(code string, category Category, message string) *FraudCheckError {
	return &FraudCheckError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *FraudCheckError) WithContext(key, value string) *FraudCheckError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *FraudCheckError) WithCause(cause error) *FraudCheckError {
	e.Cause = cause
	return e
}

// ContextString returns a formatted string of all context entries.
func (e *FraudCheckError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	var parts []string
	for k, v := range e.Context {
		parts = append(parts, fmt.Sprintf("%s=%q", k, v))
	}
	return strings.Join(parts, ", ")
}

// Wrap wraps an existing error with a FraudCheckError.
func Wrap(err error, code string, category Category, message string) *FraudCheckError {
	return New(code, category, message).WithCause(err)
}

// AsFraudCheckError attempts to convert an error to a FraudCheckError.
func AsFraudCheckError(err error) (*FraudCheckError, bool) {
	if err == nil {
		return nil, false
	}
	if fe, ok := err.(*FraudCheckError); ok {
		return fe, true
	}
	return nil, false
}

// IsCategory checks if an error is a FraudCheckError with the given category.
func IsCategory(err error, category Category) bool {
	if fe, ok := AsFraudCheckError(err); ok {
		return fe.Category == category
	}
	return false
}

// IsCode checks if an error is a FraudCheckError with the given code.
func IsCode(err error, code string) bool {
	if fe, ok := AsFraudCheckError(err); ok {
		return fe.Code == code
	}
	return false
}

// IsLayout reports whether err is a layout failure. Layout errors abort the
// whole generation; partial documents are never returned.
func IsLayout(err error) bool {
	return IsCategory(err, CategoryLayout)
}

// IsExport reports whether err is an export failure. Export errors are
// distinguished from layout errors for diagnostics only; the user-facing
// treatment is identical.
func IsExport(err error) bool {
	return IsCategory(err, CategoryExport)
}

// -----------------------------------------------------------------------------
// Helper Constructors for Common Error Types
// -----------------------------------------------------------------------------

// RecordError creates a new analysis-record error.
// Use for record decoding or validation failures.
func RecordError(code, message string) *FraudCheckError {
	return New(code, CategoryRecord, message)
}

// RecordErrorf creates a new record error with formatted message.
func RecordErrorf(code, format string, args ...interface{}) *FraudCheckError {
	return New(code, CategoryRecord, fmt.Sprintf(format, args...))
}

// LayoutError creates a new layout error.
// Use for text measurement failures or flow invariant violations.
func LayoutError(code, message string) *FraudCheckError {
	return New(code, CategoryLayout, message)
}

// LayoutErrorf creates a new layout error with formatted message.
func LayoutErrorf(code, format string, args ...interface{}) *FraudCheckError {
	return New(code, CategoryLayout, fmt.Sprintf(format, args...))
}

// ExportError creates a new export error.
// Use for PDF serialization or artifact write failures.
func ExportError(code, message string) *FraudCheckError {
	return New(code, CategoryExport, message)
}

// ExportErrorf creates a new export error with formatted message.
func ExportErrorf(code, format string, args ...interface{}) *FraudCheckError {
	return New(code, CategoryExport, fmt.Sprintf(format, args...))
}

// ConfigError creates a new configuration error.
func ConfigError(code, message string) *FraudCheckError {
	return New(code, CategoryConfig, message)
}

// ConfigErrorf creates a new configuration error with formatted message.
func ConfigErrorf(code, format string, args ...interface{}) *FraudCheckError {
	return New(code, CategoryConfig, fmt.Sprintf(format, args...))
}

// StoreError creates a new audit store error.
func StoreError(code, message string) *FraudCheckError {
	return New(code, CategoryStore, message)
}

// StoreErrorf creates a new store error with formatted message.
func StoreErrorf(code, format string, args ...interface{}) *FraudCheckError {
	return New(code, CategoryStore, fmt.Sprintf(format, args...))
}

// InternalError creates a new internal/unexpected error.
func InternalError(code, message string) *FraudCheckError {
	return New(code, CategoryInternal, message)
}

// InternalErrorf creates a new internal error with formatted message.
func InternalErrorf(code, format string, args ...interface{}) *FraudCheckError {
	return New(code, CategoryInternal, fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------
// Wrapping Helpers
// -----------------------------------------------------------------------------

// WrapLayout wraps an error as a layout error.
func WrapLayout(err error, code, message string) *FraudCheckError {
	return Wrap(err, code, CategoryLayout, message)
}

// WrapExport wraps an error as an export error.
func WrapExport(err error, code, message string) *FraudCheckError {
	return Wrap(err, code, CategoryExport, message)
}

// WrapConfig wraps an error as a configuration error.
func WrapConfig(err error, code, message string) *FraudCheckError {
	return Wrap(err, code, CategoryConfig, message)
}

// WrapStore wraps an error as a store error.
func WrapStore(err error, code, message string) *FraudCheckError {
	return Wrap(err, code, CategoryStore, message)
}

// WrapRecord wraps an error as a record error.
func WrapRecord(err error, code, message string) *FraudCheckError {
	return Wrap(err, code, CategoryRecord, message)
}
