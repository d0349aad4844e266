package oaserrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNoAPISpecified indicates neither the turn nor its contexts name an API.
	ErrNoAPISpecified = errors.New("no api specified")

	// ErrNoSuchAPI indicates no registry entry matches the requested API name.
	ErrNoSuchAPI = errors.New("no such api")

	// ErrUnsupportedField indicates a requested field is not part of Swagger 2.0.
	ErrUnsupportedField = errors.New("unsupported field")

	// ErrNotFound indicates a field, operation, path or object is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidURL indicates none of the probed URL variants was reachable.
	ErrInvalidURL = errors.New("invalid url")

	// ErrInvalidSpec indicates a document failed Swagger 2.0 validation.
	ErrInvalidSpec = errors.New("invalid specification")

	// ErrNameConflict indicates a registry entry with the same name exists.
	ErrNameConflict = errors.New("name conflict")

	// ErrURLConflict indicates a registry entry with the same URL exists.
	ErrURLConflict = errors.New("url conflict")

	// ErrFetch indicates a document could not be fetched.
	ErrFetch = errors.New("fetch error")

	// ErrParse indicates a parsing failure occurred.
	ErrParse = errors.New("parse error")

	// ErrValidation indicates an inbound payload failed validation.
	ErrValidation = errors.New("validation error")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ParseError represents a failure to parse a specification document.
type ParseError struct {
	// Source identifies the document (usually its URL)
	Source string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Source != "" {
		msg += " in " + e.Source
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// FetchError represents a failure to download a document.
type FetchError struct {
	// URL is the address that was requested
	URL string
	// StatusCode is the HTTP status received (0 if the request failed)
	StatusCode int
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *FetchError) Error() string {
	msg := "fetch error"
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// NotFoundError reports a missing element of a document or registry.
type NotFoundError struct {
	// Kind is the element category: "field", "operation", "path", "object" or "api"
	Kind string
	// Name is the requested name
	Name string
}

// Error returns a human-readable error message.
func (e *NotFoundError) Error() string {
	if e.Kind == "" {
		return "not found: " + e.Name
	}
	return e.Kind + " not found: " + e.Name
}

// Is reports whether target matches this error type.
// An "api" NotFoundError matches ErrNoSuchAPI instead of ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	if e.Kind == KindAPI {
		return target == ErrNoSuchAPI
	}
	return target == ErrNotFound
}

// NotFoundError kinds.
const (
	KindField     = "field"
	KindOperation = "operation"
	KindPath      = "path"
	KindObject    = "object"
	KindAPI       = "api"
)

// ConflictError reports a registry uniqueness violation.
type ConflictError struct {
	// Field is "name" or "url"
	Field string
	// Value is the conflicting value
	Value string
}

// Error returns a human-readable error message.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("an api with %s %q already exists", e.Field, e.Value)
}

// Is reports whether target matches this error type.
func (e *ConflictError) Is(target error) bool {
	switch e.Field {
	case "name":
		return target == ErrNameConflict
	case "url":
		return target == ErrURLConflict
	}
	return false
}

// NameConflict returns a ConflictError for a duplicate name.
func NameConflict(name string) error {
	return &ConflictError{Field: "name", Value: name}
}

// URLConflict returns a ConflictError for a duplicate URL.
func URLConflict(url string) error {
	return &ConflictError{Field: "url", Value: url}
}

// ValidationError represents a schema violation in a specification document
// or an inbound webhook payload.
type ValidationError struct {
	// Subject identifies what was validated (a URL, or "request")
	Subject string
	// Problems lists the individual violations
	Problems []string
	// Cause is the underlying error, if any
	Cause error
	// Payload marks inbound payload validation, which matches ErrValidation
	// rather than ErrInvalidSpec.
	Payload bool
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	msg := "validation error"
	if e.Subject != "" {
		msg += " in " + e.Subject
	}
	for i, p := range e.Problems {
		if i == 0 {
			msg += ": " + p
		} else {
			msg += "; " + p
		}
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ValidationError) Is(target error) bool {
	if e.Payload {
		return target == ErrValidation
	}
	return target == ErrInvalidSpec
}

// ConfigError represents an invalid configuration or input.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
