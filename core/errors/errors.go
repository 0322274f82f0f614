// Package errors provides the error kinds shared by the sqlitescan decoder,
// catalog and query layers.
//
// Every struct error unwraps to one of the sentinels below so callers can
// classify a failure with errors.Is without caring which layer produced it.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a table, column or other schema object was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates malformed input: bad command, bad schema SQL, bad header
	ErrInvalidInput = errors.New("invalid input")
	// ErrTruncated indicates fewer bytes were available than a field demands
	ErrTruncated = errors.New("truncated input")
	// ErrUnsupportedPageKind indicates an index page or an unknown page kind byte
	ErrUnsupportedPageKind = errors.New("unsupported page kind")
	// ErrUnsupported indicates an unsupported operator, feature or format
	ErrUnsupported = errors.New("unsupported")
	// ErrCorrupt indicates a structurally inconsistent file, such as a page cycle
	ErrCorrupt = errors.New("database corrupt")
)

// NotFoundError represents an unknown schema object (table, column, page).
type NotFoundError struct {
	Resource string // Type of resource (e.g., "table", "column")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// TruncatedError reports a read that ran past the end of the available bytes.
type TruncatedError struct {
	What   string // Field being read (e.g., "varint", "page header")
	Offset int    // Position the read started at
	Need   int    // Bytes required
	Have   int    // Bytes available from Offset
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated %s at offset %d: need %d bytes, have %d", e.What, e.Offset, e.Need, e.Have)
}

func (e *TruncatedError) Unwrap() error {
	return ErrTruncated
}

// PageKindError reports a page whose kind byte cannot be handled.
type PageKindError struct {
	Page   uint32 // 1-based page number
	Kind   byte   // Kind byte found on the page
	Reason string // Why the kind was rejected
}

func (e *PageKindError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("page %d: unsupported page kind 0x%02x: %s", e.Page, e.Kind, e.Reason)
	}
	return fmt.Sprintf("page %d: unsupported page kind 0x%02x", e.Page, e.Kind)
}

func (e *PageKindError) Unwrap() error {
	return ErrUnsupportedPageKind
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "open", "mmap")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing failure (schema SQL, record header, command)
type ParseError struct {
	Format  string // Format being parsed (e.g., "schema sql", "record", "command")
	Input   string // Offending input, if short enough to be useful
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("failed to parse %s %q: %s", e.Format, e.Input, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature, operator or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// CorruptError reports a structural inconsistency found while walking the file.
type CorruptError struct {
	Page    uint32
	Message string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("database corrupt at page %d: %s", e.Page, e.Message)
}

func (e *CorruptError) Unwrap() error {
	return ErrCorrupt
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewTruncated creates a TruncatedError
func NewTruncated(what string, offset, need, have int) *TruncatedError {
	if have < 0 {
		have = 0
	}
	return &TruncatedError{
		What:   what,
		Offset: offset,
		Need:   need,
		Have:   have,
	}
}

// NewPageKind creates a PageKindError
func NewPageKind(page uint32, kind byte, reason string) *PageKindError {
	return &PageKindError{
		Page:   page,
		Kind:   kind,
		Reason: reason,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, input, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Input:   input,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// NewCorrupt creates a CorruptError
func NewCorrupt(page uint32, format string, args ...interface{}) *CorruptError {
	return &CorruptError{
		Page:    page,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
