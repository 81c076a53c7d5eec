package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput         = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON        = errors.New("invalid JSON format")
	ErrMultipleJSON       = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrFileNotFound       = errors.New("file not found")
	ErrFileEmpty          = errors.New("file is empty")
	ErrNoInput            = errors.New("no input provided: please specify a file with -i or pipe JSON data to stdin")
	ErrInvalidFilePath    = errors.New("invalid file path")
	ErrCancelled          = errors.New("inference cancelled")
	ErrConflictingOptions = errors.New("conflicting configuration options")
	ErrUnknownLanguage    = errors.New("unknown target language")
	ErrUnsupportedShape   = errors.New("shape cannot be rendered with the current options")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput       ErrorType = "input"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeAnalysis    ErrorType = "analysis"
	ErrorTypeGenerate    ErrorType = "generate"
	ErrorTypeFormat      ErrorType = "format"
	ErrorTypeOutput      ErrorType = "output"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeCancelled   ErrorType = "cancelled"
	ErrorTypeUnsupported ErrorType = "unsupported"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	// Check if target is also an *AppError and if the types match
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ParseError reports malformed JSON together with where it was found.
// Document is the zero-based index of the top-level value inside Source.
type ParseError struct {
	Source   string
	Document int
	Offset   int64
	Line     int
	Column   int
	Err      error
}

// Error implements error interface
func (e *ParseError) Error() string {
	source := e.Source
	if source == "" {
		source = "<input>"
	}
	return fmt.Sprintf("parsing: %s: document %d: line %d, column %d (offset %d): %v",
		source, e.Document+1, e.Line, e.Column, e.Offset, e.Err)
}

// Unwrap returns wrapped error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is lets a ParseError match the parsing category of AppError.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Type == ErrorTypeParsing
}

// UnsupportedShapeError is returned by a code writer that cannot render a
// finalized graph under the requested options.
type UnsupportedShapeError struct {
	Writer string
	Shape  string
	Field  string
	Reason string
}

// Error implements error interface
func (e *UnsupportedShapeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("unsupported: %s writer cannot render field %q of %s: %s", e.Writer, e.Field, e.Shape, e.Reason)
	}
	return fmt.Sprintf("unsupported: %s writer cannot render %s: %s", e.Writer, e.Shape, e.Reason)
}

// Unwrap returns ErrUnsupportedShape
func (e *UnsupportedShapeError) Unwrap() error {
	return ErrUnsupportedShape
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInput,
		Message: message,
		Err:     err,
	}
}

// NewParsingError creates a new error related to JSON parsing
func NewParsingError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeParsing,
		Message: message,
		Err:     err,
	}
}

// NewAnalysisError creates a new error related to type analysis
func NewAnalysisError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeAnalysis,
		Message: message,
		Err:     err,
	}
}

// NewGenerateError creates a new error related to code generation
func NewGenerateError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeGenerate,
		Message: message,
		Err:     err,
	}
}

// NewFormatError creates a new error related to code formatting
func NewFormatError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeFormat,
		Message: message,
		Err:     err,
	}
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeOutput,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a new error for contradictory or invalid configuration
func NewConfigError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfig,
		Message: message,
		Err:     err,
	}
}

// NewCancelledError creates the error returned when inference is interrupted
func NewCancelledError(message string, cause error) *AppError {
	err := ErrCancelled
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrCancelled, cause)
	}
	return &AppError{
		Type:    ErrorTypeCancelled,
		Message: message,
		Err:     err,
	}
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		source := parseErr.Source
		if source == "" {
			source = "input"
		}
		return fmt.Sprintf("JSON parsing error: %s, document %d, line %d, column %d: %v",
			source, parseErr.Document+1, parseErr.Line, parseErr.Column, parseErr.Err)
	}

	var shapeErr *UnsupportedShapeError
	if errors.As(err, &shapeErr) {
		return fmt.Sprintf("Unsupported shape: %s", shapeErr.Error())
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeParsing:
			return fmt.Sprintf("JSON parsing error: %s", appErr.Message)
		case ErrorTypeAnalysis:
			return fmt.Sprintf("Type analysis error: %s", appErr.Message)
		case ErrorTypeGenerate:
			return fmt.Sprintf("Code generation error: %s", appErr.Message)
		case ErrorTypeFormat:
			return fmt.Sprintf("Code formatting error: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		case ErrorTypeCancelled:
			return fmt.Sprintf("Cancelled: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide valid JSON data."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: Multiple JSON values found. Pass --batch to treat them as separate samples."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty. Please provide a file with valid JSON content."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file with -i or pipe JSON data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
