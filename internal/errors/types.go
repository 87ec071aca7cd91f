// Package errors provides the structured error type used across namesake.
//
// Errors carry a type, a stable code and optional context so that callers
// can decide whether a failure is a caller-contract violation (returned),
// a per-node problem (logged and skipped) or a configuration problem
// (reported to the user with suggestions).
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeDocument   ErrorType = "document"
	ErrorTypeInternal   ErrorType = "internal"
)

// NamesakeError is a structured error type with context.
type NamesakeError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *NamesakeError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *NamesakeError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a NamesakeError with the same type and code.
func (e *NamesakeError) Is(target error) bool {
	var t *NamesakeError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *NamesakeError) WithContext(key string, value interface{}) *NamesakeError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile records the document the error relates to.
func (e *NamesakeError) WithFile(path string) *NamesakeError {
	e.FilePath = path

	return e
}

// WithComponent adds component context.
func (e *NamesakeError) WithComponent(component string) *NamesakeError {
	e.Component = component

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *NamesakeError {
	return &NamesakeError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *NamesakeError {
	return &NamesakeError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *NamesakeError {
	return &NamesakeError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewParseError creates an error for input that could not be parsed.
func NewParseError(code, message string, cause error) *NamesakeError {
	return &NamesakeError{
		Type:        ErrorTypeParse,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewDocumentError creates an error about the shape of a document.
func NewDocumentError(code, message string) *NamesakeError {
	return &NamesakeError{
		Type:        ErrorTypeDocument,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *NamesakeError {
	return &NamesakeError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ne *NamesakeError
	if errors.As(err, &ne) {
		return ne.Recoverable
	}

	return false
}

// IsType reports whether err is a NamesakeError of the given type.
func IsType(err error, errType ErrorType) bool {
	var ne *NamesakeError
	if errors.As(err, &ne) {
		return ne.Type == errType
	}

	return false
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level that matches its type. Recoverable
// errors are warnings, everything else is an error.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ne *NamesakeError
	if !errors.As(err, &ne) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	fields := []interface{}{"type", ne.Type, "code", ne.Code}
	if ne.Component != "" {
		fields = append(fields, "component", ne.Component)
	}
	if ne.FilePath != "" {
		fields = append(fields, "file", ne.FilePath)
	}

	if ne.Recoverable {
		h.logger.Warn(ctx, err, "Recoverable error occurred", fields...)
		return
	}
	h.logger.Error(ctx, err, "Error occurred", fields...)
}

// Common error codes.
const (
	ErrCodeNegativeDepth    = "ERR_NEGATIVE_DEPTH"
	ErrCodeNoContentRoot    = "ERR_NO_CONTENT_ROOT"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeParseFailed      = "ERR_PARSE_FAILED"
	ErrCodeRenderFailed     = "ERR_RENDER_FAILED"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeWriteFailed      = "ERR_WRITE_FAILED"
	ErrCodeNodeNotFound     = "ERR_NODE_NOT_FOUND"
	ErrCodeInvalidURL       = "ERR_INVALID_URL"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// ValidationError interface for field-specific validation errors.
type ValidationError interface {
	error
	Field() string
	Value() interface{}
	Suggestions() []string
}

// FieldValidationError implements ValidationError for specific field errors.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
	HelpText     []string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// Field returns the field name that failed validation.
func (fve *FieldValidationError) Field() string {
	return fve.FieldName
}

// Value returns the invalid value.
func (fve *FieldValidationError) Value() interface{} {
	return fve.FieldValue
}

// Suggestions returns helpful suggestions for fixing the error.
func (fve *FieldValidationError) Suggestions() []string {
	return fve.HelpText
}

// NewFieldValidationError creates a new field validation error.
func NewFieldValidationError(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) *FieldValidationError {
	return &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
		HelpText:     suggestions,
	}
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	if len(vec.Errors) == 0 {
		return "no validation errors"
	}
	if len(vec.Errors) == 1 {
		return vec.Errors[0].Error()
	}

	return fmt.Sprintf("validation failed with %d errors", len(vec.Errors))
}

// Add adds a validation error to the collection.
func (vec *ValidationErrorCollection) Add(err ValidationError) {
	vec.Errors = append(vec.Errors, err)
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) {
	vec.Add(NewFieldValidationError(field, value, message, suggestions...))
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToNamesakeError converts the validation collection to a NamesakeError.
// It returns nil when the collection is empty.
func (vec *ValidationErrorCollection) ToNamesakeError() *NamesakeError {
	if !vec.HasErrors() {
		return nil
	}

	var messages []string
	context := make(map[string]interface{})

	for _, err := range vec.Errors {
		messages = append(messages, err.Error())
		context[err.Field()] = map[string]interface{}{
			"value":       err.Value(),
			"suggestions": err.Suggestions(),
		}
	}

	return &NamesakeError{
		Type:        ErrorTypeValidation,
		Code:        ErrCodeValidationFailed,
		Message:     strings.Join(messages, "; "),
		Context:     context,
		Recoverable: true,
	}
}

// ErrNegativeDepth is returned when a traversal is asked for a negative depth.
var ErrNegativeDepth = NewValidationError(ErrCodeNegativeDepth, "traversal depth cannot be negative")

// ErrNoContentRoot is returned when a document has no body to process.
var ErrNoContentRoot = NewDocumentError(ErrCodeNoContentRoot, "document has no content root")

// ErrNodeNotFound creates an error for an unresolvable node path.
func ErrNodeNotFound(path string) *NamesakeError {
	return NewDocumentError(ErrCodeNodeNotFound, "node not found: "+path)
}

// ErrInvalidURL creates an error for a site identity that cannot be parsed.
func ErrInvalidURL(raw string, cause error) *NamesakeError {
	return NewParseError(ErrCodeInvalidURL, "invalid url: "+raw, cause)
}
