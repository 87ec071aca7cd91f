package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating a NamesakeError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *NamesakeError {
	if err == nil {
		return nil
	}

	// Keep the file and component of an inner NamesakeError
	var ne *NamesakeError
	if errors.As(err, &ne) {
		return &NamesakeError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       ne,
			Context:     ne.Context,
			Component:   ne.Component,
			FilePath:    ne.FilePath,
			Recoverable: ne.Recoverable,
		}
	}

	return &NamesakeError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeParse,
	}
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *NamesakeError {
	ne := Wrap(err, ErrorTypeIO, code, message)
	if ne != nil {
		ne.Recoverable = false
	}
	return ne
}

// WrapParse wraps an error as a parse error
func WrapParse(err error, code, message string) *NamesakeError {
	return Wrap(err, ErrorTypeParse, code, message)
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *NamesakeError {
	ne := Wrap(err, ErrorTypeConfig, code, message)
	if ne != nil {
		ne.Recoverable = false
	}
	return ne
}

// FormatErrorWithSuggestions formats an error with the suggestions of every
// ValidationError it contains.
func FormatErrorWithSuggestions(err error) string {
	if err == nil {
		return ""
	}

	var vec *ValidationErrorCollection
	if errors.As(err, &vec) {
		result := ""
		for i, ve := range vec.Errors {
			if i > 0 {
				result += "\n"
			}
			result += formatValidationError(ve)
		}
		return result
	}

	var ve ValidationError
	if errors.As(err, &ve) {
		return formatValidationError(ve)
	}

	return err.Error()
}

func formatValidationError(ve ValidationError) string {
	result := ve.Error()
	for _, suggestion := range ve.Suggestions() {
		result += fmt.Sprintf("\n  • %s", suggestion)
	}
	return result
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
