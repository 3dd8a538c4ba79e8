package filevalidator

import (
	"errors"
	"fmt"
)

// ValidationErrorType names the check an upload failed.
type ValidationErrorType string

const (
	ErrorTypeRequired   ValidationErrorType = "required"
	ErrorTypeSize       ValidationErrorType = "size"
	ErrorTypeMIME       ValidationErrorType = "mime"
	ErrorTypeDimensions ValidationErrorType = "dimensions"
	ErrorTypeContent    ValidationErrorType = "content"
)

// ValidationError is returned by the image checks in this package.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s check failed: %s", e.Type, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(errType ValidationErrorType, message string) *ValidationError {
	return &ValidationError{Type: errType, Message: message}
}

// IsErrorOfType reports whether err wraps a ValidationError of errType.
func IsErrorOfType(err error, errType ValidationErrorType) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Type == errType
}
