package filevalidator

import (
	"fmt"
)

// ValidationResult records every check run against one upload.
type ValidationResult struct {
	Valid        bool
	Filename     string
	Size         int64
	DetectedMIME string

	// Errors holds the field-level messages, in the order they were set.
	Errors []ValidationError

	// Checks are in the order they ran; evaluation stops at the first failure.
	Checks []CheckResult
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Name    string // "required", "mime", "size", "dimensions", "checksum"
	Passed  bool
	Message string
}

// Error returns the first error, or nil for a valid result.
func (r *ValidationResult) Error() error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	return &r.Errors[0]
}

// Check returns the named check and whether it ran.
func (r *ValidationResult) Check(name string) (CheckResult, bool) {
	for _, check := range r.Checks {
		if check.Name == name {
			return check, true
		}
	}
	return CheckResult{}, false
}

// Failed returns the check that stopped evaluation, if any.
func (r *ValidationResult) Failed() (CheckResult, bool) {
	for _, check := range r.Checks {
		if !check.Passed {
			return check, true
		}
	}
	return CheckResult{}, false
}

// Summary is a one-line description for logs:
//
//	photo.png: accepted image/png (1.2 KB)
//	notes.txt: rejected by mime: text/plain is not an accepted image type
func (r *ValidationResult) Summary() string {
	if r.Valid {
		if r.DetectedMIME == "" {
			return r.Filename + ": no file"
		}
		return fmt.Sprintf("%s: accepted %s (%s)", r.Filename, r.DetectedMIME, FormatSizeReadable(r.Size))
	}
	if check, ok := r.Failed(); ok {
		return fmt.Sprintf("%s: rejected by %s: %s", r.Filename, check.Name, check.Message)
	}
	return r.Filename + ": rejected"
}

// ResultBuilder accumulates checks into a ValidationResult. A result is
// valid until a failed check or an error is added.
type ResultBuilder struct {
	result ValidationResult
}

// NewResultBuilder starts a result for the named upload.
func NewResultBuilder(filename string, size int64) *ResultBuilder {
	return &ResultBuilder{result: ValidationResult{Valid: true, Filename: filename, Size: size}}
}

func (b *ResultBuilder) SetDetectedMIME(mime string) *ResultBuilder {
	b.result.DetectedMIME = mime
	return b
}

func (b *ResultBuilder) AddCheck(name string, passed bool, message string) *ResultBuilder {
	b.result.Checks = append(b.result.Checks, CheckResult{Name: name, Passed: passed, Message: message})
	b.result.Valid = b.result.Valid && passed
	return b
}

func (b *ResultBuilder) AddError(errType ValidationErrorType, message string) *ResultBuilder {
	b.result.Valid = false
	b.result.Errors = append(b.result.Errors, ValidationError{Type: errType, Message: message})
	return b
}

// Build returns the result. The builder must not be reused.
func (b *ResultBuilder) Build() *ValidationResult {
	return &b.result
}
