package imagefield

import "context"

// Field is the behaviour shared by all file fields.
type Field interface {
	// Name returns the form name of the field.
	Name() string

	IsRequired() bool
	SetRequired(required bool)

	// HasError reports whether the last upload event left an error.
	HasError() bool

	// ErrorMessage returns the error message, or "" when there is none.
	ErrorMessage() string

	SetError(message string)

	// IsEmpty reports whether no file is bound.
	IsEmpty() bool

	// UploadedFile returns the bound file, or nil.
	UploadedFile() *UploadedFile

	// SetUploadedFile binds file (nil for "no file supplied") and runs the
	// field's checks. Outcomes are reported through the field's state,
	// never returned.
	SetUploadedFile(ctx context.Context, file *UploadedFile)
}

// FileField is a plain form file field: it records the bound file and
// enforces the required flag.
type FileField struct {
	name         string
	required     bool
	file         *UploadedFile
	hasError     bool
	errorMessage string
}

// NewFileField creates an optional, empty file field.
func NewFileField(name string) *FileField {
	return &FileField{name: name}
}

func (f *FileField) Name() string {
	return f.name
}

func (f *FileField) IsRequired() bool {
	return f.required
}

func (f *FileField) SetRequired(required bool) {
	f.required = required
}

func (f *FileField) HasError() bool {
	return f.hasError
}

func (f *FileField) ErrorMessage() string {
	return f.errorMessage
}

func (f *FileField) SetError(message string) {
	f.hasError = true
	f.errorMessage = message
}

func (f *FileField) IsEmpty() bool {
	return f.file == nil
}

func (f *FileField) UploadedFile() *UploadedFile {
	return f.file
}

// SetUploadedFile records file, clearing any previous error. A required
// field left without a file gets MessageMissingFile.
func (f *FileField) SetUploadedFile(_ context.Context, file *UploadedFile) {
	f.file = file
	f.hasError = false
	f.errorMessage = ""

	if f.file == nil && f.required {
		f.SetError(MessageMissingFile)
	}
}

var _ Field = (*FileField)(nil)
