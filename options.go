package imagefield

import (
	"log/slog"

	"github.com/gobeaver/imagefield/filevalidator"
)

// ============================================================================
// Storage write options
// ============================================================================

// Option represents a storage write option
type Option func(*Options)

// Options contains all possible options for storage writes
type Options struct {
	// ContentType specifies the MIME type recorded with the file
	ContentType string

	// Overwrite determines whether to overwrite existing files
	Overwrite bool
}

// WithContentType sets the content type of the file
func WithContentType(contentType string) Option {
	return func(o *Options) {
		o.ContentType = contentType
	}
}

// WithOverwrite allows replacing an existing file
func WithOverwrite() Option {
	return func(o *Options) {
		o.Overwrite = true
	}
}

// ApplyOptions folds opts into an Options value. Drivers call it.
func ApplyOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// ============================================================================
// Field options
// ============================================================================

// FieldOption configures an ImageFileField.
type FieldOption func(*FieldOptions)

// FieldOptions holds the collaborators and settings of an ImageFileField.
// Nil collaborators are replaced by the defaults.
type FieldOptions struct {
	Required       bool
	Formats        *FormatTable
	Sniffer        Sniffer
	MetadataReader MetadataReader
	Decoder        Decoder

	// Limits holds optional size and dimension limits. Zero limits are
	// not enforced.
	Limits *filevalidator.ImageValidator

	// Checksum is the algorithm used to fingerprint accepted images.
	// Empty disables checksumming.
	Checksum ChecksumAlgorithm

	Logger *slog.Logger
}

func defaultFieldOptions() *FieldOptions {
	return &FieldOptions{
		Formats:  DefaultFormats(),
		Limits:   filevalidator.DefaultImageValidator(),
		Checksum: ChecksumXXHash,
		Logger:   slog.New(slog.DiscardHandler),
	}
}

// WithRequired marks the field as required.
func WithRequired() FieldOption {
	return func(o *FieldOptions) {
		o.Required = true
	}
}

// WithFormats replaces the allow-list, e.g. to accept PNG only.
func WithFormats(formats *FormatTable) FieldOption {
	return func(o *FieldOptions) {
		o.Formats = formats
	}
}

// WithSniffer replaces the content sniffer.
func WithSniffer(s Sniffer) FieldOption {
	return func(o *FieldOptions) {
		o.Sniffer = s
	}
}

// WithMetadataReader replaces the dimension reader.
func WithMetadataReader(r MetadataReader) FieldOption {
	return func(o *FieldOptions) {
		o.MetadataReader = r
	}
}

// WithDecoder replaces the image decoder.
func WithDecoder(d Decoder) FieldOption {
	return func(o *FieldOptions) {
		o.Decoder = d
	}
}

// WithLimits sets size and dimension limits. Uploads exceeding them are
// treated as invalid images.
func WithLimits(limits *filevalidator.ImageValidator) FieldOption {
	return func(o *FieldOptions) {
		o.Limits = limits
	}
}

// WithChecksum selects the fingerprint algorithm; pass "" to disable.
func WithChecksum(algorithm ChecksumAlgorithm) FieldOption {
	return func(o *FieldOptions) {
		o.Checksum = algorithm
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) FieldOption {
	return func(o *FieldOptions) {
		o.Logger = logger
	}
}
