package imagefield

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/gobeaver/imagefield/filevalidator"
)

// Check names recorded in the ValidationResult of every upload event.
const (
	CheckRequired   = "required"
	CheckMIME       = "mime"
	CheckSize       = "size"
	CheckDimensions = "dimensions"
	CheckChecksum   = "checksum"
)

// ImageField is a file field that only accepts raster images.
type ImageField interface {
	Field

	// IsInvalid reports whether a file was supplied but is not an accepted
	// image. A missing required file is an error, not an invalid image.
	IsInvalid() bool

	ImageType() ImageType
	ImageMIMEType() string
	ImageDefaultFileExtension() string
	ImageWidth() int
	ImageHeight() int

	// Descriptor returns all of the above as one value.
	Descriptor() ImageDescriptor

	// Image decodes the bound image. It returns false when there is no
	// accepted image or decoding fails.
	Image(ctx context.Context) (image.Image, bool)
}

// ImageFileField validates uploads as JPEG, PNG or GIF images.
//
//	field := imagefield.NewImageFileField("avatar", imagefield.WithRequired())
//	field.SetUploadedFile(ctx, upload)
//	if field.HasError() {
//	    return field.ErrorMessage()
//	}
//	img, ok := field.Image(ctx)
//
// A field is owned by one request; it is not safe for concurrent use.
type ImageFileField struct {
	*FileField

	formats  *FormatTable
	sniffer  Sniffer
	metadata MetadataReader
	decoder  Decoder
	limits   *filevalidator.ImageValidator
	checksum ChecksumAlgorithm
	logger   *slog.Logger

	descriptor ImageDescriptor
	result     *filevalidator.ValidationResult
}

// NewImageFileField creates an empty image field.
func NewImageFileField(name string, opts ...FieldOption) *ImageFileField {
	o := defaultFieldOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.Formats == nil {
		o.Formats = DefaultFormats()
	}
	if o.Limits == nil {
		o.Limits = filevalidator.DefaultImageValidator()
	}
	if o.Sniffer == nil {
		o.Sniffer = ContentSniffer()
	}
	if o.MetadataReader == nil {
		o.MetadataReader = HeaderReader(o.Limits)
	}
	if o.Decoder == nil {
		o.Decoder = StandardDecoder(o.Limits)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	base := NewFileField(name)
	base.SetRequired(o.Required)

	return &ImageFileField{
		FileField:  base,
		formats:    o.Formats,
		sniffer:    o.Sniffer,
		metadata:   o.MetadataReader,
		decoder:    o.Decoder,
		limits:     o.Limits,
		checksum:   o.Checksum,
		logger:     o.Logger.With(slog.String("field", name)),
		descriptor: ImageDescriptor{},
		result:     filevalidator.NewResultBuilder(name, 0).Build(),
	}
}

// SetUploadedFile binds file and re-derives the descriptor from scratch.
// The base field runs first and owns the required check.
func (f *ImageFileField) SetUploadedFile(ctx context.Context, file *UploadedFile) {
	f.FileField.SetUploadedFile(ctx, file)
	f.descriptor, f.result = f.evaluate(ctx, file)

	f.logger.Debug("upload evaluated",
		slog.Bool("empty", f.IsEmpty()),
		slog.Bool("invalid", f.descriptor.Invalid),
		slog.String("error", f.ErrorMessage()),
		slog.String("mime", f.descriptor.MIMEType),
		slog.Int("width", f.descriptor.Width),
		slog.Int("height", f.descriptor.Height),
	)
}

func (f *ImageFileField) evaluate(ctx context.Context, file *UploadedFile) (ImageDescriptor, *filevalidator.ValidationResult) {
	b := f.newResultBuilder(file)

	if f.HasError() {
		b.AddCheck(CheckRequired, false, f.ErrorMessage()).
			AddError(filevalidator.ErrorTypeRequired, f.ErrorMessage())
		return ImageDescriptor{}, b.Build()
	}
	if f.IsEmpty() {
		b.AddCheck(CheckRequired, true, "no file supplied")
		return ImageDescriptor{}, b.Build()
	}
	b.AddCheck(CheckRequired, true, "file supplied")

	mime, err := f.sniff(ctx, file)
	if err != nil {
		f.logger.Warn("cannot sniff upload", slog.String("path", file.Path()), slog.Any("error", err))
		return f.reject(b, CheckMIME, filevalidator.ErrorTypeMIME, err.Error())
	}
	b.SetDetectedMIME(mime)

	format, ok := f.formats.Lookup(mime)
	if !ok {
		return f.reject(b, CheckMIME, filevalidator.ErrorTypeMIME, fmt.Sprintf("%s is not an accepted image type", mime))
	}
	b.AddCheck(CheckMIME, true, mime)

	if err := f.limits.CheckSize(file.Size()); err != nil {
		return f.reject(b, CheckSize, filevalidator.ErrorTypeSize, err.Error())
	}

	// A body that sniffs as an accepted type but has no readable header
	// (truncated, corrupt) counts as an invalid image.
	width, height, err := f.readSize(ctx, file)
	if err != nil {
		return f.reject(b, CheckDimensions, filevalidator.ErrorTypeContent, err.Error())
	}
	if err := f.limits.CheckDimensions(width, height); err != nil {
		return f.reject(b, CheckDimensions, filevalidator.ErrorTypeDimensions, err.Error())
	}
	b.AddCheck(CheckDimensions, true, fmt.Sprintf("%dx%d", width, height))

	var sum string
	if f.checksum != "" {
		sum, err = file.Checksum(ctx, f.checksum)
		if err != nil {
			f.logger.Warn("cannot checksum upload", slog.String("path", file.Path()), slog.Any("error", err))
			return f.reject(b, CheckChecksum, filevalidator.ErrorTypeContent, err.Error())
		}
		b.AddCheck(CheckChecksum, true, string(f.checksum)+":"+sum)
	}

	return acceptedDescriptor(format, mime, width, height, sum), b.Build()
}

// reject marks the upload as an invalid image.
func (f *ImageFileField) reject(b *filevalidator.ResultBuilder, check string, errType filevalidator.ValidationErrorType, detail string) (ImageDescriptor, *filevalidator.ValidationResult) {
	f.SetError(MessageInvalidImage)
	b.AddCheck(check, false, detail).AddError(errType, MessageInvalidImage)
	return invalidDescriptor(), b.Build()
}

func (f *ImageFileField) newResultBuilder(file *UploadedFile) *filevalidator.ResultBuilder {
	if file == nil {
		return filevalidator.NewResultBuilder(f.Name(), 0)
	}
	return filevalidator.NewResultBuilder(file.Filename(), file.Size())
}

func (f *ImageFileField) sniff(ctx context.Context, file *UploadedFile) (string, error) {
	rc, err := file.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	mime, err := f.sniffer.Sniff(rc)
	if err != nil {
		return "", err
	}
	return filevalidator.NormalizeMIME(mime), nil
}

func (f *ImageFileField) readSize(ctx context.Context, file *UploadedFile) (int, int, error) {
	rc, err := file.Open(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer rc.Close()

	return f.metadata.ReadSize(rc)
}

// Image re-reads and decodes the stored file on every call; nothing is
// cached. Failures are logged and reported as false.
func (f *ImageFileField) Image(ctx context.Context) (image.Image, bool) {
	file := f.UploadedFile()
	if file == nil || !f.descriptor.IsImage() {
		return nil, false
	}

	rc, err := file.Open(ctx)
	if err != nil {
		f.logger.Debug("cannot open image", slog.String("path", file.Path()), slog.Any("error", err))
		return nil, false
	}
	defer rc.Close()

	img, err := f.decoder.Decode(rc, f.descriptor.Type)
	if err != nil || img == nil {
		f.logger.Debug("cannot decode image", slog.String("path", file.Path()), slog.Any("error", err))
		return nil, false
	}
	return img, true
}

// IsInvalid reports whether the last upload was rejected as not an image.
func (f *ImageFileField) IsInvalid() bool {
	return f.descriptor.Invalid
}

// ImageType returns the accepted format, or ImageTypeNone.
func (f *ImageFileField) ImageType() ImageType {
	return f.descriptor.Type
}

// ImageMIMEType returns the sniffed MIME type of an accepted image.
func (f *ImageFileField) ImageMIMEType() string {
	return f.descriptor.MIMEType
}

// ImageDefaultFileExtension returns the extension for the accepted format, without a dot.
func (f *ImageFileField) ImageDefaultFileExtension() string {
	return f.descriptor.DefaultFileExtension
}

// ImageWidth returns the width in pixels read from the header.
func (f *ImageFileField) ImageWidth() int {
	return f.descriptor.Width
}

// ImageHeight returns the height in pixels read from the header.
func (f *ImageFileField) ImageHeight() int {
	return f.descriptor.Height
}

// Descriptor returns the descriptor built by the last upload event.
func (f *ImageFileField) Descriptor() ImageDescriptor {
	return f.descriptor
}

// LastResult returns the checks recorded by the last upload event.
func (f *ImageFileField) LastResult() *filevalidator.ValidationResult {
	return f.result
}

// Formats returns the field's allow-list.
func (f *ImageFileField) Formats() *FormatTable {
	return f.formats
}

var _ ImageField = (*ImageFileField)(nil)
