package filevalidator

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
)

// ImageValidator reads and checks raster image headers, and decodes images
// on request. Only JPEG, PNG and GIF decoders are registered.
//
// Limits left at zero are not enforced.
type ImageValidator struct {
	MaxFileSize int64
	MaxWidth    int
	MaxHeight   int
	MaxPixels   int
	MinWidth    int
	MinHeight   int
}

// DefaultImageValidator creates an image validator with no limits.
func DefaultImageValidator() *ImageValidator {
	return &ImageValidator{}
}

// ReadConfig returns the dimensions and format name ("jpeg", "png", "gif")
// of an image. Uses image.DecodeConfig which only reads the header; the
// pixel data is never loaded.
func (v *ImageValidator) ReadConfig(reader io.Reader) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(reader)
	if err != nil {
		return image.Config{}, "", NewValidationError(ErrorTypeContent, fmt.Sprintf("cannot decode image header: %v", err))
	}
	return cfg, format, nil
}

// ValidateContent reads the image header and checks size and dimension limits.
func (v *ImageValidator) ValidateContent(reader io.Reader, size int64) error {
	if err := v.CheckSize(size); err != nil {
		return err
	}

	cfg, _, err := v.ReadConfig(reader)
	if err != nil {
		return err
	}

	return v.CheckDimensions(cfg.Width, cfg.Height)
}

// CheckSize enforces MaxFileSize. A negative size means unknown and passes.
func (v *ImageValidator) CheckSize(size int64) error {
	if v.MaxFileSize > 0 && size > v.MaxFileSize {
		return NewValidationError(ErrorTypeSize,
			fmt.Sprintf("file size %s exceeds maximum %s", FormatSizeReadable(size), FormatSizeReadable(v.MaxFileSize)))
	}
	return nil
}

// CheckDimensions enforces the width, height and pixel-count limits.
func (v *ImageValidator) CheckDimensions(width, height int) error {
	if v.MaxWidth > 0 && width > v.MaxWidth {
		return NewValidationError(ErrorTypeDimensions,
			fmt.Sprintf("image width %d exceeds maximum %d", width, v.MaxWidth))
	}

	if v.MaxHeight > 0 && height > v.MaxHeight {
		return NewValidationError(ErrorTypeDimensions,
			fmt.Sprintf("image height %d exceeds maximum %d", height, v.MaxHeight))
	}

	if width < v.MinWidth {
		return NewValidationError(ErrorTypeDimensions,
			fmt.Sprintf("image width %d below minimum %d", width, v.MinWidth))
	}

	if height < v.MinHeight {
		return NewValidationError(ErrorTypeDimensions,
			fmt.Sprintf("image height %d below minimum %d", height, v.MinHeight))
	}

	// decompression bomb protection
	if v.MaxPixels > 0 && width*height > v.MaxPixels {
		return NewValidationError(ErrorTypeDimensions,
			fmt.Sprintf("total pixels %d exceeds maximum %d", width*height, v.MaxPixels))
	}

	return nil
}

// Decode fully decodes an image of the given format. The format is chosen
// by the caller rather than re-sniffed, so a GIF body handed to Decode as
// "png" fails.
func (v *ImageValidator) Decode(reader io.Reader, format string) (image.Image, error) {
	var (
		img image.Image
		err error
	)

	switch format {
	case "jpeg":
		img, err = jpeg.Decode(reader)
	case "png":
		img, err = png.Decode(reader)
	case "gif":
		img, err = gif.Decode(reader)
	default:
		return nil, NewValidationError(ErrorTypeMIME, fmt.Sprintf("unsupported image format %q", format))
	}

	if err != nil {
		return nil, NewValidationError(ErrorTypeContent, fmt.Sprintf("cannot decode %s image: %v", format, err))
	}
	return img, nil
}
