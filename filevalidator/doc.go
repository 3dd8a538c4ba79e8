// Package filevalidator inspects uploaded file content: it sniffs MIME types
// from magic bytes, reads image dimensions from headers, and decodes raster
// images on request.
//
// It never trusts filenames or client-declared content types. Everything is
// derived from the bytes themselves.
//
// # MIME Detection
//
// Image signatures are matched first; anything else falls back to
// github.com/gabriel-vasile/mimetype:
//
//	mime, err := filevalidator.DetectMIME(reader)
//
//	mime := filevalidator.DetectMIMEFromBytes(data)
//
// Results are lower-cased with parameters stripped ("text/plain", not
// "text/plain; charset=utf-8").
//
// # Images
//
// [ImageValidator] reads only the header bytes needed for dimensions:
//
//	v := filevalidator.DefaultImageValidator()
//	cfg, format, err := v.ReadConfig(reader)
//
//	// Optional limits (zero means unlimited)
//	v.MaxPixels = 50_000_000
//	err = v.ValidateContent(reader, size)
//
//	img, err := v.Decode(reader, "png")
//
// # Error Handling
//
// Validation errors carry a type for programmatic handling:
//
//	if filevalidator.IsErrorOfType(err, filevalidator.ErrorTypeDimensions) {
//	    // too wide, too tall, or too many pixels
//	}
//
// # Results
//
// [ResultBuilder] records every check performed during one validation so a
// caller can report what happened, not only whether it failed:
//
//	b := filevalidator.NewResultBuilder("photo.png", size)
//	b.AddCheck("mime", true, "image/png")
//	fmt.Println(b.Build().Summary()) // photo.png: accepted image/png (12 KB)
package filevalidator
