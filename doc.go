// Package imagefield provides form file fields that accept only raster
// images (JPEG, PNG and GIF), identified by their content rather than by
// the client's filename or declared content type.
//
// A field is bound to an upload with SetUploadedFile. Each call re-derives
// everything from scratch: the base [FileField] enforces the required flag
// and then the image checks run against the stored bytes. Outcomes are
// reported through the field's state:
//
//   - no file: no error, or "Missing file" when the field is required
//   - accepted image: type, MIME type, default extension and dimensions
//   - anything else: "Invalid image file" and IsInvalid reports true
//
// Pixel data is never decoded during validation. [ImageFileField.Image]
// decodes on demand and re-reads storage on every call.
//
// # Basic Usage
//
//	import (
//	    "github.com/gobeaver/imagefield"
//	    "github.com/gobeaver/imagefield/driver/local"
//	)
//
//	fs, err := local.New("./uploads")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// in an HTTP handler, after r.ParseMultipartForm
//	_, header, err := r.FormFile("avatar")
//	upload, err := imagefield.StoreMultipart(ctx, fs, header)
//
//	field := imagefield.NewImageFileField("avatar", imagefield.WithRequired())
//	field.SetUploadedFile(ctx, upload)
//	if field.HasError() {
//	    http.Error(w, field.ErrorMessage(), http.StatusUnprocessableEntity)
//	    return
//	}
//	name := upload.Path() + "." + field.ImageDefaultFileExtension()
//
// # Storage
//
// Uploaded bytes live behind the [FileReader] / [FileWriter] interfaces.
// Two drivers register themselves on import:
//
//   - Local filesystem (github.com/gobeaver/imagefield/driver/local)
//   - In-memory (github.com/gobeaver/imagefield/driver/memory)
//
// Drivers may implement [CanChecksum] and [CanWatch]; callers detect them
// with a type assertion.
//
// # Collaborators
//
// Content sniffing, dimension reading and decoding are pluggable through
// [Sniffer], [MetadataReader] and [Decoder]. The defaults use
// github.com/gobeaver/imagefield/filevalidator, which recognises image
// signatures directly and falls back to github.com/gabriel-vasile/mimetype.
//
// # Configuration
//
// [GetConfig] reads BEAVER_IMAGEFIELD_* environment variables; see [Config].
//
//	cfg, err := imagefield.GetConfig()
//	fs, err := imagefield.CreateDriver(cfg)
//	field := imagefield.NewImageFileField("avatar", cfg.FieldOptions(logger)...)
//
// # Errors
//
// Storage errors are [*PathError] values wrapping the sentinels in this
// package; use [IsNotExist], [IsExist] or errors.Is. Field checks never
// return errors: they set the field's message and record a
// filevalidator.ValidationResult available from [ImageFileField.LastResult].
package imagefield
