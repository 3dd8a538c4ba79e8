package imagefield

import (
	"fmt"
	"sort"

	"github.com/gobeaver/imagefield/filevalidator"
)

// ImageType identifies a decoded raster format.
// The zero value ImageTypeNone means "no valid image".
type ImageType int

const (
	ImageTypeNone ImageType = iota
	ImageTypeGIF
	ImageTypeJPEG
	ImageTypePNG
)

// String returns the decoder name of the type ("gif", "jpeg", "png"),
// or "none".
func (t ImageType) String() string {
	switch t {
	case ImageTypeGIF:
		return "gif"
	case ImageTypeJPEG:
		return "jpeg"
	case ImageTypePNG:
		return "png"
	default:
		return "none"
	}
}

// Format is one allow-list entry.
type Format struct {
	Type      ImageType
	MIMEType  string
	Extension string // default file extension, without the dot
}

// FormatTable maps sniffed MIME types to accepted image formats.
// It is immutable once built.
type FormatTable struct {
	byMIME map[string]Format
}

var defaultFormats = MustFormatTable(
	Format{Type: ImageTypeJPEG, MIMEType: "image/jpeg", Extension: "jpg"},
	Format{Type: ImageTypePNG, MIMEType: "image/png", Extension: "png"},
	Format{Type: ImageTypeGIF, MIMEType: "image/gif", Extension: "gif"},
)

// DefaultFormats returns the standard allow-list: JPEG, PNG and GIF.
func DefaultFormats() *FormatTable {
	return defaultFormats
}

// NewFormatTable builds a table from the given formats. Each entry needs a
// decodable type and a non-empty extension, and no type, MIME type or
// extension may appear twice. Use a subset of the default formats to
// narrow what a field accepts, e.g. PNG only.
func NewFormatTable(formats ...Format) (*FormatTable, error) {
	if len(formats) == 0 {
		return nil, fmt.Errorf("format table needs at least one format")
	}

	table := &FormatTable{byMIME: make(map[string]Format, len(formats))}
	seenTypes := make(map[ImageType]bool, len(formats))
	seenExts := make(map[string]bool, len(formats))

	for _, f := range formats {
		switch f.Type {
		case ImageTypeGIF, ImageTypeJPEG, ImageTypePNG:
		default:
			return nil, fmt.Errorf("format %q: unsupported image type %s", f.MIMEType, f.Type)
		}

		mime := filevalidator.NormalizeMIME(f.MIMEType)
		if mime == "" {
			return nil, fmt.Errorf("format %s: empty MIME type", f.Type)
		}
		if f.Extension == "" {
			return nil, fmt.Errorf("format %q: empty extension", mime)
		}
		if _, dup := table.byMIME[mime]; dup {
			return nil, fmt.Errorf("format %q: duplicate MIME type", mime)
		}
		if seenTypes[f.Type] {
			return nil, fmt.Errorf("format %q: duplicate image type %s", mime, f.Type)
		}
		if seenExts[f.Extension] {
			return nil, fmt.Errorf("format %q: duplicate extension %q", mime, f.Extension)
		}

		seenTypes[f.Type] = true
		seenExts[f.Extension] = true
		f.MIMEType = mime
		table.byMIME[mime] = f
	}

	return table, nil
}

// MustFormatTable is like NewFormatTable but panics on error.
func MustFormatTable(formats ...Format) *FormatTable {
	table, err := NewFormatTable(formats...)
	if err != nil {
		panic(err)
	}
	return table
}

// Lookup returns the format for a MIME type. Matching ignores case and
// parameters.
func (t *FormatTable) Lookup(mime string) (Format, bool) {
	f, ok := t.byMIME[filevalidator.NormalizeMIME(mime)]
	return f, ok
}

// Formats returns a copy of the table ordered by MIME type.
func (t *FormatTable) Formats() []Format {
	formats := make([]Format, 0, len(t.byMIME))
	for _, f := range t.byMIME {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool {
		return formats[i].MIMEType < formats[j].MIMEType
	})
	return formats
}

// MIMETypes returns the accepted MIME types, sorted.
func (t *FormatTable) MIMETypes() []string {
	formats := t.Formats()
	types := make([]string, len(formats))
	for i, f := range formats {
		types[i] = f.MIMEType
	}
	return types
}
