package imagefield

// ImageDescriptor holds what is known about the current upload of an image
// field. A field replaces its descriptor wholesale on every upload event.
//
// Exactly one of these holds:
//   - no file, or the base field reported an error: zero descriptor
//   - content is not an accepted image: Invalid is true, everything else zero
//   - accepted image: Type, MIMEType, DefaultFileExtension, Width and Height
//     are populated and Invalid is false
type ImageDescriptor struct {
	Type                 ImageType
	MIMEType             string
	DefaultFileExtension string
	Width                int
	Height               int
	Invalid              bool

	// Checksum is the hex digest of the accepted file, or empty when
	// checksumming is disabled or there is no accepted image.
	Checksum string
}

func invalidDescriptor() ImageDescriptor {
	return ImageDescriptor{Invalid: true}
}

func acceptedDescriptor(format Format, mime string, width, height int, checksum string) ImageDescriptor {
	return ImageDescriptor{
		Type:                 format.Type,
		MIMEType:             mime,
		DefaultFileExtension: format.Extension,
		Width:                width,
		Height:               height,
		Checksum:             checksum,
	}
}

// IsImage reports whether the descriptor describes an accepted image.
func (d ImageDescriptor) IsImage() bool {
	return d.Type != ImageTypeNone
}
