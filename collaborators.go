package imagefield

import (
	"image"
	"io"

	"github.com/gobeaver/imagefield/filevalidator"
)

// Sniffer determines a MIME type from content bytes.
type Sniffer interface {
	Sniff(r io.Reader) (string, error)
}

// MetadataReader reads pixel dimensions without decoding the image.
type MetadataReader interface {
	ReadSize(r io.Reader) (width, height int, err error)
}

// Decoder decodes an image of a known type.
type Decoder interface {
	Decode(r io.Reader, t ImageType) (image.Image, error)
}

// SnifferFunc adapts a function to Sniffer.
type SnifferFunc func(r io.Reader) (string, error)

func (f SnifferFunc) Sniff(r io.Reader) (string, error) {
	return f(r)
}

// MetadataReaderFunc adapts a function to MetadataReader.
type MetadataReaderFunc func(r io.Reader) (int, int, error)

func (f MetadataReaderFunc) ReadSize(r io.Reader) (int, int, error) {
	return f(r)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(r io.Reader, t ImageType) (image.Image, error)

func (f DecoderFunc) Decode(r io.Reader, t ImageType) (image.Image, error) {
	return f(r, t)
}

// ContentSniffer returns the default Sniffer, backed by
// filevalidator.DetectMIME.
func ContentSniffer() Sniffer {
	return SnifferFunc(filevalidator.DetectMIME)
}

// HeaderReader returns the default MetadataReader. It reads only image
// headers through v.
func HeaderReader(v *filevalidator.ImageValidator) MetadataReader {
	return MetadataReaderFunc(func(r io.Reader) (int, int, error) {
		cfg, _, err := v.ReadConfig(r)
		if err != nil {
			return 0, 0, err
		}
		return cfg.Width, cfg.Height, nil
	})
}

// StandardDecoder returns the default Decoder, using the standard library
// JPEG, PNG and GIF decoders through v.
func StandardDecoder(v *filevalidator.ImageValidator) Decoder {
	return DecoderFunc(func(r io.Reader, t ImageType) (image.Image, error) {
		return v.Decode(r, t.String())
	})
}
