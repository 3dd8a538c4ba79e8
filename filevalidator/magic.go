package filevalidator

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how many leading bytes are inspected. It matches mimetype's
// default read limit so the fallback sees the same window.
const sniffLen = 3072

// MagicSignature defines a file type signature
type MagicSignature struct {
	MIME   string
	Offset int    // Offset from start of file
	Magic  []byte // Magic bytes to match
}

// imageSignatures are checked before falling back to mimetype.
// Ordered by specificity (most specific first).
var imageSignatures = []MagicSignature{
	{MIME: "image/jpeg", Offset: 0, Magic: []byte{0xFF, 0xD8, 0xFF}},
	{MIME: "image/png", Offset: 0, Magic: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{MIME: "image/gif", Offset: 0, Magic: []byte("GIF87a")},
	{MIME: "image/gif", Offset: 0, Magic: []byte("GIF89a")},
	{MIME: "image/webp", Offset: 8, Magic: []byte("WEBP")}, // After RIFF header
	{MIME: "image/tiff", Offset: 0, Magic: []byte{0x49, 0x49, 0x2A, 0x00}}, // Little endian
	{MIME: "image/tiff", Offset: 0, Magic: []byte{0x4D, 0x4D, 0x00, 0x2A}}, // Big endian
	{MIME: "image/heic", Offset: 4, Magic: []byte("ftypheic")},
	{MIME: "image/avif", Offset: 4, Magic: []byte("ftypavif")},
}

// DetectMIME detects the MIME type from file content.
// Only the first few KB are read.
func DetectMIME(reader io.Reader) (string, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", NewValidationError(ErrorTypeMIME, "failed to read file for MIME detection")
	}

	return DetectMIMEFromBytes(buf[:n]), nil
}

// DetectMIMEFromBytes detects MIME type from a byte slice
func DetectMIMEFromBytes(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}

	if mime := detectByMagic(data); mime != "" {
		return mime
	}

	return NormalizeMIME(mimetype.Detect(data).String())
}

// NormalizeMIME lower-cases a MIME type and strips any parameters.
func NormalizeMIME(mime string) string {
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

// detectByMagic checks data against known image signatures
func detectByMagic(data []byte) string {
	for _, sig := range imageSignatures {
		if sig.Offset+len(sig.Magic) > len(data) {
			continue
		}

		if bytes.Equal(data[sig.Offset:sig.Offset+len(sig.Magic)], sig.Magic) {
			return sig.MIME
		}
	}
	return ""
}

// IsImageMIME reports whether mime is in the image/ top-level type.
func IsImageMIME(mime string) bool {
	return strings.HasPrefix(NormalizeMIME(mime), "image/")
}
