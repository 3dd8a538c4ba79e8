package imagefield

import (
	"context"
	"io"
	"time"
)

// FileInfo represents stored file metadata
type FileInfo struct {
	Name        string
	Path        string
	Size        int64
	ModTime     time.Time
	IsDir       bool
	ContentType string
}

// ============================================================================
// Storage Interfaces
// ============================================================================

// FileReader provides read-only access to the storage holding uploaded files.
// Fields only ever need a FileReader; writers are used when binding uploads.
type FileReader interface {
	// Read returns a stream for reading file content.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// ReadAll reads entire file into memory. Use for small files only.
	ReadAll(ctx context.Context, path string) ([]byte, error)

	// FileExists checks if a file exists at path.
	FileExists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata.
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// ListContents lists directory contents.
	// If recursive is true, includes all descendants.
	ListContents(ctx context.Context, path string, recursive bool) ([]FileInfo, error)
}

// FileWriter provides write operations.
type FileWriter interface {
	// Write writes content from reader to path.
	Write(ctx context.Context, path string, r io.Reader, opts ...Option) error

	// Delete removes a file.
	Delete(ctx context.Context, path string) error
}

// FileSystem provides full read-write storage access.
type FileSystem interface {
	FileReader
	FileWriter
}

// ============================================================================
// Optional Capability Interfaces
// ============================================================================

// ChecksumAlgorithm represents a supported checksum algorithm
type ChecksumAlgorithm string

const (
	// ChecksumSHA256 is the SHA-256 hash algorithm
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	// ChecksumCRC32 is the CRC32 checksum (integrity only)
	ChecksumCRC32 ChecksumAlgorithm = "crc32"
	// ChecksumXXHash is the xxHash algorithm (64-bit, extremely fast)
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
)

// CanChecksum indicates the storage can hash a file without handing the
// bytes to the caller.
//
//	if cs, ok := fs.(CanChecksum); ok {
//	    sum, err := cs.Checksum(ctx, "uploads/a.png", ChecksumXXHash)
//	}
type CanChecksum interface {
	Checksum(ctx context.Context, path string, algorithm ChecksumAlgorithm) (string, error)
}

// ChangeToken signals that something matching a watch pattern changed.
// Tokens are single-use: once HasChanged reports true it stays true.
type ChangeToken interface {
	HasChanged() bool

	// ActiveChangeCallbacks reports whether RegisterChangeCallback is
	// efficient. If false, poll HasChanged instead.
	ActiveChangeCallbacks() bool

	RegisterChangeCallback(callback func()) (unregister func())
}

// CanWatch indicates the storage supports change notifications.
// Patterns are globs such as "**/*.png" or "uploads/*".
type CanWatch interface {
	Watch(ctx context.Context, pattern string) (ChangeToken, error)
}
