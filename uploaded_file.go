package imagefield

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// UploadDir is the storage directory StoreUpload writes into.
const UploadDir = "uploads"

// UploadedFile references a file bound to a form field during one
// submission. The content lives in storage; the client filename is kept
// for display only and is never used to decide the file type.
type UploadedFile struct {
	storage  FileReader
	path     string
	filename string
	size     int64
}

// NewUploadedFile references an existing file in storage. The file must
// exist; its size is read from storage.
func NewUploadedFile(ctx context.Context, storage FileReader, path, filename string) (*UploadedFile, error) {
	info, err := storage.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if info.IsDir {
		return nil, &PathError{Op: "upload", Path: path, Err: ErrIsDir}
	}

	if filename == "" {
		filename = info.Name
	}

	return &UploadedFile{
		storage:  storage,
		path:     path,
		filename: filepath.Base(filename),
		size:     info.Size,
	}, nil
}

// StoreUpload writes r to a freshly generated path under UploadDir and
// returns a reference to it. The generated name carries no extension:
// the client's extension is not trusted.
func StoreUpload(ctx context.Context, fs FileSystem, r io.Reader, filename string) (*UploadedFile, error) {
	storagePath := path.Join(UploadDir, uuid.NewString())

	if err := fs.Write(ctx, storagePath, r); err != nil {
		return nil, fmt.Errorf("store upload %q: %w", filename, err)
	}

	return NewUploadedFile(ctx, fs, storagePath, filename)
}

// StoreMultipart stores a multipart form file, as received by an HTTP
// handler, and returns a reference to it.
func StoreMultipart(ctx context.Context, fs FileSystem, header *multipart.FileHeader) (*UploadedFile, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open multipart file %q: %w", header.Filename, err)
	}
	defer f.Close()

	return StoreUpload(ctx, fs, f, header.Filename)
}

// Path returns the storage path of the file.
func (u *UploadedFile) Path() string {
	return u.path
}

// Filename returns the client-supplied base filename.
func (u *UploadedFile) Filename() string {
	return u.filename
}

// Size returns the stored size in bytes.
func (u *UploadedFile) Size() int64 {
	return u.size
}

// Storage returns the storage the file lives in.
func (u *UploadedFile) Storage() FileReader {
	return u.storage
}

// Open returns a fresh stream over the stored content.
func (u *UploadedFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return u.storage.Read(ctx, u.path)
}

// Checksum hashes the stored content. Storage that implements CanChecksum
// hashes in place; otherwise the content is streamed through the hasher.
func (u *UploadedFile) Checksum(ctx context.Context, algorithm ChecksumAlgorithm) (string, error) {
	if cs, ok := u.storage.(CanChecksum); ok {
		return cs.Checksum(ctx, u.path, algorithm)
	}

	rc, err := u.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return CalculateChecksum(rc, algorithm)
}
