// Package memory keeps uploaded files in memory. Useful for tests and for
// short-lived uploads that are validated and then discarded.
package memory

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/gobeaver/imagefield"
	"github.com/gobeaver/imagefield/filevalidator"
)

// memoryFile represents a file stored in memory
type memoryFile struct {
	content     []byte
	contentType string
	modTime     time.Time
}

// watchEntry represents a single watch subscription
type watchEntry struct {
	pattern glob.Glob
	token   *imagefield.CallbackChangeToken
	fired   chan struct{}
}

// Adapter provides an in-memory implementation of imagefield.FileSystem.
// It is safe for concurrent use.
type Adapter struct {
	mu      sync.RWMutex
	files   map[string]*memoryFile
	maxSize int64 // Maximum total storage size (0 = unlimited)
	size    int64 // Current total size

	watchMu sync.RWMutex
	watches []*watchEntry
}

// Config holds configuration for the memory adapter
type Config struct {
	// MaxSize is the maximum total storage size in bytes (0 = unlimited)
	MaxSize int64
}

// New creates a new in-memory filesystem adapter
func New(cfg ...Config) *Adapter {
	var maxSize int64
	if len(cfg) > 0 {
		maxSize = cfg[0].MaxSize
	}

	return &Adapter{
		files:   make(map[string]*memoryFile),
		maxSize: maxSize,
	}
}

// Write implements imagefield.FileWriter
func (a *Adapter) Write(ctx context.Context, p string, content io.Reader, options ...imagefield.Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p = normalizePath(p)
	if !isValidPath(p) {
		return &imagefield.PathError{Op: "write", Path: p, Err: imagefield.ErrNotAllowed}
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return &imagefield.PathError{Op: "write", Path: p, Err: err}
	}

	opts := imagefield.ApplyOptions(options...)

	a.mu.Lock()
	existing, exists := a.files[p]
	if exists && !opts.Overwrite {
		a.mu.Unlock()
		return &imagefield.PathError{Op: "write", Path: p, Err: imagefield.ErrExist}
	}

	newSize := a.size + int64(len(data))
	if exists {
		newSize -= int64(len(existing.content))
	}
	if a.maxSize > 0 && newSize > a.maxSize {
		a.mu.Unlock()
		return &imagefield.PathError{Op: "write", Path: p, Err: imagefield.ErrInvalidSize}
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = filevalidator.DetectMIMEFromBytes(data)
	}

	a.files[p] = &memoryFile{
		content:     data,
		contentType: contentType,
		modTime:     time.Now(),
	}
	a.size = newSize
	a.mu.Unlock()

	a.notifyWatchers(p)
	return nil
}

// Read implements imagefield.FileReader. The returned stream is a snapshot;
// later writes to the same path do not affect it.
func (a *Adapter) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p = normalizePath(p)

	a.mu.RLock()
	file, exists := a.files[p]
	a.mu.RUnlock()

	if !exists {
		return nil, &imagefield.PathError{Op: "read", Path: p, Err: imagefield.ErrNotExist}
	}

	return io.NopCloser(bytes.NewReader(file.content)), nil
}

// ReadAll implements imagefield.FileReader
func (a *Adapter) ReadAll(ctx context.Context, p string) ([]byte, error) {
	rc, err := a.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// Delete implements imagefield.FileWriter
func (a *Adapter) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p = normalizePath(p)

	a.mu.Lock()
	file, exists := a.files[p]
	if !exists {
		a.mu.Unlock()
		return &imagefield.PathError{Op: "delete", Path: p, Err: imagefield.ErrNotExist}
	}
	a.size -= int64(len(file.content))
	delete(a.files, p)
	a.mu.Unlock()

	a.notifyWatchers(p)
	return nil
}

// FileExists implements imagefield.FileReader
func (a *Adapter) FileExists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	_, exists := a.files[normalizePath(p)]
	return exists, nil
}

// Stat implements imagefield.FileReader. Directories exist implicitly
// while they hold at least one file.
func (a *Adapter) Stat(ctx context.Context, p string) (*imagefield.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p = normalizePath(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	if file, exists := a.files[p]; exists {
		return &imagefield.FileInfo{
			Name:        path.Base(p),
			Path:        p,
			Size:        int64(len(file.content)),
			ModTime:     file.modTime,
			ContentType: file.contentType,
		}, nil
	}

	if a.hasDirLocked(p) {
		return &imagefield.FileInfo{Name: path.Base(p), Path: p, IsDir: true}, nil
	}

	return nil, &imagefield.PathError{Op: "stat", Path: p, Err: imagefield.ErrNotExist}
}

// ListContents implements imagefield.FileReader. Only files are listed;
// results are sorted by path.
func (a *Adapter) ListContents(ctx context.Context, p string, recursive bool) ([]imagefield.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p = normalizePath(p)
	prefix := ""
	if p != "" {
		prefix = p + "/"
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if p != "" && !a.hasDirLocked(p) {
		return nil, &imagefield.PathError{Op: "listcontents", Path: p, Err: imagefield.ErrNotExist}
	}

	var files []imagefield.FileInfo
	for filePath, file := range a.files {
		if !strings.HasPrefix(filePath, prefix) {
			continue
		}
		if !recursive && strings.Contains(strings.TrimPrefix(filePath, prefix), "/") {
			continue
		}
		files = append(files, imagefield.FileInfo{
			Name:        path.Base(filePath),
			Path:        filePath,
			Size:        int64(len(file.content)),
			ModTime:     file.modTime,
			ContentType: file.contentType,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// Checksum implements imagefield.CanChecksum
func (a *Adapter) Checksum(ctx context.Context, p string, algorithm imagefield.ChecksumAlgorithm) (string, error) {
	rc, err := a.Read(ctx, p)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	sum, err := imagefield.CalculateChecksum(rc, algorithm)
	if err != nil {
		return "", &imagefield.PathError{Op: "checksum", Path: p, Err: err}
	}
	return sum, nil
}

// Watch implements imagefield.CanWatch. The pattern is a glob where "*"
// stays within one directory and "**" crosses directories. The token fires
// once; the watch is dropped when it fires or when ctx is cancelled.
func (a *Adapter) Watch(ctx context.Context, pattern string) (imagefield.ChangeToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, &imagefield.PathError{Op: "watch", Path: pattern, Err: err}
	}

	entry := &watchEntry{
		pattern: g,
		token:   imagefield.NewCallbackChangeToken(),
		fired:   make(chan struct{}),
	}

	a.watchMu.Lock()
	a.watches = append(a.watches, entry)
	a.watchMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			a.removeWatch(entry.token)
		case <-entry.fired:
		}
	}()

	return entry.token, nil
}

// Size returns the total stored bytes
func (a *Adapter) Size() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size
}

// FileCount returns the number of stored files
func (a *Adapter) FileCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.files)
}

// notifyWatchers removes the watches whose pattern matches the given path
// and signals their tokens outside the lock.
func (a *Adapter) notifyWatchers(p string) {
	a.watchMu.Lock()
	var matched []*watchEntry
	kept := a.watches[:0]
	for _, entry := range a.watches {
		if entry.pattern.Match(p) {
			matched = append(matched, entry)
		} else {
			kept = append(kept, entry)
		}
	}
	for i := len(kept); i < len(a.watches); i++ {
		a.watches[i] = nil
	}
	a.watches = kept
	a.watchMu.Unlock()

	for _, entry := range matched {
		close(entry.fired)
		entry.token.SignalChange()
	}
}

// removeWatch removes a watch entry by token
func (a *Adapter) removeWatch(token *imagefield.CallbackChangeToken) {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()

	for i, entry := range a.watches {
		if entry.token == token {
			a.watches[i] = a.watches[len(a.watches)-1]
			a.watches = a.watches[:len(a.watches)-1]
			return
		}
	}
}

func (a *Adapter) hasDirLocked(dir string) bool {
	if dir == "" {
		return true
	}
	prefix := dir + "/"
	for filePath := range a.files {
		if strings.HasPrefix(filePath, prefix) {
			return true
		}
	}
	return false
}

// normalizePath normalizes a file path
func normalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return ""
	}
	return path.Clean(p)
}

// isValidPath rejects paths that try to climb out of the root
func isValidPath(p string) bool {
	return p != "" && p != ".." && !strings.HasPrefix(p, "../")
}

var (
	_ imagefield.FileSystem  = (*Adapter)(nil)
	_ imagefield.CanChecksum = (*Adapter)(nil)
	_ imagefield.CanWatch    = (*Adapter)(nil)
)
