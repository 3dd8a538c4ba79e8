// Package local stores uploaded files on the local disk under a root
// directory. Paths that resolve outside the root are refused.
package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/gobeaver/imagefield"
	"github.com/gobeaver/imagefield/filevalidator"
)

// Adapter provides a local filesystem implementation of imagefield.FileSystem
type Adapter struct {
	root string
}

// New creates a new local filesystem adapter rooted at root, creating the
// directory if needed.
func New(root string) (*Adapter, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, err
	}

	return &Adapter{
		root: absRoot,
	}, nil
}

// Root returns the absolute root directory
func (a *Adapter) Root() string {
	return a.root
}

// resolve maps a storage path to an absolute path under the root
func (a *Adapter) resolve(op, path string) (string, error) {
	fullPath := filepath.Join(a.root, filepath.Clean(path))
	if !isPathUnderRoot(a.root, fullPath) {
		return "", &imagefield.PathError{Op: op, Path: path, Err: imagefield.ErrNotAllowed}
	}
	return fullPath, nil
}

// Write implements imagefield.FileWriter
func (a *Adapter) Write(ctx context.Context, path string, content io.Reader, options ...imagefield.Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := a.resolve("write", path)
	if err != nil {
		return err
	}
	if fullPath == a.root {
		return &imagefield.PathError{Op: "write", Path: path, Err: imagefield.ErrIsDir}
	}

	opts := imagefield.ApplyOptions(options...)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return &imagefield.PathError{Op: "write", Path: path, Err: err}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !opts.Overwrite {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &imagefield.PathError{Op: "write", Path: path, Err: imagefield.ErrExist}
		}
		return &imagefield.PathError{Op: "write", Path: path, Err: err}
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(fullPath)
		return &imagefield.PathError{Op: "write", Path: path, Err: err}
	}

	if err := f.Close(); err != nil {
		return &imagefield.PathError{Op: "write", Path: path, Err: err}
	}

	return nil
}

// Read implements imagefield.FileReader
func (a *Adapter) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := a.resolve("read", path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, pathError("read", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, pathError("read", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, &imagefield.PathError{Op: "read", Path: path, Err: imagefield.ErrIsDir}
	}

	return f, nil
}

// ReadAll implements imagefield.FileReader
func (a *Adapter) ReadAll(ctx context.Context, path string) ([]byte, error) {
	rc, err := a.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// Delete implements imagefield.FileWriter
func (a *Adapter) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := a.resolve("delete", path)
	if err != nil {
		return err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return pathError("delete", path, err)
	}
	if info.IsDir() {
		return &imagefield.PathError{Op: "delete", Path: path, Err: imagefield.ErrIsDir}
	}

	if err := os.Remove(fullPath); err != nil {
		return pathError("delete", path, err)
	}
	return nil
}

// FileExists implements imagefield.FileReader. Directories do not count.
func (a *Adapter) FileExists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fullPath, err := a.resolve("fileexists", path)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &imagefield.PathError{Op: "fileexists", Path: path, Err: err}
	}

	return !info.IsDir(), nil
}

// Stat implements imagefield.FileReader. ContentType is sniffed from the
// file header, never taken from the extension.
func (a *Adapter) Stat(ctx context.Context, path string) (*imagefield.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := a.resolve("stat", path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, pathError("stat", path, err)
	}

	return a.fileInfo(fullPath, info), nil
}

// ListContents implements imagefield.FileReader. Results are sorted by path.
func (a *Adapter) ListContents(ctx context.Context, path string, recursive bool) ([]imagefield.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := a.resolve("listcontents", path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, pathError("listcontents", path, err)
	}
	if !info.IsDir() {
		return nil, &imagefield.PathError{Op: "listcontents", Path: path, Err: imagefield.ErrNotDir}
	}

	var files []imagefield.FileInfo

	if recursive {
		err = filepath.WalkDir(fullPath, func(walkPath string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if walkPath == fullPath {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			files = append(files, *a.fileInfo(walkPath, info))
			return nil
		})
		if err != nil {
			return nil, &imagefield.PathError{Op: "listcontents", Path: path, Err: err}
		}
	} else {
		entries, err := os.ReadDir(fullPath)
		if err != nil {
			return nil, &imagefield.PathError{Op: "listcontents", Path: path, Err: err}
		}

		files = make([]imagefield.FileInfo, 0, len(entries))
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			files = append(files, *a.fileInfo(filepath.Join(fullPath, entry.Name()), info))
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// Checksum implements imagefield.CanChecksum for local files.
func (a *Adapter) Checksum(ctx context.Context, path string, algorithm imagefield.ChecksumAlgorithm) (string, error) {
	rc, err := a.Read(ctx, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	checksum, err := imagefield.CalculateChecksum(rc, algorithm)
	if err != nil {
		return "", &imagefield.PathError{Op: "checksum", Path: path, Err: err}
	}

	return checksum, nil
}

// Watch implements imagefield.CanWatch using fsnotify. The pattern is a
// glob relative to the root: "*" stays within one directory and "**"
// crosses directories. The token fires once, on the first matching event.
func (a *Adapter) Watch(ctx context.Context, pattern string) (imagefield.ChangeToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, &imagefield.PathError{Op: "watch", Path: pattern, Err: err}
	}

	watchPath, err := a.resolve("watch", staticPrefix(pattern))
	if err != nil {
		return nil, err
	}

	watcher, err := newFSWatcher()
	if err != nil {
		return nil, &imagefield.PathError{Op: "watch", Path: pattern, Err: err}
	}

	if err := watcher.Add(watchPath); err != nil {
		watcher.Close()
		return nil, &imagefield.PathError{Op: "watch", Path: pattern, Err: err}
	}

	// fsnotify is not recursive; subdirectories are added one by one
	if strings.Contains(pattern, "**") {
		filepath.WalkDir(watchPath, func(p string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() && p != watchPath {
				watcher.Add(p)
			}
			return nil
		})
	}

	token := imagefield.NewCallbackChangeToken()

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events():
				if !ok {
					return
				}
				rel, err := filepath.Rel(a.root, event.Name)
				if err != nil {
					continue
				}
				if g.Match(filepath.ToSlash(rel)) {
					token.SignalChange()
					return
				}
			case _, ok := <-watcher.Errors():
				if !ok {
					return
				}
			}
		}
	}()

	return token, nil
}

func (a *Adapter) fileInfo(fullPath string, info fs.FileInfo) *imagefield.FileInfo {
	rel, err := filepath.Rel(a.root, fullPath)
	if err != nil || rel == "." {
		rel = ""
	}

	contentType := ""
	if !info.IsDir() {
		contentType = detectContentType(fullPath)
	}

	return &imagefield.FileInfo{
		Name:        info.Name(),
		Path:        filepath.ToSlash(rel),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		IsDir:       info.IsDir(),
		ContentType: contentType,
	}
}

// detectContentType sniffs the content type from the file header
func detectContentType(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	mime, err := filevalidator.DetectMIME(f)
	if err != nil {
		return ""
	}
	return mime
}

// staticPrefix returns the directory part of pattern before the first
// glob metacharacter.
func staticPrefix(pattern string) string {
	idx := strings.IndexAny(pattern, "*?[{")
	if idx < 0 {
		return filepath.Dir(pattern)
	}
	dir := pattern[:idx]
	if slash := strings.LastIndex(dir, "/"); slash >= 0 {
		return dir[:slash]
	}
	return ""
}

// isPathUnderRoot checks if a path is under a given root directory
func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return !filepath.IsAbs(rel) && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// pathError maps os errors onto the imagefield sentinels
func pathError(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		err = imagefield.ErrNotExist
	case errors.Is(err, fs.ErrPermission):
		err = imagefield.ErrPermission
	}
	return &imagefield.PathError{Op: op, Path: path, Err: err}
}

var (
	_ imagefield.FileSystem  = (*Adapter)(nil)
	_ imagefield.CanChecksum = (*Adapter)(nil)
	_ imagefield.CanWatch    = (*Adapter)(nil)
)
