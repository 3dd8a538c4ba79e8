package memory

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gobeaver/imagefield"
)

var pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func TestNew(t *testing.T) {
	t.Run("creates adapter with default config", func(t *testing.T) {
		a := New()
		if a == nil {
			t.Fatal("expected adapter to be created")
		}
		if a.maxSize != 0 {
			t.Errorf("expected maxSize=0, got %d", a.maxSize)
		}
	})

	t.Run("creates adapter with max size", func(t *testing.T) {
		a := New(Config{MaxSize: 1024})
		if a.maxSize != 1024 {
			t.Errorf("expected maxSize=1024, got %d", a.maxSize)
		}
	})
}

func TestWrite(t *testing.T) {
	ctx := context.Background()

	t.Run("writes file successfully", func(t *testing.T) {
		a := New()
		content := "hello world"

		if err := a.Write(ctx, "test.txt", strings.NewReader(content)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		exists, err := a.FileExists(ctx, "test.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !exists {
			t.Error("expected file to exist")
		}

		if a.Size() != int64(len(content)) {
			t.Errorf("expected size=%d, got %d", len(content), a.Size())
		}
	})

	t.Run("fails on path traversal", func(t *testing.T) {
		a := New()

		err := a.Write(ctx, "../etc/passwd", strings.NewReader("malicious"))
		if !errors.Is(err, imagefield.ErrNotAllowed) {
			t.Errorf("expected ErrNotAllowed, got: %v", err)
		}
	})

	t.Run("respects max size limit", func(t *testing.T) {
		a := New(Config{MaxSize: 10})

		err := a.Write(ctx, "large.txt", strings.NewReader("this is too large"))
		if !errors.Is(err, imagefield.ErrInvalidSize) {
			t.Errorf("expected ErrInvalidSize, got: %v", err)
		}
		if a.FileCount() != 0 {
			t.Errorf("expected no files, got %d", a.FileCount())
		}
	})

	t.Run("refuses to overwrite by default", func(t *testing.T) {
		a := New()
		if err := a.Write(ctx, "a.txt", strings.NewReader("one")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err := a.Write(ctx, "a.txt", strings.NewReader("two"))
		if !imagefield.IsExist(err) {
			t.Errorf("expected ErrExist, got: %v", err)
		}
	})

	t.Run("overwrites when asked and tracks size", func(t *testing.T) {
		a := New(Config{MaxSize: 10})
		if err := a.Write(ctx, "a.txt", strings.NewReader("12345678")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := a.Write(ctx, "a.txt", strings.NewReader("1234"), imagefield.WithOverwrite()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if a.Size() != 4 {
			t.Errorf("expected size=4, got %d", a.Size())
		}
		data, _ := a.ReadAll(ctx, "a.txt")
		if string(data) != "1234" {
			t.Errorf("expected content '1234', got '%s'", data)
		}
	})

	t.Run("sniffs content type from content", func(t *testing.T) {
		a := New()
		if err := a.Write(ctx, "photo.txt", strings.NewReader(pngHeader)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, err := a.Stat(ctx, "photo.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.ContentType != "image/png" {
			t.Errorf("expected image/png, got %s", info.ContentType)
		}
	})

	t.Run("uses explicit content type", func(t *testing.T) {
		a := New()
		err := a.Write(ctx, "x.bin", strings.NewReader(pngHeader), imagefield.WithContentType("application/x-test"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, _ := a.Stat(ctx, "x.bin")
		if info.ContentType != "application/x-test" {
			t.Errorf("expected application/x-test, got %s", info.ContentType)
		}
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		a := New()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := a.Write(cctx, "a.txt", strings.NewReader("x"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestRead(t *testing.T) {
	ctx := context.Background()

	t.Run("reads existing file", func(t *testing.T) {
		a := New()
		a.Write(ctx, "dir/test.txt", strings.NewReader("content"))

		data, err := a.ReadAll(ctx, "/dir/test.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "content" {
			t.Errorf("expected 'content', got '%s'", data)
		}
	})

	t.Run("returns not exist for missing file", func(t *testing.T) {
		a := New()

		_, err := a.Read(ctx, "missing.txt")
		if !imagefield.IsNotExist(err) {
			t.Errorf("expected not exist error, got: %v", err)
		}
	})

	t.Run("each read is an independent stream", func(t *testing.T) {
		a := New()
		a.Write(ctx, "a.txt", strings.NewReader("abc"))

		r1, _ := a.Read(ctx, "a.txt")
		buf := make([]byte, 2)
		r1.Read(buf)
		defer r1.Close()

		data, _ := a.ReadAll(ctx, "a.txt")
		if string(data) != "abc" {
			t.Errorf("expected 'abc', got '%s'", data)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	a := New()
	a.Write(ctx, "a.txt", strings.NewReader("hello"))

	if err := a.Delete(ctx, "a.txt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Size() != 0 {
		t.Errorf("expected size=0, got %d", a.Size())
	}

	if err := a.Delete(ctx, "a.txt"); !imagefield.IsNotExist(err) {
		t.Errorf("expected not exist error, got: %v", err)
	}
}

func TestStat(t *testing.T) {
	ctx := context.Background()
	a := New()
	a.Write(ctx, "uploads/a.txt", strings.NewReader("hello"))

	tests := []struct {
		name    string
		path    string
		isDir   bool
		size    int64
		wantErr bool
	}{
		{"file", "uploads/a.txt", false, 5, false},
		{"implicit directory", "uploads", true, 0, false},
		{"root", "", true, 0, false},
		{"missing", "uploads/b.txt", false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := a.Stat(ctx, tt.path)
			if tt.wantErr {
				if !imagefield.IsNotExist(err) {
					t.Errorf("expected not exist error, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.IsDir != tt.isDir {
				t.Errorf("Expected IsDir %v, got %v", tt.isDir, info.IsDir)
			}
			if info.Size != tt.size {
				t.Errorf("Expected size %d, got %d", tt.size, info.Size)
			}
		})
	}
}

func TestListContents(t *testing.T) {
	ctx := context.Background()
	a := New()
	for _, p := range []string{"uploads/b.png", "uploads/a.png", "uploads/2024/c.png", "other.txt"} {
		a.Write(ctx, p, strings.NewReader("x"))
	}

	t.Run("non-recursive", func(t *testing.T) {
		files, err := a.ListContents(ctx, "uploads", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 2 {
			t.Fatalf("Expected 2 files, got %d", len(files))
		}
		if files[0].Path != "uploads/a.png" || files[1].Path != "uploads/b.png" {
			t.Errorf("unexpected order: %s, %s", files[0].Path, files[1].Path)
		}
	})

	t.Run("recursive", func(t *testing.T) {
		files, err := a.ListContents(ctx, "uploads", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 3 {
			t.Errorf("Expected 3 files, got %d", len(files))
		}
	})

	t.Run("root", func(t *testing.T) {
		files, err := a.ListContents(ctx, "", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 1 || files[0].Path != "other.txt" {
			t.Errorf("Expected only other.txt, got %v", files)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := a.ListContents(ctx, "nope", false)
		if !imagefield.IsNotExist(err) {
			t.Errorf("expected not exist error, got: %v", err)
		}
	})
}

func TestChecksum(t *testing.T) {
	ctx := context.Background()
	a := New()
	a.Write(ctx, "a.txt", strings.NewReader("hello"))

	got, err := a.Checksum(ctx, "a.txt", imagefield.ChecksumSHA256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	if _, err := a.Checksum(ctx, "a.txt", "md4"); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
	if _, err := a.Checksum(ctx, "missing", imagefield.ChecksumSHA256); !imagefield.IsNotExist(err) {
		t.Errorf("expected not exist error, got: %v", err)
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := New()
	token, err := a.Watch(ctx, "uploads/*.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a.Write(ctx, "uploads/a.txt", strings.NewReader("x"))
	a.Write(ctx, "uploads/2024/a.png", strings.NewReader("x"))
	if token.HasChanged() {
		t.Fatal("expected token to ignore non-matching paths")
	}

	fired := make(chan struct{})
	token.RegisterChangeCallback(func() { close(fired) })

	a.Write(ctx, "uploads/a.png", strings.NewReader("x"))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expected callback to fire")
	}
	if !token.HasChanged() {
		t.Error("expected token to report a change")
	}
}

func TestWatchInvalidPattern(t *testing.T) {
	a := New()
	if _, err := a.Watch(context.Background(), "uploads/[*.png"); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestWatchRemovedOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := New()
	if _, err := a.Watch(ctx, "**"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for {
		a.watchMu.RLock()
		n := len(a.watches)
		a.watchMu.RUnlock()
		if n == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected watch to be removed, %d left", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatchDroppedOnceFired(t *testing.T) {
	ctx := context.Background()
	a := New()
	before := runtime.NumGoroutine()

	for i := 0; i < 100; i++ {
		token, err := a.Watch(ctx, "uploads/*")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		a.Write(ctx, "uploads/x", strings.NewReader("x"), imagefield.WithOverwrite())
		if !token.HasChanged() {
			t.Fatalf("Expected token %d to fire", i)
		}
	}

	a.watchMu.RLock()
	n := len(a.watches)
	a.watchMu.RUnlock()
	if n != 0 {
		t.Errorf("Expected fired watches to be dropped, %d left", n)
	}

	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > before+5 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected watch goroutines to exit, %d running (was %d)", runtime.NumGoroutine(), before)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatchRewatchWithOnChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := New()
	changes := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- imagefield.OnChange(ctx,
			func() (imagefield.ChangeToken, error) { return a.Watch(ctx, "uploads/*") },
			func() { changes <- struct{}{} },
		)
	}()

	for i := 0; i < 5; i++ {
		// wait until OnChange has re-armed its watch
		deadline := time.Now().Add(time.Second)
		for {
			a.watchMu.RLock()
			n := len(a.watches)
			a.watchMu.RUnlock()
			if n == 1 {
				break
			}
			if n > 1 {
				t.Fatalf("Expected at most one pending watch, got %d", n)
			}
			if time.Now().After(deadline) {
				t.Fatal("Expected OnChange to register a watch")
			}
			time.Sleep(time.Millisecond)
		}

		a.Write(ctx, fmt.Sprintf("uploads/%d.png", i), strings.NewReader("x"))
		select {
		case <-changes:
		case <-time.After(time.Second):
			t.Fatalf("Expected change %d", i)
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestConcurrency(t *testing.T) {
	ctx := context.Background()
	a := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := fmt.Sprintf("uploads/%d.txt", i)
			if err := a.Write(ctx, p, strings.NewReader("data")); err != nil {
				t.Errorf("write %s: %v", p, err)
				return
			}
			if _, err := a.ReadAll(ctx, p); err != nil {
				t.Errorf("read %s: %v", p, err)
			}
		}(i)
	}
	wg.Wait()

	if a.FileCount() != 50 {
		t.Errorf("Expected 50 files, got %d", a.FileCount())
	}
	if a.Size() != 200 {
		t.Errorf("Expected size 200, got %d", a.Size())
	}
}

func TestRegisteredDriver(t *testing.T) {
	fs, err := imagefield.CreateDriver(&imagefield.Config{Driver: "memory", MemoryMaxSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := fs.(*Adapter)
	if !ok {
		t.Fatalf("Expected *Adapter, got %T", fs)
	}
	if a.maxSize != 5 {
		t.Errorf("Expected maxSize 5, got %d", a.maxSize)
	}
}
