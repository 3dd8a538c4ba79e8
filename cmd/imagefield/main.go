// Command imagefield validates stored files as image uploads and prints one
// line per file. Paths are relative to the configured storage driver;
// directories are expanded recursively.
//
//	imagefield [-required] [-watch PATTERN] PATH...
//
// The exit status is 1 when any file is rejected.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gobeaver/imagefield"
	_ "github.com/gobeaver/imagefield/driver/local"
	_ "github.com/gobeaver/imagefield/driver/memory"
)

var errRejected = errors.New("one or more files were rejected")

func main() {
	required := flag.Bool("required", false, "treat a missing file as an error")
	watch := flag.String("watch", "", "glob pattern; re-validate whenever a matching file changes")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := imagefield.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	if *required {
		cfg.Required = true
	}

	logger := cfg.NewLogger(os.Stderr)

	fs, err := imagefield.CreateDriver(cfg)
	if err != nil {
		logger.Error("cannot create storage driver", slog.String("driver", cfg.Driver), slog.Any("error", err))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		fs:     fs,
		opts:   cfg.FieldOptions(logger),
		out:    os.Stdout,
		logger: logger,
	}

	if *watch != "" {
		err = a.watch(ctx, *watch, flag.Args())
	} else {
		err = a.run(ctx, flag.Args())
	}

	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, errRejected):
		os.Exit(1)
	default:
		logger.Error("imagefield failed", slog.Any("error", err))
		os.Exit(2)
	}
}

type app struct {
	fs     imagefield.FileReader
	opts   []imagefield.FieldOption
	out    io.Writer
	logger *slog.Logger
}

// run validates every file named by paths once.
func (a *app) run(ctx context.Context, paths []string) error {
	files, err := a.expand(ctx, paths)
	if err != nil {
		return err
	}

	// With no paths the field still reports the required check.
	if len(files) == 0 {
		return a.report(ctx, "", nil)
	}

	rejected := false
	for _, p := range files {
		file, err := imagefield.NewUploadedFile(ctx, a.fs, p, "")
		if err != nil {
			return err
		}
		if err := a.report(ctx, p, file); err != nil {
			if !errors.Is(err, errRejected) {
				return err
			}
			rejected = true
		}
	}

	if rejected {
		return errRejected
	}
	return nil
}

// watch runs once, then again every time a file matching pattern changes.
func (a *app) watch(ctx context.Context, pattern string, paths []string) error {
	w, ok := a.fs.(imagefield.CanWatch)
	if !ok {
		return fmt.Errorf("storage does not support watching: %w", imagefield.ErrNotSupported)
	}

	a.rerun(ctx, paths)

	return imagefield.OnChange(ctx,
		func() (imagefield.ChangeToken, error) {
			return w.Watch(ctx, pattern)
		},
		func() {
			a.logger.Info("change detected", slog.String("pattern", pattern))
			a.rerun(ctx, paths)
		},
	)
}

func (a *app) rerun(ctx context.Context, paths []string) {
	if err := a.run(ctx, paths); err != nil && !errors.Is(err, errRejected) {
		a.logger.Warn("validation run failed", slog.Any("error", err))
	}
}

// expand replaces directories with the files below them.
func (a *app) expand(ctx context.Context, paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := a.fs.Stat(ctx, p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir {
			files = append(files, p)
			continue
		}

		entries, err := a.fs.ListContents(ctx, p, true)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir {
				files = append(files, e.Path)
			}
		}
	}
	return files, nil
}

func (a *app) report(ctx context.Context, label string, file *imagefield.UploadedFile) error {
	field := imagefield.NewImageFileField("file", a.opts...)
	field.SetUploadedFile(ctx, file)

	d := field.Descriptor()
	switch {
	case field.HasError():
		fmt.Fprintf(a.out, "%s\tREJECTED\t%s\n", label, field.ErrorMessage())
		a.logger.Debug("rejected", slog.String("path", label), slog.String("summary", field.LastResult().Summary()))
		return errRejected
	case file == nil:
		fmt.Fprintf(a.out, "%s\tEMPTY\n", label)
	default:
		fmt.Fprintf(a.out, "%s\tOK\t%s\t%dx%d\t.%s\t%s\n",
			label, d.MIMEType, d.Width, d.Height, d.DefaultFileExtension, d.Checksum)
	}
	return nil
}
