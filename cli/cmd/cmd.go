package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdout returns the writer kong was configured with, or [os.Stdout].
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// stdinSource and stdoutSink name the standard streams on the command line.
const (
	stdinSource = "-"
	stdoutSink  = "-"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// create opens path for writing, or the command's stdout for "-".
func create(ctx context.Context, path string) (io.WriteCloser, error) {
	if path == stdoutSink {
		return nopCloser{stdout(ctx)}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, ErrWriteOutput.Wrap(err).With(slog.String("file", path))
	}

	return f, nil
}

// writeFile creates path and passes it to write, reporting the first error
// of writing or closing.
func writeFile(ctx context.Context, path string, write func(io.Writer) error) (err error) {
	w, err := create(ctx, path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = ErrWriteOutput.Wrap(cerr).With(slog.String("file", path))
		}
	}()

	if err := write(w); err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("file", path))
	}

	return nil
}
