package script

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/sprof/pkg"
)

// registry holds parsed programs keyed by file name and content hash.
var registry sync.Map

type entry struct {
	once sync.Once
	prog *Program
	err  error
}

// ParseReader reads a script from r and parses it. Programs are cached by
// file name and content, so repeated loads of an unchanged script share
// one [Program].
func ParseReader(
	ctx context.Context,
	file string,
	r io.Reader,
	opts ...Option,
) (*Program, error) {
	cfg := pkg.Wrap(config{}, opts...)

	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, pkg.ErrParse.Wrap(err).With(slog.String("file", file))
	}

	hash := xxh3.Hash(data)
	key := file + ":" + strconv.FormatUint(hash, 36)

	value, hit := registry.LoadOrStore(key, new(entry))
	e := value.(*entry)

	cfg.logger.TraceContext(ctx, "script cache lookup",
		slog.String("file", file),
		slog.String("hash", strconv.FormatUint(hash, 16)),
		slog.Int("bytes", len(data)),
		slog.Bool("hit", hit),
	)

	e.once.Do(func() {
		e.prog, e.err = Parse(file, data)
	})

	return e.prog, e.err
}

// ParseFile reads and parses the script at path.
func ParseFile(ctx context.Context, path string, opts ...Option) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkg.ErrSourceNotFound.Wrap(err).With(slog.String("file", path))
	}
	defer f.Close()

	return ParseReader(ctx, path, f, opts...)
}

// ClearCache drops every cached program.
func ClearCache() {
	registry.Clear()
}
