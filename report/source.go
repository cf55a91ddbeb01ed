package report

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ardnew/mung"

	"github.com/ardnew/sprof/pkg"
)

// PathEnv names the environment variable holding extra source directories,
// separated by [os.PathListSeparator].
const PathEnv = "SPROF_PATH"

// Loader maps a file name to its source lines. It returns an error
// matching [pkg.ErrSourceNotFound] when the file cannot be located.
type Loader interface {
	Load(file string) ([]string, error)
}

// SearchPath returns the directories searched for relative source files:
// dirs first, then the entries of $SPROF_PATH, joined like PATH.
func SearchPath(dirs ...string) string {
	return mung.Make(
		mung.WithSubjectItems(filepath.SplitList(os.Getenv(PathEnv))...),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(dirs...),
	).String()
}

// FileLoader loads source files from disk. Absolute names are read as is;
// relative names are tried against each search directory in order and
// finally against the working directory. Loaded files are cached.
type FileLoader struct {
	fsys fs.FS
	dirs []string

	mu    sync.Mutex
	cache map[string][]string
}

// NewFileLoader returns a loader searching [SearchPath] of dirs.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{
		dirs:  filepath.SplitList(SearchPath(dirs...)),
		cache: make(map[string][]string),
	}
}

// NewFSLoader returns a loader reading from fsys only.
func NewFSLoader(fsys fs.FS) *FileLoader {
	return &FileLoader{fsys: fsys, cache: make(map[string][]string)}
}

// Load implements [Loader].
func (l *FileLoader) Load(file string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lines, ok := l.cache[file]; ok {
		return lines, nil
	}

	data, err := l.read(file)
	if err != nil {
		return nil, err
	}

	lines := splitLines(data)
	l.cache[file] = lines

	return lines, nil
}

func (l *FileLoader) read(file string) ([]byte, error) {
	notFound := pkg.ErrSourceNotFound.With(slog.String("file", file))

	if l.fsys != nil {
		data, err := fs.ReadFile(l.fsys, filepath.ToSlash(file))
		if err != nil {
			return nil, notFound.Wrap(err)
		}

		return data, nil
	}

	candidates := []string{file}
	if !filepath.IsAbs(file) {
		candidates = candidates[:0]
		for _, dir := range l.dirs {
			if dir != "" {
				candidates = append(candidates, filepath.Join(dir, file))
			}
		}

		candidates = append(candidates, file)
	}

	var last error

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}

		if !errors.Is(err, fs.ErrNotExist) {
			return nil, notFound.Wrap(err)
		}

		last = err
	}

	return nil, notFound.Wrap(last)
}

func splitLines(data []byte) []string {
	var lines []string

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for sc.Scan() {
		lines = append(lines, sc.Text())
	}

	return lines
}

// MapLoader serves sources held in memory, keyed by file name.
type MapLoader map[string][]string

// Load implements [Loader].
func (m MapLoader) Load(file string) ([]string, error) {
	lines, ok := m[file]
	if !ok {
		return nil, pkg.ErrSourceNotFound.With(slog.String("file", file))
	}

	return lines, nil
}

// Chain tries each loader in order and returns the first file found.
type Chain []Loader

// Load implements [Loader].
func (c Chain) Load(file string) ([]string, error) {
	var last error = pkg.ErrSourceNotFound.With(slog.String("file", file))

	for _, l := range c {
		lines, err := l.Load(file)
		if err == nil {
			return lines, nil
		}

		if !errors.Is(err, pkg.ErrSourceNotFound) {
			return nil, err
		}

		last = err
	}

	return nil, last
}
