// Package export writes samples, line profiles, and benchmark results in
// interchange formats, and reads recorded samples back for offline
// aggregation.
//
// Structured documents are YAML or JSON. Tabular data is CSV. Samples may
// also be written as a gzipped pprof protocol buffer readable by
// "go tool pprof".
package export

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/sprof/pkg"
)

// Format selects an output encoding.
type Format uint8

const (
	YAML Format = iota
	JSON
	CSV
	Pprof
)

var formatNames = [...]string{
	YAML:  "yaml",
	JSON:  "json",
	CSV:   "csv",
	Pprof: "pprof",
}

// Formats returns the names accepted by [ParseFormat].
func Formats() []string { return formatNames[:] }

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}

	return fmt.Sprintf("format(%d)", f)
}

// ParseFormat returns the format named s. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "yml" {
		return YAML, nil
	}

	for f, name := range formatNames {
		if s == name {
			return Format(f), nil
		}
	}

	return 0, pkg.ErrConfiguration.
		Wrap(fmt.Errorf("unknown format %q (want one of %s)", s, strings.Join(Formats(), ", "))).
		With(slog.String("format", s))
}

// MarshalText implements [encoding.TextMarshaler].
func (f Format) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *Format) UnmarshalText(text []byte) error {
	v, err := ParseFormat(string(text))
	if err != nil {
		return err
	}

	*f = v

	return nil
}

// FormatOf infers the format from the extension of path.
func FormatOf(path string) (Format, error) {
	lower := strings.ToLower(path)

	switch {
	case strings.HasSuffix(lower, ".pb.gz"), strings.HasSuffix(lower, ".pprof"):
		return Pprof, nil
	}

	ext := strings.TrimPrefix(filepath.Ext(lower), ".")
	if ext == "" {
		return 0, pkg.ErrConfiguration.
			Wrap(fmt.Errorf("cannot infer format of %q", path)).
			With(slog.String("path", path))
	}

	return ParseFormat(ext)
}

// Encode writes v as a YAML or JSON document.
func Encode(w io.Writer, f Format, v any) error {
	var err error

	switch f {
	case YAML:
		err = yaml.NewEncoder(w, yaml.Indent(2)).Encode(v)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	default:
		return unsupported(f, "document")
	}

	if err != nil {
		return pkg.ErrExport.Wrap(err).With(slog.String("format", f.String()))
	}

	return nil
}

// Decode reads one YAML or JSON document from r into v.
func Decode(r io.Reader, f Format, v any) error {
	var err error

	switch f {
	case YAML:
		err = yaml.NewDecoder(r).Decode(v)
	case JSON:
		err = json.NewDecoder(r).Decode(v)
	default:
		return unsupported(f, "document")
	}

	if err != nil {
		return pkg.ErrExport.Wrap(err).With(slog.String("format", f.String()))
	}

	return nil
}

func unsupported(f Format, what string) error {
	return pkg.ErrExport.
		Wrap(fmt.Errorf("%s cannot be written as %s", what, f)).
		With(slog.String("format", f.String()))
}
