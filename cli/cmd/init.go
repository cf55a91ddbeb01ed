package cmd

import (
	"context"
	"encoding"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/sprof/log"
	"github.com/ardnew/sprof/pkg"
	"github.com/ardnew/sprof/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init generates a configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) error {
	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	_, err := os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	data, err := yaml.MarshalWithOptions(Settings(ktx), yaml.Indent(defaultConfigIndent))
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(confPath), pkg.DirMode); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// Settings collects the value of every configurable flag: global flags at
// the top level and command flags in a section named after the command.
// Unset and empty values are omitted, as are the flags of the running
// command itself.
func Settings(ktx *kong.Context) map[string]any {
	settings := flagValues(ktx, ktx.Model.Flags)

	for _, node := range ktx.Model.Children {
		if node.Type != kong.CommandNode || node == ktx.Selected() {
			continue
		}

		if section := flagValues(ktx, node.Flags); len(section) > 0 {
			settings[node.Name] = section
		}
	}

	return settings
}

func flagValues(ktx *kong.Context, flags []*kong.Flag) map[string]any {
	ignore := []string{"help", profile.Tag}
	values := make(map[string]any)

	for _, flag := range flags {
		if flag.Hidden || hasAnyPrefix(flag.Name, ignore) {
			continue
		}

		if v, ok := settingValue(ktx.FlagValue(flag)); ok {
			values[flag.Name] = v
		}
	}

	return values
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}

	return false
}

// settingValue converts a flag value to the form the configuration
// resolver reads back.
func settingValue(val any) (any, bool) {
	switch v := val.(type) {
	case nil:
		return nil, false

	case bool, int, int64, uint64, float64:
		return v, true

	case string:
		return v, v != ""

	case time.Duration:
		return v.String(), true

	case []string:
		return v, len(v) > 0

	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return nil, false
		}

		return string(text), len(text) > 0

	case fmt.Stringer:
		return v.String(), true

	default:
		return fmt.Sprint(v), true
	}
}
