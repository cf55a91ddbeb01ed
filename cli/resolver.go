package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve is a [kong.ConfigurationLoader] reading YAML configuration.
//
// Top-level keys set flags for every command. A key naming a command holds
// a mapping whose keys set that command's flags and take precedence:
//
//	log-level: debug
//	bench:
//	  times: 500
//	  unit: ns
//	prof:
//	  interval: 500us
//	  source-dir: [./src, ./lib]
//
// Keys may use hyphens or underscores. Command-line flags override the file.
// An empty file yields an empty configuration.
func resolve(r io.Reader) (kong.Resolver, error) {
	values := make(config)

	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return values, nil
}

// config implements [kong.Resolver] over a decoded YAML mapping.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
	if parent != nil && parent.Command != nil {
		if section, ok := c.lookup(parent.Command.Name).(map[string]any); ok {
			if v, ok := config(section).value(flag.Name); ok {
				return v, nil
			}
		}
	}

	if v, ok := c.value(flag.Name); ok {
		return v, nil
	}

	return nil, nil
}

func (c config) lookup(name string) any {
	if v, ok := c[name]; ok {
		return v
	}

	return c[strings.ReplaceAll(name, "-", "_")]
}

// value returns the flag value for name in the form kong expects: scalars
// as strings and sequences joined with commas.
func (c config) value(name string) (any, bool) {
	v := c.lookup(name)

	switch v := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return nil, false
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = scalar(item)
		}

		return strings.Join(items, ","), true
	case bool:
		return v, true
	default:
		return scalar(v), true
	}
}

func scalar(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
