//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the sprof module embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the canonical command and module identifier used in help text,
	// default config paths, and environment variable prefixes.
	Name = "sprof"
	// Description is a short, human-readable summary of the project used in
	// help output.
	Description = "Sampling line profiler and microbenchmark harness"
)
