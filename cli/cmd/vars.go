package cmd

import (
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/sprof/export"
	"github.com/ardnew/sprof/sampler"
	"github.com/ardnew/sprof/script"
	"github.com/ardnew/sprof/stats"
)

// Vars returns the kong variables interpolated into command tags. config
// is the path of the YAML configuration file.
func Vars(config string) kong.Vars {
	return kong.Vars{
		ConfigIdentifier: config,
		"maxDepth":       strconv.Itoa(script.DefaultMaxDepth),
		"maxSamples":     strconv.Itoa(sampler.DefaultMaxSamples),
		"units":          strings.Join(stats.Units(), ","),
		"formats":        strings.Join(export.Formats(), ","),
	}
}
