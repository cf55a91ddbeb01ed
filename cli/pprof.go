package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/sprof/log"
	"github.com/ardnew/sprof/pkg"
	"github.com/ardnew/sprof/profile"
)

// pprofConfig controls self-profiling of sprof. Modes are only available
// in builds with the pprof tag; otherwise the only accepted mode is "".
type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModeEnum}" help:"Enable self-profiling (build tag pprof)" placeholder:"${enum}"`
	Dir  string `default:"${pprofDir}"                          help:"Self-profile output directory"                                type:"path"`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"pprofModeEnum": strings.Join(profile.Modes(), ","),
		"pprofDir":      filepath.Join(pkg.CacheDir(), profile.Tag),
	}
}

func (pprofConfig) group() kong.Group {
	return kong.Group{Key: "pprof", Title: "Self-profiling (pprof)"}
}

// start starts self-profiling if a mode was selected.
func (f pprofConfig) start(ctx context.Context) (stop func()) {
	if f.Mode == "" {
		return func() {}
	}

	log.DebugContext(ctx, "pprof start",
		slog.String("mode", f.Mode),
		slog.String("dir", f.Dir),
	)

	p := profile.New(
		profile.WithMode(f.Mode),
		profile.WithPath(f.Dir),
		profile.WithQuiet(true),
	).Start()

	return func() {
		p.Stop()

		log.DebugContext(ctx, "pprof stop",
			slog.String("mode", f.Mode),
			slog.String("dir", f.Dir),
		)
	}
}
