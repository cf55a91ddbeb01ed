package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/sprof/cli/cmd"
	"github.com/ardnew/sprof/pkg"
)

// baseConfig is the file name, without extension, of the configuration
// files read from [pkg.ConfigDir].
const baseConfig = "config"

// CLI is the top-level command-line interface for sprof.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Prof  cmd.Prof  `cmd:"" help:"Profile a script line by line"`
	Bench cmd.Bench `cmd:"" help:"Time expressions against each other"`
	Clock cmd.Clock `cmd:"" help:"Print the calibration of the system clock"`
	Init  cmd.Init  `cmd:"" help:"Initialize configuration file"`
}

// Run executes the sprof CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	return run(ctx, exit, nil, args...)
}

func run(
	ctx context.Context,
	exit func(code int),
	opts []kong.Option,
	args ...string,
) error {
	var cli CLI

	if err := pkg.MkdirAll(); err != nil {
		return err
	}

	configPath := pkg.ConfigPath(baseConfig + ".yaml")

	vars := cmd.Vars(configPath).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logging flags are applied before kong runs so that parse errors
	// already honor them, wherever they appear in args.
	cli.Log.scan(args)

	parser, err := kong.New(&cli, append([]kong.Option{
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, pkg.ConfigPath(baseConfig+".json")),
		kong.Configuration(resolve, configPath),
		vars,
	}, opts...)...)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	cli.Log.start(ctx)

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
