// Package cmd implements the sprof subcommands.
//
//   - [Prof] runs a script under the sampling profiler, or re-aggregates a
//     recorded sample file, and reports per-line costs.
//   - [Bench] times expressions against each other.
//   - [Clock] prints the calibration of the system clock.
//   - [Init] writes the current flag values to the configuration file.
package cmd

// ConfigIdentifier is the kong variable holding the path of the YAML
// configuration file.
const ConfigIdentifier = "config"
