// Package log is a concurrency-safe structured logger built on [log/slog].
//
// Loggers are configured once with functional options and then passed by
// value. The zero [Logger] discards everything, so library types can hold one
// without checking for nil.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText))
//	logger.Info("sampler started", slog.Duration("interval", iv))
//
// A package-level default logger backs the free functions ([Info], [Debug],
// ...). The CLI reconfigures it with [Config] while parsing flags.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is used for per-tick sampler
// events; everything else maps directly onto slog levels.
//
// # Formats
//
// [FormatJSON] (default) and [FormatText]. With [WithPretty] enabled, text
// output is colorized for terminals.
package log
