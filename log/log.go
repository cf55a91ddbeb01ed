package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/ardnew/sprof/pkg"
)

// Logger is an immutable structured logger. Copies are safe to share between
// goroutines; the zero value discards all records.
type Logger struct {
	logger *slog.Logger
	attrs  []slog.Attr
	config
}

// Make returns a Logger writing to w, configured by opts over the defaults
// ([DefaultLevel], [DefaultFormat], [DefaultTimeLayout], no caller, no
// colors).
func Make(w io.Writer, opts ...Option) Logger {
	cfg := pkg.Wrap(defaultConfig(w), opts...)

	return Logger{
		logger: slog.New(cfg.handler()),
		config: cfg,
	}
}

// Wrap returns a copy of l reconfigured by opts. Attributes added with
// [Logger.With] are kept.
func (l Logger) Wrap(opts ...Option) Logger {
	cfg := l.config
	if cfg.output == nil {
		cfg = defaultConfig(nil)
	}

	cfg = pkg.Wrap(cfg, opts...)

	return Logger{
		logger: slog.New(cfg.handler().WithAttrs(l.attrs)),
		attrs:  l.attrs,
		config: cfg,
	}
}

// With returns a copy of l that adds attrs to every record.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.logger == nil {
		return l
	}

	merged := make([]slog.Attr, 0, len(l.attrs)+len(attrs))
	merged = append(merged, l.attrs...)
	merged = append(merged, attrs...)

	return Logger{
		logger: slog.New(l.config.handler().WithAttrs(merged)),
		attrs:  merged,
		config: l.config,
	}
}

// Level returns the minimum level of l.
func (l Logger) Level() Level {
	if l.logger == nil {
		return DefaultLevel
	}

	return l.level
}

// Format returns the output format of l.
func (l Logger) Format() Format {
	if l.logger == nil {
		return DefaultFormat
	}

	return l.format
}

// Enabled reports whether a record at level would be written.
func (l Logger) Enabled(ctx context.Context, level Level) bool {
	return l.logger != nil && l.logger.Enabled(ctx, slog.Level(level))
}

// Handler returns the underlying slog handler, or a discarding handler for the
// zero Logger.
func (l Logger) Handler() slog.Handler {
	if l.logger == nil {
		return slog.DiscardHandler
	}

	return l.logger.Handler()
}

func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelTrace, msg, attrs)
}

func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelDebug, msg, attrs)
}

func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelInfo, msg, attrs)
}

func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelWarn, msg, attrs)
}

func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelError, msg, attrs)
}

func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelTrace, msg, attrs)
}

func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelDebug, msg, attrs)
}

func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelInfo, msg, attrs)
}

func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelWarn, msg, attrs)
}

func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelError, msg, attrs)
}

// callerSkip is the number of frames between runtime.Callers and the user's
// call site: Callers, log, and the exported method or function.
const callerSkip = 3

func (l Logger) log(ctx context.Context, level Level, msg string, attrs []slog.Attr) {
	l.logDepth(ctx, 1, level, msg, attrs)
}

func (l Logger) logDepth(
	ctx context.Context,
	depth int,
	level Level,
	msg string,
	attrs []slog.Attr,
) {
	if !l.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr

	runtime.Callers(callerSkip+depth, pcs[:])

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pcs[0])
	r.AddAttrs(attrs...)
	_ = l.logger.Handler().Handle(ctx, r)
}
