package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
)

const (
	ansiReset   = "\033[0m"
	ansiGray    = "\033[90m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
)

// prettyHandler writes colorized key=value records for terminals.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	prefix string
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	emit := func(a slog.Attr) {
		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Key != "" {
			h.writeAttr(&buf, a)
		}
	}

	if !r.Time.IsZero() {
		emit(slog.Time(slog.TimeKey, r.Time))
	}

	emit(slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			emit(slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	emit(slog.String(slog.MessageKey, r.Message))

	for _, a := range h.attrs {
		emit(a)
	}

	r.Attrs(func(a slog.Attr) bool {
		a.Key = h.prefix + a.Key
		emit(a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)

	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, a slog.Attr) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(ansiGray + a.Key + ansiReset + "=")

	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		buf.WriteByte('{')

		for i, g := range v.Group() {
			if i > 0 {
				buf.WriteByte(' ')
			}

			buf.WriteString(g.Key + "=" + g.Value.String())
		}

		buf.WriteByte('}')

		return
	}

	color, text := colorize(v)
	buf.WriteString(color + text + ansiReset)
}

func colorize(v slog.Value) (color, text string) {
	switch v.Kind() {
	case slog.KindInt64:
		return ansiYellow, strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return ansiYellow, strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return ansiYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		if v.Bool() {
			return ansiGreen, "true"
		}

		return ansiRed, "false"
	case slog.KindDuration:
		return ansiMagenta, v.Duration().String()
	case slog.KindTime:
		return ansiBlue, v.Time().String()
	case slog.KindAny:
		if level, ok := v.Any().(slog.Level); ok {
			return levelColor(level), level.String()
		}
	}

	return ansiCyan, v.String()
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiGreen
	default:
		return ansiBlue
	}
}
