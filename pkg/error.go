package pkg

import (
	"errors"
	"log/slog"
	"strings"
)

// Sentinel errors shared by all sprof packages.
// Derived errors created with [Error.Wrap] and [Error.With] still match their
// sentinel with [errors.Is].
var (
	// ErrConfiguration reports an invalid caller-supplied parameter. It is
	// always returned before any measurement begins.
	ErrConfiguration = NewError("invalid configuration")

	// ErrEvaluation reports that a benchmarked or profiled expression failed.
	ErrEvaluation = NewError("evaluation failed")

	// ErrInsufficientData reports a summary requested over an empty result.
	ErrInsufficientData = NewError("insufficient data")

	ErrCapture        = NewError("sample capture failed")
	ErrNotStarted     = NewError("sampler not started")
	ErrAlreadyStarted = NewError("sampler already started")
	ErrAlreadyStopped = NewError("sampler already stopped")

	// ErrResourceLeak indicates a programming defect: sampler state survived
	// a call to Stop.
	ErrResourceLeak = NewError("sampler resources not released")

	ErrSourceNotFound = NewError("source file not found")
	ErrParse          = NewError("parse error")
	ErrUndefined      = NewError("undefined function")
	ErrArity          = NewError("argument count mismatch")
	ErrExport         = NewError("export failed")
)

// Error is an error with optional structured logging attributes.
// It implements both error and [slog.LogValuer].
type Error struct {
	kind  *Error
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError returns a new sentinel Error with the given message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

// WrapError converts err into an *Error. If err already is (or wraps) an
// *Error, that value is returned unchanged.
func WrapError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{err: err}
}

// Error implements the error interface as "<msg>: <cause>".
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e.kind == nil {
		return false
	}

	return e.kind == t.kind
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns a copy of the structured attributes attached to e.
func (e *Error) Attrs() []slog.Attr {
	return append([]slog.Attr(nil), e.attrs...)
}

// Wrap returns a copy of e with err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		kind:  e.kind,
		msg:   e.msg,
		err:   err,
		attrs: e.attrs,
	}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	merged = append(merged, e.attrs...)
	merged = append(merged, attrs...)

	return &Error{
		kind:  e.kind,
		msg:   e.msg,
		err:   e.err,
		attrs: merged,
	}
}
