package pkg

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "sprof" {
		t.Errorf("expected Name to be %q, got %q", "sprof", Name)
	}
}

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Fatal("expected embedded version")
	}

	if strings.ContainsAny(Version, " \n\t") {
		t.Errorf("version not trimmed: %q", Version)
	}
}

func TestError_IsMatchesDerived(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
	}{
		{"sentinel", ErrConfiguration},
		{"wrapped", ErrConfiguration.Wrap(cause)},
		{"with attrs", ErrConfiguration.With(slog.Int("times", 0))},
		{"fmt wrapped", fmt.Errorf("outer: %w", ErrConfiguration.Wrap(cause))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, ErrConfiguration) {
				t.Errorf("expected errors.Is(%v, ErrConfiguration)", tt.err)
			}

			if errors.Is(tt.err, ErrEvaluation) {
				t.Errorf("unexpected match with ErrEvaluation: %v", tt.err)
			}
		})
	}
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := ErrEvaluation.Wrap(cause).With(slog.String("label", "x"))

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}

	if got := err.Error(); got != "evaluation failed: boom" {
		t.Errorf("unexpected message %q", got)
	}

	if n := len(err.Attrs()); n != 1 {
		t.Errorf("expected 1 attr, got %d", n)
	}

	if n := len(ErrEvaluation.Attrs()); n != 0 {
		t.Errorf("sentinel mutated: %d attrs", n)
	}
}

func TestWrapError_PassThrough(t *testing.T) {
	e := ErrParse.With(slog.Int("line", 3))
	if WrapError(fmt.Errorf("ctx: %w", e)) != e {
		t.Error("expected existing *Error to be returned")
	}

	plain := WrapError(errors.New("plain"))
	if plain.Error() != "plain" {
		t.Errorf("unexpected message %q", plain.Error())
	}
}

func TestMakeWrap(t *testing.T) {
	type cfg struct{ a, b int }

	withA := func(v int) Option[cfg] { return func(c cfg) cfg { c.a = v; return c } }
	withB := func(v int) Option[cfg] { return func(c cfg) cfg { c.b = v; return c } }

	c := Make(withA(1), nil, withB(2))
	if c.a != 1 || c.b != 2 {
		t.Errorf("unexpected %+v", c)
	}

	c = Wrap(c, withA(5))
	if c.a != 5 || c.b != 2 {
		t.Errorf("unexpected %+v", c)
	}
}

func TestConfigPath(t *testing.T) {
	got := ConfigPath("config.yaml")
	if filepath.Base(got) != "config.yaml" {
		t.Errorf("unexpected path %q", got)
	}

	if filepath.Dir(got) != ConfigDir() {
		t.Errorf("expected parent %q, got %q", ConfigDir(), filepath.Dir(got))
	}
}
