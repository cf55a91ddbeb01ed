package cli

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-json"

	"github.com/ardnew/sprof/cli/cmd"
	"github.com/ardnew/sprof/pkg"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "sprof-cli")
	if err != nil {
		panic(err)
	}

	os.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	os.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	code := m.Run()

	os.RemoveAll(dir)
	os.Exit(code)
}

const work = `def main():
    sleep(40)
    return spin(1000)

def work(n):
    return spin(n)
`

func writeScript(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "work.sp")
	if err := os.WriteFile(path, []byte(work), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	err := run(t.Context(), func(code int) {
		t.Fatalf("unexpected exit(%d)", code)
	}, []kong.Option{kong.Writers(&out, &out)}, args...)

	return out.String(), err
}

func TestRun_Clock(t *testing.T) {
	out, err := runCLI(t, "clock", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}

	var cal struct {
		Resolution int64 `json:"resolution"`
		Overhead   int64 `json:"overhead"`
	}

	if err := json.Unmarshal([]byte(out), &cal); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}

	if cal.Resolution <= 0 {
		t.Errorf("resolution = %d", cal.Resolution)
	}
}

func TestRun_BenchRaw(t *testing.T) {
	path := writeScript(t)

	out, err := runCLI(t, "bench", "-f", path, "work(10)", "work(100)",
		"--times", "4", "--seed", "7", "--raw", "--format", "csv")
	if err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 1+2*4 {
		t.Fatalf("got %d rows, want 9", len(rows))
	}

	if rows[1][0] != "work(10)" || rows[len(rows)-1][0] != "work(100)" {
		t.Errorf("labels not sorted: %v ... %v", rows[1], rows[len(rows)-1])
	}
}

func TestRun_BenchSummary(t *testing.T) {
	out, err := runCLI(t, "bench", "1 + 1", "spin(100)", "--times", "5", "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"1 + 1", "label: spin(100)", "count: 5", "unit: us"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_BenchErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"undefined", []string{"bench", "nosuch(1)"}, pkg.ErrUndefined},
		{"times", []string{"bench", "1", "--times", "0"}, pkg.ErrConfiguration},
		{"raw table", []string{"bench", "1", "--raw"}, pkg.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRun_Prof(t *testing.T) {
	path := writeScript(t)
	dir := t.TempDir()
	samples := filepath.Join(dir, "samples.yaml")
	pprof := filepath.Join(dir, "cpu.pb.gz")

	out, err := runCLI(t, "prof", path, "--interval", "1ms",
		"--out-samples", samples, "--out-pprof", pprof)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"main", "work.sp:2", "sleep(40)"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	for _, f := range []string{samples, pprof} {
		if info, err := os.Stat(f); err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", f, err)
		}
	}

	// The recorded samples re-aggregate without the script; source text
	// is still found on disk.
	out, err = runCLI(t, "prof", "--from", samples, "--func", "main", "--top", "1")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, "work.sp:2") || !strings.Contains(out, "sleep(40)") {
		t.Errorf("re-aggregated report:\n%s", out)
	}
}

func TestRun_ProfOutYamlAlias(t *testing.T) {
	path := writeScript(t)
	samples := filepath.Join(t.TempDir(), "s.yml")

	if _, err := runCLI(t, "prof", path, "--out-yaml", samples); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(samples)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Contains(data, []byte("interval:")) {
		t.Errorf("sample file:\n%s", data)
	}
}

func TestRun_ProfErrors(t *testing.T) {
	path := writeScript(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no input", []string{"prof"}, pkg.ErrConfiguration},
		{"both inputs", []string{"prof", path, "--from", path}, pkg.ErrConfiguration},
		{"interval", []string{"prof", path, "--interval", "0s"}, pkg.ErrConfiguration},
		{"entry", []string{"prof", path, "--entry", "nosuch"}, pkg.ErrUndefined},
		{"arity", []string{"prof", path, "--entry", "work"}, pkg.ErrArity},
		{"func", []string{"prof", path, "--func", "zzz"}, pkg.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRun_ProfArgs(t *testing.T) {
	path := writeScript(t)

	out, err := runCLI(t, "prof", path, "--entry", "work", "--args", "200000")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, "samples") {
		t.Errorf("report:\n%s", out)
	}
}

func TestRun_Init(t *testing.T) {
	conf := pkg.ConfigPath(baseConfig + ".yaml")
	t.Cleanup(func() { os.Remove(conf) })

	if _, err := runCLI(t, "init", "--force"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(conf)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"log-level: info", "bench:", "times: 100", "interval: 1ms"} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("config missing %q:\n%s", want, data)
		}
	}

	if _, err := runCLI(t, "init"); !errors.Is(err, cmd.ErrFileExists) {
		t.Errorf("second init: err = %v", err)
	}

	// Values in the file become flag defaults.
	if err := os.WriteFile(conf, []byte("bench:\n  times: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "bench", "1", "--raw", "--format", "csv")
	if err != nil {
		t.Fatal(err)
	}

	if n := strings.Count(strings.TrimSpace(out), "\n"); n != 3 {
		t.Errorf("got %d measurements, want 3:\n%s", n, out)
	}
}
