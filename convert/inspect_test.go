package convert

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	yaml "gopkg.in/yaml.v3"
)

// runCommand executes action the way application does for a subcommand and
// returns whatever it printed.
func runCommand(t *testing.T, ctx context.Context, action cli.ActionFunc, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	cmd := &cli.Command{
		Name:   "inspect",
		Writer: out,
		Action: action,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "start"},
			&cli.IntFlag{Name: "end"},
			&cli.StringSliceFlag{Name: "toggle"},
			&cli.StringFlag{Name: "input-cp"},
		},
	}
	err := cmd.Run(ctx, append([]string{"inspect"}, args...))
	return out.String(), err
}

func inspect(t *testing.T, ctx context.Context, args ...string) inspectReport {
	t.Helper()
	out, err := runCommand(t, ctx, Inspect, args...)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	var r inspectReport
	if err := yaml.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("unable to unmarshal report: %v\n%s", err, out)
	}
	return r
}

func TestDump(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "page.html")
	writeFile(t, src, sampleMarkup)

	out, err := runCommand(t, ctx, Dump, src)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	doc := parseDoc(t, sampleMarkup)
	if out != doc.String() {
		t.Errorf("Dump() = %q, want %q", out, doc.String())
	}
}

func TestDump_Errors(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	if _, err := runCommand(t, ctx, Dump); err == nil || !strings.Contains(err.Error(), "no input source") {
		t.Errorf("Expected missing source error, got %v", err)
	}
	if _, err := runCommand(t, ctx, Dump, filepath.Join(t.TempDir(), "absent.html")); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestInspect_Selection(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "page.html")
	writeFile(t, src, `<p style="text-align: center">Hello <b>world</b></p>`)

	r := inspect(t, ctx, "--start", "6", "--end", "11", src)
	if r.Selection != (rangeReport{6, 11}) {
		t.Errorf("selection = %+v, want 6..11", r.Selection)
	}
	if !slices.Contains(r.Active, "bold") {
		t.Errorf("active = %v, want bold", r.Active)
	}
	if slices.Contains(r.Active, "italic") {
		t.Errorf("active = %v, italic is not applied", r.Active)
	}
	if r.Markup != "" {
		t.Errorf("markup is reported without toggles: %q", r.Markup)
	}
}

func TestInspect_Caret(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "page.html")
	writeFile(t, src, "<h1>Title</h1><p>text</p>")

	r := inspect(t, ctx, "--start", "2", src)
	if r.Selection != (rangeReport{2, 2}) {
		t.Errorf("selection = %+v, want caret at 2", r.Selection)
	}
	if !slices.Contains(r.Active, "h1") {
		t.Errorf("active = %v, want h1", r.Active)
	}
	if r.Alignment != "default" {
		t.Errorf("alignment = %q, want default", r.Alignment)
	}
}

func TestInspect_Toggle(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "page.html")
	writeFile(t, src, "<p>Hello world</p>")

	r := inspect(t, ctx, "--start", "0", "--end", "5", "--toggle", "italic", "--toggle", "bold", src)
	for _, want := range []string{"bold", "italic"} {
		if !slices.Contains(r.Active, want) {
			t.Errorf("active = %v, want %s", r.Active, want)
		}
	}
	if !strings.Contains(r.Markup, "Hello") || !strings.Contains(r.Markup, "<i>") || !strings.Contains(r.Markup, "<b>") {
		t.Errorf("markup = %q, want styled text", r.Markup)
	}
}

func TestInspect_UnknownStyle(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "page.html")
	writeFile(t, src, "<p>Hello</p>")

	_, err := runCommand(t, ctx, Inspect, "--toggle", "sparkle", src)
	if err == nil || !strings.Contains(err.Error(), "sparkle") {
		t.Errorf("Expected unknown style error, got %v", err)
	}
}
