package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestReport(t *testing.T) *Report {
	t.Helper()
	r, err := (&ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return r
}

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReportClose_RemovesCopies(t *testing.T) {
	r := newTestReport(t)

	src := filepath.Join(t.TempDir(), "input.html")
	if err := os.WriteFile(src, []byte("<p>one</p>"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if err := r.StoreCopy("input", src); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	if len(r.temps) != 1 {
		t.Fatalf("expected one temporary copy, got %d", len(r.temps))
	}
	tmp := r.temps[0]

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		os.RemoveAll(tmp)
		t.Errorf("expected temporary copy to be removed")
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("stored file should not be removed: %v", err)
	}
}

func TestReport_Archive(t *testing.T) {
	r := newTestReport(t)

	src := filepath.Join(t.TempDir(), "input.html")
	if err := os.WriteFile(src, []byte("<p>one</p>"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	r.Store("source", src)
	r.StoreData("config.yaml", []byte("version: 1\n"))
	if err := r.StoreCopy("copy", src); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	// file changes after the copy was taken
	if err := os.WriteFile(src, []byte("<p>two</p>"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if err := r.StoreCopy("copy", src); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	r.Store("missing", filepath.Join(t.TempDir(), "absent"))

	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, name)
	if got := files["source"]; got != "<p>two</p>" {
		t.Errorf("source = %q", got)
	}
	if got := files["config.yaml"]; got != "version: 1\n" {
		t.Errorf("config.yaml = %q", got)
	}
	if got := files["copy"]; got != "<p>one</p>" {
		t.Errorf("copy = %q", got)
	}
	var versioned int
	for n, data := range files {
		if strings.HasPrefix(n, "copy-") {
			versioned++
			if data != "<p>two</p>" {
				t.Errorf("%s = %q", n, data)
			}
		}
	}
	if versioned != 1 {
		t.Errorf("expected one versioned copy, got %d", versioned)
	}
	if _, ok := files["missing"]; ok {
		t.Error("absent file should be skipped")
	}
	manifest := files["MANIFEST"]
	for _, n := range []string{"source", "config.yaml", "copy", "missing"} {
		if !strings.Contains(manifest, "\t"+n+"\t") {
			t.Errorf("MANIFEST does not mention %s:\n%s", n, manifest)
		}
	}
}

func TestReport_OverwritePanics(t *testing.T) {
	r := newTestReport(t)
	defer r.Close()

	r.StoreData("data", []byte("x"))
	defer func() {
		if recover() == nil {
			t.Error("expected panic on overwrite")
		}
	}()
	r.StoreData("data", []byte("y"))
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Errorf("nil report should have no name")
	}
	r.Store("x", "y")
	if err := r.StoreCopy("x", "y"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
