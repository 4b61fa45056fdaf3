package ext

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/runebind/runebind/internal/config"
)

func TestLoad_Minimal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runebind.yaml")
	if err := os.WriteFile(path, []byte("unsafe: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.Unsafe {
		t.Error("expected unsafe true")
	}
	if opts.Verbose || opts.GoldenMode || len(opts.Relations) != 0 {
		t.Errorf("unset fields should stay zero-valued, got %+v", opts)
	}
}

func TestLoad_Relations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runebind.yaml")
	yaml := `
golden_mode: true
relations:
  - name: ArrayList
    cascade: true
  - name: LinkedSet
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	opts, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.GoldenMode {
		t.Error("expected golden_mode true")
	}
	if len(opts.Relations) != 2 {
		t.Fatalf("expected 2 relations, got %d", len(opts.Relations))
	}
	if opts.Relations[0].Name != "ArrayList" || !opts.Relations[0].Cascade {
		t.Errorf("relations[0] = %+v", opts.Relations[0])
	}
	if opts.Relations[1].Name != "LinkedSet" || opts.Relations[1].Cascade {
		t.Errorf("relations[1] = %+v", opts.Relations[1])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runebind.yaml")
	if err := os.WriteFile(path, []byte("unsafe: [this is not a bool\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestLoad_RelationMissingName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runebind.yaml")
	yaml := `
relations:
  - cascade: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for relation entry missing a name")
	}
}

func TestOptions_ApplyPushesProcessFlags(t *testing.T) {
	origUnsafe, origTest := config.UnsafeMode, config.IsTestMode
	defer func() {
		config.UnsafeMode, config.IsTestMode = origUnsafe, origTest
	}()
	config.UnsafeMode, config.IsTestMode = false, false

	opts := &Options{Unsafe: true, GoldenMode: true}
	opts.Apply()
	if !config.UnsafeMode {
		t.Error("Apply should set config.UnsafeMode")
	}
	if !config.IsTestMode {
		t.Error("Apply should set config.IsTestMode")
	}
}

func TestOptions_ApplyNilIsNoop(t *testing.T) {
	origUnsafe := config.UnsafeMode
	defer func() { config.UnsafeMode = origUnsafe }()
	config.UnsafeMode = true

	var opts *Options
	opts.Apply()
	if !config.UnsafeMode {
		t.Error("Apply on a nil *Options must not touch process flags")
	}
}
