package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[heap]
gc-threshold = 128

[log]
verbosity = 2
file = "ephemeron.log"

[output]
snapshot = "heap.cbor"
journal = "gc.db"

[workload]
collections = 8
elements = 32
retain-every = 2
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Heap.GCThreshold != 128 {
		t.Errorf("gc-threshold = %d, want 128", c.Heap.GCThreshold)
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", c.Log.Verbosity)
	}
	if c.Log.File != "ephemeron.log" {
		t.Errorf("log file = %q, want ephemeron.log", c.Log.File)
	}
	if c.Output.Snapshot != "heap.cbor" || c.Output.Journal != "gc.db" {
		t.Errorf("output = %+v", c.Output)
	}
	if c.Workload.Collections != 8 || c.Workload.Elements != 32 || c.Workload.RetainEvery != 2 {
		t.Errorf("workload = %+v", c.Workload)
	}
	if got, want := c.Resolve("gc.db"), filepath.Join(c.Dir, "gc.db"); got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[heap]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	d := Default()
	if c.Workload != d.Workload {
		t.Errorf("workload = %+v, want defaults %+v", c.Workload, d.Workload)
	}
	if c.Heap.GCThreshold != 0 {
		t.Errorf("gc-threshold = %d, want 0", c.Heap.GCThreshold)
	}
}

func TestLoadConfigParseError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[heap\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("[workload]\nelements = 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(sub)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if c.Workload.Elements != 5 {
		t.Errorf("elements = %d, want 5", c.Workload.Elements)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	c, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c != nil {
		t.Error("expected nil config when no file exists")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for a directory without ephemeron.toml")
	}
}
