package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xirelogy/go-jazz/internal/gc"
	"github.com/xirelogy/go-jazz/internal/vm"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[runtime]
stack-size = 512
instruction-limit = 100000

[gc]
speed = 4

[log]
verbosity = 2
file = "jazz.log"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := vm.Config{
		StackSize:        512,
		InstructionLimit: 100000,
		GC:               gc.Config{Speed: 4, Pause: gc.DefaultPause, MinThreshold: gc.DefaultMinThreshold},
	}
	if diff := cmp.Diff(want, c.VM()); diff != "" {
		t.Errorf("vm config mismatch (-want +got):\n%s", diff)
	}
	if c.Log.Verbosity != 2 || c.Log.File != "jazz.log" {
		t.Errorf("log = %+v", c.Log)
	}
	if c.Path != path {
		t.Errorf("path = %q, want %q", c.Path, path)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"small stack", "[runtime]\nstack-size = 4\n"},
		{"negative limit", "[runtime]\ninstruction-limit = -1\n"},
		{"zero speed", "[gc]\nspeed = 0\n"},
		{"low pause", "[gc]\npause = 50\n"},
		{"unknown key", "[gc]\nturbo = true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			if _, err := Load(path); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}

	path := writeConfig(t, t.TempDir(), "[runtime\n")
	if _, err := Load(path); err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("expected a parse error, got %v", err)
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[runtime]\nstack-size = 128\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c.Runtime.StackSize != 128 {
		t.Errorf("stack size = %d, want 128", c.Runtime.StackSize)
	}
}

func TestDefaults(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if c.Path != "" || c.Runtime.StackSize != vm.DefaultStackSize {
		t.Errorf("unexpected defaults %+v", c)
	}
}
