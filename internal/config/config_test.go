package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeOverlaysDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader("prompt: \"lox> \"\nmax_call_depth: 64\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	want.Prompt = "lox> "
	want.MaxCallDepth = 64
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEmptyDocument(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("empty document should yield defaults (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsUnknownKey(t *testing.T) {
	_, err := Decode(strings.NewReader("max_depth: 10\n"))
	if err == nil || !strings.Contains(err.Error(), "max_depth") {
		t.Fatalf("expected unknown-field error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	_, err := Decode(strings.NewReader("max_call_depth: 0\nprompt: \"a\\nb\"\n"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if len(verr.Issues) != 2 {
		t.Errorf("expected 2 issues, got %v", verr.Issues)
	}
	if !strings.HasPrefix(err.Error(), "config validation failed:") {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestValidateCallDepthCeiling(t *testing.T) {
	_, err := Decode(strings.NewReader("max_call_depth: 100000000\n"))
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) != 1 {
		t.Fatalf("expected one validation issue, got %v", err)
	}
	if !strings.Contains(verr.Issues[0], "must be at most") {
		t.Errorf("unexpected issue: %s", verr.Issues[0])
	}
	if _, err := Decode(strings.NewReader("max_call_depth: 20000\n")); err != nil {
		t.Errorf("the ceiling itself is valid, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("color: false\nhistory_file: /tmp/h\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Color || cfg.HistoryFile != "/tmp/h" || cfg.MaxCallDepth != 1000 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}

	cfg, err = Load("")
	if err != nil || cfg != Default() {
		t.Errorf("empty path should yield defaults, got %+v, %v", cfg, err)
	}
}

func TestDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if got := DefaultPath(); got != "" {
		t.Errorf("expected no default path, got %q", got)
	}
	path := filepath.Join(home, FileName)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := DefaultPath(); got != path {
		t.Errorf("got %q, want %q", got, path)
	}
}
