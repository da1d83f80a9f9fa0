// Package config loads interpreter and REPL settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"lox-lang/internal/runtime"
)

// FileName is the per-user config file looked up in the home directory.
const FileName = ".loxrc.yaml"

// Config holds the settings shared by the CLI and the interpreter.
type Config struct {
	Prompt       string `yaml:"prompt"`
	HistoryFile  string `yaml:"history_file"`
	MaxCallDepth int    `yaml:"max_call_depth"`
	Color        bool   `yaml:"color"`
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Default returns the built-in settings.
func Default() Config {
	cfg := Config{
		Prompt:       "> ",
		MaxCallDepth: runtime.DefaultMaxCallDepth,
		Color:        true,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.HistoryFile = filepath.Join(home, ".lox_history")
	}
	return cfg
}

// DefaultPath returns the per-user config path if that file exists, or "".
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, FileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Load reads path over the defaults. Keys absent from the file keep their
// default; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	cfg, err = Decode(file)
	if err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses YAML from r over the defaults and validates the result.
// An empty document yields the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs ValidationError
	if c.MaxCallDepth < 1 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_call_depth must be at least 1, got %d", c.MaxCallDepth))
	}
	if c.MaxCallDepth > runtime.MaxCallDepthLimit {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_call_depth must be at most %d, got %d", runtime.MaxCallDepthLimit, c.MaxCallDepth))
	}
	if strings.ContainsAny(c.Prompt, "\n\r") {
		errs.Issues = append(errs.Issues, "prompt must be a single line")
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}
