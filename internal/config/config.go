package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable calltree settings.
type Config struct {
	// DefaultDepth is the maximum call depth traced when --depth is not
	// given. Pointer so an explicit 0 can be told apart from "unset".
	DefaultDepth  *int   `json:"default_depth,omitempty"`
	DefaultFormat string `json:"default_format"` // "text" | "json"
	OutputDir     string `json:"output_dir"`
	NoColor       *bool  `json:"no_color,omitempty"`
}

// Depth returns the configured default depth.
func (c Config) Depth() int {
	if c.DefaultDepth == nil {
		return 2
	}
	return *c.DefaultDepth
}

// ColorDisabled reports whether color output is turned off.
func (c Config) ColorDisabled() bool {
	return c.NoColor != nil && *c.NoColor
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		DefaultFormat: "text",
		OutputDir:     ".",
	}
}

// LoadGlobal reads ~/.config/calltree/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "calltree", "config.json")
	return loadFile(path, true)
}

// LoadProject reads .calltreeconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".calltreeconfig", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()

	// Apply global values over defaults.
	if global != nil {
		if global.DefaultFormat != "" {
			result.DefaultFormat = global.DefaultFormat
		}
		if global.OutputDir != "" {
			result.OutputDir = global.OutputDir
		}
		if global.DefaultDepth != nil {
			result.DefaultDepth = global.DefaultDepth
		}
		if global.NoColor != nil {
			result.NoColor = global.NoColor
		}
	}

	// Apply project values over global.
	if project != nil {
		if project.DefaultFormat != "" {
			result.DefaultFormat = project.DefaultFormat
		}
		if project.OutputDir != "" {
			result.OutputDir = project.OutputDir
		}
		if project.DefaultDepth != nil {
			result.DefaultDepth = project.DefaultDepth
		}
		if project.NoColor != nil {
			result.NoColor = project.NoColor
		}
	}

	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
