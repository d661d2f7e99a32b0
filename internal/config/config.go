// Package config handles jazz.toml runtime configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/xirelogy/go-jazz/internal/gc"
	"github.com/xirelogy/go-jazz/internal/vm"
)

// FileName is the configuration file searched for by FindAndLoad.
const FileName = "jazz.toml"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents a jazz.toml file.
type Config struct {
	Runtime Runtime  `toml:"runtime"`
	GC      GCConfig `toml:"gc"`
	Log     Log      `toml:"log"`

	// Path is the file the configuration was read from (empty for defaults).
	Path string `toml:"-"`
}

// Runtime sizes the VM.
type Runtime struct {
	StackSize        int `toml:"stack-size"`
	InstructionLimit int `toml:"instruction-limit"`
}

// GCConfig paces the collector.
type GCConfig struct {
	Speed        int `toml:"speed"`
	Pause        int `toml:"pause"`
	MinThreshold int `toml:"min-threshold"`
}

// Log configures the commonlog backend.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Runtime: Runtime{StackSize: vm.DefaultStackSize},
		GC: GCConfig{
			Speed:        gc.DefaultSpeed,
			Pause:        gc.DefaultPause,
			MinThreshold: gc.DefaultMinThreshold,
		},
	}
}

// Load parses the file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %s in %s", ErrInvalid, undecoded[0], path)
	}
	c.Path = path
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a jazz.toml file and loads
// it. Defaults are returned when none is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate rejects values the runtime cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Runtime.StackSize < 16:
		return fmt.Errorf("%w: runtime.stack-size must be at least 16, got %d", ErrInvalid, c.Runtime.StackSize)
	case c.Runtime.InstructionLimit < 0:
		return fmt.Errorf("%w: runtime.instruction-limit must not be negative", ErrInvalid)
	case c.GC.Speed < 1:
		return fmt.Errorf("%w: gc.speed must be positive, got %d", ErrInvalid, c.GC.Speed)
	case c.GC.Pause < 100:
		return fmt.Errorf("%w: gc.pause must be at least 100, got %d", ErrInvalid, c.GC.Pause)
	case c.GC.MinThreshold < 1:
		return fmt.Errorf("%w: gc.min-threshold must be positive, got %d", ErrInvalid, c.GC.MinThreshold)
	case c.Log.Verbosity < 0:
		return fmt.Errorf("%w: log.verbosity must not be negative", ErrInvalid)
	}
	return nil
}

// VM converts the configuration into VM construction parameters.
func (c *Config) VM() vm.Config {
	return vm.Config{
		StackSize:        c.Runtime.StackSize,
		InstructionLimit: c.Runtime.InstructionLimit,
		GC: gc.Config{
			Speed:        c.GC.Speed,
			Pause:        c.GC.Pause,
			MinThreshold: c.GC.MinThreshold,
		},
	}
}
