// Package config handles ephemeron.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "ephemeron.toml"

// Config represents an ephemeron.toml file.
type Config struct {
	Heap     Heap     `toml:"heap"`
	Log      Log      `toml:"log"`
	Output   Output   `toml:"output"`
	Workload Workload `toml:"workload"`

	// Dir is the directory containing the ephemeron.toml file (set at load time).
	Dir string `toml:"-"`
}

// Heap configures the collector.
type Heap struct {
	// GCThreshold is the number of allocations between automatic
	// collections. Zero disables automatic collection.
	GCThreshold int `toml:"gc-threshold"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Output configures where run artifacts go. Empty paths disable the output.
type Output struct {
	Snapshot string `toml:"snapshot"`
	Journal  string `toml:"journal"`
}

// Workload configures the weak collection workload driven by the CLI.
type Workload struct {
	Collections int `toml:"collections"`
	Elements    int `toml:"elements"`
	RetainEvery int `toml:"retain-every"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Heap.GCThreshold < 0 {
		c.Heap.GCThreshold = 0
	}
	if c.Workload.Collections <= 0 {
		c.Workload.Collections = 16
	}
	if c.Workload.Elements <= 0 {
		c.Workload.Elements = 64
	}
	if c.Workload.RetainEvery <= 0 {
		c.Workload.RetainEvery = 4
	}
}

// Load parses an ephemeron.toml file from the given directory.
func Load(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", dir, err)
	}

	c := Config{Dir: abs}
	path := filepath.Join(abs, FileName)
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	c.applyDefaults()
	return &c, nil
}

// FindAndLoad loads the nearest ephemeron.toml in startDir or one of its
// ancestors. A nil Config with a nil error means there is none.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", startDir, err)
	}

	for ; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		if dir == filepath.Dir(dir) {
			return nil, nil
		}
	}
}

// Resolve makes a configured output path absolute relative to the config
// directory. Empty paths stay empty.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}
