// Package config loads the YAML configuration the cmd/tinydb CLI and
// any future server wiring read at startup. Grounded on the teacher's
// engine.Config / ListenConfig (page size, data directory, network
// address, log level), trimmed to the fields a core-only engine (no
// SQL compiler, no server) actually needs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the top-level YAML document read from the file passed to
// the CLI's -config flag.
type Config struct {
	// PageSize is the B-tree page size new database files are
	// formatted with. Zero means storage.DefaultPageSize.
	PageSize int `yaml:"page_size"`

	// DataDir is read from the YAML file but no command consults it: a
	// relative database path is resolved against the process's working
	// directory.
	DataDir string `yaml:"data_dir"`

	// LogLevel is parsed with logrus.ParseLevel; empty means Info.
	LogLevel string `yaml:"log_level"`

	// DebugTrace enables the golang.org/x/net/trace HTTP endpoint
	// (/debug/requests) that internal/vm reports program execution
	// traces to, the "-v adjusts a logging sink" ambient concern of §6.
	DebugTrace bool `yaml:"debug_trace"`
}

// Default returns the configuration used when no -config flag is given.
func Default() *Config {
	return &Config{
		PageSize: 1024,
		DataDir:  ".",
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
