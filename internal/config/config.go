// Package config loads the optional extvars.yaml project file.
//
// Every field is optional. Command-line flags override file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "extvars.yaml"

// Defaults.
const (
	DefaultDatabase = "extvars.db"
	DefaultCapacity = 16
)

// Config is the decoded config file.
//
// Capacity and Refresh are pointers so an explicit zero (unlimited capacity,
// refresh disabled) is distinguishable from an absent key.
type Config struct {
	Database  string `yaml:"database,omitempty"`
	Project   string `yaml:"project,omitempty"`
	Workspace string `yaml:"workspace,omitempty"`
	Capacity  *int   `yaml:"capacity_per_category,omitempty"`
	Refresh   *bool  `yaml:"refresh_on_rename,omitempty"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-"`
}

// Load reads the config at path. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Path = path
	cfg.resolve(filepath.Dir(path))
	return &cfg, nil
}

// Discover loads FileName from dir when it exists and returns an empty
// config otherwise.
func Discover(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("stat config: %w", err)
	}
	return Load(path)
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Capacity != nil && *c.Capacity < 0 {
		return fmt.Errorf("capacity_per_category must be >= 0, got %d", *c.Capacity)
	}
	return nil
}

// resolve makes relative paths relative to the config file's directory.
func (c *Config) resolve(dir string) {
	if c.Database != "" && !filepath.IsAbs(c.Database) {
		c.Database = filepath.Join(dir, c.Database)
	}
	if c.Workspace != "" && !filepath.IsAbs(c.Workspace) {
		c.Workspace = filepath.Join(dir, c.Workspace)
	}
}

// DatabasePath returns the configured database or DefaultDatabase.
func (c *Config) DatabasePath() string {
	if c.Database == "" {
		return DefaultDatabase
	}
	return c.Database
}

// CapacityPerCategory returns the configured capacity or DefaultCapacity.
// Zero means unlimited.
func (c *Config) CapacityPerCategory() int {
	if c.Capacity == nil {
		return DefaultCapacity
	}
	return *c.Capacity
}

// RefreshOnRename reports whether renamed variables redraw referencing
// blocks. Defaults to true.
func (c *Config) RefreshOnRename() bool {
	return c.Refresh == nil || *c.Refresh
}
