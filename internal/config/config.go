// Package config loads and saves the local TOML configuration document
// at ~/.ssd-syncer/config.toml: machine identity, sync mappings, ignore
// patterns, and conflict strategy.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/ssdsyncer/ssd-syncer/internal/relpath"
)

// Config is the local configuration document's in-memory shape.
type Config struct {
	Machine  MachineConfig  `toml:"machine"`
	Sync     []Mapping      `toml:"sync"`
	Ignore   IgnoreConfig   `toml:"ignore"`
	Conflict ConflictConfig `toml:"conflict"`
}

// MachineConfig identifies this machine and, optionally, its default SSD
// mount point.
type MachineConfig struct {
	Name     string `toml:"name"`
	SsdMount string `toml:"ssd_mount,omitempty"`
}

// Mapping is one local-directory-to-SSD-directory pairing.
type Mapping struct {
	Name  string `toml:"name,omitempty"`
	Local string `toml:"local"`
	Ssd   string `toml:"ssd"`
}

// IgnoreConfig holds the shared ignore pattern list.
type IgnoreConfig struct {
	Patterns []string `toml:"patterns"`
}

// ConflictConfig holds the configured conflict strategy, by name so it
// round-trips through TOML without importing the plan package's enum.
type ConflictConfig struct {
	Strategy string `toml:"strategy"`
}

// Default returns a fresh configuration for the given machine name, with
// the opinionated default ignore list and the Both conflict strategy.
func Default(machineName string) *Config {
	return &Config{
		Machine:  MachineConfig{Name: machineName},
		Sync:     nil,
		Ignore:   IgnoreConfig{Patterns: defaultIgnorePatterns()},
		Conflict: ConflictConfig{Strategy: "both"},
	}
}

// defaultIgnorePatterns carries forward the original implementation's
// opinionated default ignore list: VCS dirs, common build/package
// directories, IDE junk, and OS metadata files.
func defaultIgnorePatterns() []string {
	return []string{
		".DS_Store", "Thumbs.db", "desktop.ini", ".ssd-syncer",
		".git", ".svn", ".hg",
		"__pycache__", ".venv", "venv", ".eggs", "*.egg-info", ".tox", ".mypy_cache", ".pytest_cache", ".ruff_cache",
		"node_modules", ".next", ".nuxt", "bower_components",
		"target",
		".gradle",
		"bin", "obj",
		"vendor",
		".idea", ".vs", "*.swp", "*.swo",
		"dist", "build", ".cache",
		"__MACOSX", ".tmp", "*.pyc",
	}
}

// DefaultPath returns ~/.ssd-syncer/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".ssd-syncer", "config.toml"), nil
}

// Load reads and parses the TOML document at path. A missing file is not
// an error from the engine's point of view, but this loader treats it as
// one: callers that want "missing means fresh install" should check
// os.IsNotExist themselves and fall back to Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the structural invariants a malformed or hand-edited
// config document could violate.
func (c *Config) Validate() error {
	if c.Machine.Name == "" {
		return fmt.Errorf("config: machine.name must not be empty")
	}

	seen := make(map[string]bool, len(c.Sync))
	for _, m := range c.Sync {
		key := mappingKey(m)
		if seen[key] {
			return fmt.Errorf("config: duplicate mapping %q", key)
		}
		seen[key] = true
		if m.Local == "" || m.Ssd == "" {
			return fmt.Errorf("config: mapping %q missing local or ssd path", key)
		}
	}

	for _, raw := range c.Ignore.Patterns {
		if _, err := relpath.ParsePattern(raw); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	switch c.Conflict.Strategy {
	case "both", "local-wins", "ssd-wins", "newer-wins", "ask", "":
	default:
		return fmt.Errorf("config: unknown conflict strategy %q", c.Conflict.Strategy)
	}

	return nil
}

func mappingKey(m Mapping) string {
	if m.Name != "" {
		return m.Name
	}
	return m.Ssd
}

// FindMapping returns the mapping whose name or SSD path matches
// nameOrSsd, or nil if none match.
func (c *Config) FindMapping(nameOrSsd string) *Mapping {
	for i := range c.Sync {
		if c.Sync[i].Name == nameOrSsd || c.Sync[i].Ssd == nameOrSsd {
			return &c.Sync[i]
		}
	}
	return nil
}
