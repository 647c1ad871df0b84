// Package config handles global magpie configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the global configuration loaded from config.toml.
type Config struct {
	// Vault is the default vault path used when no --vault flag is given.
	Vault string `toml:"vault"`

	// Vaults maps vault names to paths for multi-vault setups.
	Vaults map[string]string `toml:"vaults"`

	// UI holds optional CLI theming preferences.
	UI UIConfig `toml:"ui"`

	// Fix holds auto-fix policy.
	Fix FixConfig `toml:"fix"`

	// Watch holds watch-mode settings.
	Watch WatchConfig `toml:"watch"`
}

// UIConfig holds optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI code ("0" to "255") or hex color ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme for rendered markdown.
	CodeTheme string `toml:"code_theme"`
}

// FixConfig holds auto-fix policy.
type FixConfig struct {
	// DuplicateKeep selects which occurrence of a duplicated key survives
	// deduplication: "last" (default) or "first".
	DuplicateKeep string `toml:"duplicate_keep"`
}

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	// DebounceMS is the quiet period after a filesystem event before a
	// re-audit runs. Defaults to 400.
	DebounceMS int `toml:"debounce_ms"`
}

// VaultPath returns the path for a named vault, or the default vault when
// name is empty.
func (c *Config) VaultPath(name string) (string, error) {
	if name == "" {
		if c.Vault != "" {
			return c.Vault, nil
		}
		return "", fmt.Errorf("no default vault configured; set vault in %s or pass --vault", DefaultPath())
	}
	if path, ok := c.Vaults[name]; ok {
		return path, nil
	}
	return "", fmt.Errorf("vault %q not found in config", name)
}

// Debounce returns the configured watch debounce, defaulted.
func (c *Config) Debounce() int {
	if c.Watch.DebounceMS <= 0 {
		return 400
	}
	return c.Watch.DebounceMS
}

// Load reads the configuration from the default location. A missing file
// yields a zero config, not an error.
func Load() (*Config, error) {
	path := DefaultPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// DefaultPath returns the config file path, preferring the XDG-style
// ~/.config/magpie/config.toml.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdg := filepath.Join(home, ".config", "magpie", "config.toml")
		if _, err := os.Stat(xdg); err == nil {
			return xdg
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "magpie", "config.toml")
	}
	return filepath.Join(".", "config.toml")
}
