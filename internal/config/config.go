// Package config loads pype's settings from a TOML file.
//
// Lookup order: explicit path (--config), $PYPE_CONFIG,
// $XDG_CONFIG_HOME/pype/config.toml, ~/.config/pype/config.toml. A missing
// file means defaults; a file with unknown keys is an error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrNotFound is returned by Find when no config file exists.
var ErrNotFound = errors.New("config file not found")

// Config is the decoded config file.
type Config struct {
	// Init is a Starlark file executed before every program; its globals are
	// visible to user code. "~/" is expanded.
	Init string `toml:"init"`
	// Trim strips the trailing newline of each input line.
	Trim bool `toml:"trim"`
	// Color is auto, on or off.
	Color string `toml:"color"`
	// Normalize applies BOM/CRLF/NFC normalisation to fragments. Off by
	// default: it rewrites string literals too, and stdin is never normalised.
	Normalize bool `toml:"normalize"`

	Cache CacheConfig `toml:"cache"`
	Trace TraceConfig `toml:"trace"`

	// Path is where the config was read from; empty for defaults.
	Path string `toml:"-"`
}

// CacheConfig controls the compiled program cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// TraceConfig mirrors the --trace* flags.
type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
	Format string `toml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Init:      "~/.pype.star",
		Trim:      true,
		Color:     "auto",
		Normalize: false,
		Cache:     CacheConfig{Enabled: true},
		Trace: TraceConfig{
			Level:  "off",
			Mode:   "stream",
			Format: "text",
		},
	}
}

// Find resolves the config path. explicit wins when set.
func Find(explicit string) (string, error) {
	if explicit != "" {
		return expandHome(explicit)
	}
	if env := os.Getenv("PYPE_CONFIG"); env != "" {
		return expandHome(env)
	}
	candidate, err := defaultPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return candidate, ErrNotFound
		}
		return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
	}
	return candidate, nil
}

func defaultPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "pype", "config.toml"), nil
}

// Load reads the config at explicit (or the default location). Only an
// explicitly named file must exist.
func Load(explicit string) (Config, error) {
	path, err := Find(explicit)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path)
}

// LoadFile decodes path on top of the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("init") && strings.TrimSpace(cfg.Init) == "" {
		// init = "" disables the init file
		cfg.Init = ""
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch c.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("invalid color %q (expected auto|on|off)", c.Color)
	}
	switch strings.ToLower(c.Trace.Format) {
	case "", "text", "ndjson", "json":
	default:
		return fmt.Errorf("invalid trace.format %q (expected text|ndjson)", c.Trace.Format)
	}
	return nil
}

// InitPath returns Init with "~/" expanded; empty when disabled.
func (c Config) InitPath() (string, error) {
	if c.Init == "" {
		return "", nil
	}
	return expandHome(c.Init)
}

// CacheDir returns the cache directory: cache.dir, or
// $XDG_CACHE_HOME/pype, or ~/.cache/pype.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return expandHome(c.Cache.Dir)
	}
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "pype"), nil
}

// Encode renders c as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode TOML: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes c to path, creating parent directories. An existing file
// is only replaced when overwrite is set.
func (c Config) WriteFile(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
