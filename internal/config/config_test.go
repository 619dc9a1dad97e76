package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
trim = false
color = "off"

[cache]
dir = "/tmp/pype-cache"

[trace]
level = "phase"
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Trim {
		t.Error("trim should be false")
	}
	if cfg.Color != "off" {
		t.Errorf("color = %q", cfg.Color)
	}
	if cfg.Normalize || !cfg.Cache.Enabled {
		t.Error("unset keys must keep their defaults")
	}
	if cfg.Trace.Level != "phase" || cfg.Trace.Format != "text" {
		t.Errorf("trace = %+v", cfg.Trace)
	}
	if dir, _ := cfg.CacheDir(); dir != "/tmp/pype-cache" {
		t.Errorf("cache dir = %q", dir)
	}
	if cfg.Path != path {
		t.Errorf("path = %q", cfg.Path)
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "colour = \"on\"\n")
	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "unknown keys: colour") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadFileValidates(t *testing.T) {
	path := writeConfig(t, "color = \"rainbow\"\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadFileEmptyInitDisables(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "init = \"\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if p, err := cfg.InitPath(); err != nil || p != "" {
		t.Errorf("InitPath = %q, %v", p, err)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("PYPE_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != "" || !cfg.Trim {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadExplicitMissingFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("an explicitly named config must exist")
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pype", "config.toml")
	cfg := Default()
	cfg.Color = "on"
	if err := cfg.WriteFile(path, false); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := cfg.WriteFile(path, false); err == nil {
		t.Error("second write without overwrite should fail")
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Color != "on" || got.Init != cfg.Init {
		t.Errorf("round trip = %+v", got)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	got, err := expandHome("~/.pype.star")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join("/home/tester", ".pype.star") {
		t.Errorf("expandHome = %q", got)
	}
	if got, _ := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
}
