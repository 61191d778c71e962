package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Minimal(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "spindle.toml")
	content := `
[cache]
path = "/var/lib/spindle/cache.json"
ttl_days = 7

[lookup]
cooldown_window = 5

[logging]
level = "debug"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Path != "/var/lib/spindle/cache.json" {
		t.Errorf("cache path = %q", cfg.Cache.Path)
	}
	if cfg.Cache.TTLDays != 7 {
		t.Errorf("ttl_days = %d, want 7", cfg.Cache.TTLDays)
	}
	if cfg.TTL() != 7*24*time.Hour {
		t.Errorf("TTL() = %v", cfg.TTL())
	}
	if cfg.Lookup.CooldownWindow != 5 {
		t.Errorf("cooldown_window = %d, want 5", cfg.Lookup.CooldownWindow)
	}
	// Unset fields take defaults.
	if cfg.Lookup.CooldownSeconds != 2 {
		t.Errorf("cooldown_seconds = %d, want default 2", cfg.Lookup.CooldownSeconds)
	}
	if cfg.Cache.SaveInterval != 100 {
		t.Errorf("save_interval = %d, want default 100", cfg.Cache.SaveInterval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoad_RDNSDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spindle.toml")
	content := `
[rdns]
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RDNS.Enabled {
		t.Error("enabled = false in file should survive defaulting")
	}
	if cfg.RDNS.TimeoutSeconds != 5 {
		t.Errorf("timeout_seconds = %d, want default 5", cfg.RDNS.TimeoutSeconds)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("invalid toml [[["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Cache.Path != "ip_networks_cache.json" {
		t.Errorf("cache path = %q", cfg.Cache.Path)
	}
	if cfg.TTL() != 14*24*time.Hour {
		t.Errorf("TTL() = %v, want 14 days", cfg.TTL())
	}
	if !cfg.RDNS.Enabled {
		t.Error("rdns should default to enabled")
	}
	if len(cfg.Excel.Sheets) != 2 {
		t.Errorf("sheets = %v", cfg.Excel.Sheets)
	}
}

func TestValidate_GeoDBMustBeReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spindle.toml")
	content := `
[enrichment]
geoip_db_path = "/nonexistent/GeoLite2-City.mmdb"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unreadable geoip db")
	}
}
