// Package config loads Spindle configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all Spindle configuration.
type Config struct {
	Cache         CacheConfig         `toml:"cache"`
	Lookup        LookupConfig        `toml:"lookup"`
	RDNS          RDNSConfig          `toml:"rdns"`
	Enrichment    EnrichmentConfig    `toml:"enrichment"`
	Excel         ExcelConfig         `toml:"excel"`
	Output        OutputConfig        `toml:"output"`
	Logging       LoggingConfig       `toml:"logging"`
	Observability ObservabilityConfig `toml:"observability"`
}

type CacheConfig struct {
	Path         string `toml:"path"`
	TTLDays      int    `toml:"ttl_days"`
	SaveInterval int    `toml:"save_interval"`
}

type LookupConfig struct {
	CooldownWindow    int `toml:"cooldown_window"`
	CooldownSeconds   int `toml:"cooldown_seconds"`
	RequestIntervalMS int `toml:"request_interval_ms"`
	TimeoutSeconds    int `toml:"timeout_seconds"`
	Retries           int `toml:"retries"`
	RetryWaitSeconds  int `toml:"retry_wait_seconds"`
}

type RDNSConfig struct {
	Enabled        bool `toml:"enabled"`
	TimeoutSeconds int  `toml:"timeout_seconds"`
}

type EnrichmentConfig struct {
	GeoIPDBPath string `toml:"geoip_db_path"`
	ASNDBPath   string `toml:"asn_db_path"`
}

type ExcelConfig struct {
	Sheets []string `toml:"sheets"`
}

type OutputConfig struct {
	NotFoundFile string `toml:"not_found_file"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ObservabilityConfig struct {
	MetricsTextfile string `toml:"metrics_textfile"`
}

// Load reads config from path (TOML).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.setDefaults(&md)
	return &c, c.validate()
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	c := &Config{}
	c.setDefaults(nil)
	return c
}

func (c *Config) setDefaults(md *toml.MetaData) {
	if c.Cache.Path == "" {
		c.Cache.Path = "ip_networks_cache.json"
	}
	if c.Cache.TTLDays == 0 {
		c.Cache.TTLDays = 14
	}
	if c.Cache.SaveInterval == 0 {
		c.Cache.SaveInterval = 100
	}
	if c.Lookup.CooldownWindow == 0 {
		c.Lookup.CooldownWindow = 10
	}
	if c.Lookup.CooldownSeconds == 0 {
		c.Lookup.CooldownSeconds = 2
	}
	if c.Lookup.RequestIntervalMS == 0 {
		c.Lookup.RequestIntervalMS = 200
	}
	if c.Lookup.TimeoutSeconds == 0 {
		c.Lookup.TimeoutSeconds = 10
	}
	if c.Lookup.Retries == 0 {
		c.Lookup.Retries = 3
	}
	if c.Lookup.RetryWaitSeconds == 0 {
		c.Lookup.RetryWaitSeconds = 10
	}
	if c.RDNS.TimeoutSeconds == 0 {
		c.RDNS.TimeoutSeconds = 5
	}
	if md == nil || !md.IsDefined("rdns", "enabled") {
		c.RDNS.Enabled = true
	}
	if len(c.Excel.Sheets) == 0 {
		c.Excel.Sheets = []string{"SSL Dest Groups", "SSL Custom Categories"}
	}
	if c.Output.NotFoundFile == "" {
		c.Output.NotFoundFile = "not_found_list.txt"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

func (c *Config) validate() error {
	if c.Cache.TTLDays < 0 {
		return fmt.Errorf("cache: ttl_days must not be negative")
	}
	if c.Lookup.CooldownWindow < 1 {
		return fmt.Errorf("lookup: cooldown_window must be at least 1")
	}
	if c.Enrichment.GeoIPDBPath != "" {
		if _, err := os.Stat(c.Enrichment.GeoIPDBPath); err != nil {
			return fmt.Errorf("enrichment: geoip_db_path %q not readable: %w", c.Enrichment.GeoIPDBPath, err)
		}
	}
	if c.Enrichment.ASNDBPath != "" {
		if _, err := os.Stat(c.Enrichment.ASNDBPath); err != nil {
			return fmt.Errorf("enrichment: asn_db_path %q not readable: %w", c.Enrichment.ASNDBPath, err)
		}
	}
	return nil
}

// TTL returns the cache freshness window as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLDays) * 24 * time.Hour
}
