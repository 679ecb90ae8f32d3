// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the daemon's TOML configuration via viper, with
// PTARR__-prefixed environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration object, mirroring the [pt] table
// and its subordinate tables/arrays.
type Config struct {
	PT      PTConfig       `mapstructure:"pt"`
	Log     LogConfig      `mapstructure:"log"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
}

// PTConfig is the `[pt]` table.
type PTConfig struct {
	Client         string       `mapstructure:"pt_client"`
	SeedingTimeDays float64     `mapstructure:"pt_seeding_time"`
	MonitorOnly    bool         `mapstructure:"pt_monitor_only"`
	Tag            string       `mapstructure:"pt_tag"`
	DownloadDir    string       `mapstructure:"download_dir"`
	LibraryDir     string       `mapstructure:"library_dir"`
	DatabasePath   string       `mapstructure:"database_path"`

	QBittorrent QBittorrentConfig `mapstructure:"qbittorrent"`
	Transmission TransmissionConfig `mapstructure:"transmission"`

	Sites   []SiteConfig `mapstructure:"sites"`
	RSSRule RSSRuleConfig `mapstructure:"rss_rule"`
	Subtitle SubtitleConfig `mapstructure:"subtitle"`

	RSSIntervalMinutes      int `mapstructure:"rss_interval_minutes"`
	TransferIntervalMinutes int `mapstructure:"transfer_interval_minutes"`
	ReapIntervalMinutes     int `mapstructure:"reap_interval_minutes"`
	RetryIntervalMinutes    int `mapstructure:"retry_interval_minutes"`
}

// QBittorrentConfig holds qBittorrent Web API connection settings.
type QBittorrentConfig struct {
	Host     string `mapstructure:"host"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// TransmissionConfig holds Transmission RPC connection settings.
type TransmissionConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SiteConfig is one entry of the `[[pt.sites]]` array of tables.
type SiteConfig struct {
	Name         string `mapstructure:"name"`
	RSSURL       string `mapstructure:"rss_url"`
	IncludeRules string `mapstructure:"include_rules"`
	ExcludeRules string `mapstructure:"exclude_rules"`
	SizeRule     string `mapstructure:"size_rule"`
	Enabled      bool   `mapstructure:"enabled"`
	Priority     int    `mapstructure:"priority"`
}

// RSSRuleConfig is the `[pt.rss_rule]` table. Note is loaded but not
// read by the daemon: `serve` takes its note rules from the rss_rule
// database table instead.
type RSSRuleConfig struct {
	Note string `mapstructure:"note"`
}

// SubtitleConfig is the peripheral subtitle-provider config block.
type SubtitleConfig struct {
	Server      string `mapstructure:"server"` // "opensubtitles" or "chinesesubfinder"
	APIKey      string `mapstructure:"api_key"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	Endpoint    string `mapstructure:"endpoint"`
}

// LogConfig controls zerolog + lumberjack output.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig controls the /metrics HTTP listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// envPrefix carries one trailing underscore because viper joins prefix
// and key with another, giving e.g. PTARR__PT__PT_CLIENT.
const envPrefix = "PTARR_"

// Default returns a Config populated with the same defaults Load would
// apply to an empty/missing file.
func Default() *Config {
	return &Config{
		PT: PTConfig{
			Client:                  "qbittorrent",
			SeedingTimeDays:         0,
			MonitorOnly:             false,
			Tag:                     "PT",
			DownloadDir:             "./downloads",
			LibraryDir:              "./library",
			DatabasePath:            "./data/ptarr.db",
			RSSIntervalMinutes:      10,
			TransferIntervalMinutes: 5,
			ReapIntervalMinutes:     60,
			RetryIntervalMinutes:    30,
		},
		Log: LogConfig{
			Level:      "info",
			Path:       "./data/logs/ptarr.log",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9091",
		},
	}
}

// Load reads configuration from configPath (a TOML file), falling
// back to built-in defaults for any key the file and environment
// don't set. Environment variables override file values using the
// PTARR__ prefix, e.g. PTARR__PT__PT_CLIENT=transmission.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	setDefaults(v, Default())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ptarr")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ptarr")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ptarr"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the rest of the system cannot act on.
func (c *Config) Validate() error {
	switch c.PT.Client {
	case "qbittorrent", "transmission":
	default:
		return fmt.Errorf("pt.pt_client: unsupported backend %q", c.PT.Client)
	}
	if c.PT.Tag == "" {
		return fmt.Errorf("pt.pt_tag: must not be empty")
	}
	for i, s := range c.PT.Sites {
		if s.Name == "" || s.RSSURL == "" {
			return fmt.Errorf("pt.sites[%d]: name and rss_url are required", i)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("pt.pt_client", d.PT.Client)
	v.SetDefault("pt.pt_seeding_time", d.PT.SeedingTimeDays)
	v.SetDefault("pt.pt_monitor_only", d.PT.MonitorOnly)
	v.SetDefault("pt.pt_tag", d.PT.Tag)
	v.SetDefault("pt.download_dir", d.PT.DownloadDir)
	v.SetDefault("pt.library_dir", d.PT.LibraryDir)
	v.SetDefault("pt.database_path", d.PT.DatabasePath)
	v.SetDefault("pt.rss_interval_minutes", d.PT.RSSIntervalMinutes)
	v.SetDefault("pt.transfer_interval_minutes", d.PT.TransferIntervalMinutes)
	v.SetDefault("pt.reap_interval_minutes", d.PT.ReapIntervalMinutes)
	v.SetDefault("pt.retry_interval_minutes", d.PT.RetryIntervalMinutes)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}
