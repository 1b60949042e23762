package main

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	ListenAddr    string `koanf:"listen_addr"`
	DatabaseURL   string `koanf:"database_url"` // sqlite://<path> or postgres://...
	StreamURLFile string `koanf:"stream_url_file"`

	Poller PollerConfig `koanf:"poller"`
}

// PollerConfig holds the live metadata feed settings.
type PollerConfig struct {
	Enabled      bool   `koanf:"enabled"`
	MetadataURL  string `koanf:"metadata_url"`
	CoverArtURL  string `koanf:"cover_art_url"`
	IntervalSecs int    `koanf:"interval_secs"`
	MaxErrors    int    `koanf:"max_errors"` // consecutive fetch failures before giving up
}

func LoadConfig() (*Config, error) {
	return loadConfigFrom(configPaths())
}

func loadConfigFrom(paths []string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		ListenAddr:    ":3000",
		DatabaseURL:   "sqlite://radio.sqlite",
		StreamURLFile: "stream_URL.txt",
		Poller: PollerConfig{
			Enabled:      false,
			MetadataURL:  "https://d3d4yli4hf5bmh.cloudfront.net/metadatav2.json",
			CoverArtURL:  "https://d3d4yli4hf5bmh.cloudfront.net/cover.jpg",
			IntervalSecs: 15,
			MaxErrors:    5,
		},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// DB_URL wins over the config file so deployments can swap stores
	// without editing it.
	if dbUrl := os.Getenv("DB_URL"); dbUrl != "" {
		cfg.DatabaseURL = dbUrl
	}

	if cfg.Poller.IntervalSecs <= 0 {
		cfg.Poller.IntervalSecs = 15
	}
	if cfg.Poller.MaxErrors <= 0 {
		cfg.Poller.MaxErrors = 5
	}

	return cfg, nil
}

func configPaths() []string {
	paths := []string{}

	// 1. ~/.config/radiocalico/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "radiocalico", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}
