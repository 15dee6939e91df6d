package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	DataDir        string   `koanf:"data_dir"`        // overrides the default state location
	LibrarySources []string `koanf:"library_sources"` // paths to scan for music

	Queue         QueueConfig         `koanf:"queue"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

// QueueConfig tunes queue persistence.
type QueueConfig struct {
	RecentLimit          int    `koanf:"recent_limit"`           // recent list capacity (default: 200)
	PositionSaveInterval int    `koanf:"position_save_interval"` // seconds between bookmark saves (default: 5)
	QueueName            string `koanf:"queue_name"`             // reserved queue playlist name
	RecentName           string `koanf:"recent_name"`            // reserved recent playlist name
	FavouriteName        string `koanf:"favourite_name"`         // reserved favourites playlist name
}

// NotificationsConfig controls desktop notifications.
type NotificationsConfig struct {
	Enabled    *bool `koanf:"enabled"`     // default: true
	NowPlaying *bool `koanf:"now_playing"` // default: true
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.DataDir != "" {
		cfg.DataDir = expandPath(cfg.DataDir)
	}
	for i, src := range cfg.LibrarySources {
		cfg.LibrarySources[i] = expandPath(src)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/cadenza/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cadenza", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetQueueConfig returns the queue configuration with defaults applied.
func (c *Config) GetQueueConfig() QueueConfig {
	cfg := c.Queue

	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 200
	}
	if cfg.PositionSaveInterval <= 0 {
		cfg.PositionSaveInterval = 5
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "queue"
	}
	if cfg.RecentName == "" {
		cfg.RecentName = "recent"
	}
	if cfg.FavouriteName == "" {
		cfg.FavouriteName = "favourite"
	}

	return cfg
}

// SaveInterval returns the bookmark save interval as a duration.
func (q QueueConfig) SaveInterval() time.Duration {
	return time.Duration(q.PositionSaveInterval) * time.Second
}

// NotificationsEnabled reports whether desktop notifications are on.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.Enabled == nil || *c.Notifications.Enabled
}

// NowPlayingEnabled reports whether track-change notifications are on.
func (c *Config) NowPlayingEnabled() bool {
	if !c.NotificationsEnabled() {
		return false
	}
	return c.Notifications.NowPlaying == nil || *c.Notifications.NowPlaying
}
