package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/waypost/waypost/internal/feed"
)

// envPrefix namespaces the environment variables read by Load.
const envPrefix = "WAYPOST_"

// defaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var defaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/waypost/config.yaml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "WAYPOST_CONFIG_PATH"

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig       `koanf:"server"`
	Database  DatabaseConfig     `koanf:"database"`
	Events    EventsConfig       `koanf:"events"`
	Retention RetentionConfig    `koanf:"retention"`
	Scoring   feed.ScoringConfig `koanf:"scoring"`
	LogLevel  string             `koanf:"log_level" validate:"oneof=debug info warn error"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"gte=1,lte=65535"`
}

// DatabaseConfig configures the local SQLite read store.
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// EventsConfig configures the platform event-stream subscriber.
type EventsConfig struct {
	// Enabled turns ingestion on. Disable to serve from a static corpus,
	// e.g. one loaded by the seed tool.
	Enabled bool `koanf:"enabled"`

	// URL is the websocket endpoint of the platform event stream.
	URL string `koanf:"url" validate:"required_if=Enabled true"`
}

// RetentionConfig configures the background corpus retention job.
type RetentionConfig struct {
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
	MaxAge   time.Duration `koanf:"max_age" validate:"gt=0"`
	MaxRows  int           `koanf:"max_rows" validate:"gt=0"`
}

// defaultConfig returns a Config with all defaults applied. Defaults load
// first and are overridden by the config file and then environment
// variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Database: DatabaseConfig{
			Path: "waypost.db",
		},
		Events: EventsConfig{
			Enabled: false,
			URL:     "",
		},
		Retention: RetentionConfig{
			Interval: time.Hour,
			MaxAge:   90 * 24 * time.Hour,
			MaxRows:  50000,
		},
		Scoring:  feed.DefaultScoringConfig(),
		LogLevel: "info",
	}
}

// Load builds the configuration by layering struct defaults, an optional
// YAML config file and WAYPOST_-prefixed environment variables, then
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps environment variable names to koanf paths: the first
// underscore after the prefix separates the section from the key, e.g.
// WAYPOST_SERVER_PORT -> server.port and
// WAYPOST_SCORING_FOLLOWER_BOOST -> scoring.follower_boost.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if key == "log_level" {
		return key
	}
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + rest
}
