// Package config loads veilmark client configuration from the environment
// and an optional YAML config file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Watermark service
	ServerURL   string
	Token       string
	HTTPTimeout time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Batch overrides (0 = use plan defaults)
	Concurrency int
}

// fileConfig mirrors the optional YAML config file. Environment variables
// take precedence over file values.
type fileConfig struct {
	ServerURL   string `yaml:"server_url,omitempty"`
	Token       string `yaml:"token,omitempty"`
	HTTPTimeout string `yaml:"http_timeout,omitempty"`
	LogFile     string `yaml:"log_file,omitempty"`
	LogLevel    string `yaml:"log_level,omitempty"`
	Concurrency int    `yaml:"concurrency,omitempty"`
}

const defaultServerURL = "http://localhost:8000"

// Load reads configuration from the config file (if present) and the
// environment, with the environment winning.
func Load() Config {
	return load(DefaultConfigPath())
}

func load(path string) Config {
	file := loadFile(path)

	timeout := 60 * time.Second
	if file.HTTPTimeout != "" {
		if d, err := time.ParseDuration(file.HTTPTimeout); err == nil {
			timeout = d
		}
	}
	if t := os.Getenv("VEILMARK_HTTP_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	concurrency := file.Concurrency
	if c := os.Getenv("VEILMARK_CONCURRENCY"); c != "" {
		if parsed, err := strconv.Atoi(c); err == nil {
			concurrency = parsed
		}
	}

	return Config{
		ServerURL:   getEnv("VEILMARK_SERVER_URL", fallback(file.ServerURL, defaultServerURL)),
		Token:       getEnv("VEILMARK_TOKEN", file.Token),
		HTTPTimeout: timeout,
		LogFile:     getEnv("VEILMARK_LOG_FILE", fallback(file.LogFile, "/tmp/veilmark.log")),
		LogLevel:    parseLogLevel(getEnv("VEILMARK_LOG_LEVEL", fallback(file.LogLevel, "INFO"))),
		Concurrency: concurrency,
	}
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "veilmark", "config.yaml")
	}
	return ""
}

// SaveToken writes the auth token into the config file, creating it if
// needed. Used by the login command.
func SaveToken(path, token string) error {
	if path == "" {
		return fmt.Errorf("no config path available")
	}
	file := loadFile(path)
	file.Token = token

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func loadFile(path string) fileConfig {
	var file fileConfig
	if path == "" {
		return file
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return file
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		slog.Warn("ignoring malformed config file", "path", path, "error", err)
		return fileConfig{}
	}
	return file
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func fallback(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
