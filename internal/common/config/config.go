// Package config provides configuration management for the console.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for the console.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Backend BackendConfig `mapstructure:"backend"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the local HTTP server configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// GatewayConfig holds the backend WebSocket gateway configuration.
type GatewayConfig struct {
	URL              string `mapstructure:"url"`
	HandshakeTimeout int    `mapstructure:"handshakeTimeout"` // in seconds
	PingInterval     int    `mapstructure:"pingInterval"`     // in seconds
	ReconnectMin     int    `mapstructure:"reconnectMin"`     // in seconds
	ReconnectMax     int    `mapstructure:"reconnectMax"`     // in seconds
}

// BackendConfig holds the backend REST API configuration.
type BackendConfig struct {
	BaseURL string `mapstructure:"baseUrl"`
	Token   string `mapstructure:"token"`
	Timeout int    `mapstructure:"timeout"` // in seconds
}

// HistoryConfig holds the chat transcript store configuration.
type HistoryConfig struct {
	Path          string `mapstructure:"path"`          // SQLite file path; empty means in-memory
	MaxPerSession int    `mapstructure:"maxPerSession"` // in-memory trim limit
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// HandshakeTimeoutDuration returns the handshake timeout as a time.Duration.
func (g *GatewayConfig) HandshakeTimeoutDuration() time.Duration {
	return time.Duration(g.HandshakeTimeout) * time.Second
}

// PingIntervalDuration returns the ping interval as a time.Duration.
func (g *GatewayConfig) PingIntervalDuration() time.Duration {
	return time.Duration(g.PingInterval) * time.Second
}

// ReconnectMinDuration returns the minimum reconnect backoff as a time.Duration.
func (g *GatewayConfig) ReconnectMinDuration() time.Duration {
	return time.Duration(g.ReconnectMin) * time.Second
}

// ReconnectMaxDuration returns the maximum reconnect backoff as a time.Duration.
func (g *GatewayConfig) ReconnectMaxDuration() time.Duration {
	return time.Duration(g.ReconnectMax) * time.Second
}

// TimeoutDuration returns the REST request timeout as a time.Duration.
func (b *BackendConfig) TimeoutDuration() time.Duration {
	return time.Duration(b.Timeout) * time.Second
}

// detectDefaultLogFormat returns the appropriate log format based on environment.
func detectDefaultLogFormat() string {
	if env := os.Getenv("STARKBOT_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Gateway defaults
	v.SetDefault("gateway.url", "ws://localhost:3001/ws")
	v.SetDefault("gateway.handshakeTimeout", 10)
	v.SetDefault("gateway.pingInterval", 30)
	v.SetDefault("gateway.reconnectMin", 1)
	v.SetDefault("gateway.reconnectMax", 30)

	// Backend defaults
	v.SetDefault("backend.baseUrl", "http://localhost:3001")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", 30)

	// History defaults - empty path means in-memory transcript
	v.SetDefault("history.path", "")
	v.SetDefault("history.maxPerSession", 1000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix STARKBOT_ with snake_case naming.
// Config file should be named config.yaml and placed in the current directory
// or /etc/starkbot-console/.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	// Configure environment variables
	v.SetEnvPrefix("STARKBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit bindings for snake_case env vars (camelCase config keys).
	// AutomaticEnv does not handle camelCase to SNAKE_CASE conversion.
	_ = v.BindEnv("backend.baseUrl", "STARKBOT_BACKEND_BASE_URL")
	_ = v.BindEnv("backend.token", "STARKBOT_TOKEN", "STARKBOT_BACKEND_TOKEN")
	_ = v.BindEnv("gateway.url", "STARKBOT_GATEWAY_URL")

	// Configure config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/starkbot-console/")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if cfg.Gateway.URL == "" {
		errs = append(errs, "gateway.url is required")
	} else if !strings.HasPrefix(cfg.Gateway.URL, "ws://") && !strings.HasPrefix(cfg.Gateway.URL, "wss://") {
		errs = append(errs, "gateway.url must be a ws:// or wss:// URL")
	}

	if cfg.Backend.BaseURL == "" {
		errs = append(errs, "backend.baseUrl is required")
	}

	if cfg.Gateway.ReconnectMin <= 0 {
		errs = append(errs, "gateway.reconnectMin must be positive")
	}
	if cfg.Gateway.ReconnectMax < cfg.Gateway.ReconnectMin {
		errs = append(errs, "gateway.reconnectMax must be >= gateway.reconnectMin")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if cfg.History.MaxPerSession <= 0 {
		errs = append(errs, "history.maxPerSession must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}
