package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port" yaml:"port"`
	Host string `json:"host" yaml:"host"`

	// Fetch settings
	FetchTimeout  time.Duration `json:"fetch_timeout" yaml:"fetchTimeout"`
	FetchMaxBytes int64         `json:"fetch_max_bytes" yaml:"fetchMaxBytes"`
	UserAgent     string        `json:"user_agent" yaml:"userAgent"`

	// Logging settings
	LogLevel  string `json:"log_level" yaml:"logLevel"`
	LogFormat string `json:"log_format" yaml:"logFormat"` // "console" or "json"
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Port:          "8080",
		Host:          "0.0.0.0",
		FetchTimeout:  30 * time.Second,
		FetchMaxBytes: 10 << 20,
		LogLevel:      "info",
		LogFormat:     "console",
	}
}

// Load reads configuration from an optional YAML file, environment variables and .env file.
// Environment variables take precedence over the file.
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	config.Port = getEnvOrDefault("PORT", config.Port)
	config.Host = getEnvOrDefault("HOST", config.Host)
	config.FetchTimeout = getEnvOrDefaultDuration("FETCH_TIMEOUT", config.FetchTimeout)
	config.FetchMaxBytes = getEnvOrDefaultInt64("FETCH_MAX_BYTES", config.FetchMaxBytes)
	config.UserAgent = getEnvOrDefault("USER_AGENT", config.UserAgent)
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", config.LogLevel)
	config.LogFormat = getEnvOrDefault("LOG_FORMAT", config.LogFormat)

	return config, config.validate()
}

// loadFile overlays values from a YAML file onto the config
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ConfigError{Field: "CONFIG_FILE", Message: fmt.Sprintf("invalid YAML in %s: %v", path, err)}
	}
	return nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Port == "" {
		return &ConfigError{Field: "PORT", Message: "port is required"}
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return &ConfigError{Field: "PORT", Message: "must be a number"}
	}
	if c.FetchTimeout < 0 {
		return &ConfigError{Field: "FETCH_TIMEOUT", Message: "must not be negative"}
	}
	if c.FetchMaxBytes <= 0 {
		return &ConfigError{Field: "FETCH_MAX_BYTES", Message: "must be positive"}
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return &ConfigError{Field: "LOG_FORMAT", Message: "must be console or json"}
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt64 returns environment variable value as int64 or default if not set
func getEnvOrDefaultInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvOrDefaultDuration accepts Go durations ("45s") or plain seconds ("45")
func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
