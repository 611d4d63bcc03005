package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr string `json:"addr"`

	// Timeouts as duration strings, e.g. "15s"
	ReadTimeout     string `json:"read_timeout"`
	WriteTimeout    string `json:"write_timeout"`
	ShutdownTimeout string `json:"shutdown_timeout"`

	// SecureCookies marks session cookies Secure; leave off for local HTTP
	SecureCookies bool `json:"secure_cookies"`
}

// GmailConfig holds Gmail OAuth and import settings
type GmailConfig struct {
	Credentials string `json:"credentials"`
	RedirectURL string `json:"redirect_url"`

	// Query overrides the default mailbox search; empty keeps the builtin
	Query      string `json:"query"`
	MaxResults int64  `json:"max_results"`

	// PatternsFile points to a YAML file of extraction patterns (optional)
	PatternsFile string `json:"patterns_file"`
}

// StorageConfig holds resume blob storage settings
type StorageConfig struct {
	Region string `json:"region"`
	Bucket string `json:"bucket"`

	// Endpoint overrides the S3 endpoint for local stacks (MinIO, LocalStack)
	Endpoint string `json:"endpoint"`
}

// Config holds all configuration for the application tracker service
type Config struct {
	Server  ServerConfig  `json:"server"`
	Gmail   GmailConfig   `json:"gmail"`
	Storage StorageConfig `json:"storage"`

	// Database
	DBPath string `json:"db_path"`

	// Auth
	SessionTTL string `json:"session_ttl"`

	// Logging
	LogFile string `json:"log_file"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Gmail:      DefaultGmailConfig(),
		Storage:    DefaultStorageConfig(),
		DBPath:     filepath.Join(defaultConfigDir(), "apptrack.db"),
		SessionTTL: "168h",
		LogFile:    "",
	}
}

// DefaultServerConfig returns default HTTP server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     "15s",
		WriteTimeout:    "30s",
		ShutdownTimeout: "10s",
		SecureCookies:   false,
	}
}

// DefaultGmailConfig returns default Gmail import configuration
func DefaultGmailConfig() GmailConfig {
	return GmailConfig{
		Credentials: filepath.Join(defaultConfigDir(), "credentials.json"),
		RedirectURL: "http://localhost:8080/api/auth/gmail/callback",
		Query:       "",
		MaxResults:  50,
	}
}

// DefaultStorageConfig returns default blob storage configuration
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Region: "us-east-1",
		Bucket: "",
	}
}

// LoadConfig loads configuration from file, then applies environment
// overrides. A missing file is not an error; defaults apply.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", configPath, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment. Every key is
// optional; unset variables leave the file value in place.
func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Server.Addr, "APPTRACK_ADDR")
	setString(&c.DBPath, "APPTRACK_DB_PATH")
	setString(&c.LogFile, "APPTRACK_LOG_FILE")
	setString(&c.SessionTTL, "APPTRACK_SESSION_TTL")
	setString(&c.Gmail.Credentials, "APPTRACK_GMAIL_CREDENTIALS")
	setString(&c.Gmail.RedirectURL, "APPTRACK_GMAIL_REDIRECT_URL")
	setString(&c.Gmail.Query, "APPTRACK_GMAIL_QUERY")
	setString(&c.Gmail.PatternsFile, "APPTRACK_GMAIL_PATTERNS")
	setString(&c.Storage.Region, "APPTRACK_S3_REGION")
	setString(&c.Storage.Bucket, "APPTRACK_S3_BUCKET")
	setString(&c.Storage.Endpoint, "APPTRACK_S3_ENDPOINT")

	if v := os.Getenv("APPTRACK_GMAIL_MAX_RESULTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.Gmail.MaxResults = n
		}
	}
	if v := os.Getenv("APPTRACK_SECURE_COOKIES"); v != "" {
		c.Server.SecureCookies = v == "1" || strings.EqualFold(v, "true")
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server addr cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db_path cannot be empty")
	}
	if c.Gmail.MaxResults <= 0 {
		return fmt.Errorf("gmail max_results must be positive, got %d", c.Gmail.MaxResults)
	}
	for name, value := range map[string]string{
		"read_timeout":     c.Server.ReadTimeout,
		"write_timeout":    c.Server.WriteTimeout,
		"shutdown_timeout": c.Server.ShutdownTimeout,
		"session_ttl":      c.SessionTTL,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	return nil
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "apptrack")
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetSessionTTL returns the parsed session lifetime
func (c *Config) GetSessionTTL() time.Duration {
	return c.duration(c.SessionTTL, 168*time.Hour)
}

// GetReadTimeout returns the parsed server read timeout
func (c *Config) GetReadTimeout() time.Duration {
	return c.duration(c.Server.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the parsed server write timeout
func (c *Config) GetWriteTimeout() time.Duration {
	return c.duration(c.Server.WriteTimeout, 30*time.Second)
}

// GetShutdownTimeout returns the parsed graceful shutdown timeout
func (c *Config) GetShutdownTimeout() time.Duration {
	return c.duration(c.Server.ShutdownTimeout, 10*time.Second)
}

func (c *Config) duration(value string, fallback time.Duration) time.Duration {
	if value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
