// Package config handles fraudcheck configuration loading.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ymehili/fraudcheck/pkg/errors"
)

// Config is the root configuration structure.
type Config struct {
	Report   ReportConfig   `yaml:"report"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
}

// ReportConfig holds report generation settings.
type ReportConfig struct {
	// Page dimensions in PDF points.
	PageWidth  float64 `yaml:"page_width"`
	PageHeight float64 `yaml:"page_height"`
	Margin     float64 `yaml:"margin"`

	// Producer names the generator in footers and document metadata.
	Producer string `yaml:"producer"`

	// OutputDir is where generated artifacts land when no explicit path is
	// given.
	OutputDir string `yaml:"output_dir"`

	// Compress enables content stream compression in the PDF sink.
	Compress bool `yaml:"compress"`
}

// ServerConfig holds HTTP API settings. Timeouts are in seconds.
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`

	// AllowedOrigins restricts CORS; "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ReadTimeout returns the configured read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the configured write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// DatabaseConfig holds audit store settings. An empty DSN disables the
// audit trail entirely.
type DatabaseConfig struct {
	DSN           string `yaml:"dsn"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Report: ReportConfig{
			PageWidth:  612,
			PageHeight: 792,
			Margin:     54,
			Producer:   "FraudCheck Analysis Engine",
			OutputDir:  "./reports",
			Compress:   true,
		},
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                8090,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 60,
			AllowedOrigins:      []string{"*"},
		},
		Database: DatabaseConfig{
			RetentionDays: 90,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfig(err, errors.CodeConfigRead, "failed to read config").
			WithContext("path", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapConfig(err, errors.CodeConfigParse, "failed to parse config").
			WithContext("path", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Validate checks settings that would otherwise fail deep inside layout.
func (c *Config) Validate() error {
	r := c.Report
	if r.PageWidth <= 0 || r.PageHeight <= 0 {
		return errors.ConfigErrorf(errors.CodeConfigParse,
			"page dimensions %vx%v must be positive", r.PageWidth, r.PageHeight)
	}
	if r.Margin < 0 || 2*r.Margin >= r.PageWidth || 2*r.Margin >= r.PageHeight {
		return errors.ConfigErrorf(errors.CodeConfigParse,
			"margin %v leaves no content area on a %vx%v page", r.Margin, r.PageWidth, r.PageHeight)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.ConfigErrorf(errors.CodeConfigParse, "port %d out of range", c.Server.Port)
	}
	return nil
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WrapConfig(err, errors.CodeConfigRead, "failed to create config directory").
			WithContext("path", path)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.WrapConfig(err, errors.CodeConfigParse, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapConfig(err, errors.CodeConfigRead, "failed to write config file").
			WithContext("path", path)
	}
	return nil
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	if _, err := os.Stat("fraudcheck.yaml"); err == nil {
		return "fraudcheck.yaml"
	}
	if _, err := os.Stat("config/fraudcheck.yaml"); err == nil {
		return "config/fraudcheck.yaml"
	}
	return "fraudcheck.yaml"
}

// InitConfig creates a default config file if it doesn't exist.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // already exists
	}

	cfg := Default()
	return cfg.Save(path)
}
