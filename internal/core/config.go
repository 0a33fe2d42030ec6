package core

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/labstack/gommon/bytes"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort             = 3000
	DefaultDatabaseType     = "sqlite"
	DefaultConnectionString = "./waste.db"
	DefaultUploadDirectory  = "uploads"
	DefaultMaxUploadSize    = "10M"
	DefaultLogLevel         = "info"

	// PortEnvVar overrides the configured port when set.
	PortEnvVar = "PORT"
)

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type ServiceConfig struct {
	Port            int      `yaml:"port"`
	Database        Database `yaml:"database"`
	UploadDirectory string   `yaml:"uploadDirectory"`
	// PublicBaseURL prefixes the image URLs returned to clients.
	// Defaults to http://localhost:<port>.
	PublicBaseURL string `yaml:"publicBaseURL"`
	MaxUploadSize string `yaml:"maxUploadSize"`
	LogLevel      string `yaml:"logLevel"`
}

// LoadConfig loads configuration from the specified YAML file.
// A missing file is not an error; defaults are used instead.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	var config ServiceConfig

	// Read the config file
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("config file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	default:
		// Parse YAML
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if err := config.applyEnvironment(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *ServiceConfig) applyEnvironment() error {
	raw := strings.TrimSpace(os.Getenv(PortEnvVar))
	if raw == "" {
		return nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s environment variable %q: %w", PortEnvVar, raw, err)
	}
	c.Port = port
	return nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Database.Type == "" {
		c.Database.Type = DefaultDatabaseType
	}
	if c.Database.ConnectionString == "" {
		c.Database.ConnectionString = DefaultConnectionString
	}
	if c.UploadDirectory == "" {
		c.UploadDirectory = DefaultUploadDirectory
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = DefaultMaxUploadSize
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

func (c *ServiceConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if _, err := bytes.Parse(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid maxUploadSize %q: %w", c.MaxUploadSize, err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel converts LogLevel into a slog.Level.
func (c *ServiceConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logLevel %q: %w", c.LogLevel, err)
	}
	return level, nil
}
