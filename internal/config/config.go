package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

type ServerConfig struct {
	Name          string         `yaml:"name"`
	Port          string         `yaml:"port,omitempty"`   // Server port, e.g. ":8080"
	Domain        string         `yaml:"domain,omitempty"` // Public host used in media URLs
	Database      DatabaseConfig `yaml:"database"`
	MediaRoot     string         `yaml:"media_root"`
	MediaURL      string         `yaml:"media_url"`
	MaxUploadSize int64          `yaml:"max_upload_size"` // Max upload size in MB
	RedisURL      string         `yaml:"redis_url,omitempty"`
	LockTTL       time.Duration  `yaml:"lock_ttl,omitempty"`
}

var Conf ServerConfig

// LoadConfig reads the YAML file at path into Conf. A missing file is not an
// error: defaults and environment overrides still apply.
func LoadConfig(path string) error {
	var c ServerConfig
	f, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(f, &c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(&c)
	applyDefaults(&c)
	Conf = c
	return nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(path string) error {
	// File size is stored in MB
	configCopy := Conf
	configCopy.MaxUploadSize = configCopy.MaxUploadSize / (1024 * 1024)

	data, err := yaml.Marshal(&configCopy)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func applyEnv(c *ServerConfig) {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Port = ":" + v
	}
}

func applyDefaults(c *ServerConfig) {
	if c.Name == "" {
		c.Name = "chat-backend"
	}
	if c.Port == "" {
		c.Port = ":8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "data/chat.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	if c.MediaRoot == "" {
		c.MediaRoot = "media"
	}
	if c.MediaURL == "" {
		c.MediaURL = "/media/"
	}

	// Default max upload size is 10MB
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = 10
	}
	// Convert MB to bytes for internal use
	c.MaxUploadSize = c.MaxUploadSize * 1024 * 1024

	if c.LockTTL == 0 {
		c.LockTTL = 30 * time.Second
	}
}
