// Package config loads the service configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the service looks for its configuration.
var DefaultPath = filepath.Join("internal", "visitlog", "config", "config.yaml")

// Config struct for YAML configuration
type Config struct {
	GRPCPort      int           `yaml:"GRPC_PORT"`
	HTTPPort      int           `yaml:"HTTP_PORT"`
	DBHost        string        `yaml:"DB_HOST"`
	DBPort        int           `yaml:"DB_PORT"`
	DBUser        string        `yaml:"DB_USER"`
	DBPassword    string        `yaml:"DB_PASSWORD"`
	DBName        string        `yaml:"DB_NAME"`
	DBSSLMode     string        `yaml:"DB_SSLMODE"`
	DBConnectWait time.Duration `yaml:"DB_CONNECT_WAIT"`
	KafkaBrokers  []string      `yaml:"KAFKA_BROKERS"`
	JWTSecret     string        `yaml:"JWT_SECRET"`
	Topic         string        `yaml:"TOPIC"`
	ConsumerGroup string        `yaml:"CONSUMER_GROUP"`
	DraftDBPath   string        `yaml:"DRAFT_DB_PATH"`
	DraftDebounce time.Duration `yaml:"DRAFT_DEBOUNCE"`
	// Timezone decides what "today" is for visit-date checks and elapsed days.
	Timezone string `yaml:"TIMEZONE"`
}

// Load reads and parses the file at path and fills in defaults.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(file)
}

// Parse decodes YAML configuration and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.setDefaults()
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.GRPCPort == 0 {
		c.GRPCPort = 50051
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.DBSSLMode == "" {
		c.DBSSLMode = "disable"
	}
	if c.DBConnectWait == 0 {
		c.DBConnectWait = 30 * time.Second
	}
	if c.Topic == "" {
		c.Topic = "visitlog.events"
	}
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "visitlog-eventlog"
	}
	if c.DraftDBPath == "" {
		c.DraftDBPath = ":memory:"
	}
	if c.DraftDebounce == 0 {
		c.DraftDebounce = 2 * time.Second
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
