package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	BookingAPI BookingAPIConfig `yaml:"booking_api"`
	Identity   IdentityConfig   `yaml:"identity"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

// BookingAPIConfig points at the external booking API that owns flight
// inventory, pricing and persistence.
type BookingAPIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c BookingAPIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// IdentityConfig connects the hosted identity provider. Both fields empty is
// a supported configuration: the service runs in guest-only mode.
type IdentityConfig struct {
	URL            string `yaml:"url"`
	AnonKey        string `yaml:"anon_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c IdentityConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type WorkflowConfig struct {
	DraftTTLMinutes int `yaml:"draft_ttl_minutes"`
}

func (c WorkflowConfig) DraftTTL() time.Duration {
	if c.DraftTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.DraftTTLMinutes) * time.Minute
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.BookingAPI.BaseURL == "" {
		cfg.BookingAPI.BaseURL = "http://localhost:3000"
	}

	return &cfg, nil
}
