package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Routing   RoutingConfig   `yaml:"routing"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// StoreConfig selects the conversation store: "postgres" or "memory".
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Addresses []string      `yaml:"addresses"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	PoolSize  int           `yaml:"pool_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

type TelemetryConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	LogFile     string `yaml:"log_file"`
	MetricsPort int    `yaml:"metrics_port"`
}

type RoutingConfig struct {
	// DefaultModelProfile is used when neither the call nor the conversation names a profile.
	DefaultModelProfile string           `yaml:"default_model_profile"`
	ContextWindow       int              `yaml:"context_window"`
	ProviderTimeout     time.Duration    `yaml:"provider_timeout"`
	Classifier          ClassifierConfig `yaml:"classifier"`
}

// ClassifierConfig names the router backend used for intent classification.
// It is not user-selectable.
type ClassifierConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	DefaultModel  string        `yaml:"default_model"`
	AllowedModels []string      `yaml:"allowed_models"`
	Timeout       time.Duration `yaml:"timeout"`
}

const DefaultContextWindow = 30

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Store: StoreConfig{Backend: "postgres"},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "orchestrator",
			User:            "orchestrator",
			MaxOpenConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addresses: []string{"localhost:6379"},
			DB:        0,
			PoolSize:  50,
			CacheTTL:  5 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsPort: 9090,
		},
		Routing: RoutingConfig{
			DefaultModelProfile: "gpt-4o",
			ContextWindow:       DefaultContextWindow,
			ProviderTimeout:     60 * time.Second,
			Classifier: ClassifierConfig{
				Provider:     "openai",
				Model:        "gpt-4.1-mini",
				DefaultModel: "gpt-4o",
				AllowedModels: []string{
					"gpt-4o",
					"gpt-4.1-mini",
					"claude-3-5-sonnet-20241022",
					"gemini-1.5-pro",
				},
				Timeout: 15 * time.Second,
			},
		},
	}
}
