package config

import (
	"context"
	"time"
)

// Config is the complete configuration for the feedback engine. Values are
// resolved from defaults, an optional YAML file and environment variables,
// in that order of precedence.
type Config struct {
	Server     ServerConfig     `koanf:"server"     validate:"required"`
	Database   DatabaseConfig   `koanf:"database"   validate:"required"`
	Weights    WeightsConfig    `koanf:"weights"`
	Bridge     BridgeConfig     `koanf:"bridge"     validate:"required"`
	Runtime    RuntimeConfig    `koanf:"runtime"    validate:"required"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host    string        `koanf:"host"    validate:"required"        env:"SERVER_HOST"`
	Port    int           `koanf:"port"    validate:"min=1,max=65535" env:"SERVER_PORT"`
	Timeout time.Duration `koanf:"timeout"                            env:"SERVER_TIMEOUT"`
}

// DatabaseConfig contains karma ledger database connection configuration.
type DatabaseConfig struct {
	ConnString  string          `koanf:"conn_string"  env:"DB_CONN_STRING"`
	Host        string          `koanf:"host"         env:"DB_HOST"`
	Port        string          `koanf:"port"         env:"DB_PORT"`
	User        string          `koanf:"user"         env:"DB_USER"`
	Password    SensitiveString `koanf:"password"     env:"DB_PASSWORD"     sensitive:"true"`
	DBName      string          `koanf:"name"         env:"DB_NAME"`
	SSLMode     string          `koanf:"ssl_mode"     env:"DB_SSL_MODE"`
	AutoMigrate bool            `koanf:"auto_migrate" env:"DB_AUTO_MIGRATE"`
}

// WeightsConfig points at the external behavior-weight source.
type WeightsConfig struct {
	Path string `koanf:"path" env:"WEIGHTS_PATH"`
}

// BridgeConfig contains STP bridge forwarding configuration.
type BridgeConfig struct {
	Endpoint      string        `koanf:"endpoint"       validate:"required,url" env:"BRIDGE_ENDPOINT"`
	RetryAttempts int           `koanf:"retry_attempts" validate:"min=1"        env:"BRIDGE_RETRY_ATTEMPTS"`
	Timeout       time.Duration `koanf:"timeout"        validate:"min=0"        env:"BRIDGE_TIMEOUT"`
	Enabled       bool          `koanf:"enabled"                                env:"BRIDGE_ENABLED"`
	RetryBackoff  time.Duration `koanf:"retry_backoff"  validate:"min=0"        env:"BRIDGE_RETRY_BACKOFF"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production" env:"RUNTIME_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error"          env:"RUNTIME_LOG_LEVEL"`
}

// MonitoringConfig controls the Prometheus metrics endpoint.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"MONITORING_PATH"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:        "localhost",
			Port:        "5432",
			User:        "postgres",
			DBName:      "karmachain",
			SSLMode:     "disable",
			AutoMigrate: true,
		},
		Weights: WeightsConfig{
			Path: "context_weights.json",
		},
		Bridge: BridgeConfig{
			Endpoint:      "http://localhost:8001/api/v1/insightflow/receive",
			RetryAttempts: 3,
			Timeout:       10 * time.Second,
			Enabled:       true,
			RetryBackoff:  0,
		},
		Runtime: RuntimeConfig{
			Environment: "development",
			LogLevel:    "info",
		},
		Monitoring: MonitoringConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Service loads and validates configuration from a set of sources.
type Service interface {
	Load(ctx context.Context, sources ...Source) (*Config, error)
	Validate(config *Config) error
}
