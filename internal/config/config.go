// Package config loads application configuration from an optional YAML file
// and OPSDESK_* environment variables, env taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Log           LogConfig           `koanf:"log"`
	JWT           JWTConfig           `koanf:"jwt"`
	CORS          CORSConfig          `koanf:"cors"`
	Monitor       MonitorConfig       `koanf:"monitor"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectAttempts int           `koanf:"connect_attempts"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	// MigrationsDir, when set, points at a golang-migrate directory applied
	// on startup. Empty means migrations are managed externally.
	MigrationsDir string `koanf:"migrations_dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// JWTConfig holds token settings.
type JWTConfig struct {
	SecretKey           string        `koanf:"secret_key"`
	Issuer              string        `koanf:"issuer"`
	AccessTokenDuration time.Duration `koanf:"access_token_duration"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// MonitorConfig holds SLA sweep settings.
type MonitorConfig struct {
	SweepInterval time.Duration `koanf:"sweep_interval"`
	SweepTimeout  time.Duration `koanf:"sweep_timeout"`
	Workers       int           `koanf:"workers"`
	SummaryTime   string        `koanf:"summary_time"`
}

// NotificationsConfig holds notification delivery settings.
type NotificationsConfig struct {
	Enabled bool         `koanf:"enabled"`
	Email   EmailConfig  `koanf:"email"`
	Worker  WorkerConfig `koanf:"worker"`
	Retry   RetryConfig  `koanf:"retry"`
}

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Enabled       bool   `koanf:"enabled"`
	SMTPHost      string `koanf:"smtp_host"`
	SMTPPort      int    `koanf:"smtp_port"`
	SMTPUser      string `koanf:"smtp_user"`
	SMTPPassword  string `koanf:"smtp_password"`
	FromAddress   string `koanf:"from_address"`
	RatePerMinute int    `koanf:"rate_per_minute"`
}

// WorkerConfig holds outbox worker settings.
type WorkerConfig struct {
	BatchSize    int           `koanf:"batch_size"`
	PollInterval time.Duration `koanf:"poll_interval"`
	NumWorkers   int           `koanf:"num_workers"`
}

// RetryConfig holds delivery retry settings.
type RetryConfig struct {
	MaxAttempts       int           `koanf:"max_attempts"`
	InitialBackoff    time.Duration `koanf:"initial_backoff"`
	MaxBackoff        time.Duration `koanf:"max_backoff"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectAttempts: 5,
			ConnectTimeout:  30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		JWT: JWTConfig{
			Issuer:              "opsdesk",
			AccessTokenDuration: 12 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Monitor: MonitorConfig{
			SweepInterval: 15 * time.Minute,
			SweepTimeout:  2 * time.Minute,
			Workers:       4,
			SummaryTime:   "09:00",
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Email: EmailConfig{
				SMTPPort:      587,
				RatePerMinute: 60,
			},
			Worker: WorkerConfig{
				BatchSize:    100,
				PollInterval: 5 * time.Second,
				NumWorkers:   2,
			},
			Retry: RetryConfig{
				MaxAttempts:       3,
				InitialBackoff:    time.Second,
				MaxBackoff:        5 * time.Minute,
				BackoffMultiplier: 2.0,
			},
		},
	}
}

// Load reads configuration from the optional YAML file at path and from
// OPSDESK_* environment variables. Missing file is only an error when the
// path was given explicitly.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: "OPSDESK_",
		TransformFunc: func(key, value string) (string, any) {
			// OPSDESK_DATABASE__URL -> database.url, a single underscore
			// stays part of the key segment.
			key = strings.TrimPrefix(key, "OPSDESK_")
			key = strings.ToLower(key)
			key = strings.ReplaceAll(key, "__", ".")
			return key, value
		},
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.JWT.SecretKey == "" {
		errs = append(errs, errors.New("jwt.secret_key is required"))
	}
	if c.Monitor.SweepInterval <= 0 {
		errs = append(errs, errors.New("monitor.sweep_interval must be positive"))
	}
	return errors.Join(errs...)
}

// MustLoad is Load for main: any error is fatal.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
