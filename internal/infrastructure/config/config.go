package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
	"github.com/voicegate/fraud-manager-backend/internal/service/detection"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Fraud    FraudConfig    `koanf:"fraud"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `koanf:"requests_per_second"`
	BurstSize         int `koanf:"burst_size"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MinIdleConns    int           `koanf:"min_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL      string        `koanf:"url"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
	Enabled  bool          `koanf:"enabled"`
}

type FraudConfig struct {
	// Threshold is the number of distinct national IDs within a window
	// that triggers an automatic block.
	Threshold int `koanf:"threshold"`

	MonthWindowDays int `koanf:"month_window_days"`
	WeekWindowDays  int `koanf:"week_window_days"`
	DayWindowDays   int `koanf:"day_window_days"`

	// DeferEvaluation pushes window evaluation off the request path;
	// the webhook then answers optimistically while the block entry is
	// written in the background.
	DeferEvaluation bool `koanf:"defer_evaluation"`
}

// DetectionConfig translates the fraud section into engine settings.
func (f FraudConfig) DetectionConfig() detection.Config {
	return detection.Config{
		Threshold: f.Threshold,
		Windows: []fraud.Window{
			{Name: "month", Days: f.MonthWindowDays},
			{Name: "week", Days: f.WeekWindowDays},
			{Name: "day", Days: f.DayWindowDays},
		},
	}
}

func Load() (*Config, error) {
	return LoadFromFile("configs/config.yaml")
}

// LoadFromFile loads defaults, then the YAML file at path when it
// exists, then FMB_-prefixed environment variables, each layer
// overriding the previous one.
func LoadFromFile(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 50,
				BurstSize:         100,
			},
		},
		Database: DatabaseConfig{
			URL:             "postgres://localhost:5432/fraud_manager?sslmode=disable",
			MaxOpenConns:    25,
			MinIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			URL:     "localhost:6379",
			DB:      0,
			TTL:     15 * time.Minute,
			Enabled: true,
		},
		Fraud: FraudConfig{
			Threshold:       3,
			MonthWindowDays: 30,
			WeekWindowDays:  7,
			DayWindowDays:   1,
			DeferEvaluation: true,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file is optional.
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !strings.Contains(err.Error(), "no such file") {
		return nil, fmt.Errorf("loading config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider("FMB_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "FMB_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	if c.Fraud.Threshold <= 0 {
		return fmt.Errorf("fraud threshold must be positive, got %d", c.Fraud.Threshold)
	}
	for name, days := range map[string]int{
		"month": c.Fraud.MonthWindowDays,
		"week":  c.Fraud.WeekWindowDays,
		"day":   c.Fraud.DayWindowDays,
	} {
		if days <= 0 {
			return fmt.Errorf("%s window must span at least one day, got %d", name, days)
		}
	}
	return nil
}

// IsDevelopment reports whether the service runs in a development
// environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
