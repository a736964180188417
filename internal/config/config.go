// Package config loads service settings from the environment and an optional
// config file.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT" validate:"required,numeric"`
	DatabaseURL string `mapstructure:"DATABASE_URL" validate:"omitempty,url"`
	RedisURL    string `mapstructure:"REDIS_URL" validate:"omitempty,url"`

	// NetworkPath and FleetPath seed the service at startup when set.
	NetworkPath string `mapstructure:"NETWORK_PATH"`
	FleetPath   string `mapstructure:"FLEET_PATH"`

	// CongestionInterval of 0 disables periodic sweeps.
	CongestionInterval time.Duration `mapstructure:"CONGESTION_INTERVAL" validate:"gte=0"`
	CongestionModel    string        `mapstructure:"CONGESTION_MODEL" validate:"oneof=mild volatile"`
	CongestionSeed     int64         `mapstructure:"CONGESTION_SEED"`

	SelectionPolicy string `mapstructure:"SELECTION_POLICY" validate:"oneof=nearest colocated"`

	// RateRPS of 0 disables rate limiting.
	RateRPS   float64 `mapstructure:"RATE_RPS" validate:"gte=0"`
	RateBurst int     `mapstructure:"RATE_BURST" validate:"gte=0"`
}

var defaults = map[string]any{
	"PORT":                "8080",
	"DATABASE_URL":        "",
	"REDIS_URL":           "",
	"NETWORK_PATH":        "",
	"FLEET_PATH":          "",
	"CONGESTION_INTERVAL": "30s",
	"CONGESTION_MODEL":    "mild",
	"CONGESTION_SEED":     0,
	"SELECTION_POLICY":    "nearest",
	"RATE_RPS":            0,
	"RATE_BURST":          20,
}

// Load reads the environment, overlaid on file when file is non-empty, and
// validates the result. Environment variables win over the file.
func Load(file string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv() // Read in environment variables that match

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address for Port.
func (c *Config) Addr() string { return ":" + c.Port }

// Redacted lists settings safe to expose on debug endpoints.
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"PORT":                c.Port,
		"HAS_DATABASE_URL":    c.DatabaseURL != "",
		"HAS_REDIS_URL":       c.RedisURL != "",
		"NETWORK_PATH":        c.NetworkPath,
		"FLEET_PATH":          c.FleetPath,
		"CONGESTION_INTERVAL": c.CongestionInterval.String(),
		"CONGESTION_MODEL":    c.CongestionModel,
		"SELECTION_POLICY":    c.SelectionPolicy,
		"RATE_RPS":            c.RateRPS,
		"RATE_BURST":          c.RateBurst,
	}
}
