// Package config loads server configuration from an optional YAML file with
// environment-variable overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// Driver selects the store backend: memory or postgres
		Driver      string `yaml:"driver"`
		DatabaseURL string `yaml:"database_url"`
	} `yaml:"storage"`

	Orchestrator struct {
		TickInterval time.Duration `yaml:"tick_interval"`
		StageTimeout time.Duration `yaml:"stage_timeout"`
		// SimStageDuration is how long the simulated runner spends per stage
		SimStageDuration time.Duration `yaml:"sim_stage_duration"`
	} `yaml:"orchestrator"`

	Callback struct {
		Timeout time.Duration `yaml:"timeout"`
		Retries int           `yaml:"retries"`
	} `yaml:"callback"`
}

// Load reads the config file at path (optional, "" skips it), applies
// defaults and environment overrides, then validates.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Storage.Driver = "memory"
	cfg.Storage.DatabaseURL = "postgres://localhost/training_orchestrator?sslmode=disable"
	cfg.Orchestrator.TickInterval = time.Second
	cfg.Orchestrator.StageTimeout = 30 * time.Minute
	cfg.Orchestrator.SimStageDuration = 5 * time.Second
	cfg.Callback.Timeout = 5 * time.Second
	cfg.Callback.Retries = 2
	return cfg
}

// Validate reports every invalid field, not just the first
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr must not be empty")
	}
	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q must be memory or postgres", c.Storage.Driver))
	}
	if c.Storage.Driver == "postgres" && c.Storage.DatabaseURL == "" {
		problems = append(problems, "storage.database_url required for the postgres driver")
	}
	if c.Orchestrator.TickInterval <= 0 {
		problems = append(problems, "orchestrator.tick_interval must be positive")
	}
	if c.Orchestrator.StageTimeout <= 0 {
		problems = append(problems, "orchestrator.stage_timeout must be positive")
	}
	if c.Orchestrator.SimStageDuration <= 0 {
		problems = append(problems, "orchestrator.sim_stage_duration must be positive")
	}
	if c.Callback.Timeout <= 0 {
		problems = append(problems, "callback.timeout must be positive")
	}
	if c.Callback.Retries < 0 {
		problems = append(problems, "callback.retries must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
