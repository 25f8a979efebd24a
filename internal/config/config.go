// Package config loads the application configuration from a YAML file
// with environment-variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"granville-signal-lab/internal/domain"
)

// Config is the full application configuration surface.
type Config struct {
	Environment string `yaml:"environment"`

	Log struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // json or console
	} `yaml:"log"`

	Storage struct {
		// Backend selects "memory" (fixtures and tests) or "db".
		Backend       string `yaml:"backend"`
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"storage"`

	OutputDir string `yaml:"output_dir"`

	Simulation domain.SimConfig    `yaml:"simulation"`
	Regime     domain.RegimeConfig `yaml:"regime"`
	Training   domain.TrainConfig  `yaml:"training"`
}

// Load reads and parses a YAML configuration file. A .env file next to
// the working directory is folded into the environment first, so DSNs can
// stay out of the YAML.
func Load(path string) (*Config, error) {
	// Missing .env is fine; env vars may come from the deployment.
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyEnv()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Default returns the configuration used when no file is given: memory
// backend, fixture-friendly simulation and training parameters.
func Default() *Config {
	c := &Config{}
	c.Simulation = domain.SimConfig{
		StopLossPct:       3.5,
		MaxHoldDays:       10,
		TrailingRules:     []domain.TrailingRule{{GainThresholdPct: 5, NewStopPct: 1}},
		UseTechnicalExits: true,
		TimeDecayCutDay:   6,
	}
	// The fixture universe spans a single year, so the training window
	// is scaled down from the 24-month production warm-up.
	c.Training = domain.TrainConfig{
		MinTrainMonths:  3,
		MinFoldExamples: 10,
		MaxMissingRatio: 0.5,
		NumTrees:        50,
		MaxDepth:        3,
		LearningRate:    0.1,
		MinLeaf:         5,
	}
	c.applyDefaults()
	return c
}

func (c *Config) applyEnv() {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.Training.MinTrainMonths == 0 {
		c.Training = domain.DefaultTrainConfig()
	}
	c.Simulation.Normalize()
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "db":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the db backend")
		}
		if c.Storage.ClickhouseDSN == "" {
			return fmt.Errorf("storage.clickhouse_dsn is required for the db backend")
		}
	default:
		return fmt.Errorf("storage.backend must be 'memory' or 'db', got %q", c.Storage.Backend)
	}
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if err := c.Training.Validate(); err != nil {
		return err
	}
	return nil
}
