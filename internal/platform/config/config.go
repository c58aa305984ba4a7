package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type Config struct {
	DataDir         string        `env:"GAMETUNE_DATA_DIR" envDefault:".gametune"`
	Store           string        `env:"GAMETUNE_STORE" envDefault:"sqlite"`
	CatalogPath     string        `env:"GAMETUNE_CATALOG"`
	GRPCAddr        string        `env:"GAMETUNE_GRPC_ADDR" envDefault:"127.0.0.1:7443"`
	LogLevel        string        `env:"GAMETUNE_LOG_LEVEL" envDefault:"info"`
	LogJSON         bool          `env:"GAMETUNE_LOG_JSON" envDefault:"false"`
	MonitorInterval time.Duration `env:"GAMETUNE_MONITOR_INTERVAL" envDefault:"60s"`
	Retention       time.Duration `env:"GAMETUNE_RETENTION" envDefault:"720h"`
	SweepInterval   time.Duration `env:"GAMETUNE_SWEEP_INTERVAL" envDefault:"24h"`
	LockTimeout     time.Duration `env:"GAMETUNE_LOCK_TIMEOUT" envDefault:"2s"`
	OTelEndpoint    string        `env:"GAMETUNE_OTEL_ENDPOINT"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse reads the environment without validating, so flags can still
// override what it found.
func Parse() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data dir is required")
	}
	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("unsupported store %q (memory|sqlite)", c.Store)
	}
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("monitor interval must be positive")
	}
	if c.Retention <= 0 {
		return fmt.Errorf("retention must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}
	return nil
}

func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "gametune.db")
}
