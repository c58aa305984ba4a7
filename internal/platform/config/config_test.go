package config_test

import (
	"testing"
	"time"

	"gametune/internal/platform/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"GAMETUNE_DATA_DIR", "GAMETUNE_STORE", "GAMETUNE_MONITOR_INTERVAL", "GAMETUNE_RETENTION"} {
		t.Setenv(key, "")
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != ".gametune" || cfg.Store != config.StoreSQLite {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.MonitorInterval != 60*time.Second || cfg.Retention != 720*time.Hour {
		t.Fatalf("unexpected interval defaults %+v", cfg)
	}
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	cfg := config.Config{DataDir: "  ", Store: config.StoreMemory, MonitorInterval: time.Second, Retention: time.Hour, SweepInterval: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected empty data dir to fail validation")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GAMETUNE_DATA_DIR", "/tmp/gt")
	t.Setenv("GAMETUNE_STORE", "memory")
	t.Setenv("GAMETUNE_MONITOR_INTERVAL", "5s")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != config.StoreMemory || cfg.MonitorInterval != 5*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Retention != 30*24*time.Hour {
		t.Fatalf("expected 30 day retention default, got %s", cfg.Retention)
	}
	if cfg.DBPath() != "/tmp/gt/gametune.db" {
		t.Fatalf("unexpected db path %s", cfg.DBPath())
	}
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	cfg := config.Config{DataDir: "x", Store: "redis", MonitorInterval: time.Second, Retention: time.Hour, SweepInterval: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported store to fail")
	}
}
