package config

import (
	"context"
	"testing"
	"time"
)

func TestLoadContext_Defaults(t *testing.T) {
	cfg, err := LoadContext(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreDriver != StoreMongo || cfg.LockDriver != LockRedis {
		t.Errorf("unexpected drivers: %s/%s", cfg.StoreDriver, cfg.LockDriver)
	}
	if cfg.LockTTL != 10*time.Minute {
		t.Errorf("expected 10m lock TTL, got %s", cfg.LockTTL)
	}
	if cfg.Warehouse.Address == "" {
		t.Error("expected a default warehouse address")
	}
	if cfg.Worker.Enabled {
		t.Error("in-process workers are opt-in")
	}
}

func TestLoadContext_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("LOCK_DRIVER", "memory")
	t.Setenv("LOCK_TTL", "90s")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("DOMESTIC_SYNC_INTERVAL", "5m")

	cfg, err := LoadContext(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreDriver != StoreSQLite || cfg.LockDriver != LockMemory {
		t.Errorf("unexpected drivers: %s/%s", cfg.StoreDriver, cfg.LockDriver)
	}
	if cfg.LockTTL != 90*time.Second || cfg.SQLite.Path != "/tmp/x.db" || cfg.Worker.DomesticSyncEvery != 5*time.Minute {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadContext_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	if _, err := LoadContext(context.Background()); err == nil {
		t.Error("expected an error for an unknown store driver")
	}
}
