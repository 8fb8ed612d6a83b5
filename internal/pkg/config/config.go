package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"

	LockRedis  = "redis"
	LockMemory = "memory"
)

type Config struct {
	Port        string `env:"PORT,         default=8080"`
	Env         string `env:"ENV,          default=development"`
	LogLevel    string `env:"LOG_LEVEL,    default=info"`
	ServiceName string `env:"SERVICE_NAME, default=crossborder-tracker"`

	StoreDriver string        `env:"STORE_DRIVER, default=mongo"`
	LockDriver  string        `env:"LOCK_DRIVER,  default=redis"`
	LockTTL     time.Duration `env:"LOCK_TTL,     default=10m"`

	Mongo     MongoConfig
	Redis     RedisConfig
	SQLite    SQLiteConfig
	Nimbus    NimbusConfig
	Worker    WorkerConfig
	Warehouse WarehouseConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=crossborder"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=crossborder.db"`
}

// NimbusConfig points at the domestic courier API.
type NimbusConfig struct {
	BaseURL  string        `env:"NIMBUS_BASE_URL, default=https://api.nimbuspost.com/v1"`
	Email    string        `env:"NIMBUS_EMAIL"`
	Password string        `env:"NIMBUS_PASSWORD"`
	Timeout  time.Duration `env:"NIMBUS_TIMEOUT,  default=15s"`
}

// WorkerConfig drives the in-process scheduler started by `serve`. A zero
// interval disables that job; external cron can call the job endpoints or
// the CLI instead.
type WorkerConfig struct {
	Enabled            bool          `env:"WORKERS_ENABLED,         default=false"`
	DomesticSyncEvery  time.Duration `env:"DOMESTIC_SYNC_INTERVAL,  default=15m"`
	SimulationEvery    time.Duration `env:"SIMULATION_INTERVAL,     default=30m"`
	StuckDetectorEvery time.Duration `env:"STUCK_DETECTOR_INTERVAL, default=1h"`
}

// WarehouseConfig holds the counter warehouse address. Punctuation is ignored
// when matching destinations, so the default carries none.
type WarehouseConfig struct {
	Address string `env:"WAREHOUSE_ADDRESS, default=ShipBridge Hub Okhla Phase II New Delhi"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadContext(context.Background())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadContext is Load without the panic, for callers that want to report the
// error themselves.
func LoadContext(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMongo, StoreSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.LockDriver {
	case LockRedis, LockMemory:
	default:
		return fmt.Errorf("unknown LOCK_DRIVER %q", c.LockDriver)
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive, got %s", c.LockTTL)
	}
	return nil
}
