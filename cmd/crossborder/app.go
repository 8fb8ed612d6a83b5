package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/crossborder-tracker/internal/api/handler"
	"github.com/99minutos/crossborder-tracker/internal/core/jobs"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
	"github.com/99minutos/crossborder-tracker/internal/core/service"
	"github.com/99minutos/crossborder-tracker/internal/infrastructure/courier/nimbus"
	"github.com/99minutos/crossborder-tracker/internal/infrastructure/db/mongo"
	"github.com/99minutos/crossborder-tracker/internal/infrastructure/db/redis"
	"github.com/99minutos/crossborder-tracker/internal/infrastructure/db/sqlite"
	"github.com/99minutos/crossborder-tracker/internal/infrastructure/lock"
	"github.com/99minutos/crossborder-tracker/internal/infrastructure/notify"
	"github.com/99minutos/crossborder-tracker/internal/pkg/config"
	"github.com/99minutos/crossborder-tracker/internal/pkg/validate"
	"github.com/99minutos/crossborder-tracker/pkg/logger"
)

// app holds every wired component plus the handles that must be closed on
// shutdown.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	shipments ports.ShipmentRepository
	timeline  ports.TimelineRepository
	apiLogs   ports.APILogRepository
	locker    ports.Locker

	machine  *service.StateMachine
	bookings *service.BookingService

	domesticSync *jobs.DomesticSyncWorker
	simulation   *jobs.InternationalSimulationWorker
	stuck        *jobs.StuckShipmentDetector

	probes  []handler.Probe
	closers []func(ctx context.Context) error
}

// bootstrap loads configuration, initialises the logger and wires the app.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.LoadContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: cfg.ServiceName,
	})

	return newApp(ctx, cfg, log)
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if err := a.openStore(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}
	if err := a.openLocker(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}

	courier := nimbus.NewClient(
		nimbus.Config{
			BaseURL:  cfg.Nimbus.BaseURL,
			Email:    cfg.Nimbus.Email,
			Password: cfg.Nimbus.Password,
			Timeout:  cfg.Nimbus.Timeout,
		},
		nimbus.WithAuditLog(a.apiLogs),
		nimbus.WithLogger(log),
	)

	a.machine = service.NewStateMachine(a.shipments, a.timeline, log.With().Str("component", "state_machine").Logger())
	a.machine.SetSideEffects(service.NewStatusSideEffects(
		a.machine,
		a.shipments,
		notify.NewLogNotifier(log),
		cfg.Warehouse.Address,
		log.With().Str("component", "side_effects").Logger(),
	))

	a.bookings = service.NewBookingService(a.shipments, courier, a.machine, validate.New(), log.With().Str("component", "booking").Logger())

	a.domesticSync = jobs.NewDomesticSyncWorker(a.shipments, courier, a.machine, a.locker, cfg.Warehouse.Address, log)
	a.simulation = jobs.NewInternationalSimulationWorker(a.shipments, a.machine, a.locker, log)
	a.stuck = jobs.NewStuckShipmentDetector(a.shipments, a.timeline, log)

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, sqlite.Config{Path: a.cfg.SQLite.Path})
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		a.shipments = sqlite.NewShipmentRepository(db)
		a.timeline = sqlite.NewTimelineRepository(db)
		a.apiLogs = sqlite.NewAPILogRepository(db)
		a.probes = append(a.probes, handler.Probe{Name: "sqlite", Check: db.PingContext})
		a.closers = append(a.closers, closeSQL(db))
		a.log.Info().Str("path", a.cfg.SQLite.Path).Msg("sqlite store ready")

	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: a.cfg.Mongo.URI, Database: a.cfg.Mongo.Database})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Disconnect)
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		a.shipments = mongo.NewShipmentRepository(db)
		a.timeline = mongo.NewTimelineRepository(db)
		a.apiLogs = mongo.NewAPILogRepository(db)
		a.probes = append(a.probes, handler.Probe{Name: "mongodb", Check: mongo.Probe(db)})
		a.log.Info().Str("database", a.cfg.Mongo.Database).Msg("mongodb store ready")
	}
	return nil
}

func (a *app) openLocker(ctx context.Context) error {
	switch a.cfg.LockDriver {
	case config.LockMemory:
		a.locker = lock.NewMemory()
		a.log.Warn().Msg("in-memory locks: job exclusion only holds within this process")

	default:
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		a.locker = redis.NewLocker(client, a.cfg.LockTTL)
		a.probes = append(a.probes, handler.Probe{Name: "redis", Check: redis.Probe(client)})
	}
	return nil
}

// close releases handles in reverse order of acquisition.
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Error().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

func closeSQL(db *sql.DB) func(context.Context) error {
	return func(context.Context) error { return db.Close() }
}
