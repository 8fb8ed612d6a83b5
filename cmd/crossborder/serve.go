package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/99minutos/crossborder-tracker/internal/api"
	"github.com/99minutos/crossborder-tracker/internal/infrastructure/queue"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Start the HTTP API. With WORKERS_ENABLED=true the background jobs also run
in-process on the configured intervals; otherwise trigger them through the
/v1/jobs endpoints or the "jobs" command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	e := api.NewRouter(api.Deps{
		Bookings:  a.bookings,
		Shipments: a.machine,
		Sync:      a.domesticSync,
		Simulate:  a.simulation,
		Stuck:     a.stuck,
		Probes:    a.probes,
		Log:       a.log,
	})

	var sched *queue.Scheduler
	if a.cfg.Worker.Enabled {
		sched = queue.NewScheduler(a.log, a.scheduledJobs()...)
		sched.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", a.cfg.Port).Str("store", a.cfg.StoreDriver).Str("locks", a.cfg.LockDriver).Msg("http server starting")
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("http shutdown failed")
	}
	if sched != nil {
		sched.Wait()
	}
	return nil
}

func (a *app) scheduledJobs() []queue.Job {
	return []queue.Job{
		{
			Name:  "domestic_sync",
			Every: a.cfg.Worker.DomesticSyncEvery,
			Run: func(ctx context.Context) error {
				_, err := a.domesticSync.Run(ctx)
				return err
			},
		},
		{
			Name:  "international_simulation",
			Every: a.cfg.Worker.SimulationEvery,
			Run: func(ctx context.Context) error {
				_, err := a.simulation.Run(ctx)
				return err
			},
		},
		{
			Name:  "stuck_detection",
			Every: a.cfg.Worker.StuckDetectorEvery,
			Run: func(ctx context.Context) error {
				_, err := a.stuck.Run(ctx)
				return err
			},
		},
	}
}
