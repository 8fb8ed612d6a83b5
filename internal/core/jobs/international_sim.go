package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
	"github.com/99minutos/crossborder-tracker/internal/pkg/metrics"
)

const jobInternationalSim = "international_simulation"

// SimulationResult summarises one simulation pass.
type SimulationResult struct {
	Processed int `json:"processed"`
	Advanced  int `json:"advanced"`
	Errors    int `json:"errors"`
}

// InternationalSimulationWorker walks INTERNATIONAL shipments one step along
// the fixed carrier sequence per pass.
type InternationalSimulationWorker struct {
	repo     ports.ShipmentRepository
	advancer ports.Advancer
	locker   ports.Locker
	log      zerolog.Logger
}

func NewInternationalSimulationWorker(
	repo ports.ShipmentRepository,
	advancer ports.Advancer,
	locker ports.Locker,
	log zerolog.Logger,
) *InternationalSimulationWorker {
	return &InternationalSimulationWorker{
		repo:     repo,
		advancer: advancer,
		locker:   locker,
		log:      log.With().Str("job", jobInternationalSim).Logger(),
	}
}

// Run executes one pass.
func (w *InternationalSimulationWorker) Run(ctx context.Context) (res SimulationResult, err error) {
	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues(jobInternationalSim).Observe(time.Since(start).Seconds())
	}()

	shipments, err := w.repo.ListByLeg(ctx, domain.LegInternational)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(jobInternationalSim, "failed").Inc()
		return res, fmt.Errorf("international simulation: list shipments: %w", err)
	}

	for _, s := range shipments {
		if ctx.Err() != nil {
			break
		}
		res.Processed++
		outcome := w.step(ctx, s)
		metrics.JobItemsTotal.WithLabelValues(jobInternationalSim, outcome).Inc()
		switch outcome {
		case "advanced":
			res.Advanced++
		case "error":
			res.Errors++
		}
	}

	metrics.JobRunsTotal.WithLabelValues(jobInternationalSim, "completed").Inc()
	w.log.Info().
		Int("processed", res.Processed).
		Int("advanced", res.Advanced).
		Int("errors", res.Errors).
		Msg("international simulation finished")
	return res, nil
}

// step advances one shipment under its own lock and reports "advanced",
// "skipped" or "error".
func (w *InternationalSimulationWorker) step(ctx context.Context, s *domain.Shipment) (outcome string) {
	l := w.log.With().Str("shipment_id", s.ID).Logger()
	key := ShipmentLockKey(s.ID)

	held, err := w.locker.TryLock(ctx, key)
	if err != nil {
		l.Error().Err(err).Msg("failed to acquire shipment lock")
		return "error"
	}
	if !held {
		l.Debug().Msg("shipment locked by another pass, skipping")
		return "skipped"
	}
	defer func() {
		if uerr := w.locker.Unlock(context.WithoutCancel(ctx), key); uerr != nil {
			l.Error().Err(uerr).Msg("failed to release shipment lock")
		}
	}()

	next, ok := domain.NextInternational(s.Status)
	if !ok {
		return "skipped"
	}

	in := ports.AdvanceInput{
		ShipmentID:      s.ID,
		Status:          next,
		Source:          domain.SourceSimulation,
		ExpectedVersion: s.Version,
	}

	_, err = w.advancer.Advance(ctx, in)
	if err != nil && !domain.IsDomainError(err) {
		l.Warn().Err(err).Msg("advance failed, retrying once")
		_, err = w.advancer.Advance(ctx, in)
	}
	if err != nil {
		l.Error().Err(err).Str("to", string(next)).Msg("advance failed")
		return "error"
	}
	return "advanced"
}
