// Package jobs holds the periodic units of work that move shipments forward
// without a user request: courier tracking sync, the international
// simulation and the stuck-shipment detector. Each Run is safe to invoke
// redundantly from several processes at once.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
	"github.com/99minutos/crossborder-tracker/internal/core/service"
	"github.com/99minutos/crossborder-tracker/internal/pkg/metrics"
	"github.com/99minutos/crossborder-tracker/internal/pkg/reqctx"
)

const jobDomesticSync = "domestic_sync"

// DomesticSyncResult summarises one cycle. All zero means the cycle was
// skipped because another holder owned the lock.
type DomesticSyncResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// DomesticSyncWorker polls the domestic courier for every booked DOMESTIC
// shipment and applies what it reports.
type DomesticSyncWorker struct {
	repo             ports.ShipmentRepository
	courier          ports.CourierClient
	advancer         ports.Advancer
	locker           ports.Locker
	warehouseAddress string
	log              zerolog.Logger
}

func NewDomesticSyncWorker(
	repo ports.ShipmentRepository,
	courier ports.CourierClient,
	advancer ports.Advancer,
	locker ports.Locker,
	warehouseAddress string,
	log zerolog.Logger,
) *DomesticSyncWorker {
	return &DomesticSyncWorker{
		repo:             repo,
		courier:          courier,
		advancer:         advancer,
		locker:           locker,
		warehouseAddress: warehouseAddress,
		log:              log.With().Str("job", jobDomesticSync).Logger(),
	}
}

// Run executes one sync cycle.
func (w *DomesticSyncWorker) Run(ctx context.Context) (res DomesticSyncResult, err error) {
	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues(jobDomesticSync).Observe(time.Since(start).Seconds())
	}()

	ctx = reqctx.EnsureCorrelationID(ctx)
	held, err := w.locker.TryLock(ctx, DomesticSyncLockKey)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(jobDomesticSync, "failed").Inc()
		return res, fmt.Errorf("domestic sync: acquire lock: %w", err)
	}
	if !held {
		metrics.JobRunsTotal.WithLabelValues(jobDomesticSync, "lock_busy").Inc()
		w.log.Debug().Msg("another cycle holds the lock, skipping")
		return res, nil
	}
	defer func() {
		// The run's ctx may already be cancelled; release on a fresh one.
		if uerr := w.locker.Unlock(context.WithoutCancel(ctx), DomesticSyncLockKey); uerr != nil {
			w.log.Error().Err(uerr).Msg("failed to release lock")
		}
	}()

	shipments, err := w.repo.ListDomesticSyncable(ctx)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(jobDomesticSync, "failed").Inc()
		return res, fmt.Errorf("domestic sync: list shipments: %w", err)
	}

	for _, s := range shipments {
		if ctx.Err() != nil {
			break
		}
		res.Processed++
		outcome := w.sync(ctx, s)
		metrics.JobItemsTotal.WithLabelValues(jobDomesticSync, outcome).Inc()
		switch outcome {
		case "updated":
			res.Updated++
		case "skipped":
			res.Skipped++
		default:
			res.Errors++
		}
	}

	metrics.JobRunsTotal.WithLabelValues(jobDomesticSync, "completed").Inc()
	w.log.Info().
		Int("processed", res.Processed).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("errors", res.Errors).
		Msg("domestic sync finished")
	return res, nil
}

// sync handles one shipment and reports "updated", "skipped" or "error".
func (w *DomesticSyncWorker) sync(ctx context.Context, s *domain.Shipment) string {
	l := w.log.With().Str("shipment_id", s.ID).Logger()

	if !domain.HasOutgoing(s.Leg, s.Status) {
		return "skipped"
	}
	if s.DomesticAWB == nil || *s.DomesticAWB == "" {
		l.Warn().Str("status", string(s.Status)).Msg("booked shipment has no AWB")
		return "error"
	}

	tracking, err := w.courier.Track(reqctx.WithShipmentID(ctx, s.ID), *s.DomesticAWB)
	if err != nil {
		l.Error().Err(err).Str("awb", *s.DomesticAWB).Msg("tracking failed")
		return "error"
	}

	next, ok := service.MapCourierStatus(tracking.RawStatus)
	if !ok {
		l.Debug().Str("raw_status", tracking.RawStatus).Msg("unmapped courier status")
		return "skipped"
	}
	if next == s.Status {
		return "skipped"
	}

	in := ports.AdvanceInput{
		ShipmentID:      s.ID,
		Status:          next,
		Source:          domain.SourceCourier,
		Metadata:        trackingMetadata(tracking),
		ExpectedVersion: s.Version,
	}
	if next == domain.StatusDelivered && s.DestinationMatches(w.warehouseAddress) {
		leg := domain.LegCounter
		in.Status = domain.StatusArrivedAtWarehouse
		in.Leg = &leg
		in.Metadata["courier_status"] = string(domain.StatusDelivered)
	}

	if _, err := w.advancer.Advance(ctx, in); err != nil {
		switch {
		case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrDuplicateStatus):
			l.Info().Err(err).Msg("shipment moved underneath us, retrying next cycle")
			return "skipped"
		case errors.Is(err, domain.ErrInvalidTransition):
			// Couriers replay older statuses; a backward report is not news.
			l.Debug().Str("from", string(s.Status)).Str("to", string(in.Status)).Msg("ignoring non-forward courier status")
			return "skipped"
		default:
			l.Error().Err(err).Str("to", string(in.Status)).Msg("advance failed")
			return "error"
		}
	}
	return "updated"
}

func trackingMetadata(t *domain.CourierTracking) map[string]any {
	m := map[string]any{"raw_status": t.RawStatus, "awb": t.AWB}
	if t.Location != "" {
		m["location"] = t.Location
	}
	if !t.Timestamp.IsZero() {
		m["courier_timestamp"] = t.Timestamp.UTC().Format(time.RFC3339)
	}
	return m
}
