package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
	"github.com/99minutos/crossborder-tracker/internal/pkg/metrics"
)

const (
	jobStuckDetection = "stuck_detection"

	// StuckThreshold is how long a shipment may stay in the DOMESTIC leg.
	StuckThreshold = 48 * time.Hour
)

// StuckResult summarises one detection pass.
type StuckResult struct {
	Detected int `json:"detected"`
	Flagged  int `json:"flagged"`
	Errors   int `json:"errors"`
}

// StuckShipmentDetector records an alert on the timeline of every shipment
// that has been in the DOMESTIC leg for longer than StuckThreshold. It never
// touches leg, status or version.
type StuckShipmentDetector struct {
	repo     ports.ShipmentRepository
	timeline ports.TimelineRepository
	log      zerolog.Logger
	clock    clockz.Clock
}

func NewStuckShipmentDetector(repo ports.ShipmentRepository, timeline ports.TimelineRepository, log zerolog.Logger) *StuckShipmentDetector {
	return &StuckShipmentDetector{
		repo:     repo,
		timeline: timeline,
		log:      log.With().Str("job", jobStuckDetection).Logger(),
		clock:    clockz.RealClock,
	}
}

// WithClock replaces wall time for the age check and alert timestamps.
func (d *StuckShipmentDetector) WithClock(clock clockz.Clock) *StuckShipmentDetector {
	d.clock = clock
	return d
}

// Run executes one pass.
func (d *StuckShipmentDetector) Run(ctx context.Context) (res StuckResult, err error) {
	start := d.clock.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues(jobStuckDetection).Observe(d.clock.Since(start).Seconds())
	}()

	now := d.clock.Now().UTC()
	shipments, err := d.repo.ListDomesticCreatedBefore(ctx, now.Add(-StuckThreshold))
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(jobStuckDetection, "failed").Inc()
		return res, fmt.Errorf("stuck detection: list shipments: %w", err)
	}

	thresholdHours := int(StuckThreshold / time.Hour)
	for _, s := range shipments {
		res.Detected++
		ageHours := int(now.Sub(s.CreatedAt) / time.Hour)

		entry := &domain.TimelineEntry{
			ID:         domain.NewTimelineID(),
			ShipmentID: s.ID,
			Status:     s.Status,
			Leg:        s.Leg,
			Source:     domain.SourceSystem,
			Metadata: map[string]any{
				"type":            "stuck_shipment",
				"age_hours":       ageHours,
				"threshold_hours": thresholdHours,
			},
			CreatedAt: now,
		}
		if err := d.timeline.Append(ctx, entry); err != nil {
			res.Errors++
			metrics.JobItemsTotal.WithLabelValues(jobStuckDetection, "error").Inc()
			d.log.Error().Err(err).Str("shipment_id", s.ID).Msg("failed to record stuck alert")
			continue
		}
		res.Flagged++
		metrics.JobItemsTotal.WithLabelValues(jobStuckDetection, "flagged").Inc()
		d.log.Warn().
			Str("shipment_id", s.ID).
			Str("status", string(s.Status)).
			Int("age_hours", ageHours).
			Msg("stuck shipment")
	}

	metrics.JobRunsTotal.WithLabelValues(jobStuckDetection, "completed").Inc()
	d.log.Info().Int("detected", res.Detected).Int("flagged", res.Flagged).Int("errors", res.Errors).Msg("stuck detection finished")
	return res, nil
}
