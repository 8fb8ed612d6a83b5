package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
	"github.com/99minutos/crossborder-tracker/internal/pkg/metrics"
)

// StatusSideEffects reacts to committed transitions. Every failure is logged
// and swallowed; the transition that triggered it stays committed.
type StatusSideEffects struct {
	advancer         ports.Advancer
	repo             ports.ShipmentRepository
	notifier         ports.Notifier
	warehouseAddress string
	log              zerolog.Logger
}

// NewStatusSideEffects builds the hook. advancer is normally the same state
// machine the hook is installed into.
func NewStatusSideEffects(
	advancer ports.Advancer,
	repo ports.ShipmentRepository,
	notifier ports.Notifier,
	warehouseAddress string,
	log zerolog.Logger,
) *StatusSideEffects {
	return &StatusSideEffects{
		advancer:         advancer,
		repo:             repo,
		notifier:         notifier,
		warehouseAddress: warehouseAddress,
		log:              log,
	}
}

// Apply dispatches on the shipment's new (leg, status).
func (e *StatusSideEffects) Apply(ctx context.Context, s *domain.Shipment) {
	switch {
	case s.Leg == domain.LegDomestic && s.Status == domain.StatusDelivered && s.DestinationMatches(e.warehouseAddress):
		e.handOffToWarehouse(ctx, s)
	case s.Status == domain.StatusIntlOutForDelivery && !s.AlertSent:
		e.sendDeliveryAlert(ctx, s)
	case s.Leg == domain.LegInternational && s.Status == domain.StatusIntlDelivered:
		e.complete(ctx, s)
	}
}

func (e *StatusSideEffects) handOffToWarehouse(ctx context.Context, s *domain.Shipment) {
	leg := domain.LegCounter
	_, err := e.advancer.Advance(ctx, ports.AdvanceInput{
		ShipmentID:      s.ID,
		Status:          domain.StatusArrivedAtWarehouse,
		Leg:             &leg,
		Source:          domain.SourceSystem,
		Metadata:        map[string]any{"reason": "warehouse_address_match"},
		ExpectedVersion: s.Version,
	})
	if err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("warehouse_handoff").Inc()
		e.log.Warn().Err(err).Str("shipment_id", s.ID).Msg("warehouse handoff failed")
	}
}

func (e *StatusSideEffects) sendDeliveryAlert(ctx context.Context, s *domain.Shipment) {
	flipped, err := e.repo.MarkAlertSent(ctx, s.ID)
	if err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("delivery_alert").Inc()
		e.log.Warn().Err(err).Str("shipment_id", s.ID).Msg("failed to flag delivery alert")
		return
	}
	if !flipped {
		return
	}
	s.AlertSent = true

	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyOutForDelivery(ctx, s); err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("delivery_alert").Inc()
		e.log.Warn().Err(err).Str("shipment_id", s.ID).Msg("delivery notification failed")
	}
}

func (e *StatusSideEffects) complete(ctx context.Context, s *domain.Shipment) {
	_, err := e.advancer.Complete(ctx, ports.CompleteInput{
		ShipmentID:      s.ID,
		Source:          domain.SourceSystem,
		ExpectedVersion: s.Version,
	})
	if err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("completion").Inc()
		e.log.Warn().Err(err).Str("shipment_id", s.ID).Msg("completion failed")
	}
}
