package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
	"github.com/99minutos/crossborder-tracker/internal/pkg/metrics"
)

// StateMachine is the only writer of a shipment's leg, status and version.
// Every change is a compare-and-swap on the version read just before it.
type StateMachine struct {
	repo     ports.ShipmentRepository
	timeline ports.TimelineRepository
	effects  ports.SideEffects
	log      zerolog.Logger
	clock    clockz.Clock
}

// NewStateMachine returns a StateMachine without side effects. Wire them with
// SetSideEffects once the side-effect layer has been built around it.
func NewStateMachine(repo ports.ShipmentRepository, timeline ports.TimelineRepository, log zerolog.Logger) *StateMachine {
	return &StateMachine{
		repo:     repo,
		timeline: timeline,
		log:      log,
		clock:    clockz.RealClock,
	}
}

// WithClock replaces wall time for transition timestamps.
func (m *StateMachine) WithClock(clock clockz.Clock) *StateMachine {
	m.clock = clock
	return m
}

// SetSideEffects installs the post-commit hook. It must be called before the
// state machine is shared between goroutines.
func (m *StateMachine) SetSideEffects(e ports.SideEffects) {
	m.effects = e
}

// Advance moves a shipment to in.Status. Checks run in a fixed order so that
// callers always see the most specific failure first.
func (m *StateMachine) Advance(ctx context.Context, in ports.AdvanceInput) (*domain.Shipment, error) {
	s, err := m.repo.FindByID(ctx, in.ShipmentID)
	if err != nil {
		return nil, m.reject("advance", err)
	}

	if s.IsTerminal() {
		return nil, m.reject("advance", domain.ErrCompletedShipment)
	}

	if in.Status == s.Status {
		return nil, m.reject("advance", fmt.Errorf("%w: %s", domain.ErrDuplicateStatus, in.Status))
	}

	if !domain.IsAllowed(s.Leg, s.Status, in.Status) {
		return nil, m.reject("advance", fmt.Errorf("%w: %s/%s -> %s, allowed: %v",
			domain.ErrInvalidTransition, s.Leg, s.Status, in.Status, domain.AllowedTransitions(s.Leg, s.Status)))
	}

	leg := domain.ResultingLeg(s.Leg, in.Status)
	if in.Leg != nil && *in.Leg != leg {
		return nil, m.reject("advance", fmt.Errorf("%w: %s belongs to leg %s, not %s", domain.ErrInvalidTransition, in.Status, leg, *in.Leg))
	}

	if in.ExpectedVersion != s.Version {
		return nil, m.reject("advance", fmt.Errorf("%w: expected %d, stored %d", domain.ErrVersionConflict, in.ExpectedVersion, s.Version))
	}

	updated, err := m.commit(ctx, s, in.Status, leg, in.Source, in.Metadata)
	if err != nil {
		return nil, m.reject("advance", err)
	}

	m.log.Info().
		Str("shipment_id", s.ID).
		Str("from", string(s.Status)).
		Str("to", string(updated.Status)).
		Str("leg", string(updated.Leg)).
		Str("source", string(in.Source)).
		Int64("version", updated.Version).
		Msg("shipment advanced")

	m.applySideEffects(ctx, updated)
	return updated, nil
}

// Complete promotes an internationally delivered shipment to the COMPLETED
// leg. The status value is kept.
func (m *StateMachine) Complete(ctx context.Context, in ports.CompleteInput) (*domain.Shipment, error) {
	s, err := m.repo.FindByID(ctx, in.ShipmentID)
	if err != nil {
		return nil, m.reject("complete", err)
	}

	if s.IsTerminal() {
		return nil, m.reject("complete", domain.ErrCompletedShipment)
	}

	if s.Leg != domain.LegInternational || s.Status != domain.StatusIntlDelivered {
		return nil, m.reject("complete", fmt.Errorf("%w: %s/%s cannot complete", domain.ErrInvalidTransition, s.Leg, s.Status))
	}

	if in.ExpectedVersion != s.Version {
		return nil, m.reject("complete", fmt.Errorf("%w: expected %d, stored %d", domain.ErrVersionConflict, in.ExpectedVersion, s.Version))
	}

	updated, err := m.commit(ctx, s, s.Status, domain.LegCompleted, in.Source, in.Metadata)
	if err != nil {
		return nil, m.reject("complete", err)
	}

	m.log.Info().
		Str("shipment_id", s.ID).
		Str("source", string(in.Source)).
		Int64("version", updated.Version).
		Msg("shipment completed")

	return updated, nil
}

// Get returns a single shipment.
func (m *StateMachine) Get(ctx context.Context, id string) (*domain.Shipment, error) {
	s, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return s, nil
}

// Timeline returns the shipment's entries in creation order.
func (m *StateMachine) Timeline(ctx context.Context, id string) ([]domain.TimelineEntry, error) {
	if _, err := m.repo.FindByID(ctx, id); err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}
	entries, err := m.timeline.ListByShipment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}
	return entries, nil
}

// commit performs the CAS write and returns the post-write shipment.
func (m *StateMachine) commit(
	ctx context.Context,
	s *domain.Shipment,
	status domain.ShipmentStatus,
	leg domain.Leg,
	source domain.Source,
	metadata map[string]any,
) (*domain.Shipment, error) {
	now := m.clock.Now().UTC()
	change := domain.StatusChange{
		ShipmentID:      s.ID,
		ExpectedVersion: s.Version,
		Status:          status,
		Leg:             leg,
		At:              now,
		Entry: domain.TimelineEntry{
			ID:         domain.NewTimelineID(),
			ShipmentID: s.ID,
			Status:     status,
			Leg:        leg,
			Source:     source,
			Metadata:   metadata,
			CreatedAt:  now,
		},
	}

	applied, err := m.repo.ApplyStatusChange(ctx, change)
	if !applied {
		if err != nil {
			return nil, fmt.Errorf("apply status change: %w", err)
		}
		return nil, fmt.Errorf("%w: version %d was superseded", domain.ErrVersionConflict, s.Version)
	}
	if err != nil {
		// The transition is committed; only its timeline row is missing.
		m.log.Error().Err(err).Str("shipment_id", s.ID).Str("status", string(status)).Msg("timeline append failed after commit")
	}

	updated := *s
	updated.Status = status
	updated.Leg = leg
	updated.Version = s.Version + 1
	updated.UpdatedAt = now

	metrics.TransitionsTotal.WithLabelValues(string(leg), string(status), string(source)).Inc()
	return &updated, nil
}

func (m *StateMachine) applySideEffects(ctx context.Context, s *domain.Shipment) {
	if m.effects == nil {
		return
	}
	m.effects.Apply(ctx, s)
}

func (m *StateMachine) reject(op string, err error) error {
	metrics.TransitionRejectionsTotal.WithLabelValues(string(domain.CodeOf(err))).Inc()
	return fmt.Errorf("%s: %w", op, err)
}
