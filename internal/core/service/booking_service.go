package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
	"github.com/99minutos/crossborder-tracker/internal/pkg/metrics"
)

// RequestValidator checks a booking request and returns a
// *domain.ValidationError on any violation.
type RequestValidator interface {
	Validate(i any) error
}

// BookingService creates shipments idempotently on bookingReferenceId and
// books the domestic pickup with the courier.
type BookingService struct {
	repo     ports.ShipmentRepository
	courier  ports.CourierClient
	advancer ports.Advancer
	validate RequestValidator
	logger   zerolog.Logger
	clock    clockz.Clock
}

func NewBookingService(
	repo ports.ShipmentRepository,
	courier ports.CourierClient,
	advancer ports.Advancer,
	validate RequestValidator,
	logger zerolog.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		courier:  courier,
		advancer: advancer,
		validate: validate,
		logger:   logger,
		clock:    clockz.RealClock,
	}
}

// WithClock replaces wall time for creation timestamps.
func (b *BookingService) WithClock(clock clockz.Clock) *BookingService {
	b.clock = clock
	return b
}

// CreateBooking validates the request, returns the existing shipment when the
// reference was already booked, and otherwise inserts a PENDING shipment and
// confirms it with the courier.
func (b *BookingService) CreateBooking(ctx context.Context, req ports.BookingRequest) (*ports.BookingResult, error) {
	if err := b.validate.Validate(req); err != nil {
		metrics.BookingsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("create booking: %w", err)
	}

	existing, err := b.repo.FindByBookingReference(ctx, req.ReferenceID)
	switch {
	case err == nil:
		return b.replay(existing), nil
	case !errors.Is(err, domain.ErrShipmentNotFound):
		return nil, fmt.Errorf("create booking: lookup reference: %w", err)
	}

	shipment := newPendingShipment(req, b.clock.Now().UTC())
	if err := b.repo.Create(ctx, shipment); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			// Lost an insert race against a concurrent request with the same reference.
			winner, findErr := b.repo.FindByBookingReference(ctx, req.ReferenceID)
			if findErr != nil {
				return nil, fmt.Errorf("create booking: reread reference: %w", findErr)
			}
			return b.replay(winner), nil
		}
		b.logger.Error().Err(err).Str("reference_id", req.ReferenceID).Msg("failed to create shipment")
		return nil, fmt.Errorf("create booking: %w", err)
	}

	b.logger.Info().Str("shipment_id", shipment.ID).Str("reference_id", req.ReferenceID).Msg("shipment created")

	awb, err := b.courier.CreateShipment(ctx, courierParams(shipment, req.ReferenceID))
	if err != nil {
		metrics.BookingsTotal.WithLabelValues("courier_failed").Inc()
		b.markFailed(ctx, shipment, err)
		if !errors.Is(err, domain.ErrCourierFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrCourierFailure, err)
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if err := b.repo.SetDomesticAWB(ctx, shipment.ID, awb); err != nil {
		return nil, fmt.Errorf("create booking: store awb: %w", err)
	}
	shipment.DomesticAWB = &awb

	confirmed, err := b.advancer.Advance(ctx, ports.AdvanceInput{
		ShipmentID:      shipment.ID,
		Status:          domain.StatusBookingConfirmed,
		Source:          domain.SourceSystem,
		Metadata:        map[string]any{"awb": awb},
		ExpectedVersion: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create booking: confirm: %w", err)
	}

	metrics.BookingsTotal.WithLabelValues("created").Inc()
	b.logger.Info().Str("shipment_id", shipment.ID).Str("awb", awb).Msg("booking confirmed")

	return &ports.BookingResult{Shipment: confirmed}, nil
}

func (b *BookingService) replay(s *domain.Shipment) *ports.BookingResult {
	metrics.BookingsTotal.WithLabelValues("replayed").Inc()
	b.logger.Info().Str("shipment_id", s.ID).Msg("idempotent booking replay")
	return &ports.BookingResult{Shipment: s, Replayed: true}
}

// markFailed moves the fresh row to FAILED so it does not sit in PENDING forever.
func (b *BookingService) markFailed(ctx context.Context, s *domain.Shipment, cause error) {
	_, err := b.advancer.Advance(ctx, ports.AdvanceInput{
		ShipmentID:      s.ID,
		Status:          domain.StatusFailed,
		Source:          domain.SourceSystem,
		Metadata:        map[string]any{"reason": "courier_booking_failed", "error": cause.Error()},
		ExpectedVersion: 1,
	})
	if err != nil {
		b.logger.Error().Err(err).Str("shipment_id", s.ID).Msg("failed to mark shipment FAILED")
		return
	}
	b.logger.Warn().Err(cause).Str("shipment_id", s.ID).Msg("courier booking failed, shipment marked FAILED")
}

func newPendingShipment(req ports.BookingRequest, now time.Time) *domain.Shipment {
	ref := req.ReferenceID
	s := &domain.Shipment{
		ID:                 domain.NewShipmentID(),
		UserID:             req.UserID,
		Leg:                domain.LegDomestic,
		Status:             domain.StatusPending,
		Version:            1,
		BookingReferenceID: &ref,
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
		DestinationCountry: req.DestinationCountry,
		RecipientName:      req.RecipientName,
		RecipientPhone:     req.RecipientPhone,
		WeightKg:           req.WeightKg,
		Dimensions: domain.Dimensions{
			LengthCm: req.LengthCm,
			WidthCm:  req.WidthCm,
			HeightCm: req.HeightCm,
		},
		DeclaredValue: req.DeclaredValue,
		ShipmentType:  req.ShipmentType,
		Costs: domain.Costs{
			ShippingCost: req.ShippingCost,
			GSTAmount:    req.GSTAmount,
			TotalAmount:  req.TotalAmount,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.RecipientEmail != "" {
		email := req.RecipientEmail
		s.RecipientEmail = &email
	}
	return s
}

func courierParams(s *domain.Shipment, ref string) ports.CreateShipmentParams {
	p := ports.CreateShipmentParams{
		ShipmentID:         s.ID,
		ReferenceID:        ref,
		OriginAddress:      s.OriginAddress,
		DestinationAddress: s.DestinationAddress,
		RecipientName:      s.RecipientName,
		RecipientPhone:     s.RecipientPhone,
		WeightKg:           s.WeightKg,
		DeclaredValue:      s.DeclaredValue,
		ShipmentType:       s.ShipmentType,
	}
	if s.RecipientEmail != nil {
		p.RecipientEmail = *s.RecipientEmail
	}
	if s.Dimensions.LengthCm != nil {
		p.LengthCm = *s.Dimensions.LengthCm
	}
	if s.Dimensions.WidthCm != nil {
		p.WidthCm = *s.Dimensions.WidthCm
	}
	if s.Dimensions.HeightCm != nil {
		p.HeightCm = *s.Dimensions.HeightCm
	}
	return p
}
