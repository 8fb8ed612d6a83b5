package ports

import (
	"context"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
)

// AdvanceInput carries a requested status change.
type AdvanceInput struct {
	ShipmentID string
	Status     domain.ShipmentStatus
	// Leg is optional; when nil the resulting leg is derived from Status.
	Leg             *domain.Leg
	Source          domain.Source
	Metadata        map[string]any
	ExpectedVersion int64
}

// CompleteInput promotes an internationally delivered shipment to COMPLETED.
type CompleteInput struct {
	ShipmentID      string
	Source          domain.Source
	Metadata        map[string]any
	ExpectedVersion int64
}

// Advancer is the capability to drive a shipment forward. The state machine
// implements it; the side-effect layer depends on it to chain transitions.
type Advancer interface {
	Advance(ctx context.Context, in AdvanceInput) (*domain.Shipment, error)
	Complete(ctx context.Context, in CompleteInput) (*domain.Shipment, error)
}

// SideEffects reacts to a committed transition. Implementations must not
// return errors to the state machine: failures are theirs to log.
type SideEffects interface {
	Apply(ctx context.Context, s *domain.Shipment)
}

// ShipmentReader exposes the read paths the transport layer needs.
type ShipmentReader interface {
	Get(ctx context.Context, id string) (*domain.Shipment, error)
	Timeline(ctx context.Context, id string) ([]domain.TimelineEntry, error)
}

// BookingRequest is the validated booking shape produced by the booking-data
// adapter. Validation tags are enforced by the orchestrator.
type BookingRequest struct {
	ReferenceID        string   `json:"reference_id"        validate:"required,min=1,max=64"`
	UserID             string   `json:"user_id"             validate:"omitempty,max=64"`
	RecipientName      string   `json:"recipient_name"      validate:"required,min=1,max=200"`
	RecipientPhone     string   `json:"recipient_phone"     validate:"required,phone"`
	RecipientEmail     string   `json:"recipient_email"     validate:"omitempty,email"`
	OriginAddress      string   `json:"origin_address"      validate:"required,min=1,max=500"`
	DestinationAddress string   `json:"destination_address" validate:"required,min=1,max=500"`
	DestinationCountry string   `json:"destination_country" validate:"required,min=2,max=100"`
	WeightKg           float64  `json:"weight_kg"           validate:"gt=0,lte=30"`
	LengthCm           *float64 `json:"length_cm"           validate:"omitempty,gt=0"`
	WidthCm            *float64 `json:"width_cm"            validate:"omitempty,gt=0"`
	HeightCm           *float64 `json:"height_cm"           validate:"omitempty,gt=0"`
	DeclaredValue      float64  `json:"declared_value"      validate:"gte=0"`
	ShipmentType       string   `json:"shipment_type"       validate:"required,oneof=document parcel commercial gift"`
	ShippingCost       *float64 `json:"shipping_cost"       validate:"omitempty,gte=0"`
	GSTAmount          *float64 `json:"gst_amount"          validate:"omitempty,gte=0"`
	TotalAmount        *float64 `json:"total_amount"        validate:"omitempty,gte=0"`
}

// BookingResult is returned by CreateBooking.
type BookingResult struct {
	Shipment *domain.Shipment
	// Replayed is true when the reference matched an existing shipment.
	Replayed bool
}

// BookingService creates shipments idempotently.
type BookingService interface {
	CreateBooking(ctx context.Context, req BookingRequest) (*BookingResult, error)
}
