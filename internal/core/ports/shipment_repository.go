package ports

import (
	"context"
	"time"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
)

// ShipmentRepository defines persistence operations for shipments.
//
// Leg, status and version are only written through ApplyStatusChange; the
// other mutators touch single set-once fields and never bump the version.
type ShipmentRepository interface {
	// Create inserts a new shipment. A bookingReferenceId that already exists
	// yields domain.ErrDuplicateReference.
	Create(ctx context.Context, s *domain.Shipment) error
	FindByID(ctx context.Context, id string) (*domain.Shipment, error)
	FindByBookingReference(ctx context.Context, ref string) (*domain.Shipment, error)

	// ApplyStatusChange sets status and leg and increments version, only if the
	// stored version equals change.ExpectedVersion and the leg is not COMPLETED.
	// On success the accompanying timeline entry is appended. applied is false
	// when the condition did not hold (zero rows matched). applied can be true
	// together with a non-nil error when the write committed but the timeline
	// append failed.
	ApplyStatusChange(ctx context.Context, change domain.StatusChange) (applied bool, err error)

	// SetDomesticAWB stores the AWB only when none is set yet.
	SetDomesticAWB(ctx context.Context, id, awb string) error
	// MarkAlertSent flips alertSent from false to true. flipped is false when
	// it was already set.
	MarkAlertSent(ctx context.Context, id string) (flipped bool, err error)

	// ListDomesticSyncable returns shipments with leg = DOMESTIC and status != PENDING.
	ListDomesticSyncable(ctx context.Context) ([]*domain.Shipment, error)
	// ListByLeg returns every shipment currently in leg.
	ListByLeg(ctx context.Context, leg domain.Leg) ([]*domain.Shipment, error)
	// ListDomesticCreatedBefore returns DOMESTIC shipments created before t.
	ListDomesticCreatedBefore(ctx context.Context, t time.Time) ([]*domain.Shipment, error)
}
