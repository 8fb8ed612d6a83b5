package ports

import (
	"context"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
)

// CreateShipmentParams is what the domestic courier needs to book a pickup.
type CreateShipmentParams struct {
	ShipmentID         string
	ReferenceID        string
	OriginAddress      string
	DestinationAddress string
	RecipientName      string
	RecipientPhone     string
	RecipientEmail     string
	WeightKg           float64
	LengthCm           float64
	WidthCm            float64
	HeightCm           float64
	DeclaredValue      float64
	ShipmentType       string
}

// CourierClient is the domestic courier API.
type CourierClient interface {
	// CreateShipment books the shipment and returns the courier's AWB.
	CreateShipment(ctx context.Context, params CreateShipmentParams) (awb string, err error)
	// Track returns the latest tracking snapshot for awb.
	Track(ctx context.Context, awb string) (*domain.CourierTracking, error)
}

// Notifier sends best-effort outbound notifications.
type Notifier interface {
	NotifyOutForDelivery(ctx context.Context, s *domain.Shipment) error
}
