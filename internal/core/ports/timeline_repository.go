package ports

import (
	"context"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
)

// TimelineRepository is the append-only store of timeline entries.
type TimelineRepository interface {
	Append(ctx context.Context, entry *domain.TimelineEntry) error
	// ListByShipment returns entries in creation order.
	ListByShipment(ctx context.Context, shipmentID string) ([]domain.TimelineEntry, error)
}

// APILogRepository is the write-only audit trail of courier calls.
type APILogRepository interface {
	Insert(ctx context.Context, log *domain.APILog) error
}
