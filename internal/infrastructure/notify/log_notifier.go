// Package notify holds Notifier implementations. Delivery over email or SMS
// happens elsewhere; this process only records that a notification is due.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/pkg/reqctx"
)

// LogNotifier emits one structured log line per out-for-delivery alert so a
// log shipper can hand it to the delivery channel.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) NotifyOutForDelivery(ctx context.Context, s *domain.Shipment) error {
	ev := n.log.Info().
		Str("event", "out_for_delivery").
		Str("shipment_id", s.ID).
		Str("destination_country", s.DestinationCountry).
		Bool("has_email", s.RecipientEmail != nil && *s.RecipientEmail != "")
	if s.InternationalAWB != nil {
		ev = ev.Str("international_awb", *s.InternationalAWB)
	}
	if id := reqctx.CorrelationID(ctx); id != "" {
		ev = ev.Str("correlation_id", id)
	}
	ev.Msg("recipient notification due")
	return nil
}
