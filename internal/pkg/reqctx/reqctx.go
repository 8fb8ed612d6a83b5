// Package reqctx carries request-scoped identifiers through context so that
// outbound calls can be correlated with the request or job that caused them.
package reqctx

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	correlationKey ctxKey = iota
	shipmentKey
)

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationID returns the id stored in ctx, or "" when there is none.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// EnsureCorrelationID returns ctx unchanged when it already carries an id,
// otherwise a child context with a fresh one.
func EnsureCorrelationID(ctx context.Context) context.Context {
	if CorrelationID(ctx) != "" {
		return ctx
	}
	return WithCorrelationID(ctx, uuid.NewString())
}

func WithShipmentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, shipmentKey, id)
}

func ShipmentID(ctx context.Context) string {
	id, _ := ctx.Value(shipmentKey).(string)
	return id
}
