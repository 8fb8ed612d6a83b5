package service

import (
	"strings"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
)

// courierStatuses maps the domestic courier's free-text statuses, normalised
// to lower case with single spaces, onto our statuses.
var courierStatuses = map[string]domain.ShipmentStatus{
	"booked":           domain.StatusBookingConfirmed,
	"pending pickup":   domain.StatusPickupScheduled,
	"pickup scheduled": domain.StatusPickupScheduled,
	"picked up":        domain.StatusPickedUp,
	"in transit":       domain.StatusInTransit,
	"out for delivery": domain.StatusOutForDelivery,
	"delivered":        domain.StatusDelivered,
	"cancelled":        domain.StatusFailed,
	"canceled":         domain.StatusFailed,
	"rto":              domain.StatusFailed,
	"lost":             domain.StatusFailed,
}

// MapCourierStatus translates a raw courier status. ok is false for anything
// we do not track.
func MapCourierStatus(raw string) (status domain.ShipmentStatus, ok bool) {
	key := strings.ToLower(strings.Join(strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '\t'
	}), " "))
	status, ok = courierStatuses[key]
	return status, ok
}
