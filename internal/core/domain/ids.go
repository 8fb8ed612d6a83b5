package domain

import "github.com/google/uuid"

// NewShipmentID returns a random v4 UUID.
func NewShipmentID() string {
	return uuid.NewString()
}

// NewTimelineID returns a v7 UUID. v7 ids sort by creation time, with a
// monotonic counter inside the same millisecond, so ordering entries by id
// is ordering them by commit.
func NewTimelineID() string {
	return uuid.Must(uuid.NewV7()).String()
}
