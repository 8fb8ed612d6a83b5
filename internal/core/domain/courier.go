package domain

import "time"

// CourierTracking is the latest tracking snapshot reported by the domestic courier.
type CourierTracking struct {
	AWB       string
	RawStatus string
	Location  string
	Timestamp time.Time // zero when the courier omits it
}

// APIType tags an audited courier call.
type APIType string

const (
	APITypeAuth   APIType = "nimbus_auth"
	APITypeCreate APIType = "nimbus_create"
	APITypeTrack  APIType = "nimbus_track"
)

// APILog is one audited request/response pair. Payloads are masked before
// they reach this struct.
type APILog struct {
	ShipmentID      *string        `json:"shipment_id,omitempty" bson:"shipment_id,omitempty"`
	APIType         APIType        `json:"api_type" bson:"api_type"`
	Request         map[string]any `json:"request,omitempty" bson:"request,omitempty"`
	Response        map[string]any `json:"response,omitempty" bson:"response,omitempty"`
	HTTPStatus      int            `json:"http_status" bson:"http_status"`
	ExecutionTimeMs int64          `json:"execution_time_ms" bson:"execution_time_ms"`
	CorrelationID   string         `json:"correlation_id" bson:"correlation_id"`
	Attempt         int            `json:"attempt" bson:"attempt"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
}
