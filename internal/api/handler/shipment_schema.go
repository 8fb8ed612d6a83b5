package handler

import (
	"time"
)

// ErrorResponse is the standard error envelope returned on all 4xx/5xx responses.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// --- Request types ---

type bookingRequest struct {
	ReferenceID        string   `json:"reference_id"`
	UserID             string   `json:"user_id"`
	RecipientName      string   `json:"recipient_name"`
	RecipientPhone     string   `json:"recipient_phone"`
	RecipientEmail     string   `json:"recipient_email"`
	OriginAddress      string   `json:"origin_address"`
	DestinationAddress string   `json:"destination_address"`
	DestinationCountry string   `json:"destination_country"`
	WeightKg           float64  `json:"weight_kg"`
	LengthCm           *float64 `json:"length_cm"`
	WidthCm            *float64 `json:"width_cm"`
	HeightCm           *float64 `json:"height_cm"`
	DeclaredValue      float64  `json:"declared_value"`
	ShipmentType       string   `json:"shipment_type"`
	ShippingCost       *float64 `json:"shipping_cost"`
	GSTAmount          *float64 `json:"gst_amount"`
	TotalAmount        *float64 `json:"total_amount"`
}

// transitionRequest is an operator-driven status change. Setting leg to
// COMPLETED promotes an internationally delivered shipment.
type transitionRequest struct {
	Status          string         `json:"status"           validate:"required"`
	Leg             string         `json:"leg"`
	ExpectedVersion int64          `json:"expected_version" validate:"gte=1"`
	Note            string         `json:"note"             validate:"max=500"`
	Metadata        map[string]any `json:"metadata"`
}

// --- Response types ---
// These are separate from domain types so the JSON contract is not coupled
// to storage changes.

type shipmentLinks struct {
	Self     string `json:"self"`
	Timeline string `json:"timeline"`
}

type dimensionsResponse struct {
	LengthCm *float64 `json:"length_cm,omitempty"`
	WidthCm  *float64 `json:"width_cm,omitempty"`
	HeightCm *float64 `json:"height_cm,omitempty"`
}

type costsResponse struct {
	ShippingCost *float64 `json:"shipping_cost,omitempty"`
	GSTAmount    *float64 `json:"gst_amount,omitempty"`
	TotalAmount  *float64 `json:"total_amount,omitempty"`
}

type shipmentResponse struct {
	ID                 string             `json:"id"`
	BookingReferenceID string             `json:"booking_reference_id,omitempty"`
	Leg                string             `json:"leg"`
	Status             string             `json:"status"`
	Version            int64              `json:"version"`
	DomesticAWB        string             `json:"domestic_awb,omitempty"`
	InternationalAWB   string             `json:"international_awb,omitempty"`
	AlertSent          bool               `json:"alert_sent"`
	OriginAddress      string             `json:"origin_address"`
	DestinationAddress string             `json:"destination_address"`
	DestinationCountry string             `json:"destination_country"`
	RecipientName      string             `json:"recipient_name"`
	WeightKg           float64            `json:"weight_kg"`
	Dimensions         dimensionsResponse `json:"dimensions"`
	DeclaredValue      float64            `json:"declared_value"`
	ShipmentType       string             `json:"shipment_type"`
	Costs              costsResponse      `json:"costs"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	Links              shipmentLinks      `json:"_links"`
}

type timelineEntryResponse struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	Leg       string         `json:"leg"`
	Source    string         `json:"source"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type timelineResponse struct {
	ShipmentID string                  `json:"shipment_id"`
	Entries    []timelineEntryResponse `json:"entries"`
}
