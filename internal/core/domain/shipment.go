package domain

import (
	"strings"
	"time"
	"unicode"
)

// Leg is the custody phase a shipment is currently in.
type Leg string

const (
	LegDomestic      Leg = "DOMESTIC"
	LegCounter       Leg = "COUNTER"
	LegInternational Leg = "INTERNATIONAL"
	LegCompleted     Leg = "COMPLETED"
)

// Valid reports whether l is one of the known legs.
func (l Leg) Valid() bool {
	switch l {
	case LegDomestic, LegCounter, LegInternational, LegCompleted:
		return true
	}
	return false
}

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	// Domestic carrier (booking and tracking).
	StatusPending          ShipmentStatus = "PENDING"
	StatusBookingConfirmed ShipmentStatus = "BOOKING_CONFIRMED"
	StatusPickupScheduled  ShipmentStatus = "PICKUP_SCHEDULED"
	StatusPickedUp         ShipmentStatus = "PICKED_UP"
	StatusInTransit        ShipmentStatus = "IN_TRANSIT"
	StatusOutForDelivery   ShipmentStatus = "OUT_FOR_DELIVERY"
	StatusDelivered        ShipmentStatus = "DELIVERED"

	// Warehouse counter (QC and packaging).
	StatusArrivedAtWarehouse ShipmentStatus = "ARRIVED_AT_WAREHOUSE"
	StatusQualityCheck       ShipmentStatus = "QUALITY_CHECK"
	StatusPackaged           ShipmentStatus = "PACKAGED"

	// International carrier (transit and customs).
	StatusDispatched             ShipmentStatus = "DISPATCHED"
	StatusInInternationalTransit ShipmentStatus = "IN_INTERNATIONAL_TRANSIT"
	StatusCustomsClearance       ShipmentStatus = "CUSTOMS_CLEARANCE"
	StatusIntlOutForDelivery     ShipmentStatus = "INTL_OUT_FOR_DELIVERY"
	StatusIntlDelivered          ShipmentStatus = "INTL_DELIVERED"

	StatusFailed ShipmentStatus = "FAILED"
)

// Source tags who drove a committed transition.
type Source string

const (
	SourceCourier    Source = "COURIER"
	SourceOperator   Source = "OPERATOR"
	SourceSimulation Source = "SIMULATION"
	SourceSystem     Source = "SYSTEM"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceCourier, SourceOperator, SourceSimulation, SourceSystem:
		return true
	}
	return false
}

// Dimensions represents the physical size of a package.
type Dimensions struct {
	LengthCm *float64 `json:"length_cm,omitempty" bson:"length_cm,omitempty"`
	WidthCm  *float64 `json:"width_cm,omitempty" bson:"width_cm,omitempty"`
	HeightCm *float64 `json:"height_cm,omitempty" bson:"height_cm,omitempty"`
}

// Costs are the optional pricing figures captured at booking time.
type Costs struct {
	ShippingCost *float64 `json:"shipping_cost,omitempty" bson:"shipping_cost,omitempty"`
	GSTAmount    *float64 `json:"gst_amount,omitempty" bson:"gst_amount,omitempty"`
	TotalAmount  *float64 `json:"total_amount,omitempty" bson:"total_amount,omitempty"`
}

// Shipment is the core aggregate root. Leg, Status and Version are only ever
// changed by the state machine; address, recipient and weight fields are
// immutable after creation.
type Shipment struct {
	ID                 string         `json:"id" bson:"_id"`
	UserID             string         `json:"user_id" bson:"user_id"`
	Leg                Leg            `json:"leg" bson:"leg"`
	Status             ShipmentStatus `json:"status" bson:"status"`
	Version            int64          `json:"version" bson:"version"`
	DomesticAWB        *string        `json:"domestic_awb,omitempty" bson:"domestic_awb,omitempty"`
	InternationalAWB   *string        `json:"international_awb,omitempty" bson:"international_awb,omitempty"`
	BookingReferenceID *string        `json:"booking_reference_id,omitempty" bson:"booking_reference_id,omitempty"`
	AlertSent          bool           `json:"alert_sent" bson:"alert_sent"`

	OriginAddress      string     `json:"origin_address" bson:"origin_address"`
	DestinationAddress string     `json:"destination_address" bson:"destination_address"`
	DestinationCountry string     `json:"destination_country" bson:"destination_country"`
	RecipientName      string     `json:"recipient_name" bson:"recipient_name"`
	RecipientPhone     string     `json:"recipient_phone" bson:"recipient_phone"`
	RecipientEmail     *string    `json:"recipient_email,omitempty" bson:"recipient_email,omitempty"`
	WeightKg           float64    `json:"weight_kg" bson:"weight_kg"`
	Dimensions         Dimensions `json:"dimensions" bson:"dimensions"`
	DeclaredValue      float64    `json:"declared_value" bson:"declared_value"`
	ShipmentType       string     `json:"shipment_type" bson:"shipment_type"`
	Costs              Costs      `json:"costs" bson:"costs"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsTerminal reports whether the shipment can never be mutated again.
func (s *Shipment) IsTerminal() bool {
	return s.Leg == LegCompleted
}

// DestinationMatches reports whether the destination address textually
// contains the given warehouse address. Comparison ignores case and treats
// punctuation and runs of whitespace as a single space; an empty warehouse
// address never matches.
func (s *Shipment) DestinationMatches(warehouseAddress string) bool {
	needle := normalizeAddress(warehouseAddress)
	if needle == "" {
		return false
	}
	return strings.Contains(normalizeAddress(s.DestinationAddress), needle)
}

func normalizeAddress(a string) string {
	words := strings.FieldsFunc(strings.ToLower(a), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, " ")
}

// TimelineEntry records a single committed transition (or an observational
// note such as a stuck-shipment alert). Entries are never mutated.
type TimelineEntry struct {
	ID         string         `json:"id" bson:"_id"`
	ShipmentID string         `json:"shipment_id" bson:"shipment_id"`
	Status     ShipmentStatus `json:"status" bson:"status"`
	Leg        Leg            `json:"leg" bson:"leg"`
	Source     Source         `json:"source" bson:"source"`
	Metadata   map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}

// StatusChange is the payload of a compare-and-swap write: the new status and
// leg to apply when the stored version still equals ExpectedVersion. Entry is
// the timeline row that accompanies the write.
type StatusChange struct {
	ShipmentID      string
	ExpectedVersion int64
	Status          ShipmentStatus
	Leg             Leg
	At              time.Time
	Entry           TimelineEntry
}
