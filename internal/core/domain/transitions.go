package domain

// canonicalOrder is the forward order every transition must respect.
// FAILED sits last so that it is reachable from any earlier status.
var canonicalOrder = []ShipmentStatus{
	StatusPending,
	StatusBookingConfirmed,
	StatusPickupScheduled,
	StatusPickedUp,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
	StatusArrivedAtWarehouse,
	StatusQualityCheck,
	StatusPackaged,
	StatusDispatched,
	StatusInInternationalTransit,
	StatusCustomsClearance,
	StatusIntlOutForDelivery,
	StatusIntlDelivered,
	StatusFailed,
}

var statusRank = func() map[ShipmentStatus]int {
	m := make(map[ShipmentStatus]int, len(canonicalOrder))
	for i, s := range canonicalOrder {
		m[s] = i
	}
	return m
}()

// homeLeg is the leg a shipment sits in once it reaches the status.
// FAILED is absent: a failed shipment keeps the leg it failed in.
var homeLeg = map[ShipmentStatus]Leg{
	StatusPending:                LegDomestic,
	StatusBookingConfirmed:       LegDomestic,
	StatusPickupScheduled:        LegDomestic,
	StatusPickedUp:               LegDomestic,
	StatusInTransit:              LegDomestic,
	StatusOutForDelivery:         LegDomestic,
	StatusDelivered:              LegDomestic,
	StatusArrivedAtWarehouse:     LegCounter,
	StatusQualityCheck:           LegCounter,
	StatusPackaged:               LegCounter,
	StatusDispatched:             LegInternational,
	StatusInInternationalTransit: LegInternational,
	StatusCustomsClearance:       LegInternational,
	StatusIntlOutForDelivery:     LegInternational,
	StatusIntlDelivered:          LegInternational,
}

// validTransitions defines the allowed state machine transitions, keyed by the
// leg the shipment is in before the transition.
var validTransitions = map[Leg]map[ShipmentStatus][]ShipmentStatus{
	LegDomestic: {
		StatusPending: {StatusBookingConfirmed, StatusFailed},
		StatusBookingConfirmed: {
			StatusPickupScheduled, StatusPickedUp, StatusInTransit, StatusOutForDelivery,
			StatusDelivered, StatusArrivedAtWarehouse, StatusFailed,
		},
		StatusPickupScheduled: {
			StatusPickedUp, StatusInTransit, StatusOutForDelivery,
			StatusDelivered, StatusArrivedAtWarehouse, StatusFailed,
		},
		StatusPickedUp: {
			StatusInTransit, StatusOutForDelivery, StatusDelivered, StatusArrivedAtWarehouse, StatusFailed,
		},
		StatusInTransit:      {StatusOutForDelivery, StatusDelivered, StatusArrivedAtWarehouse, StatusFailed},
		StatusOutForDelivery: {StatusDelivered, StatusArrivedAtWarehouse, StatusFailed},
		StatusDelivered:      {StatusArrivedAtWarehouse},
	},
	LegCounter: {
		StatusArrivedAtWarehouse: {StatusQualityCheck},
		StatusQualityCheck:       {StatusPackaged, StatusFailed},
		StatusPackaged:           {StatusDispatched},
	},
	LegInternational: {
		StatusDispatched:             {StatusInInternationalTransit},
		StatusInInternationalTransit: {StatusCustomsClearance},
		StatusCustomsClearance:       {StatusIntlOutForDelivery, StatusFailed},
		StatusIntlOutForDelivery:     {StatusIntlDelivered},
	},
	LegCompleted: {},
}

// InternationalSequence is the fixed order the simulation walks through.
var InternationalSequence = []ShipmentStatus{
	StatusDispatched,
	StatusInInternationalTransit,
	StatusCustomsClearance,
	StatusIntlOutForDelivery,
	StatusIntlDelivered,
}

// IsAllowed reports whether a shipment in leg may move from one status to another.
func IsAllowed(leg Leg, from, to ShipmentStatus) bool {
	for _, allowed := range validTransitions[leg][from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the statuses reachable from (leg, from).
func AllowedTransitions(leg Leg, from ShipmentStatus) []ShipmentStatus {
	next := validTransitions[leg][from]
	out := make([]ShipmentStatus, len(next))
	copy(out, next)
	return out
}

// HasOutgoing reports whether anything is reachable from (leg, from).
func HasOutgoing(leg Leg, from ShipmentStatus) bool {
	return len(validTransitions[leg][from]) > 0
}

// Legs lists every leg present in the table, in custody order.
func Legs() []Leg {
	return []Leg{LegDomestic, LegCounter, LegInternational, LegCompleted}
}

// Statuses lists every status in canonical order.
func Statuses() []ShipmentStatus {
	out := make([]ShipmentStatus, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}

// Valid reports whether s is a known status.
func (s ShipmentStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// ResultingLeg returns the leg a shipment currently in `current` ends up in
// after reaching status s.
func ResultingLeg(current Leg, s ShipmentStatus) Leg {
	if l, ok := homeLeg[s]; ok {
		return l
	}
	return current
}

// NextInternational returns the status after s in InternationalSequence.
// ok is false when s is not in the sequence or is already its last element.
func NextInternational(s ShipmentStatus) (next ShipmentStatus, ok bool) {
	for i, st := range InternationalSequence {
		if st == s {
			if i == len(InternationalSequence)-1 {
				return "", false
			}
			return InternationalSequence[i+1], true
		}
	}
	return "", false
}
