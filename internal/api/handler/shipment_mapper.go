package handler

import (
	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
)

// --- Request → Service input ---

func toBookingInput(req bookingRequest) ports.BookingRequest {
	return ports.BookingRequest{
		ReferenceID:        req.ReferenceID,
		UserID:             req.UserID,
		RecipientName:      req.RecipientName,
		RecipientPhone:     req.RecipientPhone,
		RecipientEmail:     req.RecipientEmail,
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
		DestinationCountry: req.DestinationCountry,
		WeightKg:           req.WeightKg,
		LengthCm:           req.LengthCm,
		WidthCm:            req.WidthCm,
		HeightCm:           req.HeightCm,
		DeclaredValue:      req.DeclaredValue,
		ShipmentType:       req.ShipmentType,
		ShippingCost:       req.ShippingCost,
		GSTAmount:          req.GSTAmount,
		TotalAmount:        req.TotalAmount,
	}
}

// --- Service result → HTTP response ---

func toShipmentResponse(s *domain.Shipment) shipmentResponse {
	return shipmentResponse{
		ID:                 s.ID,
		BookingReferenceID: deref(s.BookingReferenceID),
		Leg:                string(s.Leg),
		Status:             string(s.Status),
		Version:            s.Version,
		DomesticAWB:        deref(s.DomesticAWB),
		InternationalAWB:   deref(s.InternationalAWB),
		AlertSent:          s.AlertSent,
		OriginAddress:      s.OriginAddress,
		DestinationAddress: s.DestinationAddress,
		DestinationCountry: s.DestinationCountry,
		RecipientName:      s.RecipientName,
		WeightKg:           s.WeightKg,
		Dimensions: dimensionsResponse{
			LengthCm: s.Dimensions.LengthCm,
			WidthCm:  s.Dimensions.WidthCm,
			HeightCm: s.Dimensions.HeightCm,
		},
		DeclaredValue: s.DeclaredValue,
		ShipmentType:  s.ShipmentType,
		Costs: costsResponse{
			ShippingCost: s.Costs.ShippingCost,
			GSTAmount:    s.Costs.GSTAmount,
			TotalAmount:  s.Costs.TotalAmount,
		},
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
		Links:     linksFor(s.ID),
	}
}

func toTimelineResponse(id string, entries []domain.TimelineEntry) timelineResponse {
	out := make([]timelineEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = timelineEntryResponse{
			ID:        e.ID,
			Status:    string(e.Status),
			Leg:       string(e.Leg),
			Source:    string(e.Source),
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt.UTC(),
		}
	}
	return timelineResponse{ShipmentID: id, Entries: out}
}

func linksFor(id string) shipmentLinks {
	return shipmentLinks{
		Self:     "/v1/shipments/" + id,
		Timeline: "/v1/shipments/" + id + "/timeline",
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
