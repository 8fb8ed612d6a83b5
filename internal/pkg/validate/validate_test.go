package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
)

func validBooking() ports.BookingRequest {
	return ports.BookingRequest{
		ReferenceID:        "ref-A",
		RecipientName:      "Asha Rao",
		RecipientPhone:     "+919876543210",
		OriginAddress:      "12 MG Road, Bengaluru",
		DestinationAddress: "ShipBridge Hub, Okhla Phase II, New Delhi",
		DestinationCountry: "US",
		WeightKg:           2.5,
		DeclaredValue:      0,
		ShipmentType:       "parcel",
	}
}

func ptr(f float64) *float64 { return &f }

func TestValidate_Valid(t *testing.T) {
	if err := New().Validate(validBooking()); err != nil {
		t.Fatalf("expected valid booking, got %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *ports.BookingRequest)
		field  string
	}{
		{"missing reference", func(r *ports.BookingRequest) { r.ReferenceID = "" }, "reference_id"},
		{"reference too long", func(r *ports.BookingRequest) { r.ReferenceID = strings.Repeat("x", 65) }, "reference_id"},
		{"name too long", func(r *ports.BookingRequest) { r.RecipientName = strings.Repeat("n", 201) }, "recipient_name"},
		{"bad phone", func(r *ports.BookingRequest) { r.RecipientPhone = "012-345" }, "recipient_phone"},
		{"bad email", func(r *ports.BookingRequest) { r.RecipientEmail = "not-an-email" }, "recipient_email"},
		{"country too short", func(r *ports.BookingRequest) { r.DestinationCountry = "U" }, "destination_country"},
		{"zero weight", func(r *ports.BookingRequest) { r.WeightKg = 0 }, "weight_kg"},
		{"weight over 30", func(r *ports.BookingRequest) { r.WeightKg = 30.5 }, "weight_kg"},
		{"negative length", func(r *ports.BookingRequest) { r.LengthCm = ptr(-1) }, "length_cm"},
		{"negative declared value", func(r *ports.BookingRequest) { r.DeclaredValue = -5 }, "declared_value"},
		{"unknown type", func(r *ports.BookingRequest) { r.ShipmentType = "pallet" }, "shipment_type"},
		{"negative cost", func(r *ports.BookingRequest) { r.GSTAmount = ptr(-0.01) }, "gst_amount"},
	}

	v := New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validBooking()
			tc.mutate(&req)

			err := v.Validate(req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *domain.ValidationError, got %T", err)
			}
			if _, ok := ve.Fields[tc.field]; !ok {
				t.Errorf("expected error on %q, got %v", tc.field, ve.Fields)
			}
		})
	}
}

func TestValidate_OptionalFieldsAccepted(t *testing.T) {
	req := validBooking()
	req.RecipientEmail = "asha@example.com"
	req.LengthCm, req.WidthCm, req.HeightCm = ptr(10), ptr(20), ptr(5)
	req.ShippingCost, req.GSTAmount, req.TotalAmount = ptr(0), ptr(18), ptr(118)
	req.WeightKg = 30

	if err := New().Validate(req); err != nil {
		t.Fatalf("expected valid booking with optional fields, got %v", err)
	}
}
