package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
	"github.com/99minutos/crossborder-tracker/internal/pkg/validate"
)

type stubBookingService struct {
	createFn func(ctx context.Context, req ports.BookingRequest) (*ports.BookingResult, error)
}

func (s *stubBookingService) CreateBooking(ctx context.Context, req ports.BookingRequest) (*ports.BookingResult, error) {
	return s.createFn(ctx, req)
}

type stubShipmentService struct {
	getFn      func(ctx context.Context, id string) (*domain.Shipment, error)
	timelineFn func(ctx context.Context, id string) ([]domain.TimelineEntry, error)
	advanceFn  func(ctx context.Context, in ports.AdvanceInput) (*domain.Shipment, error)
	completeFn func(ctx context.Context, in ports.CompleteInput) (*domain.Shipment, error)
}

func (s *stubShipmentService) Get(ctx context.Context, id string) (*domain.Shipment, error) {
	return s.getFn(ctx, id)
}

func (s *stubShipmentService) Timeline(ctx context.Context, id string) ([]domain.TimelineEntry, error) {
	return s.timelineFn(ctx, id)
}

func (s *stubShipmentService) Advance(ctx context.Context, in ports.AdvanceInput) (*domain.Shipment, error) {
	return s.advanceFn(ctx, in)
}

func (s *stubShipmentService) Complete(ctx context.Context, in ports.CompleteInput) (*domain.Shipment, error) {
	return s.completeFn(ctx, in)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validate.New()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func sampleShipment(id string, leg domain.Leg, status domain.ShipmentStatus, version int64) *domain.Shipment {
	ref := "ref-" + id
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	return &domain.Shipment{
		ID:                 id,
		Leg:                leg,
		Status:             status,
		Version:            version,
		BookingReferenceID: &ref,
		RecipientName:      "Asha Rao",
		RecipientPhone:     "+919812345678",
		DestinationCountry: "Mexico",
		ShipmentType:       "parcel",
		WeightKg:           1.5,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

const bookingBody = `{
	"reference_id":"BK-1001","recipient_name":"Asha Rao","recipient_phone":"+919812345678",
	"origin_address":"12 MG Road, Bengaluru","destination_address":"Av. Reforma 222, CDMX",
	"destination_country":"Mexico","weight_kg":1.5,"declared_value":1200,"shipment_type":"parcel"
}`

func TestShipmentHandler_Book_Created(t *testing.T) {
	e := newEcho()
	bookings := &stubBookingService{
		createFn: func(ctx context.Context, req ports.BookingRequest) (*ports.BookingResult, error) {
			if req.ReferenceID != "BK-1001" || req.WeightKg != 1.5 || req.ShipmentType != "parcel" {
				t.Fatalf("unexpected booking input: %+v", req)
			}
			return &ports.BookingResult{Shipment: sampleShipment("s1", domain.LegDomestic, domain.StatusBookingConfirmed, 2)}, nil
		},
	}
	h := NewShipmentHandler(bookings, &stubShipmentService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/bookings", bookingBody), rec)

	if err := h.Book(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "s1" || resp["status"] != "BOOKING_CONFIRMED" || resp["leg"] != "DOMESTIC" {
		t.Errorf("unexpected payload: %+v", resp)
	}
	if _, leaked := resp["recipient_phone"]; leaked {
		t.Error("recipient phone must not be exposed")
	}
	links, ok := resp["_links"].(map[string]any)
	if !ok || links["timeline"] != "/v1/shipments/s1/timeline" {
		t.Errorf("unexpected links: %+v", resp["_links"])
	}
}

func TestShipmentHandler_Book_ReplayReturns200(t *testing.T) {
	e := newEcho()
	bookings := &stubBookingService{
		createFn: func(ctx context.Context, req ports.BookingRequest) (*ports.BookingResult, error) {
			return &ports.BookingResult{
				Shipment: sampleShipment("s1", domain.LegDomestic, domain.StatusInTransit, 4),
				Replayed: true,
			}, nil
		},
	}
	h := NewShipmentHandler(bookings, &stubShipmentService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/bookings", bookingBody), rec)

	if err := h.Book(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestShipmentHandler_Book_MalformedJSON(t *testing.T) {
	e := newEcho()
	h := NewShipmentHandler(&stubBookingService{}, &stubShipmentService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/bookings", `{"reference_id":`), rec)

	err := h.Book(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestShipmentHandler_Book_ServiceErrorPassesThrough(t *testing.T) {
	e := newEcho()
	bookings := &stubBookingService{
		createFn: func(ctx context.Context, req ports.BookingRequest) (*ports.BookingResult, error) {
			return nil, &domain.ValidationError{Fields: map[string]string{"weight_kg": "weight_kg must be at most 30"}}
		},
	}
	h := NewShipmentHandler(bookings, &stubShipmentService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/bookings", bookingBody), rec)

	err := h.Book(c)
	if domain.CodeOf(err) != domain.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestShipmentHandler_Get(t *testing.T) {
	e := newEcho()
	svc := &stubShipmentService{
		getFn: func(ctx context.Context, id string) (*domain.Shipment, error) {
			if id != "s1" {
				return nil, domain.ErrShipmentNotFound
			}
			return sampleShipment("s1", domain.LegCounter, domain.StatusQualityCheck, 7), nil
		},
	}
	h := NewShipmentHandler(&stubBookingService{}, svc)

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.SetParamNames("id")
		c.SetParamValues("s1")

		if err := h.Get(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		var resp shipmentResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if resp.Version != 7 || resp.Leg != "COUNTER" || resp.BookingReferenceID != "ref-s1" {
			t.Errorf("unexpected payload: %+v", resp)
		}
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.SetParamNames("id")
		c.SetParamValues("missing")

		if err := h.Get(c); !errors.Is(err, domain.ErrShipmentNotFound) {
			t.Fatalf("expected ErrShipmentNotFound, got %v", err)
		}
	})
}

func TestShipmentHandler_Timeline(t *testing.T) {
	e := newEcho()
	created := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc := &stubShipmentService{
		timelineFn: func(ctx context.Context, id string) ([]domain.TimelineEntry, error) {
			return []domain.TimelineEntry{
				{ID: "t1", ShipmentID: id, Status: domain.StatusBookingConfirmed, Leg: domain.LegDomestic, Source: domain.SourceCourier, CreatedAt: created},
				{ID: "t2", ShipmentID: id, Status: domain.StatusPickupScheduled, Leg: domain.LegDomestic, Source: domain.SourceOperator,
					Metadata: map[string]any{"note": "slot 10-12"}, CreatedAt: created.Add(time.Minute)},
			}, nil
		},
	}
	h := NewShipmentHandler(&stubBookingService{}, svc)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("s1")

	if err := h.Timeline(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp timelineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ShipmentID != "s1" || len(resp.Entries) != 2 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp.Entries[0].ID != "t1" || resp.Entries[1].Source != "OPERATOR" {
		t.Errorf("entries out of order: %+v", resp.Entries)
	}
	if resp.Entries[1].Metadata["note"] != "slot 10-12" {
		t.Errorf("metadata lost: %+v", resp.Entries[1].Metadata)
	}
}

func TestShipmentHandler_Transition(t *testing.T) {
	e := newEcho()

	t.Run("advance as operator", func(t *testing.T) {
		var got ports.AdvanceInput
		svc := &stubShipmentService{
			advanceFn: func(ctx context.Context, in ports.AdvanceInput) (*domain.Shipment, error) {
				got = in
				return sampleShipment(in.ShipmentID, domain.LegCounter, in.Status, in.ExpectedVersion+1), nil
			},
			getFn: func(ctx context.Context, id string) (*domain.Shipment, error) {
				return sampleShipment(id, domain.LegCounter, domain.StatusQualityCheck, 7), nil
			},
		}
		h := NewShipmentHandler(&stubBookingService{}, svc)

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"status":"quality_check","expected_version":6,"note":"scanned"}`), rec)
		c.SetParamNames("id")
		c.SetParamValues("s1")

		if err := h.Transition(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.ShipmentID != "s1" || got.Status != domain.StatusQualityCheck || got.ExpectedVersion != 6 {
			t.Errorf("unexpected advance input: %+v", got)
		}
		if got.Source != domain.SourceOperator || got.Leg != nil {
			t.Errorf("expected operator source and derived leg, got %s %v", got.Source, got.Leg)
		}
		if got.Metadata["note"] != "scanned" {
			t.Errorf("note must be kept in metadata, got %+v", got.Metadata)
		}
	})

	t.Run("completed leg promotes", func(t *testing.T) {
		completed := false
		svc := &stubShipmentService{
			advanceFn: func(ctx context.Context, in ports.AdvanceInput) (*domain.Shipment, error) {
				t.Fatal("advance must not be called for a completion")
				return nil, nil
			},
			completeFn: func(ctx context.Context, in ports.CompleteInput) (*domain.Shipment, error) {
				completed = true
				if in.ExpectedVersion != 9 || in.Source != domain.SourceOperator {
					t.Errorf("unexpected complete input: %+v", in)
				}
				return sampleShipment(in.ShipmentID, domain.LegCompleted, domain.StatusIntlDelivered, 10), nil
			},
		}
		h := NewShipmentHandler(&stubBookingService{}, svc)

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"status":"INTL_DELIVERED","leg":"COMPLETED","expected_version":9}`), rec)
		c.SetParamNames("id")
		c.SetParamValues("s1")

		if err := h.Transition(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if !completed {
			t.Fatal("expected Complete to be called")
		}
	})

	t.Run("answers with the version stored after side effects", func(t *testing.T) {
		svc := &stubShipmentService{
			advanceFn: func(ctx context.Context, in ports.AdvanceInput) (*domain.Shipment, error) {
				return sampleShipment(in.ShipmentID, domain.LegDomestic, domain.StatusDelivered, 7), nil
			},
			getFn: func(ctx context.Context, id string) (*domain.Shipment, error) {
				// warehouse hand-off moved the shipment on to the counter leg
				return sampleShipment(id, domain.LegCounter, domain.StatusArrivedAtWarehouse, 8), nil
			},
		}
		h := NewShipmentHandler(&stubBookingService{}, svc)

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"status":"DELIVERED","expected_version":6}`), rec)
		c.SetParamNames("id")
		c.SetParamValues("s1")

		if err := h.Transition(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		var resp shipmentResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Version != 8 || resp.Leg != string(domain.LegCounter) {
			t.Errorf("expected the re-read row at v8 on COUNTER, got v%d on %s", resp.Version, resp.Leg)
		}
	})

	t.Run("keeps the commit result when the re-read fails", func(t *testing.T) {
		svc := &stubShipmentService{
			advanceFn: func(ctx context.Context, in ports.AdvanceInput) (*domain.Shipment, error) {
				return sampleShipment(in.ShipmentID, domain.LegDomestic, domain.StatusPackaged, 4), nil
			},
			getFn: func(ctx context.Context, id string) (*domain.Shipment, error) {
				return nil, errors.New("store unavailable")
			},
		}
		h := NewShipmentHandler(&stubBookingService{}, svc)

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"status":"PACKAGED","expected_version":3}`), rec)
		c.SetParamNames("id")
		c.SetParamValues("s1")

		if err := h.Transition(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		var resp shipmentResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Version != 4 {
			t.Errorf("expected v4 from the commit, got v%d", resp.Version)
		}
	})

	t.Run("unknown leg lists the known legs", func(t *testing.T) {
		h := NewShipmentHandler(&stubBookingService{}, &stubShipmentService{})

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"status":"PACKAGED","leg":"ORBIT","expected_version":1}`), rec)
		c.SetParamNames("id")
		c.SetParamValues("s1")

		err := h.Transition(c)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if want := "leg must be one of: DOMESTIC, COUNTER, INTERNATIONAL, COMPLETED"; ve.Fields["leg"] != want {
			t.Errorf("leg message = %q, want %q", ve.Fields["leg"], want)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		h := NewShipmentHandler(&stubBookingService{}, &stubShipmentService{})

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"status":"LOST_AT_SEA","expected_version":1}`), rec)
		c.SetParamNames("id")
		c.SetParamValues("s1")

		err := h.Transition(c)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Fields["status"] == "" {
			t.Fatalf("expected status field error, got %v", err)
		}
	})

	t.Run("requires expected version", func(t *testing.T) {
		h := NewShipmentHandler(&stubBookingService{}, &stubShipmentService{})

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"status":"PACKAGED"}`), rec)
		c.SetParamNames("id")
		c.SetParamValues("s1")

		err := h.Transition(c)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Fields["expected_version"] == "" {
			t.Fatalf("expected expected_version field error, got %v", err)
		}
	})

	t.Run("version conflict passes through", func(t *testing.T) {
		svc := &stubShipmentService{
			advanceFn: func(ctx context.Context, in ports.AdvanceInput) (*domain.Shipment, error) {
				return nil, domain.ErrVersionConflict
			},
		}
		h := NewShipmentHandler(&stubBookingService{}, svc)

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"status":"PACKAGED","expected_version":3}`), rec)
		c.SetParamNames("id")
		c.SetParamValues("s1")

		if err := h.Transition(c); domain.CodeOf(err) != domain.CodeVersionConflict {
			t.Fatalf("expected version conflict, got %v", err)
		}
	})
}
