package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
)

// ShipmentService is what the shipment routes need from the core: reads plus
// the state machine's write path.
type ShipmentService interface {
	ports.ShipmentReader
	ports.Advancer
}

// ShipmentHandler handles HTTP requests for bookings and shipments.
type ShipmentHandler struct {
	bookings  ports.BookingService
	shipments ShipmentService
}

func NewShipmentHandler(bookings ports.BookingService, shipments ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{bookings: bookings, shipments: shipments}
}

// Book handles POST /v1/bookings.
//
// @Summary      Book a shipment
// @Description  Idempotent on reference_id: repeating a reference returns the existing shipment with 200.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        body  body      bookingRequest    true  "Booking details"
// @Success      201   {object}  shipmentResponse
// @Success      200   {object}  shipmentResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /v1/bookings [post]
func (h *ShipmentHandler) Book(c echo.Context) error {
	var req bookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.bookings.CreateBooking(c.Request().Context(), toBookingInput(req))
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, toShipmentResponse(result.Shipment))
}

// Get handles GET /v1/shipments/:id.
//
// @Summary      Get a shipment
// @Tags         shipments
// @Produce      json
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  shipmentResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/shipments/{id} [get]
func (h *ShipmentHandler) Get(c echo.Context) error {
	s, err := h.shipments.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShipmentResponse(s))
}

// Timeline handles GET /v1/shipments/:id/timeline.
//
// @Summary      List a shipment's timeline
// @Tags         shipments
// @Produce      json
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  timelineResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/shipments/{id}/timeline [get]
func (h *ShipmentHandler) Timeline(c echo.Context) error {
	id := c.Param("id")
	entries, err := h.shipments.Timeline(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTimelineResponse(id, entries))
}

// Transition handles POST /v1/shipments/:id/transitions.
//
// @Summary      Apply an operator transition
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Shipment ID"
// @Param        body  body      transitionRequest  true  "Target status and the version it was read at"
// @Success      200   {object}  shipmentResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /v1/shipments/{id}/transitions [post]
func (h *ShipmentHandler) Transition(c echo.Context) error {
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	status := domain.ShipmentStatus(strings.ToUpper(req.Status))
	if !status.Valid() {
		return &domain.ValidationError{Fields: map[string]string{"status": "status is not a known shipment status"}}
	}

	metadata := req.Metadata
	if req.Note != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["note"] = req.Note
	}

	ctx := c.Request().Context()
	id := c.Param("id")

	var leg *domain.Leg
	if req.Leg != "" {
		l := domain.Leg(strings.ToUpper(req.Leg))
		if !l.Valid() {
			return &domain.ValidationError{Fields: map[string]string{"leg": "leg must be one of: " + knownLegs()}}
		}
		if l == domain.LegCompleted {
			if status != domain.StatusIntlDelivered {
				return &domain.ValidationError{Fields: map[string]string{"status": "only INTL_DELIVERED can be completed"}}
			}
			s, err := h.shipments.Complete(ctx, ports.CompleteInput{
				ShipmentID:      id,
				Source:          domain.SourceOperator,
				Metadata:        metadata,
				ExpectedVersion: req.ExpectedVersion,
			})
			if err != nil {
				return err
			}
			return c.JSON(http.StatusOK, toShipmentResponse(s))
		}
		leg = &l
	}

	s, err := h.shipments.Advance(ctx, ports.AdvanceInput{
		ShipmentID:      id,
		Status:          status,
		Leg:             leg,
		Source:          domain.SourceOperator,
		Metadata:        metadata,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		return err
	}

	// Side effects may have chained further transitions (warehouse hand-off,
	// completion), so answer with the stored row and its current version. The
	// transition itself is committed; a failed re-read keeps the commit result.
	if current, err := h.shipments.Get(ctx, id); err == nil {
		s = current
	}
	return c.JSON(http.StatusOK, toShipmentResponse(s))
}

func knownLegs() string {
	legs := domain.Legs()
	names := make([]string, len(legs))
	for i, l := range legs {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
