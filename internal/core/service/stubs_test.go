package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository (shipments + timeline)
// ---------------------------------------------------------------------------

type stubShipmentRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.Shipment
	timeline   []domain.TimelineEntry
	createErr  error // if set, Create returns this error
	applyErr   error // if set, ApplyStatusChange fails before writing
	appendErr  error // if set, the timeline append fails after the write
	alertErr   error
	creates    int
	applyCalls int
	// beforeApply runs inside ApplyStatusChange before the CAS, to simulate a
	// concurrent writer sneaking in between the pre-check and the write.
	beforeApply func(s *domain.Shipment)
}

func newStubShipmentRepo() *stubShipmentRepo {
	return &stubShipmentRepo{byID: make(map[string]*domain.Shipment)}
}

func (r *stubShipmentRepo) seed(s *domain.Shipment) *domain.Shipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *s
	r.byID[s.ID] = &clone
	return s
}

func (r *stubShipmentRepo) get(id string) domain.Shipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.byID[id]
}

func (r *stubShipmentRepo) entries(id string) []domain.TimelineEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TimelineEntry
	for _, e := range r.timeline {
		if e.ShipmentID == id {
			out = append(out, e)
		}
	}
	return out
}

func (r *stubShipmentRepo) Create(_ context.Context, s *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if s.BookingReferenceID != nil {
		for _, existing := range r.byID {
			if existing.BookingReferenceID != nil && *existing.BookingReferenceID == *s.BookingReferenceID {
				return domain.ErrDuplicateReference
			}
		}
	}
	r.creates++
	clone := *s
	r.byID[s.ID] = &clone
	return nil
}

func (r *stubShipmentRepo) FindByID(_ context.Context, id string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubShipmentRepo) FindByBookingReference(_ context.Context, ref string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.BookingReferenceID != nil && *s.BookingReferenceID == ref {
			clone := *s
			return &clone, nil
		}
	}
	return nil, domain.ErrShipmentNotFound
}

func (r *stubShipmentRepo) ApplyStatusChange(_ context.Context, c domain.StatusChange) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyCalls++
	if r.applyErr != nil {
		return false, r.applyErr
	}
	s, ok := r.byID[c.ShipmentID]
	if !ok {
		return false, nil
	}
	if r.beforeApply != nil {
		r.beforeApply(s)
	}
	if s.Version != c.ExpectedVersion || s.Leg == domain.LegCompleted {
		return false, nil
	}
	s.Status = c.Status
	s.Leg = c.Leg
	s.Version++
	s.UpdatedAt = c.At
	if r.appendErr != nil {
		return true, r.appendErr
	}
	r.timeline = append(r.timeline, c.Entry)
	return true, nil
}

func (r *stubShipmentRepo) SetDomesticAWB(_ context.Context, id, awb string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	if s.DomesticAWB == nil {
		s.DomesticAWB = &awb
	}
	return nil
}

func (r *stubShipmentRepo) MarkAlertSent(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.alertErr != nil {
		return false, r.alertErr
	}
	s, ok := r.byID[id]
	if !ok || s.AlertSent {
		return false, nil
	}
	s.AlertSent = true
	return true, nil
}

func (r *stubShipmentRepo) list(keep func(*domain.Shipment) bool) []*domain.Shipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Shipment
	for _, s := range r.byID {
		if keep(s) {
			clone := *s
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubShipmentRepo) ListDomesticSyncable(context.Context) ([]*domain.Shipment, error) {
	return r.list(func(s *domain.Shipment) bool {
		return s.Leg == domain.LegDomestic && s.Status != domain.StatusPending
	}), nil
}

func (r *stubShipmentRepo) ListByLeg(_ context.Context, leg domain.Leg) ([]*domain.Shipment, error) {
	return r.list(func(s *domain.Shipment) bool { return s.Leg == leg }), nil
}

func (r *stubShipmentRepo) ListDomesticCreatedBefore(_ context.Context, t time.Time) ([]*domain.Shipment, error) {
	return r.list(func(s *domain.Shipment) bool {
		return s.Leg == domain.LegDomestic && s.CreatedAt.Before(t)
	}), nil
}

// stubTimeline reads through to the repo's timeline slice.
type stubTimeline struct {
	repo *stubShipmentRepo
}

func (t stubTimeline) Append(_ context.Context, e *domain.TimelineEntry) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	t.repo.timeline = append(t.repo.timeline, *e)
	return nil
}

func (t stubTimeline) ListByShipment(_ context.Context, id string) ([]domain.TimelineEntry, error) {
	return t.repo.entries(id), nil
}

// ---------------------------------------------------------------------------
// Courier and notifier stubs
// ---------------------------------------------------------------------------

type stubCourier struct {
	awb       string
	createErr error
	creates   int
	params    []ports.CreateShipmentParams
}

func (c *stubCourier) CreateShipment(_ context.Context, p ports.CreateShipmentParams) (string, error) {
	c.creates++
	c.params = append(c.params, p)
	if c.createErr != nil {
		return "", c.createErr
	}
	return c.awb, nil
}

func (c *stubCourier) Track(context.Context, string) (*domain.CourierTracking, error) {
	return nil, errors.New("not used")
}

type stubNotifier struct {
	err      error
	notified []string
}

func (n *stubNotifier) NotifyOutForDelivery(_ context.Context, s *domain.Shipment) error {
	n.notified = append(n.notified, s.ID)
	return n.err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

const testWarehouse = "ShipBridge Hub, Okhla Phase II, New Delhi"

// newWiredMachine builds a state machine with the real side-effect layer
// installed, the way the composition root does.
func newWiredMachine(repo *stubShipmentRepo, notifier ports.Notifier) *StateMachine {
	m := NewStateMachine(repo, stubTimeline{repo: repo}, discardLogger)
	m.SetSideEffects(NewStatusSideEffects(m, repo, notifier, testWarehouse, discardLogger))
	return m
}

func shipmentAt(id string, leg domain.Leg, status domain.ShipmentStatus, version int64) *domain.Shipment {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Shipment{
		ID:                 id,
		Leg:                leg,
		Status:             status,
		Version:            version,
		DestinationAddress: "221B Baker Street, London",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
