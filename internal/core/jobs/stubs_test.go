package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
	"github.com/99minutos/crossborder-tracker/internal/core/service"
)

// ---------------------------------------------------------------------------
// Shipment repository stub with real CAS semantics
// ---------------------------------------------------------------------------

type stubRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Shipment
	timeline  []domain.TimelineEntry
	appendErr map[string]error // per-shipment Append failures
	listErr   error
	// queried records which list methods were called.
	queried []string
}

func newStubRepo(shipments ...*domain.Shipment) *stubRepo {
	r := &stubRepo{byID: make(map[string]*domain.Shipment), appendErr: make(map[string]error)}
	for _, s := range shipments {
		clone := *s
		r.byID[s.ID] = &clone
	}
	return r
}

func (r *stubRepo) get(id string) domain.Shipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.byID[id]
}

func (r *stubRepo) entries(id string) []domain.TimelineEntry {
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

func (r *stubRepo) Create(context.Context, *domain.Shipment) error { return errors.New("not used") }

func (r *stubRepo) FindByID(_ context.Context, id string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubRepo) FindByBookingReference(context.Context, string) (*domain.Shipment, error) {
	return nil, domain.ErrShipmentNotFound
}

func (r *stubRepo) ApplyStatusChange(_ context.Context, c domain.StatusChange) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[c.ShipmentID]
	if !ok || s.Version != c.ExpectedVersion || s.Leg == domain.LegCompleted {
		return false, nil
	}
	s.Status, s.Leg, s.UpdatedAt = c.Status, c.Leg, c.At
	s.Version++
	r.timeline = append(r.timeline, c.Entry)
	return true, nil
}

func (r *stubRepo) SetDomesticAWB(context.Context, string, string) error { return nil }

func (r *stubRepo) MarkAlertSent(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.byID[id]
	if s.AlertSent {
		return false, nil
	}
	s.AlertSent = true
	return true, nil
}

func (r *stubRepo) list(name string, keep func(*domain.Shipment) bool) ([]*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queried = append(r.queried, name)
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*domain.Shipment
	for _, s := range r.byID {
		if keep(s) {
			clone := *s
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubRepo) ListDomesticSyncable(context.Context) ([]*domain.Shipment, error) {
	return r.list("domestic_syncable", func(s *domain.Shipment) bool {
		return s.Leg == domain.LegDomestic && s.Status != domain.StatusPending
	})
}

func (r *stubRepo) ListByLeg(_ context.Context, leg domain.Leg) ([]*domain.Shipment, error) {
	return r.list("by_leg:"+string(leg), func(s *domain.Shipment) bool { return s.Leg == leg })
}

func (r *stubRepo) ListDomesticCreatedBefore(_ context.Context, t time.Time) ([]*domain.Shipment, error) {
	return r.list("domestic_created_before", func(s *domain.Shipment) bool {
		return s.Leg == domain.LegDomestic && s.CreatedAt.Before(t)
	})
}

func (r *stubRepo) Append(_ context.Context, e *domain.TimelineEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.appendErr[e.ShipmentID]; err != nil {
		return err
	}
	r.timeline = append(r.timeline, *e)
	return nil
}

func (r *stubRepo) ListByShipment(_ context.Context, id string) ([]domain.TimelineEntry, error) {
	return r.entries(id), nil
}

// ---------------------------------------------------------------------------
// Locker stub
// ---------------------------------------------------------------------------

type stubLocker struct {
	mu       sync.Mutex
	held     map[int64]bool
	lockErr  error
	acquired []int64
	released []int64
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: make(map[int64]bool)}
}

// hold marks key as owned by some other process.
func (l *stubLocker) hold(key int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = true
}

func (l *stubLocker) TryLock(_ context.Context, key int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lockErr != nil {
		return false, l.lockErr
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	l.acquired = append(l.acquired, key)
	return true, nil
}

func (l *stubLocker) Unlock(_ context.Context, key int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}

// ---------------------------------------------------------------------------
// Courier stub
// ---------------------------------------------------------------------------

type stubCourier struct {
	statuses map[string]string // awb -> raw status
	errs     map[string]error
	tracked  []string
}

func (c *stubCourier) CreateShipment(context.Context, ports.CreateShipmentParams) (string, error) {
	return "", errors.New("not used")
}

func (c *stubCourier) Track(_ context.Context, awb string) (*domain.CourierTracking, error) {
	c.tracked = append(c.tracked, awb)
	if err := c.errs[awb]; err != nil {
		return nil, err
	}
	return &domain.CourierTracking{AWB: awb, RawStatus: c.statuses[awb], Location: "Delhi Hub"}, nil
}

// flakyAdvancer fails the first n calls with err, then delegates.
type flakyAdvancer struct {
	ports.Advancer
	err   error
	fails int
	calls int
}

func (a *flakyAdvancer) Advance(ctx context.Context, in ports.AdvanceInput) (*domain.Shipment, error) {
	a.calls++
	if a.calls <= a.fails {
		return nil, a.err
	}
	return a.Advancer.Advance(ctx, in)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const testWarehouse = "ShipBridge Hub, Okhla Phase II, New Delhi"

var nop = zerolog.Nop()

func newMachine(repo *stubRepo) *service.StateMachine {
	m := service.NewStateMachine(repo, repo, nop)
	m.SetSideEffects(service.NewStatusSideEffects(m, repo, nil, testWarehouse, nop))
	return m
}

func shipment(id string, leg domain.Leg, status domain.ShipmentStatus, version int64) *domain.Shipment {
	awb := "AWB-" + id
	return &domain.Shipment{
		ID:                 id,
		Leg:                leg,
		Status:             status,
		Version:            version,
		DomesticAWB:        &awb,
		DestinationAddress: "500 Main St, Springfield",
		CreatedAt:          time.Now().UTC().Add(-time.Hour),
	}
}
