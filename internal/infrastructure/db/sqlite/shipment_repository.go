package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
)

const shipmentColumns = `id, user_id, leg, status, version, domestic_awb, international_awb,
	booking_reference_id, alert_sent, origin_address, destination_address, destination_country,
	recipient_name, recipient_phone, recipient_email, weight_kg, length_cm, width_cm, height_cm,
	declared_value, shipment_type, shipping_cost, gst_amount, total_amount, created_at, updated_at`

// ShipmentRepository implements ports.ShipmentRepository with SQLite.
type ShipmentRepository struct {
	db *sql.DB
}

func NewShipmentRepository(db *sql.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// Create persists a new shipment.
func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shipments (`+shipmentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Leg, s.Status, s.Version,
		nullString(s.DomesticAWB), nullString(s.InternationalAWB), nullString(s.BookingReferenceID),
		s.AlertSent, s.OriginAddress, s.DestinationAddress, s.DestinationCountry,
		s.RecipientName, s.RecipientPhone, nullString(s.RecipientEmail), s.WeightKg,
		nullFloat(s.Dimensions.LengthCm), nullFloat(s.Dimensions.WidthCm), nullFloat(s.Dimensions.HeightCm),
		s.DeclaredValue, s.ShipmentType,
		nullFloat(s.Costs.ShippingCost), nullFloat(s.Costs.GSTAmount), nullFloat(s.Costs.TotalAmount),
		toUnix(s.CreatedAt), toUnix(s.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReference
		}
		return fmt.Errorf("failed to create shipment: %w", err)
	}
	return nil
}

// FindByID retrieves a shipment by its ID.
func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	return r.queryOne(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = ?`, id)
}

// FindByBookingReference retrieves the shipment created for ref.
func (r *ShipmentRepository) FindByBookingReference(ctx context.Context, ref string) (*domain.Shipment, error) {
	return r.queryOne(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE booking_reference_id = ?`, ref)
}

func (r *ShipmentRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.Shipment, error) {
	s, err := scanShipment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrShipmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	return s, nil
}

// ApplyStatusChange runs the conditional update and the timeline insert in
// one transaction, so either both land or neither does.
func (r *ShipmentRepository) ApplyStatusChange(ctx context.Context, c domain.StatusChange) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE shipments SET status = ?, leg = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ? AND leg <> ?`,
		c.Status, c.Leg, toUnix(c.At), c.ShipmentID, c.ExpectedVersion, domain.LegCompleted,
	)
	if err != nil {
		return false, fmt.Errorf("cas update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cas update: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := insertTimeline(ctx, tx, &c.Entry); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// SetDomesticAWB stores the AWB once; later calls leave it untouched.
func (r *ShipmentRepository) SetDomesticAWB(ctx context.Context, id, awb string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shipments SET domestic_awb = ?, updated_at = ? WHERE id = ? AND domestic_awb IS NULL`,
		awb, toUnix(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set domestic awb: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// MarkAlertSent flips alert_sent once.
func (r *ShipmentRepository) MarkAlertSent(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE shipments SET alert_sent = 1 WHERE id = ? AND alert_sent = 0`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark alert sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark alert sent: %w", err)
	}
	return n == 1, nil
}

func (r *ShipmentRepository) ListDomesticSyncable(ctx context.Context) ([]*domain.Shipment, error) {
	return r.queryMany(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE leg = ? AND status <> ? ORDER BY created_at`,
		domain.LegDomestic, domain.StatusPending,
	)
}

func (r *ShipmentRepository) ListByLeg(ctx context.Context, leg domain.Leg) ([]*domain.Shipment, error) {
	return r.queryMany(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE leg = ? ORDER BY created_at`, leg)
}

func (r *ShipmentRepository) ListDomesticCreatedBefore(ctx context.Context, t time.Time) ([]*domain.Shipment, error) {
	return r.queryMany(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE leg = ? AND created_at < ? ORDER BY created_at`,
		domain.LegDomestic, toUnix(t),
	)
}

func (r *ShipmentRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Shipment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shipment: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShipment(row scanner) (*domain.Shipment, error) {
	var (
		s                         domain.Shipment
		domesticAWB, intlAWB, ref sql.NullString
		email                     sql.NullString
		length, width, height     sql.NullFloat64
		shipping, gst, total      sql.NullFloat64
		createdAt, updatedAt      int64
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.Leg, &s.Status, &s.Version, &domesticAWB, &intlAWB,
		&ref, &s.AlertSent, &s.OriginAddress, &s.DestinationAddress, &s.DestinationCountry,
		&s.RecipientName, &s.RecipientPhone, &email, &s.WeightKg, &length, &width, &height,
		&s.DeclaredValue, &s.ShipmentType, &shipping, &gst, &total, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.DomesticAWB = stringPtr(domesticAWB)
	s.InternationalAWB = stringPtr(intlAWB)
	s.BookingReferenceID = stringPtr(ref)
	s.RecipientEmail = stringPtr(email)
	s.Dimensions = domain.Dimensions{LengthCm: floatPtr(length), WidthCm: floatPtr(width), HeightCm: floatPtr(height)}
	s.Costs = domain.Costs{ShippingCost: floatPtr(shipping), GSTAmount: floatPtr(gst), TotalAmount: floatPtr(total)}
	s.CreatedAt = fromUnix(createdAt)
	s.UpdatedAt = fromUnix(updatedAt)
	return &s, nil
}
