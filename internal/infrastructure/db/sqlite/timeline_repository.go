package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TimelineRepository implements ports.TimelineRepository with SQLite.
// Entries are immutable - there is no Update or Delete.
type TimelineRepository struct {
	db *sql.DB
}

func NewTimelineRepository(db *sql.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

func (r *TimelineRepository) Append(ctx context.Context, e *domain.TimelineEntry) error {
	return insertTimeline(ctx, r.db, e)
}

// ListByShipment returns entries in insertion order.
func (r *TimelineRepository) ListByShipment(ctx context.Context, shipmentID string) ([]domain.TimelineEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, shipment_id, status, leg, source, metadata, created_at
		 FROM shipment_timeline WHERE shipment_id = ? ORDER BY seq`,
		shipmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}
	defer rows.Close()

	entries := []domain.TimelineEntry{}
	for rows.Next() {
		var (
			e         domain.TimelineEntry
			metadata  sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.ShipmentID, &e.Status, &e.Leg, &e.Source, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata of %s: %w", e.ID, err)
			}
		}
		e.CreatedAt = fromUnix(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func insertTimeline(ctx context.Context, x execer, e *domain.TimelineEntry) error {
	metadata, err := encodeJSON(e.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	_, err = x.ExecContext(ctx,
		`INSERT INTO shipment_timeline (id, shipment_id, status, leg, source, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ShipmentID, e.Status, e.Leg, e.Source, metadata, toUnix(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append timeline entry: %w", err)
	}
	return nil
}

// APILogRepository implements ports.APILogRepository with SQLite.
type APILogRepository struct {
	db *sql.DB
}

func NewAPILogRepository(db *sql.DB) *APILogRepository {
	return &APILogRepository{db: db}
}

func (r *APILogRepository) Insert(ctx context.Context, l *domain.APILog) error {
	req, err := encodeJSON(l.Request)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	resp, err := encodeJSON(l.Response)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO api_logs (shipment_id, api_type, request, response, http_status,
		 execution_time_ms, correlation_id, attempt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullString(l.ShipmentID), l.APIType, req, resp, l.HTTPStatus,
		l.ExecutionTimeMs, l.CorrelationID, l.Attempt, toUnix(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert api log: %w", err)
	}
	return nil
}

func encodeJSON(m map[string]any) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
