// Package sqlite is the relational implementation of the shipment store,
// backed by database/sql and mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Config captures the settings for opening the database file.
type Config struct {
	// Path is a file path or ":memory:".
	Path string
}

// schema is applied on every Open; statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS shipments (
	id                   TEXT PRIMARY KEY,
	user_id              TEXT NOT NULL DEFAULT '',
	leg                  TEXT NOT NULL,
	status               TEXT NOT NULL,
	version              INTEGER NOT NULL,
	domestic_awb         TEXT,
	international_awb    TEXT,
	booking_reference_id TEXT UNIQUE,
	alert_sent           INTEGER NOT NULL DEFAULT 0,
	origin_address       TEXT NOT NULL,
	destination_address  TEXT NOT NULL,
	destination_country  TEXT NOT NULL,
	recipient_name       TEXT NOT NULL,
	recipient_phone      TEXT NOT NULL,
	recipient_email      TEXT,
	weight_kg            REAL NOT NULL,
	length_cm            REAL,
	width_cm             REAL,
	height_cm            REAL,
	declared_value       REAL NOT NULL DEFAULT 0,
	shipment_type        TEXT NOT NULL,
	shipping_cost        REAL,
	gst_amount           REAL,
	total_amount         REAL,
	created_at           INTEGER NOT NULL,
	updated_at           INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_shipments_leg_status ON shipments(leg, status);
CREATE INDEX IF NOT EXISTS idx_shipments_leg_created ON shipments(leg, created_at);

CREATE TABLE IF NOT EXISTS shipment_timeline (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	shipment_id TEXT NOT NULL REFERENCES shipments(id),
	status      TEXT NOT NULL,
	leg         TEXT NOT NULL,
	source      TEXT NOT NULL,
	metadata    TEXT,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_timeline_shipment ON shipment_timeline(shipment_id, seq);

CREATE TABLE IF NOT EXISTS api_logs (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	shipment_id       TEXT,
	api_type          TEXT NOT NULL,
	request           TEXT,
	response          TEXT,
	http_status       INTEGER NOT NULL,
	execution_time_ms INTEGER NOT NULL,
	correlation_id    TEXT NOT NULL,
	attempt           INTEGER NOT NULL,
	created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_api_logs_shipment ON api_logs(shipment_id);
`

// Open opens the database, applies the schema and verifies connectivity.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := cfg.Path
	memory := dsn == "" || dsn == ":memory:"
	if memory {
		dsn = ":memory:"
	} else {
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", cfg.Path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Timestamps are stored as UTC unix nanoseconds so range filters compare numerically.
func toUnix(t time.Time) int64 { return t.UTC().UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
