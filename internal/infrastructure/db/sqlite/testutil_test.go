package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/infrastructure/db/sqlite"
)

// setupTestDB opens an in-memory database with the production schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(context.Background(), sqlite.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// seedShipment inserts a shipment at (leg, status, version) and returns it.
func seedShipment(t *testing.T, repo *sqlite.ShipmentRepository, id string, leg domain.Leg, status domain.ShipmentStatus, version int64, createdAt time.Time) *domain.Shipment {
	t.Helper()
	ref := "ref-" + id
	awb := "AWB-" + id
	s := &domain.Shipment{
		ID:                 id,
		UserID:             "user-1",
		Leg:                leg,
		Status:             status,
		Version:            version,
		DomesticAWB:        &awb,
		BookingReferenceID: &ref,
		OriginAddress:      "12 MG Road, Bengaluru",
		DestinationAddress: "1200 Market St, San Francisco",
		DestinationCountry: "US",
		RecipientName:      "Asha Rao",
		RecipientPhone:     "+919876543210",
		WeightKg:           2.5,
		ShipmentType:       "parcel",
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("failed to seed shipment %s: %v", id, err)
	}
	return s
}
