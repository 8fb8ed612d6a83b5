package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
)

const (
	collectionTimeline = "shipment_timeline"
	collectionAPILogs  = "api_logs"
)

// TimelineRepository implements ports.TimelineRepository using MongoDB.
type TimelineRepository struct {
	col *mongo.Collection
}

func NewTimelineRepository(db *mongo.Database) *TimelineRepository {
	return &TimelineRepository{col: db.Collection(collectionTimeline)}
}

// Append inserts an observational entry. Transition entries are written by
// ShipmentRepository.ApplyStatusChange.
func (r *TimelineRepository) Append(ctx context.Context, e *domain.TimelineEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert timeline entry: %w", err)
	}
	return nil
}

// ListByShipment returns entries ordered by their time-ordered ids.
func (r *TimelineRepository) ListByShipment(ctx context.Context, shipmentID string) ([]domain.TimelineEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"shipment_id": shipmentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find timeline: %w", err)
	}
	defer cur.Close(ctx)

	entries := []domain.TimelineEntry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	return entries, nil
}

func (r *TimelineRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "shipment_id", Value: 1}, {Key: "_id", Value: 1}},
	})
	return err
}

// APILogRepository is the write-only courier audit trail.
type APILogRepository struct {
	col *mongo.Collection
}

func NewAPILogRepository(db *mongo.Database) *APILogRepository {
	return &APILogRepository{col: db.Collection(collectionAPILogs)}
}

func (r *APILogRepository) Insert(ctx context.Context, l *domain.APILog) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, l); err != nil {
		return fmt.Errorf("insert api log: %w", err)
	}
	return nil
}

func (r *APILogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "shipment_id", Value: 1}}},
		{Keys: bson.D{{Key: "correlation_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}
