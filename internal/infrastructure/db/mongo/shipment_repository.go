package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
)

const collectionShipments = "shipments"

type ShipmentRepository struct {
	col      *mongo.Collection
	timeline *mongo.Collection
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{
		col:      db.Collection(collectionShipments),
		timeline: db.Collection(collectionTimeline),
	}
}

// Create inserts a new shipment document.
func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, s)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateReference
		}
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

// FindByID retrieves a shipment by its id.
func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByBookingReference retrieves the shipment created for a booking reference.
func (r *ShipmentRepository) FindByBookingReference(ctx context.Context, ref string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"booking_reference_id": ref})
}

func (r *ShipmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Shipment
	err := r.col.FindOne(ctx, filter).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ApplyStatusChange is the compare-and-swap write. The filter carries the
// expected version, so a concurrent writer that got there first leaves zero
// matched documents. The timeline entry is inserted only after a match.
func (r *ShipmentRepository) ApplyStatusChange(ctx context.Context, c domain.StatusChange) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":     c.ShipmentID,
		"version": c.ExpectedVersion,
		"leg":     bson.M{"$ne": domain.LegCompleted},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     c.Status,
			"leg":        c.Leg,
			"updated_at": c.At.UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("cas update: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, nil
	}

	if _, err := r.timeline.InsertOne(ctx, c.Entry); err != nil {
		return true, fmt.Errorf("append timeline: %w", err)
	}
	return true, nil
}

// SetDomesticAWB stores the courier AWB unless one is already present.
func (r *ShipmentRepository) SetDomesticAWB(ctx context.Context, id, awb string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "domestic_awb": nil},
		bson.M{"$set": bson.M{"domestic_awb": awb, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("set domestic awb: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// MarkAlertSent flips alert_sent from false to true. Only the first caller
// sees flipped = true.
func (r *ShipmentRepository) MarkAlertSent(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "alert_sent": false},
		bson.M{"$set": bson.M{"alert_sent": true}},
	)
	if err != nil {
		return false, fmt.Errorf("mark alert sent: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// ListDomesticSyncable returns booked shipments still with the domestic courier.
func (r *ShipmentRepository) ListDomesticSyncable(ctx context.Context) ([]*domain.Shipment, error) {
	return r.find(ctx, bson.M{
		"leg":    domain.LegDomestic,
		"status": bson.M{"$ne": domain.StatusPending},
	})
}

func (r *ShipmentRepository) ListByLeg(ctx context.Context, leg domain.Leg) ([]*domain.Shipment, error) {
	return r.find(ctx, bson.M{"leg": leg})
}

func (r *ShipmentRepository) ListDomesticCreatedBefore(ctx context.Context, t time.Time) ([]*domain.Shipment, error) {
	return r.find(ctx, bson.M{
		"leg":        domain.LegDomestic,
		"created_at": bson.M{"$lt": t.UTC()},
	})
}

func (r *ShipmentRepository) find(ctx context.Context, filter bson.M) ([]*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find shipments: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Shipment
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode shipments: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates necessary indexes on the shipments collection.
func (r *ShipmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "booking_reference_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"booking_reference_id": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "leg", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "leg", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
