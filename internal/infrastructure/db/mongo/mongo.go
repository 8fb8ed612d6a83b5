package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the indexes every repository in this package relies
// on, including the unique booking reference index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := NewShipmentRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("shipment indexes: %w", err)
	}
	if err := NewTimelineRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("timeline indexes: %w", err)
	}
	if err := NewAPILogRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("api log indexes: %w", err)
	}
	return nil
}

// Probe returns a readiness check that pings the server and then runs a
// ping command against db, which also fails when the database is not
// reachable with the configured credentials.
func Probe(db *mongo.Database) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := db.Client().Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongo ping: %w", err)
		}
		if err := db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
			return fmt.Errorf("mongo ping command: %w", err)
		}
		return nil
	}
}
