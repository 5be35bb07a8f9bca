// Package store persists canonical entities in MongoDB. All writes are
// idempotent upserts keyed on natural identifiers, so repeated syncs
// converge on one record per entity instead of accumulating duplicates.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/capitolwatch/capitolwatch/pkg/errors"
	"github.com/capitolwatch/capitolwatch/pkg/logging"
)

// Collection names.
const (
	CollPoliticians     = "politicians"
	CollBills           = "bills"
	CollVotes           = "votes"
	CollPoliticianVotes = "politician_votes"
	CollContributions   = "contributions"
)

// Store wraps a MongoDB database handle with the operations the ingestion
// pipeline needs.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a MongoDB connection, verifies it with a ping, and returns
// a Store bound to the named database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.NewStorageError("connect", "", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.NewStorageError("ping", "", err)
	}

	logging.Debug().Str("database", database).Msg("connected to document store")
	return &Store{client: client, db: client.Database(database)}, nil
}

// NewWithDatabase wraps an existing database handle. Used by tests.
func NewWithDatabase(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// collection returns the named collection handle.
func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the unique natural-key indexes and the secondary
// query indexes. Safe to call on every startup; MongoDB treats existing
// identical indexes as a no-op.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		CollPoliticians: {
			{Keys: bson.D{{Key: "bioguide_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "chamber", Value: 1}}},
			{Keys: bson.D{{Key: "party", Value: 1}}},
			{Keys: bson.D{{Key: "in_office", Value: 1}}},
			{Keys: bson.D{{Key: "fec_candidate_id", Value: 1}, {Key: "in_office", Value: 1}}},
		},
		CollBills: {
			{Keys: bson.D{{Key: "bill_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "congress", Value: 1}, {Key: "bill_type", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "sponsor_bioguide_id", Value: 1}}},
			{Keys: bson.D{{Key: "latest_action_date", Value: -1}}},
		},
		CollVotes: {
			{Keys: bson.D{{Key: "vote_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "chamber", Value: 1}, {Key: "congress", Value: 1}, {Key: "roll_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "bill_id", Value: 1}}},
			{Keys: bson.D{{Key: "vote_date", Value: -1}}},
		},
		CollPoliticianVotes: {
			{Keys: bson.D{{Key: "vote_id", Value: 1}, {Key: "bioguide_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "bioguide_id", Value: 1}}},
		},
		CollContributions: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "bioguide_id", Value: 1}, {Key: "cycle", Value: 1}}},
			{Keys: bson.D{{Key: "committee_id", Value: 1}}},
			{Keys: bson.D{{Key: "contribution_date", Value: -1}}},
		},
	}

	for coll, models := range specs {
		if _, err := s.collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.NewStorageError("index", coll, err)
		}
	}
	logging.Debug().Msg("store indexes ensured")
	return nil
}
