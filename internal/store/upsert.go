package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/capitolwatch/capitolwatch/pkg/errors"
	"github.com/capitolwatch/capitolwatch/pkg/models"
)

// Outcome classifies what a single upsert did to the store.
type Outcome int

// Outcome values.
const (
	OutcomeUnchanged Outcome = iota
	OutcomeCreated
	OutcomeUpdated
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// volatileFields never participate in change detection. last_updated is a
// write timestamp, and the embedding fields on bills are owned by the
// embedding indexer rather than the bills ingester.
var volatileFields = map[string][]string{
	CollPoliticians:   {"last_updated"},
	CollBills:         {"last_updated", "embedding", "embedding_hash"},
	CollVotes:         {"last_updated"},
	CollContributions: {"last_updated"},
}

// docForUpsert marshals v into a flat document with the collection's
// volatile fields removed, so $set only touches content fields and an
// identical re-sync reports ModifiedCount of zero.
func docForUpsert(coll string, v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for _, f := range volatileFields[coll] {
		delete(doc, f)
	}
	return doc, nil
}

// upsert writes one entity. The content fields go through $set so MongoDB's
// own comparison decides whether anything changed; last_updated is set on
// insert and bumped in a follow-up write only when content actually changed.
// A duplicate key error means a concurrent insert won the upsert race, so
// the write is retried once and lands as an update.
func (s *Store) upsert(ctx context.Context, coll string, filter bson.M, entity interface{}) (Outcome, error) {
	doc, err := docForUpsert(coll, entity)
	if err != nil {
		return OutcomeUnchanged, errors.NewStorageError("marshal", coll, err)
	}

	update := bson.M{
		"$set":         doc,
		"$setOnInsert": bson.M{"last_updated": time.Now().UTC()},
	}

	res, err := s.collection(coll).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		res, err = s.collection(coll).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	}
	if err != nil {
		return OutcomeUnchanged, errors.NewStorageError("upsert", coll, err)
	}

	outcome := classifyUpdate(res)
	if outcome == OutcomeUpdated {
		_, err = s.collection(coll).UpdateOne(ctx, filter,
			bson.M{"$set": bson.M{"last_updated": time.Now().UTC()}})
		if err != nil {
			return outcome, errors.NewStorageError("upsert", coll, err)
		}
	}
	return outcome, nil
}

// classifyUpdate maps an UpdateResult onto an Outcome.
func classifyUpdate(res *mongo.UpdateResult) Outcome {
	switch {
	case res.UpsertedCount > 0:
		return OutcomeCreated
	case res.ModifiedCount > 0:
		return OutcomeUpdated
	default:
		return OutcomeUnchanged
	}
}

// UpsertPolitician writes one politician keyed on bioguide ID.
func (s *Store) UpsertPolitician(ctx context.Context, p *models.Politician) (Outcome, error) {
	return s.upsert(ctx, CollPoliticians, bson.M{"bioguide_id": p.BioguideID}, p)
}

// UpsertBill writes one bill keyed on bill ID. Embedding fields are
// excluded from the write so a re-synced bill keeps its vector.
func (s *Store) UpsertBill(ctx context.Context, b *models.Bill) (Outcome, error) {
	return s.upsert(ctx, CollBills, bson.M{"bill_id": b.BillID}, b)
}

// UpsertVote writes one roll call vote keyed on vote ID.
func (s *Store) UpsertVote(ctx context.Context, v *models.Vote) (Outcome, error) {
	return s.upsert(ctx, CollVotes, bson.M{"vote_id": v.VoteID}, v)
}

// UpsertContribution writes one contribution keyed on the FEC sub ID.
func (s *Store) UpsertContribution(ctx context.Context, c *models.Contribution) (Outcome, error) {
	return s.upsert(ctx, CollContributions, bson.M{"id": c.ID}, c)
}
