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

// BulkResult summarizes a bulk ballot write. Created is exact per record;
// Updated and Unchanged come from the driver's aggregate counts because
// MongoDB does not report which matched document it modified.
type BulkResult struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
	Errors    []BulkError
}

// BulkError is a single failed operation within a bulk write.
type BulkError struct {
	Index   int // position in the submitted batch
	Message string
}

// Total returns the number of records accounted for.
func (r BulkResult) Total() int {
	return r.Created + r.Updated + r.Unchanged + r.Failed
}

// BulkUpsertBallots writes a batch of individual ballots in one unordered
// bulk operation keyed on (vote_id, bioguide_id). Unordered means one bad
// record does not abort the rest of the batch.
func (s *Store) BulkUpsertBallots(ctx context.Context, ballots []models.PoliticianVote) (BulkResult, error) {
	if len(ballots) == 0 {
		return BulkResult{}, nil
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(ballots))
	for _, b := range ballots {
		writes = append(writes, ballotWrite(b, now))
	}

	res, err := s.collection(CollPoliticianVotes).
		BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))

	var writeErrs []mongo.BulkWriteError
	if err != nil {
		var bwe mongo.BulkWriteException
		if !errors.As(err, &bwe) {
			return BulkResult{}, errors.NewStorageError("bulk_write", CollPoliticianVotes, err)
		}
		writeErrs = bwe.WriteErrors
	}

	return classifyBulk(len(ballots), res, writeErrs), nil
}

// ballotWrite builds the upsert for one ballot as a pipeline update.
// last_updated moves only when the ballot content moved, so an unchanged
// ballot is not reported as modified and keeps its timestamp, the same
// contract single-document upserts honor.
func ballotWrite(b models.PoliticianVote, now time.Time) *mongo.UpdateOneModel {
	changed := bson.M{"$or": bson.A{
		bson.M{"$ne": bson.A{"$position", b.Position}},
		bson.M{"$ne": bson.A{"$politician_name", b.PoliticianName}},
		bson.M{"$ne": bson.A{"$politician_party", b.PoliticianParty}},
		bson.M{"$ne": bson.A{"$politician_state", b.PoliticianState}},
	}}
	return mongo.NewUpdateOneModel().
		SetFilter(bson.M{"vote_id": b.VoteID, "bioguide_id": b.BioguideID}).
		SetUpdate(bson.A{bson.M{"$set": bson.M{
			"position":         b.Position,
			"politician_name":  b.PoliticianName,
			"politician_party": b.PoliticianParty,
			"politician_state": b.PoliticianState,
			"last_updated":     bson.M{"$cond": bson.A{changed, now, "$last_updated"}},
		}}}).
		SetUpsert(true)
}

// classifyBulk folds a driver bulk result and its per-operation errors into
// outcome counts. Pure so the classification is unit testable.
func classifyBulk(total int, res *mongo.BulkWriteResult, writeErrs []mongo.BulkWriteError) BulkResult {
	out := BulkResult{}
	for _, we := range writeErrs {
		out.Errors = append(out.Errors, BulkError{Index: we.Index, Message: we.Message})
	}
	out.Failed = len(writeErrs)

	if res == nil {
		return out
	}
	out.Created = int(res.UpsertedCount)
	out.Updated = int(res.ModifiedCount)
	unchanged := int(res.MatchedCount) - out.Updated
	if unchanged > 0 {
		out.Unchanged = unchanged
	}
	return out
}
