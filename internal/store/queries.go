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

// PoliticianFilter narrows politician queries.
type PoliticianFilter struct {
	State        string
	Chamber      models.Chamber
	InOfficeOnly bool
}

func (f PoliticianFilter) query() bson.M {
	q := bson.M{}
	if f.State != "" {
		q["state"] = f.State
	}
	if f.Chamber != "" {
		q["chamber"] = f.Chamber
	}
	if f.InOfficeOnly {
		q["in_office"] = true
	}
	return q
}

// GetPolitician looks up one politician by bioguide ID.
func (s *Store) GetPolitician(ctx context.Context, bioguideID string) (*models.Politician, error) {
	var p models.Politician
	err := s.collection(CollPoliticians).
		FindOne(ctx, bson.M{"bioguide_id": bioguideID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, errors.NewNotFoundError(CollPoliticians, bioguideID)
	}
	if err != nil {
		return nil, errors.NewStorageError("find", CollPoliticians, err)
	}
	return &p, nil
}

// ListPoliticians returns politicians matching the filter.
func (s *Store) ListPoliticians(ctx context.Context, filter PoliticianFilter) ([]models.Politician, error) {
	cur, err := s.collection(CollPoliticians).Find(ctx, filter.query(),
		options.Find().SetSort(bson.D{{Key: "state", Value: 1}, {Key: "last_name", Value: 1}}))
	if err != nil {
		return nil, errors.NewStorageError("find", CollPoliticians, err)
	}
	var out []models.Politician
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.NewStorageError("decode", CollPoliticians, err)
	}
	return out, nil
}

// PoliticiansWithFECIDs returns current members that have an FEC candidate
// ID, the population the contributions ingester works over.
func (s *Store) PoliticiansWithFECIDs(ctx context.Context) ([]models.Politician, error) {
	q := bson.M{
		"fec_candidate_id": bson.M{"$exists": true, "$ne": ""},
		"in_office":        true,
	}
	cur, err := s.collection(CollPoliticians).Find(ctx, q)
	if err != nil {
		return nil, errors.NewStorageError("find", CollPoliticians, err)
	}
	var out []models.Politician
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.NewStorageError("decode", CollPoliticians, err)
	}
	return out, nil
}

// MarkDeparted flips in_office off for every current member whose bioguide
// ID is absent from seen. Only the flag and the timestamp are touched;
// departed members keep their history. Returns how many were flipped.
func (s *Store) MarkDeparted(ctx context.Context, seen []string) (int64, error) {
	res, err := s.collection(CollPoliticians).UpdateMany(ctx,
		bson.M{"in_office": true, "bioguide_id": bson.M{"$nin": seen}},
		bson.M{"$set": bson.M{"in_office": false, "last_updated": time.Now().UTC()}})
	if err != nil {
		return 0, errors.NewStorageError("update", CollPoliticians, err)
	}
	return res.ModifiedCount, nil
}

// DisplaceHouseSeat marks any other current House member holding the same
// (state, district) seat as out of office. A House district has exactly one
// sitting representative, so loading the current holder displaces the rest.
func (s *Store) DisplaceHouseSeat(ctx context.Context, state string, district int, keepBioguideID string) (int64, error) {
	res, err := s.collection(CollPoliticians).UpdateMany(ctx,
		bson.M{
			"chamber":     models.ChamberHouse,
			"state":       state,
			"district":    district,
			"in_office":   true,
			"bioguide_id": bson.M{"$ne": keepBioguideID},
		},
		bson.M{"$set": bson.M{"in_office": false, "last_updated": time.Now().UTC()}})
	if err != nil {
		return 0, errors.NewStorageError("update", CollPoliticians, err)
	}
	return res.ModifiedCount, nil
}

// BillExists reports whether a bill with the given ID is in the store.
// The votes ingester uses it to decide whether a vote's bill link resolves.
func (s *Store) BillExists(ctx context.Context, billID string) (bool, error) {
	n, err := s.collection(CollBills).CountDocuments(ctx,
		bson.M{"bill_id": billID}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.NewStorageError("count", CollBills, err)
	}
	return n > 0, nil
}

// BillsNeedingEmbeddings streams bills for one congress with the fields the
// embedding indexer needs, vector excluded. The indexer compares content
// hashes itself, so this returns every candidate rather than prefiltering.
func (s *Store) BillsNeedingEmbeddings(ctx context.Context, congress int) ([]models.Bill, error) {
	proj := bson.M{
		"bill_id":        1,
		"title":          1,
		"short_title":    1,
		"summary":        1,
		"embedding_hash": 1,
	}
	cur, err := s.collection(CollBills).Find(ctx,
		bson.M{"congress": congress}, options.Find().SetProjection(proj))
	if err != nil {
		return nil, errors.NewStorageError("find", CollBills, err)
	}
	var out []models.Bill
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.NewStorageError("decode", CollBills, err)
	}
	return out, nil
}

// SetBillEmbedding stores a bill's embedding vector and the content hash it
// was computed from. Only the indexer writes these fields.
func (s *Store) SetBillEmbedding(ctx context.Context, billID string, vector []float32, hash string) error {
	res, err := s.collection(CollBills).UpdateOne(ctx,
		bson.M{"bill_id": billID},
		bson.M{"$set": bson.M{"embedding": vector, "embedding_hash": hash}})
	if err != nil {
		return errors.NewStorageError("update", CollBills, err)
	}
	if res.MatchedCount == 0 {
		return errors.NewNotFoundError(CollBills, billID)
	}
	return nil
}

// CountDocuments returns the record count of one collection.
func (s *Store) CountDocuments(ctx context.Context, coll string) (int64, error) {
	n, err := s.collection(coll).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errors.NewStorageError("count", coll, err)
	}
	return n, nil
}
