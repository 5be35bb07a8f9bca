package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/capitolwatch/capitolwatch/pkg/models"
)

func TestClassifyUpdate(t *testing.T) {
	tests := []struct {
		name string
		res  *mongo.UpdateResult
		want Outcome
	}{
		{"insert", &mongo.UpdateResult{UpsertedCount: 1}, OutcomeCreated},
		{"modified", &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, OutcomeUpdated},
		{"identical content", &mongo.UpdateResult{MatchedCount: 1}, OutcomeUnchanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyUpdate(tt.res))
		})
	}
}

func TestDocForUpsertStripsVolatileFields(t *testing.T) {
	bill := &models.Bill{
		BillID:        "hr-1234-119",
		BillType:      models.BillTypeHR,
		Number:        1234,
		Congress:      119,
		Title:         "An Act",
		Embedding:     []float32{0.1, 0.2},
		EmbeddingHash: "abc",
	}

	doc, err := docForUpsert(CollBills, bill)
	require.NoError(t, err)

	assert.NotContains(t, doc, "last_updated")
	assert.NotContains(t, doc, "embedding")
	assert.NotContains(t, doc, "embedding_hash")
	assert.Equal(t, "hr-1234-119", doc["bill_id"])
	assert.Equal(t, "An Act", doc["title"])
}

func TestDocForUpsertPolitician(t *testing.T) {
	p := &models.Politician{
		BioguideID: "L000577",
		FullName:   "Mike Lee",
		Party:      models.PartyRepublican,
		State:      "UT",
		Chamber:    models.ChamberSenate,
		InOffice:   true,
	}

	doc, err := docForUpsert(CollPoliticians, p)
	require.NoError(t, err)

	assert.NotContains(t, doc, "last_updated")
	assert.Equal(t, "L000577", doc["bioguide_id"])
	assert.Equal(t, true, doc["in_office"])
	// District is nil and tagged omitempty, so it must not appear at all;
	// a stored senator record has no district field.
	assert.NotContains(t, doc, "district")
}

func TestClassifyBulk(t *testing.T) {
	t.Run("mixed outcomes", func(t *testing.T) {
		res := &mongo.BulkWriteResult{
			UpsertedCount: 2,
			MatchedCount:  3,
			ModifiedCount: 1,
		}
		got := classifyBulk(5, res, nil)
		assert.Equal(t, 2, got.Created)
		assert.Equal(t, 1, got.Updated)
		assert.Equal(t, 2, got.Unchanged)
		assert.Equal(t, 0, got.Failed)
		assert.Equal(t, 5, got.Total())
	})

	t.Run("partial failure keeps indexes", func(t *testing.T) {
		res := &mongo.BulkWriteResult{UpsertedCount: 3}
		writeErrs := []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Index: 1, Message: "duplicate key"}},
			{WriteError: mongo.WriteError{Index: 4, Message: "duplicate key"}},
		}
		got := classifyBulk(5, res, writeErrs)
		assert.Equal(t, 3, got.Created)
		assert.Equal(t, 2, got.Failed)
		require.Len(t, got.Errors, 2)
		assert.Equal(t, 1, got.Errors[0].Index)
		assert.Equal(t, 4, got.Errors[1].Index)
	})

	t.Run("nil result reports only failures", func(t *testing.T) {
		writeErrs := []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Index: 0, Message: "boom"}},
		}
		got := classifyBulk(1, nil, writeErrs)
		assert.Equal(t, 1, got.Failed)
		assert.Equal(t, 0, got.Created)
	})
}

func TestBallotWrite(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	b := models.PoliticianVote{
		VoteID:          "house-roll-17-119",
		BioguideID:      "C001114",
		Position:        models.PositionYea,
		PoliticianName:  "John Curtis",
		PoliticianParty: models.PartyRepublican,
		PoliticianState: "UT",
	}

	model := ballotWrite(b, now)
	assert.True(t, *model.Upsert)
	assert.Equal(t, bson.M{"vote_id": "house-roll-17-119", "bioguide_id": "C001114"}, model.Filter)

	pipeline, ok := model.Update.(bson.A)
	require.True(t, ok, "pipeline update so last_updated can be conditional")
	require.Len(t, pipeline, 1)
	set := pipeline[0].(bson.M)["$set"].(bson.M)
	assert.Equal(t, models.PositionYea, set["position"])
	assert.Equal(t, "John Curtis", set["politician_name"])

	// An unchanged ballot keeps its timestamp, a changed one gets the new
	// write time.
	cond := set["last_updated"].(bson.M)["$cond"].(bson.A)
	require.Len(t, cond, 3)
	assert.Equal(t, now, cond[1])
	assert.Equal(t, "$last_updated", cond[2])
	or := cond[0].(bson.M)["$or"].(bson.A)
	assert.Len(t, or, 4, "every content field participates in change detection")
}

func TestPoliticianFilterQuery(t *testing.T) {
	t.Run("empty filter matches everything", func(t *testing.T) {
		assert.Empty(t, PoliticianFilter{}.query())
	})

	t.Run("state and chamber", func(t *testing.T) {
		q := PoliticianFilter{State: "UT", Chamber: models.ChamberSenate, InOfficeOnly: true}.query()
		assert.Equal(t, "UT", q["state"])
		assert.Equal(t, models.ChamberSenate, q["chamber"])
		assert.Equal(t, true, q["in_office"])
	})
}
