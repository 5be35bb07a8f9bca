package ingest

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitolwatch/capitolwatch/internal/store"
	"github.com/capitolwatch/capitolwatch/pkg/errors"
	"github.com/capitolwatch/capitolwatch/pkg/logging"
	"github.com/capitolwatch/capitolwatch/pkg/models"
)

// fakeBillStore keeps bills in memory, preserving embedding fields across
// upserts the way the real store's volatile-field exclusion does.
type fakeBillStore struct {
	bills map[string]models.Bill
}

func newFakeBillStore() *fakeBillStore {
	return &fakeBillStore{bills: map[string]models.Bill{}}
}

func (f *fakeBillStore) UpsertBill(_ context.Context, b *models.Bill) (store.Outcome, error) {
	incoming := *b
	existing, ok := f.bills[b.BillID]
	if ok {
		incoming.Embedding = existing.Embedding
		incoming.EmbeddingHash = existing.EmbeddingHash
	}
	f.bills[b.BillID] = incoming
	if !ok {
		return store.OutcomeCreated, nil
	}
	return store.OutcomeUpdated, nil
}

func billFixture() *fakeCongressAPI {
	return &fakeCongressAPI{responses: map[string]interface{}{
		"/bill/119/hr": billListResponse{Bills: []billListItem{
			{
				Congress: 119, Type: "HR", Number: "23",
				Title: "Illegitimate Court Counteraction Act",
				URL:   "https://api.congress.gov/v3/bill/119/hr/23",
				LatestAction: struct {
					ActionDate string `json:"actionDate"`
					Text       string `json:"text"`
				}{ActionDate: "2025-01-23", Text: "Passed the House of Representatives."},
			},
		}},
		"/bill/119/hr/23": billDetailResponse{},
		"/bill/119/hr/23/summaries": billSummariesResponse{Summaries: []struct {
			Text       string `json:"text"`
			UpdateDate string `json:"updateDate"`
		}{{Text: "<p>This bill <b>counteracts</b> something.</p>"}}},
	}}
}

func TestBillsRun(t *testing.T) {
	st := newFakeBillStore()
	job := NewBills(billFixture(), st)

	stats, err := job.Run(context.Background(), RunContext{Congress: 119})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Created)

	bill, ok := st.bills["hr-23-119"]
	require.True(t, ok)
	assert.Equal(t, models.BillTypeHR, bill.BillType)
	assert.Equal(t, 23, bill.Number)
	assert.Equal(t, models.StatusPassedHouse, bill.Status)
	assert.Equal(t, "This bill counteracts something.", bill.Summary)
	require.NotNil(t, bill.LatestActionDate)
	assert.Equal(t, 2025, bill.LatestActionDate.Year())
}

func TestBillsEnrichmentFailureKeepsListingData(t *testing.T) {
	api := billFixture()
	api.failures = map[string]error{
		"/bill/119/hr/23":           errors.NewAPIError("congress.gov", 503, "service unavailable"),
		"/bill/119/hr/23/summaries": errors.NewAPIError("congress.gov", 503, "service unavailable"),
	}
	st := newFakeBillStore()
	job := NewBills(api, st)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := logging.WithLogger(context.Background(), &logger)

	stats, err := job.Run(ctx, RunContext{Congress: 119})
	require.NoError(t, err, "missing enrichment degrades, never fails the record")
	assert.Equal(t, 1, stats.Created)

	bill, ok := st.bills["hr-23-119"]
	require.True(t, ok)
	assert.Equal(t, models.StatusPassedHouse, bill.Status, "listing data survives")
	assert.Empty(t, bill.Summary)
	assert.Empty(t, bill.SponsorBioguideID)

	assert.Contains(t, buf.String(), "bill detail unavailable")
	assert.Contains(t, buf.String(), "bill summaries unavailable")
}

func TestBillsTransformRejections(t *testing.T) {
	job := NewBills(&fakeCongressAPI{responses: map[string]interface{}{}}, nil)

	tests := []struct {
		name string
		raw  billListItem
	}{
		{"unknown type", billListItem{Congress: 119, Type: "XYZ", Number: "1", Title: "t"}},
		{"non-numeric number", billListItem{Congress: 119, Type: "HR", Number: "one", Title: "t"}},
		{"zero number", billListItem{Congress: 119, Type: "HR", Number: "0", Title: "t"}},
		{"missing title", billListItem{Congress: 119, Type: "HR", Number: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := job.transform(context.Background(), RunContext{Congress: 119}, tt.raw)
			require.Error(t, err)
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<p>Hello</p>", "Hello"},
		{"plain text", "plain text"},
		{"<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"  <p> padded </p>  ", "padded"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripHTML(tt.in))
	}
}

func TestParseAPIDate(t *testing.T) {
	d := parseAPIDate("2025-01-23")
	require.NotNil(t, d)
	assert.Equal(t, 23, d.Day())

	assert.Nil(t, parseAPIDate(""))
	assert.Nil(t, parseAPIDate("not a date"))
}
