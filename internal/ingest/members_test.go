package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitolwatch/capitolwatch/internal/store"
	"github.com/capitolwatch/capitolwatch/pkg/models"
)

// fakeCongressAPI serves canned JSON responses by path prefix.
type fakeCongressAPI struct {
	responses map[string]interface{} // path -> response body
	failures  map[string]error       // path -> forced error
	calls     []string
}

func (f *fakeCongressAPI) GetJSON(_ context.Context, path string, _ url.Values, out interface{}) error {
	f.calls = append(f.calls, path)
	if err, ok := f.failures[path]; ok {
		return err
	}
	resp, ok := f.responses[path]
	if !ok {
		// Unknown paths return an empty envelope; pagination treats a
		// short page as exhaustion.
		resp = map[string]interface{}{}
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// fakeMemberStore is an in-memory politician store that classifies upserts
// the same way the real store does: by content comparison.
type fakeMemberStore struct {
	politicians map[string]models.Politician
	departed    []string
	displaced   int
}

func newFakeMemberStore() *fakeMemberStore {
	return &fakeMemberStore{politicians: map[string]models.Politician{}}
}

func (f *fakeMemberStore) UpsertPolitician(_ context.Context, p *models.Politician) (store.Outcome, error) {
	incoming := *p
	incoming.LastUpdated = time.Time{}

	existing, ok := f.politicians[p.BioguideID]
	if !ok {
		f.politicians[p.BioguideID] = incoming
		return store.OutcomeCreated, nil
	}
	existing.LastUpdated = time.Time{}
	if reflect.DeepEqual(existing, incoming) {
		return store.OutcomeUnchanged, nil
	}
	f.politicians[p.BioguideID] = incoming
	return store.OutcomeUpdated, nil
}

func (f *fakeMemberStore) MarkDeparted(_ context.Context, seen []string) (int64, error) {
	seenSet := map[string]bool{}
	for _, id := range seen {
		seenSet[id] = true
	}
	var n int64
	for id, p := range f.politicians {
		if p.InOffice && !seenSet[id] {
			p.InOffice = false
			f.politicians[id] = p
			f.departed = append(f.departed, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeMemberStore) DisplaceHouseSeat(_ context.Context, state string, district int, keep string) (int64, error) {
	var n int64
	for id, p := range f.politicians {
		if p.Chamber == models.ChamberHouse && p.State == state && p.InOffice &&
			p.District != nil && *p.District == district && id != keep {
			p.InOffice = false
			f.politicians[id] = p
			n++
		}
	}
	f.displaced += int(n)
	return n, nil
}

func memberJSON(bioguide, name, party, state string, district *int, chamber string) memberRecord {
	rec := memberRecord{
		BioguideID: bioguide,
		Name:       name,
		PartyName:  party,
		State:      state,
		District:   district,
	}
	rec.Terms.Item = []struct {
		Chamber   string `json:"chamber"`
		StartYear int    `json:"startYear"`
		EndYear   *int   `json:"endYear,omitempty"`
	}{{Chamber: chamber, StartYear: 2023}}
	return rec
}

func utahFixture() map[string]interface{} {
	intp := func(i int) *int { return &i }
	return map[string]interface{}{
		"/member/congress/119/UT": memberListResponse{Members: []memberRecord{
			memberJSON("L000577", "Lee, Mike", "Republican", "Utah", nil, "Senate"),
			memberJSON("C001114", "Curtis, John R.", "Republican", "Utah", intp(3), "House of Representatives"),
		}},
	}
}

func TestMembersStateFilteredRun(t *testing.T) {
	api := &fakeCongressAPI{responses: utahFixture()}
	st := newFakeMemberStore()
	job := NewMembers(api, st)

	rc := RunContext{Congress: 119, State: "UT"}
	stats, err := job.Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Created)

	// Only the Utah listing was fetched.
	for _, call := range api.calls {
		assert.True(t, strings.HasPrefix(call, "/member/congress/119/UT"), "unexpected call %s", call)
	}

	lee := st.politicians["L000577"]
	assert.Equal(t, models.ChamberSenate, lee.Chamber)
	assert.Equal(t, "UT", lee.State)
	assert.Equal(t, models.PartyRepublican, lee.Party)
	assert.Equal(t, "Mike", lee.FirstName)
	assert.Equal(t, "Lee", lee.LastName)
	assert.True(t, lee.InOffice)
	assert.Nil(t, lee.District)

	curtis := st.politicians["C001114"]
	assert.Equal(t, models.ChamberHouse, curtis.Chamber)
	require.NotNil(t, curtis.District)
	assert.Equal(t, 3, *curtis.District)
}

func TestMembersSecondRunIsUnchanged(t *testing.T) {
	api := &fakeCongressAPI{responses: utahFixture()}
	st := newFakeMemberStore()
	job := NewMembers(api, st)
	rc := RunContext{Congress: 119, State: "UT"}

	_, err := job.Run(context.Background(), rc)
	require.NoError(t, err)

	stats, err := job.Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 2, stats.Unchanged, "identical content must converge, not rewrite")
	assert.Len(t, st.politicians, 2, "no duplicates across runs")
}

func TestMembersFilteredRunSkipsDepartedSweep(t *testing.T) {
	api := &fakeCongressAPI{responses: utahFixture()}
	st := newFakeMemberStore()

	// A sitting member from another state who will not appear in a
	// UT-filtered run.
	st.politicians["K000393"] = models.Politician{
		BioguideID: "K000393", State: "LA", Chamber: models.ChamberSenate, InOffice: true,
	}

	job := NewMembers(api, st)
	_, err := job.Run(context.Background(), RunContext{Congress: 119, State: "UT"})
	require.NoError(t, err)

	assert.True(t, st.politicians["K000393"].InOffice,
		"a filtered run must not flip members it did not fetch")
	assert.Empty(t, st.departed)
}

func TestMembersFullRunSweepsDeparted(t *testing.T) {
	// Full run fixture: every state's listing is empty except Utah's.
	api := &fakeCongressAPI{responses: utahFixture()}
	st := newFakeMemberStore()
	st.politicians["OLD001"] = models.Politician{
		BioguideID: "OLD001", State: "UT", Chamber: models.ChamberSenate, InOffice: true,
	}

	job := NewMembers(api, st)
	_, err := job.Run(context.Background(), RunContext{Congress: 119})
	require.NoError(t, err)

	assert.False(t, st.politicians["OLD001"].InOffice)
	assert.Contains(t, st.departed, "OLD001")
	assert.True(t, st.politicians["L000577"].InOffice, "seen members stay in office")
}

func TestMembersSweepSparesValidationFailures(t *testing.T) {
	// Broken is on the roster but carries an unusable state, so the record
	// fails validation. Being on the roster still counts as seen.
	fixture := utahFixture()
	ut := fixture["/member/congress/119/UT"].(memberListResponse)
	ut.Members = append(ut.Members,
		memberJSON("B000999", "Broken, Bio", "Republican", "Atlantis", nil, "Senate"))
	fixture["/member/congress/119/UT"] = ut

	api := &fakeCongressAPI{responses: fixture}
	st := newFakeMemberStore()
	st.politicians["B000999"] = models.Politician{
		BioguideID: "B000999", State: "UT", Chamber: models.ChamberSenate, InOffice: true,
	}

	job := NewMembers(api, st)
	stats, err := job.Run(context.Background(), RunContext{Congress: 119})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.True(t, st.politicians["B000999"].InOffice,
		"a roster member whose record failed validation must not be swept")
	assert.Empty(t, st.departed)
}

func TestMembersHouseSeatDisplacement(t *testing.T) {
	api := &fakeCongressAPI{responses: utahFixture()}
	st := newFakeMemberStore()
	d3 := 3
	st.politicians["PREV01"] = models.Politician{
		BioguideID: "PREV01", State: "UT", Chamber: models.ChamberHouse,
		District: &d3, InOffice: true,
	}

	job := NewMembers(api, st)
	_, err := job.Run(context.Background(), RunContext{Congress: 119, State: "UT"})
	require.NoError(t, err)

	assert.False(t, st.politicians["PREV01"].InOffice,
		"previous holder of the seat is displaced")
	assert.True(t, st.politicians["C001114"].InOffice)
}

func TestMembersTransformRejections(t *testing.T) {
	job := NewMembers(nil, nil)

	tests := []struct {
		name string
		rec  memberRecord
	}{
		{"missing bioguide", memberJSON("", "Lee, Mike", "Republican", "Utah", nil, "Senate")},
		{"unknown state", memberJSON("X000001", "Nobody, Joe", "Republican", "Atlantis", nil, "Senate")},
		{"no terms", memberRecord{BioguideID: "X000002", Name: "Short, Term", State: "Utah"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := job.transform(context.Background(), RunContext{}, tt.rec)
			require.Error(t, err)
		})
	}
}

func TestLatestChamberPicksMostRecentTerm(t *testing.T) {
	rec := memberJSON("C001114", "Curtis, John R.", "Republican", "Utah", nil, "House of Representatives")
	rec.Terms.Item = append(rec.Terms.Item, struct {
		Chamber   string `json:"chamber"`
		StartYear int    `json:"startYear"`
		EndYear   *int   `json:"endYear,omitempty"`
	}{Chamber: "Senate", StartYear: 2025})

	assert.Equal(t, models.ChamberSenate, latestChamber(rec),
		fmt.Sprintf("terms: %+v", rec.Terms.Item))
}
