package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/capitolwatch/capitolwatch/internal/fetch"
	"github.com/capitolwatch/capitolwatch/internal/store"
	"github.com/capitolwatch/capitolwatch/pkg/constants"
	"github.com/capitolwatch/capitolwatch/pkg/errors"
	"github.com/capitolwatch/capitolwatch/pkg/logging"
	"github.com/capitolwatch/capitolwatch/pkg/models"
	"github.com/capitolwatch/capitolwatch/pkg/normalize"
)

// memberStore is the slice of the store the members job needs.
type memberStore interface {
	UpsertPolitician(ctx context.Context, p *models.Politician) (store.Outcome, error)
	MarkDeparted(ctx context.Context, seen []string) (int64, error)
	DisplaceHouseSeat(ctx context.Context, state string, district int, keepBioguideID string) (int64, error)
}

// memberFetcher is the slice of the fetch client the members job needs.
type memberFetcher interface {
	GetJSON(ctx context.Context, path string, params url.Values, out interface{}) error
}

// Members ingests current members of Congress from the Congress.gov member
// endpoint, state by state, and flags departed members after a full sweep.
type Members struct {
	client memberFetcher
	store  memberStore

	// seen accumulates every bioguide ID on the fetched roster, recorded
	// before validation. A member whose record fails transform is still on
	// the roster and must not be swept. Reset at the start of each run.
	seen []string
}

// NewMembers builds the members job.
func NewMembers(client memberFetcher, st memberStore) *Members {
	return &Members{client: client, store: st}
}

// ID implements Ingester.
func (m *Members) ID() string { return "members" }

// Dependencies implements Ingester. Members have none; everything else
// depends on them.
func (m *Members) Dependencies() []string { return nil }

// Slow implements Ingester.
func (m *Members) Slow() bool { return false }

// memberRecord is the raw Congress.gov member listing entry.
type memberRecord struct {
	BioguideID string `json:"bioguideId"`
	Name       string `json:"name"` // "Last, First Middle"
	PartyName  string `json:"partyName"`
	State      string `json:"state"` // full state name
	District   *int   `json:"district,omitempty"`
	URL        string `json:"url"`
	Terms      struct {
		Item []struct {
			Chamber   string `json:"chamber"`
			StartYear int    `json:"startYear"`
			EndYear   *int   `json:"endYear,omitempty"`
		} `json:"item"`
	} `json:"terms"`
}

// memberListResponse is the Congress.gov member listing envelope.
type memberListResponse struct {
	Members []memberRecord `json:"members"`
}

// Run implements Ingester.
func (m *Members) Run(ctx context.Context, rc RunContext) (*RunStats, error) {
	m.seen = m.seen[:0]

	p := pipeline[memberRecord, *models.Politician]{
		job:       m.ID(),
		key:       func(r memberRecord) string { return r.BioguideID },
		fetch:     m.fetchMembers,
		transform: m.transform,
		load:      m.load,
	}
	stats, err := p.run(ctx, rc)
	if err != nil {
		return stats, err
	}

	// The departed sweep only makes sense when the whole roster was seen.
	// A state-filtered or capped run must never flip members it simply
	// did not fetch.
	if rc.Full() && len(m.seen) > 0 {
		departed, err := m.store.MarkDeparted(ctx, m.seen)
		if err != nil {
			return stats, errors.NewIngestError(m.ID(), "departed sweep", err)
		}
		if departed > 0 {
			logging.Ctx(ctx).Info().
				Int64("departed", departed).
				Msg("flagged members no longer in office")
		}
	}
	return stats, nil
}

// fetchMembers walks the per-state current-member listing. Congress.gov
// scopes the member endpoint by congress and state code, so a full run is
// one paginated walk per state.
func (m *Members) fetchMembers(ctx context.Context, rc RunContext, emit func(memberRecord) error) error {
	states := normalize.StateCodes()
	if rc.State != "" {
		states = []string{rc.State}
	}

	for _, state := range states {
		path := fmt.Sprintf("/member/congress/%d/%s", rc.Congress, state)
		pager := fetch.NewOffsetPager(constants.CongressGovPageSize)
		for {
			params, ok := pager.Next()
			if !ok {
				break
			}
			params.Set("currentMember", "true")

			var resp memberListResponse
			if err := m.client.GetJSON(ctx, path, params, &resp); err != nil {
				return err
			}
			for _, rec := range resp.Members {
				if rec.BioguideID != "" {
					m.seen = append(m.seen, rec.BioguideID)
				}
				if err := emit(rec); err != nil {
					return err
				}
			}
			pager.Advance(len(resp.Members))
		}
	}
	return nil
}

// transform builds a Politician from a raw listing record.
func (m *Members) transform(_ context.Context, _ RunContext, raw memberRecord) (*models.Politician, error) {
	if raw.BioguideID == "" {
		return nil, errors.NewValidationError("bioguideId", raw.Name, "missing bioguide ID")
	}
	state := normalize.State(raw.State)
	if state == "" {
		return nil, errors.NewValidationError("state", raw.State, "unrecognized state")
	}

	chamber := latestChamber(raw)
	if chamber == "" {
		return nil, errors.NewValidationError("terms", raw.BioguideID, "no chamber in term history")
	}

	name := normalize.PersonName(raw.Name)
	p := &models.Politician{
		BioguideID: raw.BioguideID,
		FirstName:  name.First,
		LastName:   name.Last,
		FullName:   name.Full,
		Party:      normalize.Party(raw.PartyName),
		State:      state,
		Chamber:    chamber,
		InOffice:   true,
		Website:    raw.URL,
	}
	if chamber == models.ChamberHouse {
		p.Title = "Representative"
		p.District = raw.District
	} else {
		p.Title = "Senator"
	}
	return p, nil
}

// latestChamber picks the chamber of the most recent term.
func latestChamber(raw memberRecord) models.Chamber {
	items := raw.Terms.Item
	if len(items) == 0 {
		return ""
	}
	latest := items[0]
	for _, t := range items[1:] {
		if t.StartYear >= latest.StartYear {
			latest = t
		}
	}
	if strings.Contains(strings.ToLower(latest.Chamber), "senate") {
		return models.ChamberSenate
	}
	return normalize.Chamber(latest.Chamber)
}

// load upserts the politician and displaces any previous holder of the
// same House seat.
func (m *Members) load(ctx context.Context, _ RunContext, p *models.Politician) (store.Outcome, error) {
	outcome, err := m.store.UpsertPolitician(ctx, p)
	if err != nil {
		return outcome, err
	}

	if p.Chamber == models.ChamberHouse && p.District != nil {
		if _, err := m.store.DisplaceHouseSeat(ctx, p.State, *p.District, p.BioguideID); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}
