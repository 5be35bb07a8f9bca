package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/capitolwatch/capitolwatch/internal/fetch"
	"github.com/capitolwatch/capitolwatch/internal/store"
	"github.com/capitolwatch/capitolwatch/pkg/constants"
	"github.com/capitolwatch/capitolwatch/pkg/errors"
	"github.com/capitolwatch/capitolwatch/pkg/logging"
	"github.com/capitolwatch/capitolwatch/pkg/models"
	"github.com/capitolwatch/capitolwatch/pkg/normalize"
)

// voteStore is the slice of the store the votes job needs.
type voteStore interface {
	UpsertVote(ctx context.Context, v *models.Vote) (store.Outcome, error)
	BulkUpsertBallots(ctx context.Context, ballots []models.PoliticianVote) (store.BulkResult, error)
	BillExists(ctx context.Context, billID string) (bool, error)
}

// voteFetcher is the slice of the fetch client the votes job needs: JSON
// for the Congress.gov listing and raw bytes for the Clerk's ballot XML.
type voteFetcher interface {
	GetJSON(ctx context.Context, path string, params url.Values, out interface{}) error
	GetRaw(ctx context.Context, rawURL string) ([]byte, error)
}

// Votes ingests House roll call votes: metadata from the Congress.gov
// house-vote listing, ballots from the Clerk's per-vote XML. Each vote's
// ballots go through the bulk-write engine in one batch.
type Votes struct {
	client voteFetcher
	store  voteStore
}

// NewVotes builds the votes job.
func NewVotes(client voteFetcher, st voteStore) *Votes {
	return &Votes{client: client, store: st}
}

// ID implements Ingester.
func (v *Votes) ID() string { return "votes" }

// Dependencies implements Ingester. Ballots reference members and votes
// reference bills, so both must be loaded first.
func (v *Votes) Dependencies() []string { return []string{"members", "bills"} }

// Slow implements Ingester.
func (v *Votes) Slow() bool { return true }

// houseVoteItem is a raw Congress.gov house-vote listing entry.
type houseVoteItem struct {
	Congress          int    `json:"congress"`
	SessionNumber     int    `json:"sessionNumber"`
	RollCallNumber    int    `json:"rollCallNumber"`
	LegislationType   string `json:"legislationType"`   // "HR", "S", ...
	LegislationNumber string `json:"legislationNumber"` // "23"
	Result            string `json:"result"`
	StartDate         string `json:"startDate"`
	URL               string `json:"url"`
	SourceDataURL     string `json:"sourceDataURL"` // Clerk XML
}

type houseVoteListResponse struct {
	HouseRollCallVotes []houseVoteItem `json:"houseRollCallVotes"`
}

// voteWithBallots is the canonical form of one roll call: the vote record
// plus every individual ballot parsed from the Clerk document.
type voteWithBallots struct {
	vote    *models.Vote
	ballots []models.PoliticianVote
}

// Run implements Ingester.
func (v *Votes) Run(ctx context.Context, rc RunContext) (*RunStats, error) {
	p := pipeline[houseVoteItem, voteWithBallots]{
		job: v.ID(),
		key: func(r houseVoteItem) string {
			return models.VoteID(models.ChamberHouse, r.RollCallNumber, r.Congress)
		},
		fetch:     v.fetchVotes,
		transform: v.transform,
		load:      v.load,
	}
	return p.run(ctx, rc)
}

// fetchVotes walks the house-vote listing for the requested congress.
func (v *Votes) fetchVotes(ctx context.Context, rc RunContext, emit func(houseVoteItem) error) error {
	pager := fetch.NewOffsetPager(constants.CongressGovPageSize)
	for {
		params, ok := pager.Next()
		if !ok {
			return nil
		}

		path := fmt.Sprintf("/house-vote/%d", rc.Congress)
		var resp houseVoteListResponse
		if err := v.client.GetJSON(ctx, path, params, &resp); err != nil {
			return err
		}
		for _, rec := range resp.HouseRollCallVotes {
			if err := emit(rec); err != nil {
				return err
			}
		}
		pager.Advance(len(resp.HouseRollCallVotes))
	}
}

// transform builds the vote and its ballots. The listing gives identity and
// result; the Clerk XML gives the question, totals, and every ballot.
func (v *Votes) transform(ctx context.Context, rc RunContext, raw houseVoteItem) (voteWithBallots, error) {
	if raw.RollCallNumber <= 0 {
		return voteWithBallots{}, errors.NewValidationError("rollCallNumber", raw.RollCallNumber, "missing roll call number")
	}
	if raw.SourceDataURL == "" {
		return voteWithBallots{}, errors.NewValidationError("sourceDataURL", raw.RollCallNumber, "no ballot document URL")
	}

	vote := &models.Vote{
		VoteID:     models.VoteID(models.ChamberHouse, raw.RollCallNumber, raw.Congress),
		Chamber:    models.ChamberHouse,
		Congress:   raw.Congress,
		Session:    raw.SessionNumber,
		RollNumber: raw.RollCallNumber,
		Result:     raw.Result,
		SourceURL:  raw.SourceDataURL,
	}
	if t, err := time.Parse(time.RFC3339, raw.StartDate); err == nil {
		vote.VoteDate = &t
	}

	// Ballot documents are large; give them the longer timeout.
	fetchCtx, cancel := context.WithTimeout(ctx, constants.VoteFetchTimeout)
	defer cancel()
	body, err := v.client.GetRaw(fetchCtx, raw.SourceDataURL)
	if err != nil {
		if errors.IsNotFound(err) {
			return voteWithBallots{}, errors.NewValidationError("sourceDataURL", raw.SourceDataURL, "ballot document missing")
		}
		return voteWithBallots{}, err
	}
	clerk, err := parseClerkRollCall(body)
	if err != nil {
		return voteWithBallots{}, errors.NewValidationError("sourceDataURL", raw.SourceDataURL, err.Error())
	}

	vote.Question = clerk.Metadata.Question
	if vote.Result == "" {
		vote.Result = clerk.Metadata.Result
	}
	if vote.Session == 0 {
		vote.Session = clerkSession(clerk.Metadata.Session)
	}
	if vote.VoteDate == nil {
		vote.VoteDate = parseClerkDate(clerk.Metadata.ActionDate)
	}
	vote.YeaCount = clerk.Metadata.Totals.Yea
	vote.NayCount = clerk.Metadata.Totals.Nay
	vote.PresentCount = clerk.Metadata.Totals.Present
	vote.NotVotingCount = clerk.Metadata.Totals.NotVoting

	v.linkBill(ctx, vote, raw)

	ballots := make([]models.PoliticianVote, 0, len(clerk.Ballots))
	for _, b := range clerk.Ballots {
		if b.Legislator.NameID == "" {
			continue
		}
		ballots = append(ballots, models.PoliticianVote{
			VoteID:          vote.VoteID,
			BioguideID:      b.Legislator.NameID,
			Position:        normalize.Position(b.Vote),
			PoliticianName:  strings.TrimSpace(b.Legislator.Name),
			PoliticianParty: normalize.Party(b.Legislator.Party),
			PoliticianState: normalize.State(b.Legislator.State),
		})
	}

	return voteWithBallots{vote: vote, ballots: ballots}, nil
}

// linkBill attaches the bill ID when the vote's legislation resolves to a
// bill already in the store. Procedural votes carry no legislation and
// stay unlinked.
func (v *Votes) linkBill(ctx context.Context, vote *models.Vote, raw houseVoteItem) {
	billType := models.BillType(strings.ToLower(raw.LegislationType))
	number, err := strconv.Atoi(raw.LegislationNumber)
	if !models.ValidBillType(billType) || err != nil || number <= 0 {
		return
	}
	billID := models.BillID(billType, number, raw.Congress)
	if exists, err := v.store.BillExists(ctx, billID); err == nil && exists {
		vote.BillID = billID
	}
}

// load upserts the vote and writes its ballots as one bulk batch.
func (v *Votes) load(ctx context.Context, _ RunContext, vb voteWithBallots) (store.Outcome, error) {
	outcome, err := v.store.UpsertVote(ctx, vb.vote)
	if err != nil {
		return outcome, err
	}

	res, err := v.store.BulkUpsertBallots(ctx, vb.ballots)
	if err != nil {
		return outcome, err
	}
	log := logging.Ctx(ctx)
	if res.Failed > 0 {
		log.Warn().
			Str("vote_id", vb.vote.VoteID).
			Int("failed", res.Failed).
			Msg("some ballots failed to write")
	}
	log.Debug().
		Str("vote_id", vb.vote.VoteID).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("unchanged", res.Unchanged).
		Msg("ballots written")
	return outcome, nil
}
