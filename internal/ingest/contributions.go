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
)

// contributionStore is the slice of the store the contributions job needs.
type contributionStore interface {
	UpsertContribution(ctx context.Context, c *models.Contribution) (store.Outcome, error)
	PoliticiansWithFECIDs(ctx context.Context) ([]models.Politician, error)
}

// Contributions ingests itemized campaign donations from the FEC Schedule A
// endpoint, one walk per politician that has an FEC candidate ID: resolve
// the candidate's principal committee, then page through its receipts for
// the congress's two-year transaction period.
type Contributions struct {
	client memberFetcher
	store  contributionStore
}

// NewContributions builds the contributions job.
func NewContributions(client memberFetcher, st contributionStore) *Contributions {
	return &Contributions{client: client, store: st}
}

// ID implements Ingester.
func (c *Contributions) ID() string { return "contributions" }

// Dependencies implements Ingester. The candidate IDs live on the
// politicians collection.
func (c *Contributions) Dependencies() []string { return []string{"members"} }

// Slow implements Ingester.
func (c *Contributions) Slow() bool { return true }

// fecCommitteesResponse lists a candidate's committees.
type fecCommitteesResponse struct {
	Results []struct {
		CommitteeID string `json:"committee_id"`
		Designation string `json:"designation"` // "P" = principal campaign committee
	} `json:"results"`
}

// scheduleAReceipt is one raw Schedule A itemized receipt, annotated with
// the recipient it was fetched for.
type scheduleAReceipt struct {
	SubID                 string  `json:"sub_id"`
	CommitteeID           string  `json:"committee_id"`
	ContributorName       string  `json:"contributor_name"`
	ContributorEmployer   string  `json:"contributor_employer"`
	ContributorOccupation string  `json:"contributor_occupation"`
	ContributorCity       string  `json:"contributor_city"`
	ContributorState      string  `json:"contributor_state"`
	ContributorZip        string  `json:"contributor_zip"`
	EntityType            string  `json:"entity_type"` // "IND", "PAC", "PTY", "CAN", "CCM", "ORG"
	Amount                float64 `json:"contribution_receipt_amount"`
	ReceiptDate           string  `json:"contribution_receipt_date"`
	TransactionID         string  `json:"transaction_id"`

	// Set by the fetch stage, not by the API.
	recipient models.Politician
}

// scheduleAResponse is the FEC envelope with page-numbered pagination.
type scheduleAResponse struct {
	Pagination struct {
		Pages int `json:"pages"`
	} `json:"pagination"`
	Results []scheduleAReceipt `json:"results"`
}

// Run implements Ingester.
func (c *Contributions) Run(ctx context.Context, rc RunContext) (*RunStats, error) {
	p := pipeline[scheduleAReceipt, *models.Contribution]{
		job:       c.ID(),
		key:       func(r scheduleAReceipt) string { return "fec_" + r.SubID },
		fetch:     c.fetchReceipts,
		transform: c.transform,
		load: func(ctx context.Context, _ RunContext, con *models.Contribution) (store.Outcome, error) {
			return c.store.UpsertContribution(ctx, con)
		},
	}
	return p.run(ctx, rc)
}

// fetchReceipts walks Schedule A for every linked politician. A politician
// whose committee cannot be resolved is logged and skipped; one bad
// candidate mapping must not abort the whole job.
func (c *Contributions) fetchReceipts(ctx context.Context, rc RunContext, emit func(scheduleAReceipt) error) error {
	politicians, err := c.store.PoliticiansWithFECIDs(ctx)
	if err != nil {
		return err
	}
	if rc.State != "" {
		filtered := politicians[:0]
		for _, p := range politicians {
			if p.State == rc.State {
				filtered = append(filtered, p)
			}
		}
		politicians = filtered
	}

	log := logging.Ctx(ctx)
	period := transactionPeriod(rc.Congress)

	for i := range politicians {
		p := politicians[i]
		committeeID, err := c.principalCommittee(ctx, p.FECCandidateID)
		if err != nil {
			if errors.IsRetryable(err) || errors.Is(err, context.Canceled) {
				return err
			}
			log.Warn().
				Str("bioguide_id", p.BioguideID).
				Str("fec_candidate_id", p.FECCandidateID).
				Err(err).
				Msg("skipping politician, no committee resolved")
			continue
		}

		if err := c.walkScheduleA(ctx, committeeID, period, p, emit); err != nil {
			return err
		}
	}
	return nil
}

// principalCommittee resolves a candidate's principal campaign committee,
// falling back to the first committee when none is marked principal.
func (c *Contributions) principalCommittee(ctx context.Context, candidateID string) (string, error) {
	var resp fecCommitteesResponse
	path := fmt.Sprintf("/candidate/%s/committees/", candidateID)
	if err := c.client.GetJSON(ctx, path, url.Values{}, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", errors.NewNotFoundError("committees", candidateID)
	}
	for _, r := range resp.Results {
		if r.Designation == "P" {
			return r.CommitteeID, nil
		}
	}
	return resp.Results[0].CommitteeID, nil
}

// walkScheduleA pages through one committee's itemized receipts.
func (c *Contributions) walkScheduleA(ctx context.Context, committeeID string, period int, recipient models.Politician, emit func(scheduleAReceipt) error) error {
	pager := fetch.NewPagePager(constants.FECPageSize)
	for {
		params, ok := pager.Next()
		if !ok {
			return nil
		}
		params.Set("committee_id", committeeID)
		params.Set("two_year_transaction_period", strconv.Itoa(period))
		params.Set("sort", "-contribution_receipt_date")

		var resp scheduleAResponse
		if err := c.client.GetJSON(ctx, "/schedules/schedule_a/", params, &resp); err != nil {
			return err
		}
		for _, rec := range resp.Results {
			rec.recipient = recipient
			if err := emit(rec); err != nil {
				return err
			}
		}
		pager.Advance(resp.Pagination.Pages)
	}
}

// transform builds a Contribution from a raw receipt.
func (c *Contributions) transform(_ context.Context, rc RunContext, raw scheduleAReceipt) (*models.Contribution, error) {
	if raw.SubID == "" {
		return nil, errors.NewValidationError("sub_id", raw.TransactionID, "missing sub ID")
	}
	if raw.Amount < 0 {
		return nil, errors.NewValidationError("contribution_receipt_amount", raw.Amount, "negative amount")
	}
	name := strings.TrimSpace(raw.ContributorName)
	if name == "" {
		return nil, errors.NewValidationError("contributor_name", raw.SubID, "missing contributor name")
	}

	con := &models.Contribution{
		ID:                    "fec_" + raw.SubID,
		RecipientName:         raw.recipient.FullName,
		BioguideID:            raw.recipient.BioguideID,
		CommitteeID:           raw.CommitteeID,
		ContributorName:       name,
		ContributorType:       contributorType(raw.EntityType),
		ContributorEmployer:   raw.ContributorEmployer,
		ContributorOccupation: raw.ContributorOccupation,
		ContributorCity:       raw.ContributorCity,
		ContributorState:      raw.ContributorState,
		ContributorZip:        raw.ContributorZip,
		Amount:                raw.Amount,
		Cycle:                 strconv.Itoa(transactionPeriod(rc.Congress)),
		Source:                "fec",
		FECTransactionID:      raw.TransactionID,
	}
	if t := parseFECDate(raw.ReceiptDate); t != nil {
		con.Date = t
	}
	return con, nil
}

// contributorType maps FEC entity type codes onto contributor categories.
func contributorType(entityType string) models.ContributorType {
	switch strings.ToUpper(entityType) {
	case "IND":
		return models.ContributorIndividual
	case "PAC":
		return models.ContributorPAC
	case "PTY", "PARTY":
		return models.ContributorParty
	case "CAN", "CCM":
		return models.ContributorCandidate
	default:
		return models.ContributorOther
	}
}

// transactionPeriod is the FEC two-year transaction period covering a
// congress: the even year closing its term.
func transactionPeriod(congress int) int {
	return 1788 + 2*congress
}

// parseFECDate parses FEC receipt dates, which come with or without a time
// component.
func parseFECDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
