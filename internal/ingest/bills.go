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

// billStore is the slice of the store the bills job needs.
type billStore interface {
	UpsertBill(ctx context.Context, b *models.Bill) (store.Outcome, error)
}

// Bills ingests legislation from the Congress.gov bill endpoints: one
// paginated listing walk per bill type, plus a detail and a summaries fetch
// per bill. Marked slow because of the per-bill fetches.
type Bills struct {
	client memberFetcher
	store  billStore
}

// NewBills builds the bills job.
func NewBills(client memberFetcher, st billStore) *Bills {
	return &Bills{client: client, store: st}
}

// ID implements Ingester.
func (b *Bills) ID() string { return "bills" }

// Dependencies implements Ingester.
func (b *Bills) Dependencies() []string { return []string{"members"} }

// Slow implements Ingester.
func (b *Bills) Slow() bool { return true }

// billListItem is a raw Congress.gov bill listing entry. The listing
// reports number as a string.
type billListItem struct {
	Congress     int    `json:"congress"`
	Type         string `json:"type"`
	Number       string `json:"number"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	LatestAction struct {
		ActionDate string `json:"actionDate"`
		Text       string `json:"text"`
	} `json:"latestAction"`
}

type billListResponse struct {
	Bills []billListItem `json:"bills"`
}

// billDetailResponse is the per-bill detail envelope, reduced to the fields
// the pipeline stores.
type billDetailResponse struct {
	Bill struct {
		IntroducedDate string `json:"introducedDate"`
		PolicyArea     struct {
			Name string `json:"name"`
		} `json:"policyArea"`
		Sponsors []struct {
			BioguideID string `json:"bioguideId"`
		} `json:"sponsors"`
		Titles struct {
			Count int `json:"count"`
		} `json:"titles"`
	} `json:"bill"`
}

type billSummariesResponse struct {
	Summaries []struct {
		Text       string `json:"text"`
		UpdateDate string `json:"updateDate"`
	} `json:"summaries"`
}

// Run implements Ingester.
func (b *Bills) Run(ctx context.Context, rc RunContext) (*RunStats, error) {
	p := pipeline[billListItem, *models.Bill]{
		job: b.ID(),
		key: func(r billListItem) string {
			return fmt.Sprintf("%s-%s-%d", strings.ToLower(r.Type), r.Number, r.Congress)
		},
		fetch:     b.fetchBills,
		transform: b.transform,
		load: func(ctx context.Context, _ RunContext, bill *models.Bill) (store.Outcome, error) {
			return b.store.UpsertBill(ctx, bill)
		},
	}
	return p.run(ctx, rc)
}

// fetchBills walks the bill listing for each bill type of the requested
// congress, newest action first.
func (b *Bills) fetchBills(ctx context.Context, rc RunContext, emit func(billListItem) error) error {
	types := []models.BillType{
		models.BillTypeHR, models.BillTypeS,
		models.BillTypeHJRes, models.BillTypeSJRes,
	}
	for _, bt := range types {
		pager := fetch.NewOffsetPager(constants.CongressGovPageSize)
		for {
			params, ok := pager.Next()
			if !ok {
				break
			}
			params.Set("sort", "updateDate+desc")

			path := fmt.Sprintf("/bill/%d/%s", rc.Congress, bt)
			var resp billListResponse
			if err := b.client.GetJSON(ctx, path, params, &resp); err != nil {
				return err
			}
			for _, rec := range resp.Bills {
				if err := emit(rec); err != nil {
					return err
				}
			}
			pager.Advance(len(resp.Bills))
		}
	}
	return nil
}

// transform validates the listing entry and enriches it with the bill's
// detail and summary. Detail fetch failures degrade to a listing-only bill
// rather than failing the record; the listing alone is a valid bill.
func (b *Bills) transform(ctx context.Context, rc RunContext, raw billListItem) (*models.Bill, error) {
	billType := models.BillType(strings.ToLower(raw.Type))
	if !models.ValidBillType(billType) {
		return nil, errors.NewValidationError("type", raw.Type, "unknown bill type")
	}
	number, err := strconv.Atoi(raw.Number)
	if err != nil || number <= 0 {
		return nil, errors.NewValidationError("number", raw.Number, "bill number is not a positive integer")
	}
	if raw.Title == "" {
		return nil, errors.NewValidationError("title", raw.Number, "missing title")
	}

	bill := &models.Bill{
		BillID:           models.BillID(billType, number, raw.Congress),
		BillType:         billType,
		Number:           number,
		Congress:         raw.Congress,
		Title:            raw.Title,
		Status:           normalize.StatusFromAction(raw.LatestAction.Text),
		LatestActionText: raw.LatestAction.Text,
		CongressGovURL:   raw.URL,
	}
	if d := parseAPIDate(raw.LatestAction.ActionDate); d != nil {
		bill.LatestActionDate = d
	}

	b.enrich(ctx, rc, bill)
	return bill, nil
}

// enrich fetches the bill detail and summary. Best effort; a missing detail
// never invalidates the listing data.
func (b *Bills) enrich(ctx context.Context, rc RunContext, bill *models.Bill) {
	base := fmt.Sprintf("/bill/%d/%s/%d", rc.Congress, bill.BillType, bill.Number)

	var detail billDetailResponse
	if err := b.client.GetJSON(ctx, base, url.Values{}, &detail); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("bill_id", bill.BillID).
			Msg("bill detail unavailable, keeping listing data")
	} else {
		if d := parseAPIDate(detail.Bill.IntroducedDate); d != nil {
			bill.IntroducedDate = d
		}
		bill.PolicyArea = detail.Bill.PolicyArea.Name
		if len(detail.Bill.Sponsors) > 0 {
			bill.SponsorBioguideID = detail.Bill.Sponsors[0].BioguideID
		}
	}

	var summaries billSummariesResponse
	if err := b.client.GetJSON(ctx, base+"/summaries", url.Values{}, &summaries); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("bill_id", bill.BillID).
			Msg("bill summaries unavailable")
	} else if n := len(summaries.Summaries); n > 0 {
		// The last entry is the most recent summary version.
		bill.Summary = stripHTML(summaries.Summaries[n-1].Text)
	}
}

// parseAPIDate parses the YYYY-MM-DD dates Congress.gov reports, returning
// nil for empty or malformed values.
func parseAPIDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// stripHTML removes the markup Congress.gov wraps summaries in, leaving
// plain text for storage and embedding.
func stripHTML(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}
