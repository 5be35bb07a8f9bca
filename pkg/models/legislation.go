package models

import (
	"fmt"
	"strings"
	"time"
)

// BillType identifies the kind of legislative document.
type BillType string

// BillType values.
const (
	BillTypeHR      BillType = "hr"      // House bill
	BillTypeS       BillType = "s"       // Senate bill
	BillTypeHRes    BillType = "hres"    // House resolution
	BillTypeSRes    BillType = "sres"    // Senate resolution
	BillTypeHJRes   BillType = "hjres"   // House joint resolution
	BillTypeSJRes   BillType = "sjres"   // Senate joint resolution
	BillTypeHConRes BillType = "hconres" // House concurrent resolution
	BillTypeSConRes BillType = "sconres" // Senate concurrent resolution
)

// ValidBillType reports whether t is one of the known bill types.
func ValidBillType(t BillType) bool {
	switch t {
	case BillTypeHR, BillTypeS, BillTypeHRes, BillTypeSRes,
		BillTypeHJRes, BillTypeSJRes, BillTypeHConRes, BillTypeSConRes:
		return true
	}
	return false
}

// BillStatus is the current stage of a bill.
type BillStatus string

// BillStatus values.
const (
	StatusIntroduced   BillStatus = "introduced"
	StatusInCommittee  BillStatus = "in_committee"
	StatusPassedHouse  BillStatus = "passed_house"
	StatusPassedSenate BillStatus = "passed_senate"
	StatusToPresident  BillStatus = "to_president"
	StatusBecameLaw    BillStatus = "became_law"
	StatusVetoed       BillStatus = "vetoed"
	StatusFailed       BillStatus = "failed"
)

// Bill is a piece of federal legislation. The bill ID is derived
// deterministically from type, number, and congress, so re-fetching the same
// bill always converges on one record.
type Bill struct {
	BillID string `bson:"bill_id" json:"bill_id"` // "{type}-{number}-{congress}"

	BillType BillType `bson:"bill_type" json:"bill_type"`
	Number   int      `bson:"number" json:"number"`
	Congress int      `bson:"congress" json:"congress"`

	Title      string `bson:"title" json:"title"`
	ShortTitle string `bson:"short_title,omitempty" json:"short_title,omitempty"`
	Summary    string `bson:"summary,omitempty" json:"summary,omitempty"`

	Status           BillStatus `bson:"status" json:"status"`
	IntroducedDate   *time.Time `bson:"introduced_date,omitempty" json:"introduced_date,omitempty"`
	LatestActionDate *time.Time `bson:"latest_action_date,omitempty" json:"latest_action_date,omitempty"`
	LatestActionText string     `bson:"latest_action_text,omitempty" json:"latest_action_text,omitempty"`

	SponsorBioguideID   string   `bson:"sponsor_bioguide_id,omitempty" json:"sponsor_bioguide_id,omitempty"`
	CosponsorBioguideIDs []string `bson:"cosponsor_bioguide_ids,omitempty" json:"cosponsor_bioguide_ids,omitempty"`

	PolicyArea string   `bson:"policy_area,omitempty" json:"policy_area,omitempty"`
	Subjects   []string `bson:"subjects,omitempty" json:"subjects,omitempty"`

	CongressGovURL string `bson:"congress_gov_url,omitempty" json:"congress_gov_url,omitempty"`

	// Embedding fields are owned by the embedding indexer, not the bills
	// ingester; bill upserts must never clobber them.
	Embedding     []float32 `bson:"embedding,omitempty" json:"-"`
	EmbeddingHash string    `bson:"embedding_hash,omitempty" json:"-"`

	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}

// BillID builds the canonical bill identifier from its components.
func BillID(billType BillType, number, congress int) string {
	return fmt.Sprintf("%s-%d-%d", billType, number, congress)
}

// String returns a human-readable representation.
func (b *Bill) String() string {
	title := b.Title
	if len(title) > 60 {
		title = title[:60] + "..."
	}
	return fmt.Sprintf("%s. %d (%dth Congress): %s", strings.ToUpper(string(b.BillType)), b.Number, b.Congress, title)
}

// EmbeddingText is the text the indexer embeds: short title (or title)
// followed by the summary.
func (b *Bill) EmbeddingText() string {
	text := b.ShortTitle
	if text == "" {
		text = b.Title
	}
	if b.Summary != "" {
		text += "\n\n" + b.Summary
	}
	return text
}
