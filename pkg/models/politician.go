// Package models defines the canonical entities produced by the ingestion
// pipeline and stored in the document store: politicians, legislation, votes,
// individual ballots, and campaign contributions. Every entity carries a
// stable natural key so repeated syncs converge instead of duplicating.
package models

import (
	"fmt"
	"time"
)

// Chamber identifies a legislative chamber.
type Chamber string

// Chamber values.
const (
	ChamberSenate Chamber = "senate"
	ChamberHouse  Chamber = "house"
)

// String returns the string representation of the chamber.
func (c Chamber) String() string { return string(c) }

// Party is a single-letter party affiliation code.
type Party string

// Party values.
const (
	PartyDemocrat    Party = "D"
	PartyRepublican  Party = "R"
	PartyIndependent Party = "I"
	PartyLibertarian Party = "L"
	PartyGreen       Party = "G"
)

// Politician is a federal legislator. The bioguide ID from Congress.gov is
// the natural key; exactly one record exists per bioguide ID and members who
// leave office are flagged, never deleted.
type Politician struct {
	BioguideID string `bson:"bioguide_id" json:"bioguide_id"`

	FirstName string `bson:"first_name" json:"first_name"`
	LastName  string `bson:"last_name" json:"last_name"`
	FullName  string `bson:"full_name" json:"full_name"`

	Party    Party   `bson:"party" json:"party"`
	State    string  `bson:"state" json:"state"` // two-letter code
	Chamber  Chamber `bson:"chamber" json:"chamber"`
	District *int    `bson:"district,omitempty" json:"district,omitempty"` // nil for senators

	InOffice bool `bson:"in_office" json:"in_office"`

	Title   string `bson:"title,omitempty" json:"title,omitempty"` // "Senator" or "Representative"
	Website string `bson:"website,omitempty" json:"website,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Office  string `bson:"office,omitempty" json:"office,omitempty"`

	// FECCandidateID links to the campaign-finance system. Populated out of
	// band (candidate mapping files); the contributions ingester reads it.
	FECCandidateID string `bson:"fec_candidate_id,omitempty" json:"fec_candidate_id,omitempty"`

	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}

// String returns a human-readable representation like "Sen. Mike Lee (R-UT)".
func (p *Politician) String() string {
	title := "Rep."
	if p.Chamber == ChamberSenate {
		title = "Sen."
	}
	s := fmt.Sprintf("%s %s (%s-%s)", title, p.FullName, p.Party, p.State)
	if p.District != nil {
		s += fmt.Sprintf(" district %d", *p.District)
	}
	return s
}
