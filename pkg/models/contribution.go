package models

import "time"

// ContributorType classifies who made a contribution.
type ContributorType string

// ContributorType values, mapped from FEC entity types.
const (
	ContributorIndividual ContributorType = "individual"
	ContributorPAC        ContributorType = "pac"
	ContributorParty      ContributorType = "party"
	ContributorCandidate  ContributorType = "candidate"
	ContributorOther      ContributorType = "other"
)

// Contribution is a single itemized campaign donation from the FEC's
// Schedule A data, linked to a politician through the FEC candidate ID
// resolved at ingestion time.
type Contribution struct {
	ID string `bson:"id" json:"id"` // "fec_{sub_id}"

	RecipientName string `bson:"recipient_name" json:"recipient_name"`
	BioguideID    string `bson:"bioguide_id,omitempty" json:"bioguide_id,omitempty"`
	CommitteeID   string `bson:"committee_id,omitempty" json:"committee_id,omitempty"`

	ContributorName       string          `bson:"contributor_name" json:"contributor_name"`
	ContributorType       ContributorType `bson:"contributor_type" json:"contributor_type"`
	ContributorEmployer   string          `bson:"contributor_employer,omitempty" json:"contributor_employer,omitempty"`
	ContributorOccupation string          `bson:"contributor_occupation,omitempty" json:"contributor_occupation,omitempty"`
	ContributorCity       string          `bson:"contributor_city,omitempty" json:"contributor_city,omitempty"`
	ContributorState      string          `bson:"contributor_state,omitempty" json:"contributor_state,omitempty"`
	ContributorZip        string          `bson:"contributor_zip,omitempty" json:"contributor_zip,omitempty"`

	Amount float64    `bson:"amount" json:"amount"` // dollars
	Date   *time.Time `bson:"contribution_date,omitempty" json:"contribution_date,omitempty"`

	Cycle  string `bson:"cycle" json:"cycle"` // election cycle, e.g. "2024"
	Source string `bson:"source" json:"source"`

	FECTransactionID string `bson:"fec_transaction_id,omitempty" json:"fec_transaction_id,omitempty"`

	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}
