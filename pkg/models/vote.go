package models

import (
	"fmt"
	"time"
)

// VotePosition is how a legislator voted on a roll call.
type VotePosition string

// VotePosition values. Sources report "Aye"/"No" for some question types;
// normalization folds those into Yea/Nay.
const (
	PositionYea       VotePosition = "Yea"
	PositionNay       VotePosition = "Nay"
	PositionPresent   VotePosition = "Present"
	PositionNotVoting VotePosition = "Not Voting"
)

// Vote is a roll call vote event: the question, the result, and the totals.
// Individual ballots live in PoliticianVote. (chamber, congress, roll number)
// is unique and the vote ID is derived from it.
type Vote struct {
	VoteID string `bson:"vote_id" json:"vote_id"` // "{chamber}-roll-{roll}-{congress}"

	Chamber    Chamber `bson:"chamber" json:"chamber"`
	Congress   int     `bson:"congress" json:"congress"`
	Session    int     `bson:"session" json:"session"` // 1 or 2
	RollNumber int     `bson:"roll_number" json:"roll_number"`

	Question string     `bson:"question" json:"question"` // "On Passage", "On the Motion", ...
	Result   string     `bson:"result" json:"result"`     // "Passed", "Failed", "Agreed to", ...
	VoteDate *time.Time `bson:"vote_date,omitempty" json:"vote_date,omitempty"`

	YeaCount       int `bson:"yea_count" json:"yea_count"`
	NayCount       int `bson:"nay_count" json:"nay_count"`
	PresentCount   int `bson:"present_count" json:"present_count"`
	NotVotingCount int `bson:"not_voting_count" json:"not_voting_count"`

	// BillID links the vote to legislation when the source reports one.
	// Many procedural votes have no bill.
	BillID string `bson:"bill_id,omitempty" json:"bill_id,omitempty"`

	SourceURL string `bson:"source_url,omitempty" json:"source_url,omitempty"`

	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}

// VoteID builds the canonical vote identifier from its components.
func VoteID(chamber Chamber, roll, congress int) string {
	return fmt.Sprintf("%s-roll-%d-%d", chamber, roll, congress)
}

// PoliticianVote is one ballot: how one politician voted on one roll call.
// Unique on (vote_id, bioguide_id).
type PoliticianVote struct {
	VoteID     string `bson:"vote_id" json:"vote_id"`
	BioguideID string `bson:"bioguide_id" json:"bioguide_id"`

	Position VotePosition `bson:"position" json:"position"`

	// Denormalized from the politicians collection for cheaper queries.
	PoliticianName  string `bson:"politician_name,omitempty" json:"politician_name,omitempty"`
	PoliticianParty Party  `bson:"politician_party,omitempty" json:"politician_party,omitempty"`
	PoliticianState string `bson:"politician_state,omitempty" json:"politician_state,omitempty"`

	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}
