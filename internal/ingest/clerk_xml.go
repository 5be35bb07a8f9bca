package ingest

import (
	"encoding/xml"
	"time"

	"github.com/capitolwatch/capitolwatch/pkg/errors"
)

// clerkRollCall is the House Clerk's roll call XML document
// (clerk.house.gov/evs/{year}/roll{NNN}.xml). It carries the question,
// result, and totals plus every individual ballot, so one fetch yields the
// whole vote.
type clerkRollCall struct {
	XMLName  xml.Name      `xml:"rollcall-vote"`
	Metadata clerkMetadata `xml:"vote-metadata"`
	Ballots  []clerkBallot `xml:"vote-data>recorded-vote"`
}

type clerkMetadata struct {
	Congress    int         `xml:"congress"`
	Session     string      `xml:"session"` // "1st" or "2nd"
	RollCallNum int         `xml:"rollcall-num"`
	LegisNum    string      `xml:"legis-num"` // "H R 23"
	Question    string      `xml:"vote-question"`
	Result      string      `xml:"vote-result"`
	ActionDate  string      `xml:"action-date"` // "22-Jan-2025"
	Totals      clerkTotals `xml:"vote-totals>totals-by-vote"`
}

type clerkTotals struct {
	Yea       int `xml:"yea-total"`
	Nay       int `xml:"nay-total"`
	Present   int `xml:"present-total"`
	NotVoting int `xml:"not-voting-total"`
}

// clerkBallot is one legislator's recorded position. The legislator element
// carries the bioguide ID plus party and state attributes, so ballots can be
// denormalized without a store lookup.
type clerkBallot struct {
	Legislator struct {
		NameID string `xml:"name-id,attr"`
		Party  string `xml:"party,attr"`
		State  string `xml:"state,attr"`
		Name   string `xml:",chardata"`
	} `xml:"legislator"`
	Vote string `xml:"vote"` // "Yea", "Nay", "Aye", "No", "Present", "Not Voting"
}

// parseClerkRollCall decodes a Clerk roll call document.
func parseClerkRollCall(data []byte) (*clerkRollCall, error) {
	var rc clerkRollCall
	if err := xml.Unmarshal(data, &rc); err != nil {
		return nil, errors.NewParseError("xml", "clerk.house.gov", "decoding roll call", err)
	}
	if rc.Metadata.RollCallNum == 0 {
		return nil, errors.NewParseError("xml", "clerk.house.gov", "document has no roll call number", nil)
	}
	return &rc, nil
}

// parseClerkDate parses the Clerk's "22-Jan-2025" action dates.
func parseClerkDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2-Jan-2006", s)
	if err != nil {
		return nil
	}
	return &t
}

// clerkSession maps the Clerk's ordinal session strings onto session
// numbers. Unknown values default to session 1.
func clerkSession(s string) int {
	if s == "2nd" {
		return 2
	}
	return 1
}
