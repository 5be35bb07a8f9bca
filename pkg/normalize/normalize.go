// Package normalize maps raw source values to the canonical forms used as
// join keys across data sources. Every function is pure and total: identical
// input always yields identical output, and unrecognized input maps to an
// explicit zero value instead of an error, so one bad upstream field degrades
// a single record rather than aborting a run.
package normalize

import (
	"strings"

	"github.com/capitolwatch/capitolwatch/pkg/models"
)

// stateNameToCode maps full state names to their two-letter codes.
var stateNameToCode = map[string]string{
	"Alabama": "AL", "Alaska": "AK", "Arizona": "AZ", "Arkansas": "AR",
	"California": "CA", "Colorado": "CO", "Connecticut": "CT", "Delaware": "DE",
	"Florida": "FL", "Georgia": "GA", "Hawaii": "HI", "Idaho": "ID",
	"Illinois": "IL", "Indiana": "IN", "Iowa": "IA", "Kansas": "KS",
	"Kentucky": "KY", "Louisiana": "LA", "Maine": "ME", "Maryland": "MD",
	"Massachusetts": "MA", "Michigan": "MI", "Minnesota": "MN", "Mississippi": "MS",
	"Missouri": "MO", "Montana": "MT", "Nebraska": "NE", "Nevada": "NV",
	"New Hampshire": "NH", "New Jersey": "NJ", "New Mexico": "NM", "New York": "NY",
	"North Carolina": "NC", "North Dakota": "ND", "Ohio": "OH", "Oklahoma": "OK",
	"Oregon": "OR", "Pennsylvania": "PA", "Rhode Island": "RI", "South Carolina": "SC",
	"South Dakota": "SD", "Tennessee": "TN", "Texas": "TX", "Utah": "UT",
	"Vermont": "VT", "Virginia": "VA", "Washington": "WA", "West Virginia": "WV",
	"Wisconsin": "WI", "Wyoming": "WY",
	"District of Columbia": "DC", "Puerto Rico": "PR",
}

// stateCodeToName is the reverse mapping, used for code validation.
var stateCodeToName = func() map[string]string {
	m := make(map[string]string, len(stateNameToCode))
	for name, code := range stateNameToCode {
		m[code] = name
	}
	return m
}()

// lowerNameToCode allows case-insensitive full-name lookup.
var lowerNameToCode = func() map[string]string {
	m := make(map[string]string, len(stateNameToCode))
	for name, code := range stateNameToCode {
		m[strings.ToLower(name)] = code
	}
	return m
}()

// StateCodes returns all known state and territory codes in stable order.
// Congress.gov's member endpoint is keyed by these.
func StateCodes() []string {
	return []string{
		"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
		"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
		"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
		"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
		"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
		"DC", "PR",
	}
}

// State normalizes a state name or code to its two-letter uppercase code.
// "Utah", "UT", and "ut" all yield "UT". Unrecognized input yields "".
func State(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if len(s) == 2 {
		code := strings.ToUpper(s)
		if _, ok := stateCodeToName[code]; ok {
			return code
		}
		return ""
	}

	if code, ok := lowerNameToCode[strings.ToLower(s)]; ok {
		return code
	}
	return ""
}

// StateName returns the full state name for a two-letter code, or "".
func StateName(code string) string {
	return stateCodeToName[strings.ToUpper(code)]
}

// partyMappings maps raw party labels to single-letter codes.
var partyMappings = map[string]models.Party{
	"republican":  models.PartyRepublican,
	"democrat":    models.PartyDemocrat,
	"democratic":  models.PartyDemocrat,
	"independent": models.PartyIndependent,
	"libertarian": models.PartyLibertarian,
	"green":       models.PartyGreen,
	"r":           models.PartyRepublican,
	"d":           models.PartyDemocrat,
	"i":           models.PartyIndependent,
	"l":           models.PartyLibertarian,
	"g":           models.PartyGreen,
}

// Party normalizes a party label to its single-letter code. Unknown labels
// map to Independent, the explicit "unaffiliated" bucket, so a bad upstream
// value degrades one field rather than failing the record.
func Party(raw string) models.Party {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return models.PartyIndependent
	}
	if p, ok := partyMappings[s]; ok {
		return p
	}
	// Sources sometimes prefix or suffix, e.g. "Democratic-Farmer-Labor".
	switch {
	case strings.Contains(s, "republican"):
		return models.PartyRepublican
	case strings.Contains(s, "democrat"):
		return models.PartyDemocrat
	case strings.Contains(s, "independent"):
		return models.PartyIndependent
	}
	return models.PartyIndependent
}

// Chamber normalizes a chamber label to "senate" or "house". Unrecognized
// input yields the empty Chamber.
func Chamber(raw string) models.Chamber {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "senate"):
		return models.ChamberSenate
	case strings.Contains(s, "house"): // includes "House of Representatives"
		return models.ChamberHouse
	}
	return ""
}

// Name holds the parsed components of a person's name.
type Name struct {
	First string
	Last  string
	Full  string
}

// PersonName parses a raw name into first/last/full components.
// Congress.gov reports "Last, First" or "Last, First Middle"; plain
// "First Last" input is split on spaces as a fallback.
func PersonName(raw string) Name {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Name{}
	}

	if last, first, ok := strings.Cut(s, ", "); ok {
		first = strings.TrimSpace(first)
		last = strings.TrimSpace(last)
		return Name{
			First: first,
			Last:  last,
			Full:  first + " " + last,
		}
	}

	parts := strings.Fields(s)
	n := Name{Full: s}
	if len(parts) > 0 {
		n.First = parts[0]
	}
	if len(parts) > 1 {
		n.Last = parts[len(parts)-1]
	}
	return n
}

// statusMappings folds source status phrasings into canonical statuses.
var statusMappings = map[string]models.BillStatus{
	"intro":         models.StatusIntroduced,
	"introduced":    models.StatusIntroduced,
	"in_committee":  models.StatusInCommittee,
	"passed_house":  models.StatusPassedHouse,
	"passed_senate": models.StatusPassedSenate,
	"to_president":  models.StatusToPresident,
	"became_law":    models.StatusBecameLaw,
	"enacted":       models.StatusBecameLaw,
	"vetoed":        models.StatusVetoed,
	"failed":        models.StatusFailed,
}

// BillStatus normalizes a raw status string to the canonical enum.
// Unrecognized input yields the empty status.
func BillStatus(raw string) models.BillStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	if status, ok := statusMappings[s]; ok {
		return status
	}
	return ""
}

// StatusFromAction derives a bill status from free-form latest-action text,
// e.g. "Passed the House of Representatives." Checks run from latest stage
// to earliest so a bill that passed both chambers lands on the later one.
// Text that matches nothing is treated as introduced.
func StatusFromAction(text string) models.BillStatus {
	s := strings.ToLower(text)
	switch {
	case s == "":
		return models.StatusIntroduced
	case strings.Contains(s, "became public law") || strings.Contains(s, "became law") ||
		strings.Contains(s, "signed by president"):
		return models.StatusBecameLaw
	case strings.Contains(s, "vetoed"):
		return models.StatusVetoed
	case strings.Contains(s, "presented to president") || strings.Contains(s, "to president"):
		return models.StatusToPresident
	case strings.Contains(s, "passed senate") || strings.Contains(s, "passed the senate") ||
		strings.Contains(s, "agreed to in senate"):
		return models.StatusPassedSenate
	case strings.Contains(s, "passed house") || strings.Contains(s, "passed the house") ||
		strings.Contains(s, "agreed to in house"):
		return models.StatusPassedHouse
	case strings.Contains(s, "failed") || strings.Contains(s, "rejected"):
		return models.StatusFailed
	case strings.Contains(s, "committee") || strings.Contains(s, "referred to"):
		return models.StatusInCommittee
	default:
		return models.StatusIntroduced
	}
}

// Position normalizes a raw ballot position. The House clerk reports
// "Aye"/"No" on some question types and "Yea"/"Nay" on others; both fold
// into the canonical pair. Unrecognized input yields the empty position.
func Position(raw string) models.VotePosition {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yea", "aye", "yes":
		return models.PositionYea
	case "nay", "no":
		return models.PositionNay
	case "present":
		return models.PositionPresent
	case "not voting", "not_voting":
		return models.PositionNotVoting
	}
	return ""
}
