package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitolwatch/capitolwatch/pkg/models"
	"github.com/capitolwatch/capitolwatch/pkg/normalize"
)

func TestState(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Utah", "UT"},
		{"UT", "UT"},
		{"ut", "UT"},
		{"  utah  ", "UT"},
		{"California", "CA"},
		{"District of Columbia", "DC"},
		{"puerto rico", "PR"},
		{"XX", ""},
		{"Atlantis", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize.State(tt.raw), "State(%q)", tt.raw)
	}
}

func TestStateDeterminism(t *testing.T) {
	// The core merge-key property: all spellings of the same state converge.
	assert.Equal(t, normalize.State("Utah"), normalize.State("UT"))
	assert.Equal(t, normalize.State("UT"), normalize.State("utah"))
}

func TestStateName(t *testing.T) {
	assert.Equal(t, "Utah", normalize.StateName("UT"))
	assert.Equal(t, "Utah", normalize.StateName("ut"))
	assert.Equal(t, "", normalize.StateName("XX"))
}

func TestParty(t *testing.T) {
	tests := []struct {
		raw  string
		want models.Party
	}{
		{"Republican", models.PartyRepublican},
		{"Democrat", models.PartyDemocrat},
		{"Democratic", models.PartyDemocrat},
		{"democratic-farmer-labor", models.PartyDemocrat},
		{"R", models.PartyRepublican},
		{"d", models.PartyDemocrat},
		{"Independent", models.PartyIndependent},
		{"Unknown", models.PartyIndependent},
		{"", models.PartyIndependent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize.Party(tt.raw), "Party(%q)", tt.raw)
	}
}

func TestChamber(t *testing.T) {
	tests := []struct {
		raw  string
		want models.Chamber
	}{
		{"Senate", models.ChamberSenate},
		{"SENATE", models.ChamberSenate},
		{"House", models.ChamberHouse},
		{"House of Representatives", models.ChamberHouse},
		{"joint", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize.Chamber(tt.raw), "Chamber(%q)", tt.raw)
	}
}

func TestPersonName(t *testing.T) {
	t.Run("last comma first", func(t *testing.T) {
		n := normalize.PersonName("Lee, Mike")
		assert.Equal(t, "Mike", n.First)
		assert.Equal(t, "Lee", n.Last)
		assert.Equal(t, "Mike Lee", n.Full)
	})

	t.Run("with middle name", func(t *testing.T) {
		n := normalize.PersonName("Romney, Willard Mitt")
		assert.Equal(t, "Willard Mitt", n.First)
		assert.Equal(t, "Romney", n.Last)
		assert.Equal(t, "Willard Mitt Romney", n.Full)
	})

	t.Run("plain order fallback", func(t *testing.T) {
		n := normalize.PersonName("Mike Lee")
		assert.Equal(t, "Mike", n.First)
		assert.Equal(t, "Lee", n.Last)
		assert.Equal(t, "Mike Lee", n.Full)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, normalize.Name{}, normalize.PersonName("  "))
	})
}

func TestBillStatus(t *testing.T) {
	assert.Equal(t, models.StatusBecameLaw, normalize.BillStatus("enacted"))
	assert.Equal(t, models.StatusBecameLaw, normalize.BillStatus("Became Law"))
	assert.Equal(t, models.StatusPassedHouse, normalize.BillStatus("passed-house"))
	assert.Equal(t, models.BillStatus(""), normalize.BillStatus("limbo"))
}

func TestStatusFromAction(t *testing.T) {
	tests := []struct {
		text string
		want models.BillStatus
	}{
		{"Became Public Law No: 119-1.", models.StatusBecameLaw},
		{"Signed by President.", models.StatusBecameLaw},
		{"Vetoed by President.", models.StatusVetoed},
		{"Presented to President.", models.StatusToPresident},
		{"Passed Senate without amendment by Voice Vote.", models.StatusPassedSenate},
		{"Passed the House of Representatives.", models.StatusPassedHouse},
		{"Failed of passage in the House.", models.StatusFailed},
		{"Referred to the Committee on the Judiciary.", models.StatusInCommittee},
		{"Introduced in House", models.StatusIntroduced},
		{"", models.StatusIntroduced},
		{"Something unrecognizable", models.StatusIntroduced},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize.StatusFromAction(tt.text), "StatusFromAction(%q)", tt.text)
	}
}

func TestPosition(t *testing.T) {
	tests := []struct {
		raw  string
		want models.VotePosition
	}{
		{"Yea", models.PositionYea},
		{"Aye", models.PositionYea},
		{"No", models.PositionNay},
		{"Nay", models.PositionNay},
		{"Present", models.PositionPresent},
		{"Not Voting", models.PositionNotVoting},
		{"Abstain", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize.Position(tt.raw), "Position(%q)", tt.raw)
	}
}

func TestBillAndVoteIDs(t *testing.T) {
	assert.Equal(t, "hr-1234-118", models.BillID(models.BillTypeHR, 1234, 118))
	assert.Equal(t, "house-roll-17-118", models.VoteID(models.ChamberHouse, 17, 118))
	// Deterministic: same components, same ID.
	assert.Equal(t, models.BillID(models.BillTypeS, 5, 119), models.BillID(models.BillTypeS, 5, 119))
}
