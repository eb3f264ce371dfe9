package pgsql

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParseElectionID(t *testing.T) {
	c := qt.New(t)
	for payload, want := range map[string]int{
		"UPDATE ELECTION=12":   12,
		"INSERT ELECTION = 7":  7,
		"DELETE ELECTION 3001": 3001,
	} {
		id, err := parseElectionID(payload)
		c.Assert(err, qt.IsNil)
		c.Assert(id, qt.Equals, want)
	}
	_, err := parseElectionID("UPDATE USERS")
	c.Assert(err, qt.IsNotNil)
	_, err = parseElectionID("")
	c.Assert(err, qt.IsNotNil)
}
