package types

import (
	"fmt"
)

// APIResponse contains all of the possible response fields.
// Fields must be in alphabetical order
type APIResponse struct {
	AgeBands  []AgeBand         `json:"ageBands,omitempty"`
	Elections []ElectionSummary `json:"elections,omitempty"`
	HasVoted  *bool             `json:"hasVoted,omitempty"`
	Message   string            `json:"message,omitempty"`
	Missing   []string          `json:"missingProvinces,omitempty"`
	Ok        bool              `json:"ok"`
	Overview  *Overview         `json:"overview,omitempty"`
	// Provinces is left out when no user has a province, missingProvinces
	// then lists every province
	Provinces []ProvinceStat    `json:"provinces,omitempty"`
	Ranking   []CandidateResult `json:"ranking,omitempty"`
	Removed   *int              `json:"removed,omitempty"`
	Snapshot  *Snapshot         `json:"snapshot,omitempty"`
	Snapshots []Snapshot        `json:"snapshots,omitempty"`
	Summary   *ElectionSummary  `json:"summary,omitempty"`
	Timeline  []TimeBucket      `json:"timeline,omitempty"`
	Turnout   *Turnout          `json:"turnout,omitempty"`
}

// SetError sets the APIResponse's Ok field to false, and Message to a string
// representation of v. Usually, v's type will be error or string.
func (r *APIResponse) SetError(v interface{}) {
	r.Ok = false
	r.Message = fmt.Sprintf("%s", v)
}

// HasVotedResponse is the body returned by the backend has-voted check
type HasVotedResponse struct {
	HasVoted bool `json:"hasVoted"`
}
