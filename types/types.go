package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ElectionStatus string

const (
	StatusUpcoming ElectionStatus = "upcoming"
	StatusActive   ElectionStatus = "active"
	StatusExpired  ElectionStatus = "expired"
	StatusDisabled ElectionStatus = "disabled"
)

// ParseElectionStatus returns the status named by s and whether it is a known one
func ParseElectionStatus(s string) (ElectionStatus, bool) {
	switch st := ElectionStatus(s); st {
	case StatusUpcoming, StatusActive, StatusExpired, StatusDisabled:
		return st, true
	}
	return "", false
}

// ElectionRef is the short form returned by the election listing of the backend
type ElectionRef struct {
	ElectionID int    `json:"electionId"`
	Name       string `json:"name"`
}

type Election struct {
	ElectionID int      `json:"electionId"`
	Name       string   `json:"name"`
	Candidates []string `json:"candidates"`
	StartTime  int64    `json:"startTime"`
	EndTime    int64    `json:"endTime"`
	Disabled   bool     `json:"disabled"`
}

// Status projects the election lifecycle at the given time. The disabled
// flag overrides the time window. Both window ends are active instants,
// anything past the end second is expired.
func (e *Election) Status(now time.Time) ElectionStatus {
	switch {
	case e.Disabled:
		return StatusDisabled
	case now.Before(time.Unix(e.StartTime, 0)):
		return StatusUpcoming
	case now.After(time.Unix(e.EndTime, 0)):
		return StatusExpired
	default:
		return StatusActive
	}
}

// ResultsMap holds the vote count of every candidate of an election
type ResultsMap map[string]uint64

func (r ResultsMap) Total() uint64 {
	var total uint64
	for _, v := range r {
		total += v
	}
	return total
}

type User struct {
	SocialID string `json:"socialId"`
	Name     string `json:"name"`
	Province string `json:"province"`
	Address  string `json:"address"`
}

// Users maps a socialId to its registered user
type Users map[string]User

type ProvinceStat struct {
	Name              string  `json:"name"`
	Votes             uint64  `json:"votes"`
	Registered        int     `json:"registered"`
	ParticipationRate float64 `json:"participationRate"`
}

type TimeBucket struct {
	Time  string `json:"time"`
	Votes uint64 `json:"votes"`
}

type AgeBand struct {
	Band       string  `json:"band"`
	Percentage float64 `json:"percentage"`
}

type CandidateResult struct {
	Name       string  `json:"name"`
	Votes      uint64  `json:"votes"`
	Percentage float64 `json:"percentage"`
	Rank       int     `json:"rank,omitempty"`
}

type ElectionSummary struct {
	ElectionID   int               `json:"electionId"`
	Name         string            `json:"name"`
	Status       ElectionStatus    `json:"status"`
	TotalVotes   uint64            `json:"totalVotes"`
	PerCandidate []CandidateResult `json:"perCandidate"`
	Leader       string            `json:"leader"`
}

type Overview struct {
	TotalElections    int                    `json:"totalElections"`
	ByStatus          map[ElectionStatus]int `json:"byStatus"`
	TotalVotes        uint64                 `json:"totalVotes"`
	RegisteredUsers   int                    `json:"registeredUsers"`
	ParticipationRate float64                `json:"participationRate"`
	Leaders           []ElectionLeader       `json:"leaders"`
}

type ElectionLeader struct {
	ElectionID int            `json:"electionId"`
	Name       string         `json:"name"`
	Status     ElectionStatus `json:"status"`
	Leader     string         `json:"leader"`
	Votes      uint64         `json:"votes"`
}

type Turnout struct {
	ElectionID int            `json:"electionId"`
	Voters     int            `json:"voters"`
	Registered int            `json:"registered"`
	Rate       float64        `json:"rate"`
	Provinces  []ProvinceStat `json:"provinces"`
}

// Snapshot is a persisted election summary taken at CreatedAt
type Snapshot struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	ElectionID      int            `json:"electionId" db:"election_id"`
	ElectionName    string         `json:"electionName" db:"election_name"`
	Status          string         `json:"status" db:"status"`
	TotalVotes      int64          `json:"totalVotes" db:"total_votes"`
	Leader          string         `json:"leader" db:"leader"`
	Candidates      pq.StringArray `json:"candidates" db:"candidates"`
	Votes           pq.Int64Array  `json:"votes" db:"votes"`
	RegisteredUsers int            `json:"registeredUsers" db:"registered_users"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
}

type ListOptions struct {
	Count int    `json:"count,omitempty"`
	Order string `json:"order,omitempty"`
	Skip  int    `json:"skip,omitempty"`
}
