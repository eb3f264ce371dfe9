package testcommon

import (
	"math/rand"
	"time"

	"go.vocdoni.io/analytics/types"
	"go.vocdoni.io/dvote/crypto/ethereum"
	dvoteutil "go.vocdoni.io/dvote/util"
)

// CreateEthRandomKeysBatch creates a set of eth random signing keys
func CreateEthRandomKeysBatch(n int) []*ethereum.SignKeys {
	s := make([]*ethereum.SignKeys, n)
	for i := 0; i < n; i++ {
		s[i] = ethereum.NewSignKeys()
		if err := s[i].Generate(); err != nil {
			return nil
		}
	}
	return s
}

// CreateSnapshots creates size random snapshots of an election, one second
// apart from each other
func CreateSnapshots(electionID, size int) []types.Snapshot {
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	snapshots := make([]types.Snapshot, size)
	for i := range snapshots {
		candidates := []string{dvoteutil.RandomHex(4), dvoteutil.RandomHex(4)}
		votes := []int64{rand.Int63n(1000), rand.Int63n(1000)}
		leader := candidates[0]
		if votes[1] > votes[0] {
			leader = candidates[1]
		}
		snapshots[i] = types.Snapshot{
			ElectionID:      electionID,
			ElectionName:    "election " + dvoteutil.RandomHex(4),
			Status:          string(types.StatusActive),
			TotalVotes:      votes[0] + votes[1],
			Leader:          leader,
			Candidates:      candidates,
			Votes:           votes,
			RegisteredUsers: rand.Intn(5000),
			CreatedAt:       base.Add(time.Duration(i) * time.Second),
		}
	}
	return snapshots
}
