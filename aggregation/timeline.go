package aggregation

import (
	"fmt"
	"math"

	"go.vocdoni.io/analytics/types"
)

const (
	firstHour  = 8
	lastHour   = 18
	peakFactor = 1.5
)

var peakHours = map[int]bool{10: true, 11: true, 14: true, 15: true, 16: true}

// BucketVotesByTime spreads totalVotes over the hourly buckets of a voting
// day, from 08:00 to 18:00. Peak hours get one and a half times the base
// share. Buckets are rounded independently so their sum is only an
// approximation of totalVotes.
func BucketVotesByTime(totalVotes uint64) []types.TimeBucket {
	hours := lastHour - firstHour + 1
	base := float64(totalVotes) / float64(hours)
	buckets := make([]types.TimeBucket, 0, hours)
	for h := firstHour; h <= lastHour; h++ {
		v := base
		if peakHours[h] {
			v *= peakFactor
		}
		buckets = append(buckets, types.TimeBucket{
			Time:  fmt.Sprintf("%02d:00", h),
			Votes: uint64(math.Round(v)),
		})
	}
	return buckets
}
