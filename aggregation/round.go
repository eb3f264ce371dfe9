package aggregation

import "math"

// round1 rounds x to one decimal place, halves away from zero
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// share returns round(part/whole*total), or 0 when whole is 0
func share(part, whole int, total uint64) uint64 {
	if whole <= 0 {
		return 0
	}
	return uint64(math.Round(float64(part) / float64(whole) * float64(total)))
}

// percent returns round1(part/whole*100), or 0 when whole is 0
func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return round1(part / whole * 100)
}
