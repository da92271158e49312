package utils

import "time"

// Average days per month, used to convert snapshot ages to billing months
const daysPerMonth = 30.44

// ElapsedDays returns the whole days between since and now in UTC. Future
// timestamps clamp to 0 rather than going negative.
func ElapsedDays(since, now time.Time) int {
	days := int(now.UTC().Sub(since.UTC()).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// DaysToMonths converts an age in days to fractional billing months.
func DaysToMonths(days int) float64 {
	return float64(days) / daysPerMonth
}
