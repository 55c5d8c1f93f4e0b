package ratewindow

import "time"

// Subscription tiers, a closed set of period lengths.
const (
	TierWeekly  = "weekly"
	TierMonthly = "monthly"
	TierAnnual  = "annual"
)

// PeriodStart returns the start of the current billing period for the
// tier, in UTC: the most recent Monday at start of day for weekly, the
// first of the current month for monthly, January 1 of the current year
// for annual. Unknown tiers collapse to the weekly window.
func PeriodStart(tier string, now time.Time) time.Time {
	now = now.UTC()
	switch tier {
	case TierMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case TierAnnual:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		// Monday = 0 offset
		days := (int(now.Weekday()) + 6) % 7
		monday := now.AddDate(0, 0, -days)
		return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
	}
}
