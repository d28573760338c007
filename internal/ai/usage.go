package ai

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Usage is the persisted call accounting. Counters reset lazily: every
// read or write first applies rollover against the current clock, so a
// process idle across midnight still starts the new day at zero — no
// background timer exists.
type Usage struct {
	TotalCalls         int     `json:"totalCalls"`
	TodayCalls         int     `json:"todayCalls"`
	HourCalls          int     `json:"hourCalls"`
	LastCallDate       string  `json:"lastCallDate,omitempty"` // ISO date
	LastCallHour       int     `json:"lastCallHour"`           // 0-23
	EstimatedCostCents float64 `json:"estimatedCostCents"`
}

// rollover resets the day and hour counters when the wall clock has
// moved past the stored date/hour. A day rollover resets both; an hour
// rollover resets only the hour counter. Applied exactly once per
// boundary because the stored markers advance with the reset.
func (u *Usage) rollover(now time.Time) {
	date := now.Format(dateLayout)

	if u.LastCallDate != date {
		u.TodayCalls = 0
		u.HourCalls = 0
		u.LastCallDate = date
		u.LastCallHour = now.Hour()
		return
	}

	if u.LastCallHour != now.Hour() {
		u.HourCalls = 0
		u.LastCallHour = now.Hour()
	}
}

// record books one successful call at the given time and cost.
func (u *Usage) record(now time.Time, costCents float64) {
	u.rollover(now)
	u.TotalCalls++
	u.TodayCalls++
	u.HourCalls++
	u.LastCallDate = now.Format(dateLayout)
	u.LastCallHour = now.Hour()
	if costCents > 0 {
		u.EstimatedCostCents += costCents
	}
}

// resetHint renders a user-facing hint for when a ceiling clears.
func resetHint(scope string, now time.Time) string {
	switch scope {
	case "hourly_limit":
		next := now.Truncate(time.Hour).Add(time.Hour)
		return fmt.Sprintf("resets at %s", next.Format("15:04"))
	case "daily_limit":
		return "resets at midnight"
	default:
		return "try again later"
	}
}
