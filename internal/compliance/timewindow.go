package compliance

import (
	"fmt"
	"time"

	"adherence-tracker/internal/regimen"
)

// DayWindow is one zone-local calendar day: the half-open interval
// [Start, End) plus its YYYY-MM-DD day key.
type DayWindow struct {
	Start time.Time
	End   time.Time
	Key   string
}

// WeekWindows resolves a week-start marker into seven consecutive zone-local
// day windows. The marker is a YYYY-MM-DD date interpreted in loc; the caller's
// own zone never leaks in. End is the next local midnight, so days crossing a
// DST transition are 23 or 25 hours long while the day keys stay correct.
func WeekWindows(weekStart string, loc *time.Location) ([7]DayWindow, error) {
	var windows [7]DayWindow
	marker, err := time.ParseInLocation(regimen.DayKeyLayout, weekStart, loc)
	if err != nil {
		return windows, fmt.Errorf("failed to parse week start %q: %w", weekStart, err)
	}

	start := time.Date(marker.Year(), marker.Month(), marker.Day(), 0, 0, 0, 0, loc)
	for i := range windows {
		end := start.AddDate(0, 0, 1)
		windows[i] = DayWindow{
			Start: start,
			End:   end,
			Key:   start.Format(regimen.DayKeyLayout),
		}
		start = end
	}
	return windows, nil
}

// dayKey truncates a timestamp to its zone-local calendar day. Every day
// comparison in the engine goes through this, so a completion logged at 23:58
// local counts for that local day even when stored in UTC.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(regimen.DayKeyLayout)
}
