package compliance

import (
	"fmt"
	"time"

	"adherence-tracker/internal/regimen"
)

// Input is the immutable snapshot a week is computed from. The caller gathers
// everything, including "now", before invoking the engine, so a single
// invocation is internally consistent even if it straddles a wall-clock tick.
type Input struct {
	Client      regimen.Client
	Regimens    []regimen.Regimen
	Completions []regimen.CompletionEvent

	// WeekStart is the YYYY-MM-DD marker of the first day to render.
	WeekStart string
	// Now is captured once per invocation; the engine reads no clocks.
	Now time.Time
	// Location is the fixed process-wide IANA zone.
	Location *time.Location
}

// Result is one computed week.
type Result struct {
	// Days holds one status per calendar day, index 0 being the week start.
	Days [7]DayStatus
	// DayKeys are the zone-local YYYY-MM-DD keys matching Days.
	DayKeys [7]string
	// IntroducedUnits maps day keys to the unit keys newly introduced that
	// day, for "new, starts counting tomorrow" messaging. Only non-empty
	// sets appear.
	IntroducedUnits map[string][]string
}

// BuildWeek computes the seven-day adherence calendar for the snapshot.
// It is pure: repeated calls with the same input yield identical results, and
// concurrent calls for different clients or weeks need no coordination.
func BuildWeek(in Input) (*Result, error) {
	if in.Location == nil {
		return nil, fmt.Errorf("location is required")
	}
	if err := validateWindows(in.Regimens); err != nil {
		return nil, err
	}

	windows, err := WeekWindows(in.WeekStart, in.Location)
	if err != nil {
		return nil, err
	}

	nowKey := dayKey(in.Now, in.Location)
	result := &Result{IntroducedUnits: make(map[string][]string)}

	for i, w := range windows {
		reg := governingRegimen(in.Regimens, w.Key, in.Location)

		var active, introduced []Unit
		if reg != nil {
			active, introduced = splitForDay(groupUnits(reg.Items), w.Key)
		}

		result.Days[i] = classifyDay(dayContext{
			window:     w,
			signup:     in.Client.SignupDate,
			reg:        reg,
			active:     active,
			introduced: introduced,
			events:     in.Completions,
			nowKey:     nowKey,
			loc:        in.Location,
		})
		result.DayKeys[i] = w.Key

		if len(introduced) > 0 {
			keys := make([]string, len(introduced))
			for j, u := range introduced {
				keys[j] = u.Key
			}
			result.IntroducedUnits[w.Key] = keys
		}
	}
	return result, nil
}
