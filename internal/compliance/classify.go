package compliance

import (
	"time"

	"adherence-tracker/internal/regimen"
)

// profile captures the per-regimen-type behavior of the classifier. One engine
// serves all three regimen types; only rest-day semantics differ.
type profile struct {
	restAware bool
}

func profileFor(t regimen.Type) profile {
	return profile{restAware: t == regimen.TypeWorkout}
}

// dayContext is the full per-day input to the classifier. nowKey is the
// zone-local day of the single "now" captured for the whole invocation.
type dayContext struct {
	window     DayWindow
	signup     string
	reg        *regimen.Regimen
	active     []Unit
	introduced []Unit
	events     []regimen.CompletionEvent
	nowKey     string
	loc        *time.Location
}

// classifyDay applies the precedence-ordered decision rules for one day.
// The ordering is load-bearing: each rule assumes every earlier rule failed.
// In particular the ratio rule never divides by zero because the no-regimen
// rule has already excluded empty unit sets, and the introduction rule has
// already excluded the all-units-new case.
func classifyDay(c dayContext) DayStatus {
	key := c.window.Key

	// 1. Before signup nothing applies, regardless of regimen data.
	if key < c.signup {
		return NotSignedUpYet
	}

	// 2. Ungoverned day, or governed with nothing to complete.
	if c.reg == nil || len(c.active) == 0 {
		return NoRegimenAssigned
	}

	// 3. Introduction grace: the regimen's first governed day when it was
	// created that same day, or a day on which every active unit is brand-new.
	if createdOnFirstGovernedDay(c.reg, key, c.loc) {
		return CreatedOrActivatedToday
	}
	if len(c.introduced) > 0 && len(c.introduced) == len(c.active) {
		return CreatedOrActivatedToday
	}

	// 4. Workout rest: designated weekday on fixed schedules, logged choice on
	// flexible ones. Checked before Pending so a scheduled future rest day
	// shows as Rest.
	if profileFor(c.reg.Type).restAware {
		if c.reg.FlexibleSchedule {
			if restChosen(c.events, c.reg.ID, key, c.loc) {
				return Rest
			}
		} else if c.reg.RestsOn(c.window.Start.Weekday()) {
			return Rest
		}
	}

	// Units introduced today are excluded from today's denominator; the rest
	// must be non-empty here since rule 3 handled the all-new case.
	counted := c.active
	if len(c.introduced) > 0 {
		counted = withoutIntroduced(c.active, c.introduced)
	}
	completed := countCompleted(counted, c.events, key, c.loc)

	// 5. The future is pending, and so is today until something is logged.
	if key > c.nowKey {
		return Pending
	}
	if key == c.nowKey && completed == 0 {
		return Pending
	}

	// 6. The ratio of completed to counted units. Division happens once here;
	// rounding is left to display code.
	return Ratio(float64(completed) / float64(len(counted)))
}

// createdOnFirstGovernedDay reports whether the regimen was created on the
// given day and that day is the first it governs (its activation day).
func createdOnFirstGovernedDay(r *regimen.Regimen, key string, loc *time.Location) bool {
	return dayKey(r.CreatedAt, loc) == key && dayKey(*r.ActivatedAt, loc) == key
}

func withoutIntroduced(active, introduced []Unit) []Unit {
	newToday := make(map[string]bool, len(introduced))
	for _, u := range introduced {
		newToday[u.Key] = true
	}
	counted := make([]Unit, 0, len(active)-len(introduced))
	for _, u := range active {
		if !newToday[u.Key] {
			counted = append(counted, u)
		}
	}
	return counted
}
