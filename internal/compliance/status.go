// Package compliance computes seven-day adherence calendars for coach-assigned
// regimens. The engine is a pure function over an immutable snapshot of inputs
// (client, regimens, completion events, "now"); it performs no I/O and reads no
// clocks, so identical inputs always produce identical output.
package compliance

import "fmt"

// Kind discriminates the variants of a DayStatus.
type Kind int

const (
	// KindRatio means a fractional completion ratio applies to the day.
	KindRatio Kind = iota
	// KindNotSignedUp marks days before the client's signup date.
	KindNotSignedUp
	// KindNoRegimen marks days with no governing regimen or no active units.
	KindNoRegimen
	// KindIntroduced marks the grace day on which a regimen or its full unit
	// set was introduced; nothing counts as missed.
	KindIntroduced
	// KindRest marks a workout rest day, designated or client-chosen.
	KindRest
	// KindPending marks today-with-nothing-logged and future days.
	KindPending
)

// DayStatus is the result for one calendar day: either a completion ratio in
// [0,1] or one of the mutually exclusive not-applicable reasons.
type DayStatus struct {
	Kind  Kind
	Ratio float64 // meaningful only when Kind == KindRatio
}

var (
	// NotSignedUpYet precedes the client's signup date.
	NotSignedUpYet = DayStatus{Kind: KindNotSignedUp}
	// NoRegimenAssigned has no governing regimen or zero active units.
	NoRegimenAssigned = DayStatus{Kind: KindNoRegimen}
	// CreatedOrActivatedToday is the introduction-day grace status.
	CreatedOrActivatedToday = DayStatus{Kind: KindIntroduced}
	// Rest is a workout rest day.
	Rest = DayStatus{Kind: KindRest}
	// Pending awaits completions (today with nothing logged, or the future).
	Pending = DayStatus{Kind: KindPending}
)

// Ratio builds a numeric day status.
func Ratio(v float64) DayStatus {
	return DayStatus{Kind: KindRatio, Ratio: v}
}

func (s DayStatus) String() string {
	switch s.Kind {
	case KindRatio:
		return fmt.Sprintf("Ratio(%g)", s.Ratio)
	case KindNotSignedUp:
		return "NotSignedUpYet"
	case KindNoRegimen:
		return "NoRegimenAssigned"
	case KindIntroduced:
		return "CreatedOrActivatedToday"
	case KindRest:
		return "Rest"
	case KindPending:
		return "Pending"
	}
	return fmt.Sprintf("Kind(%d)", int(s.Kind))
}
