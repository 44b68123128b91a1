package compliance

import (
	"time"

	"adherence-tracker/internal/regimen"
)

// unitCompleted reports whether any completion event for the unit's items
// falls on the given zone-local day. Matching is by calendar day, not by
// timestamp equality, and completing several options of the same unit on one
// day still counts once.
func unitCompleted(u Unit, events []regimen.CompletionEvent, key string, loc *time.Location) bool {
	for _, e := range events {
		if e.IsRest() {
			continue
		}
		if dayKey(e.CompletedAt, loc) != key {
			continue
		}
		if u.contains(e.ItemID) {
			return true
		}
	}
	return false
}

// restChosen reports whether the client logged a rest choice for the regimen
// on the given day. An empty event list means "nothing logged yet", which is
// distinct from a chosen rest.
func restChosen(events []regimen.CompletionEvent, regimenID, key string, loc *time.Location) bool {
	for _, e := range events {
		if e.IsRest() && e.RegimenID == regimenID && dayKey(e.CompletedAt, loc) == key {
			return true
		}
	}
	return false
}

// countCompleted counts the units with at least one matching completion.
func countCompleted(units []Unit, events []regimen.CompletionEvent, key string, loc *time.Location) int {
	n := 0
	for _, u := range units {
		if unitCompleted(u, events, key, loc) {
			n++
		}
	}
	return n
}
