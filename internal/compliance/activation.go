package compliance

import (
	"fmt"
	"time"

	"adherence-tracker/internal/regimen"
)

// ConfigurationError reports a regimen whose stored activation window is
// malformed. The engine fails fast on these rather than guessing whether the
// regimen is permanently active or inactive.
type ConfigurationError struct {
	RegimenID string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("regimen %s has an invalid configuration: %s", e.RegimenID, e.Reason)
}

// validateWindows rejects regimens with deactivatedAt before activatedAt.
func validateWindows(regimens []regimen.Regimen) error {
	for i := range regimens {
		r := &regimens[i]
		if r.ActivatedAt != nil && r.DeactivatedAt != nil && r.DeactivatedAt.Before(*r.ActivatedAt) {
			return &ConfigurationError{
				RegimenID: r.ID,
				Reason: fmt.Sprintf("deactivated at %s before activated at %s",
					r.DeactivatedAt.Format(time.RFC3339), r.ActivatedAt.Format(time.RFC3339)),
			}
		}
	}
	return nil
}

// governingRegimen selects the regimen whose activation window covers the
// given day key, or nil when the day is ungoverned. Activation windows are
// half-open on zone-local days: a regimen governs from its activation day up
// to but excluding its deactivation day. A future-scheduled activation governs
// days on or after its scheduled date; "now" plays no part here.
//
// The write path keeps at most one regimen active at a time, but a momentary
// overlap must still resolve deterministically: the latest activation wins,
// with the regimen ID as the final tie-break.
func governingRegimen(regimens []regimen.Regimen, key string, loc *time.Location) *regimen.Regimen {
	var governing *regimen.Regimen
	for i := range regimens {
		r := &regimens[i]
		if r.ActivatedAt == nil {
			continue
		}
		if dayKey(*r.ActivatedAt, loc) > key {
			continue
		}
		if r.DeactivatedAt != nil && dayKey(*r.DeactivatedAt, loc) <= key {
			continue
		}
		if governing == nil || laterActivation(r, governing) {
			governing = r
		}
	}
	return governing
}

func laterActivation(a, b *regimen.Regimen) bool {
	if !a.ActivatedAt.Equal(*b.ActivatedAt) {
		return a.ActivatedAt.After(*b.ActivatedAt)
	}
	return a.ID > b.ID
}
