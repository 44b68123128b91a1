package regimen

import "time"

// DayKeyLayout is the zone-local calendar-day format used across the app.
const DayKeyLayout = "2006-01-02"

// Type identifies the kind of regimen a coach assigns.
type Type string

const (
	TypeMeal       Type = "meal"
	TypeSupplement Type = "supplement"
	TypeWorkout    Type = "workout"
)

// Client represents a coached client.
type Client struct {
	ID             string
	SignupDate     string // YYYY-MM-DD, anchored to the configured time zone
	TelegramUserID int64
	CreatedAt      time.Time
}

// Regimen is a coach-assigned plan (meal plan, supplement list, or workout plan).
// It governs compliance days during its activation window [ActivatedAt, DeactivatedAt).
type Regimen struct {
	ID        string
	ClientID  string
	Type      Type
	Name      string
	CreatedAt time.Time

	// ActivatedAt is nil until the regimen is activated. It may be in the
	// future when the coach schedules activation ahead of time.
	ActivatedAt *time.Time
	// DeactivatedAt is set when another regimen supersedes this one.
	DeactivatedAt *time.Time
	// IsActive marks the currently selected regimen. The write path keeps at
	// most one active regimen per client; readers resolve governance from the
	// activation window and must not rely on this flag alone.
	IsActive bool

	// Workout scheduling. Fixed-schedule plans designate rest weekdays;
	// flexible plans let the client choose rest days by logging a rest event.
	FlexibleSchedule bool
	RestWeekdays     []time.Weekday

	Items []Item
}

// Item is one entry of a regimen: a meal, a supplement dose, or an exercise.
// Items sharing (Name, ScheduledTime) are alternative options of one logical
// unit; completing any option satisfies the unit.
type Item struct {
	ID            string
	RegimenID     string
	Name          string
	ScheduledTime string // HH:MM for meals/workouts, empty for daily supplements
	Option        string // option label within the unit, e.g. "A" / "B"
	// ActiveFrom is the first calendar day the item counts toward compliance.
	// Lets a coach extend an already-active regimen without penalizing past days.
	ActiveFrom string // YYYY-MM-DD
}

// CompletionEvent is one append-only log entry. A normal completion references
// the completed item; a workout rest choice has an empty ItemID.
type CompletionEvent struct {
	ID          string
	ClientID    string
	RegimenID   string
	ItemID      string // empty means "client chose rest"
	CompletedAt time.Time
}

// IsRest reports whether the event records a chosen rest day rather than a
// completed item.
func (e CompletionEvent) IsRest() bool {
	return e.ItemID == ""
}

// RestsOn reports whether a fixed-schedule workout regimen designates the
// given weekday as a rest day.
func (r *Regimen) RestsOn(day time.Weekday) bool {
	for _, w := range r.RestWeekdays {
		if w == day {
			return true
		}
	}
	return false
}
