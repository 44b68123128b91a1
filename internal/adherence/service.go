// Package adherence gathers the snapshot a compliance week is computed from
// and invokes the engine. All I/O lives here; the engine itself stays pure.
package adherence

import (
	"context"
	"fmt"
	"time"

	"adherence-tracker/internal/compliance"
	"adherence-tracker/internal/regimen"
)

// ClientStore resolves clients.
type ClientStore interface {
	Get(ctx context.Context, id string) (*regimen.Client, error)
}

// RegimenStore lists a client's regimens with their items.
type RegimenStore interface {
	ListByClient(ctx context.Context, clientID string) ([]regimen.Regimen, error)
}

// CompletionStore fetches completion events in a time range.
type CompletionStore interface {
	ListByClientBetween(ctx context.Context, clientID string, from, to time.Time) ([]regimen.CompletionEvent, error)
}

// Calendar computes a client's seven-day adherence calendar.
type Calendar interface {
	WeekCalendar(ctx context.Context, clientID, weekStart string) (*compliance.Result, error)
}

// Service loads snapshots from the repositories and runs the engine.
type Service struct {
	clients     ClientStore
	regimens    RegimenStore
	completions CompletionStore
	location    *time.Location
	now         func() time.Time
}

// NewService creates a new Service bound to the process-wide time zone.
func NewService(clients ClientStore, regimens RegimenStore, completions CompletionStore, location *time.Location) *Service {
	return &Service{
		clients:     clients,
		regimens:    regimens,
		completions: completions,
		location:    location,
		now:         time.Now,
	}
}

// WeekCalendar gathers the snapshot for (client, week) and computes the
// calendar. "now" is captured exactly once per invocation so the result is
// internally consistent even across a wall-clock tick. An unknown client gets
// an all-NoRegimenAssigned week without invoking the engine.
func (s *Service) WeekCalendar(ctx context.Context, clientID, weekStart string) (*compliance.Result, error) {
	windows, err := compliance.WeekWindows(weekStart, s.location)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client %s: %w", clientID, err)
	}
	if client == nil {
		return emptyWeek(windows), nil
	}

	regimens, err := s.regimens.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load regimens for client %s: %w", clientID, err)
	}

	// Widen the fetch window by a day on each side so completions stored in
	// UTC near local midnight still land on the right zone-local day.
	from := windows[0].Start.AddDate(0, 0, -1)
	to := windows[6].End.AddDate(0, 0, 1)
	completions, err := s.completions.ListByClientBetween(ctx, clientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load completions for client %s: %w", clientID, err)
	}

	return compliance.BuildWeek(compliance.Input{
		Client:      *client,
		Regimens:    regimens,
		Completions: completions,
		WeekStart:   weekStart,
		Now:         s.now(),
		Location:    s.location,
	})
}

func emptyWeek(windows [7]compliance.DayWindow) *compliance.Result {
	result := &compliance.Result{IntroducedUnits: map[string][]string{}}
	for i, w := range windows {
		result.Days[i] = compliance.NoRegimenAssigned
		result.DayKeys[i] = w.Key
	}
	return result
}
