package adherence

import (
	"context"
	"testing"
	"time"

	"adherence-tracker/internal/compliance"
	"adherence-tracker/internal/regimen"
)

type fakeClientStore struct {
	client *regimen.Client
}

func (f *fakeClientStore) Get(ctx context.Context, id string) (*regimen.Client, error) {
	if f.client != nil && f.client.ID == id {
		return f.client, nil
	}
	return nil, nil
}

type fakeRegimenStore struct {
	regimens []regimen.Regimen
}

func (f *fakeRegimenStore) ListByClient(ctx context.Context, clientID string) ([]regimen.Regimen, error) {
	return f.regimens, nil
}

type fakeCompletionStore struct {
	events   []regimen.CompletionEvent
	lastFrom time.Time
	lastTo   time.Time
	calls    int
}

func (f *fakeCompletionStore) ListByClientBetween(ctx context.Context, clientID string, from, to time.Time) ([]regimen.CompletionEvent, error) {
	f.calls++
	f.lastFrom = from
	f.lastTo = to
	return f.events, nil
}

func TestWeekCalendarUnknownClient(t *testing.T) {
	svc := NewService(&fakeClientStore{}, &fakeRegimenStore{}, &fakeCompletionStore{}, time.UTC)

	result, err := svc.WeekCalendar(context.Background(), "nobody", "2025-06-02")
	if err != nil {
		t.Fatalf("WeekCalendar failed: %v", err)
	}
	for i, d := range result.Days {
		if d != compliance.NoRegimenAssigned {
			t.Errorf("expected day %d to be NoRegimenAssigned for an unknown client, got %s", i, d)
		}
	}
	if result.DayKeys[0] != "2025-06-02" {
		t.Errorf("expected day keys to be populated, got %s", result.DayKeys[0])
	}
}

func TestWeekCalendarWidensCompletionWindow(t *testing.T) {
	completions := &fakeCompletionStore{}
	svc := NewService(
		&fakeClientStore{client: &regimen.Client{ID: "c1", SignupDate: "2025-05-01"}},
		&fakeRegimenStore{},
		completions,
		time.UTC,
	)

	if _, err := svc.WeekCalendar(context.Background(), "c1", "2025-06-02"); err != nil {
		t.Fatalf("WeekCalendar failed: %v", err)
	}

	wantFrom := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if !completions.lastFrom.Equal(wantFrom) {
		t.Errorf("expected fetch from %v, got %v", wantFrom, completions.lastFrom)
	}
	if !completions.lastTo.Equal(wantTo) {
		t.Errorf("expected fetch to %v, got %v", wantTo, completions.lastTo)
	}
}

func TestWeekCalendarComputesFromSnapshot(t *testing.T) {
	activated := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	svc := NewService(
		&fakeClientStore{client: &regimen.Client{ID: "c1", SignupDate: "2025-06-02"}},
		&fakeRegimenStore{regimens: []regimen.Regimen{{
			ID:          "r1",
			Type:        regimen.TypeSupplement,
			CreatedAt:   activated,
			ActivatedAt: &activated,
			Items:       []regimen.Item{{ID: "i1", Name: "Magnesium", ActiveFrom: "2025-06-02"}},
		}}},
		&fakeCompletionStore{events: []regimen.CompletionEvent{{
			ID: "e1", ClientID: "c1", ItemID: "i1",
			CompletedAt: time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
		}}},
		time.UTC,
	)
	svc.now = func() time.Time { return time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC) }

	result, err := svc.WeekCalendar(context.Background(), "c1", "2025-06-02")
	if err != nil {
		t.Fatalf("WeekCalendar failed: %v", err)
	}
	if result.Days[0] != compliance.CreatedOrActivatedToday {
		t.Errorf("expected the creation day grace, got %s", result.Days[0])
	}
	if result.Days[1] != compliance.Ratio(1) {
		t.Errorf("expected 1.0 on the completed day, got %s", result.Days[1])
	}
}

type countingCalendar struct {
	calls int
}

func (c *countingCalendar) WeekCalendar(ctx context.Context, clientID, weekStart string) (*compliance.Result, error) {
	c.calls++
	return &compliance.Result{IntroducedUnits: map[string][]string{}}, nil
}

func TestCachedCalendar(t *testing.T) {
	real := &countingCalendar{}
	cached := NewCachedCalendar(real, time.Minute)

	clock := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return clock }

	ctx := context.Background()

	t.Run("HitWithinTTL", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			if _, err := cached.WeekCalendar(ctx, "c1", "2025-06-02"); err != nil {
				t.Fatalf("WeekCalendar failed: %v", err)
			}
		}
		if real.calls != 1 {
			t.Errorf("expected 1 underlying call, got %d", real.calls)
		}
	})

	t.Run("DistinctKeys", func(t *testing.T) {
		if _, err := cached.WeekCalendar(ctx, "c2", "2025-06-02"); err != nil {
			t.Fatalf("WeekCalendar failed: %v", err)
		}
		if _, err := cached.WeekCalendar(ctx, "c1", "2025-06-09"); err != nil {
			t.Fatalf("WeekCalendar failed: %v", err)
		}
		if real.calls != 3 {
			t.Errorf("expected per-(client, week) entries, got %d calls", real.calls)
		}
	})

	t.Run("ExpiryAndInvalidation", func(t *testing.T) {
		clock = clock.Add(2 * time.Minute)
		if _, err := cached.WeekCalendar(ctx, "c1", "2025-06-02"); err != nil {
			t.Fatalf("WeekCalendar failed: %v", err)
		}
		if real.calls != 4 {
			t.Errorf("expected a refresh after TTL expiry, got %d calls", real.calls)
		}

		cached.Invalidate("c1", "2025-06-02")
		if _, err := cached.WeekCalendar(ctx, "c1", "2025-06-02"); err != nil {
			t.Fatalf("WeekCalendar failed: %v", err)
		}
		if real.calls != 5 {
			t.Errorf("expected a refresh after invalidation, got %d calls", real.calls)
		}
	})
}
