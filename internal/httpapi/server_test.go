package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"adherence-tracker/internal/compliance"
	"adherence-tracker/internal/regimen"
)

type fakeCalendar struct {
	result *compliance.Result
}

func (f *fakeCalendar) WeekCalendar(ctx context.Context, clientID, weekStart string) (*compliance.Result, error) {
	return f.result, nil
}

type fakeStores struct {
	createdRegimen *regimen.Regimen
	activatedID    string
	activatedAt    time.Time
	loggedItemID   string
	addedItems     []regimen.Item
	knownRegimen   *regimen.Regimen
}

func (f *fakeStores) Create(ctx context.Context, signupDate string, telegramUserID int64) (*regimen.Client, error) {
	return &regimen.Client{ID: "client-1", SignupDate: signupDate, TelegramUserID: telegramUserID}, nil
}

func (f *fakeStores) CreateRegimen(ctx context.Context, reg *regimen.Regimen) error {
	reg.ID = "reg-1"
	f.createdRegimen = reg
	return nil
}

func (f *fakeStores) Activate(ctx context.Context, regimenID string, at time.Time) error {
	f.activatedID = regimenID
	f.activatedAt = at
	return nil
}

func (f *fakeStores) AddItem(ctx context.Context, it *regimen.Item) error {
	f.addedItems = append(f.addedItems, *it)
	return nil
}

func (f *fakeStores) Get(ctx context.Context, id string) (*regimen.Regimen, error) {
	if f.knownRegimen != nil && f.knownRegimen.ID == id {
		return f.knownRegimen, nil
	}
	return nil, nil
}

func (f *fakeStores) Log(ctx context.Context, clientID, regimenID, itemID string, completedAt time.Time) (*regimen.CompletionEvent, error) {
	f.loggedItemID = itemID
	return &regimen.CompletionEvent{ID: "evt-1", ClientID: clientID, RegimenID: regimenID, ItemID: itemID, CompletedAt: completedAt}, nil
}

type regimenStoreShim struct{ *fakeStores }

func (s regimenStoreShim) Create(ctx context.Context, reg *regimen.Regimen) error {
	return s.fakeStores.CreateRegimen(ctx, reg)
}

type fakeImporter struct {
	items []regimen.Item
}

func (f *fakeImporter) FetchItems(url, activeFrom string) ([]regimen.Item, error) {
	return f.items, nil
}

func testServer(t *testing.T, cal *fakeCalendar, stores *fakeStores, importer *fakeImporter) (*http.ServeMux, string) {
	t.Helper()
	if cal == nil {
		cal = &fakeCalendar{result: &compliance.Result{IntroducedUnits: map[string][]string{}}}
	}
	srv := NewServer(cal, stores, regimenStoreShim{stores}, stores, importer, "test-secret")
	mux := http.NewServeMux()
	srv.RegisterHandlers(mux)

	token, err := MintToken("test-secret", "coach-1", time.Hour)
	if err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}
	return mux, token
}

func TestAuth(t *testing.T) {
	mux, token := testServer(t, nil, &fakeStores{}, &fakeImporter{})

	t.Run("MissingToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/compliance?client_id=c1&week=2025-06-02", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 without token, got %d", rec.Code)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		bad, err := MintToken("other-secret", "coach-1", time.Hour)
		if err != nil {
			t.Fatalf("MintToken failed: %v", err)
		}
		req := httptest.NewRequest("GET", "/api/compliance?client_id=c1&week=2025-06-02", nil)
		req.Header.Set("Authorization", "Bearer "+bad)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 with a foreign token, got %d", rec.Code)
		}
	})

	t.Run("ValidToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/compliance?client_id=c1&week=2025-06-02", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200 with a valid token, got %d (%s)", rec.Code, rec.Body.String())
		}
	})

	t.Run("HealthIsOpen", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected /health to be open, got %d", rec.Code)
		}
	})
}

func TestHandleCompliance(t *testing.T) {
	cal := &fakeCalendar{result: &compliance.Result{
		Days: [7]compliance.DayStatus{
			compliance.NotSignedUpYet,
			compliance.NoRegimenAssigned,
			compliance.CreatedOrActivatedToday,
			compliance.Ratio(0.5),
			compliance.Rest,
			compliance.Pending,
			compliance.Pending,
		},
		DayKeys: [7]string{
			"2025-06-02", "2025-06-03", "2025-06-04", "2025-06-05",
			"2025-06-06", "2025-06-07", "2025-06-08",
		},
		IntroducedUnits: map[string][]string{"2025-06-04": {"Breakfast@08:00"}},
	}}
	mux, token := testServer(t, cal, &fakeStores{}, &fakeImporter{})

	req := httptest.NewRequest("GET", "/api/compliance?client_id=c1&week=2025-06-02", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp weekResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := []float64{codeNotSignedUp, codeNoRegimen, codeIntroduced, 0.5, codeRest, 0, 0}
	if len(resp.ComplianceData) != 7 {
		t.Fatalf("expected 7 entries, got %d", len(resp.ComplianceData))
	}
	for i, v := range want {
		if resp.ComplianceData[i] != v {
			t.Errorf("entry %d: expected %g, got %g", i, v, resp.ComplianceData[i])
		}
	}
	if len(resp.PendingDays) != 2 || resp.PendingDays[0] != "2025-06-07" {
		t.Errorf("expected pending days out-of-band, got %v", resp.PendingDays)
	}
	if got := resp.IntroducedUnitsByDay["2025-06-04"]; len(got) != 1 || got[0] != "Breakfast@08:00" {
		t.Errorf("expected introduced units passthrough, got %v", got)
	}
}

func TestHandleCreateRegimen(t *testing.T) {
	stores := &fakeStores{}
	mux, token := testServer(t, nil, stores, &fakeImporter{})

	body := `{
		"client_id": "c1",
		"type": "workout",
		"name": "Strength Block A",
		"rest_weekdays": [0, 6],
		"items": [{"name": "Squat Session", "scheduled_time": "18:00", "active_from": "2025-06-02"}]
	}`
	req := httptest.NewRequest("POST", "/api/regimens", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if stores.createdRegimen == nil {
		t.Fatal("expected the regimen to reach the store")
	}
	if stores.createdRegimen.Type != regimen.TypeWorkout {
		t.Errorf("expected workout type, got %s", stores.createdRegimen.Type)
	}
	if len(stores.createdRegimen.RestWeekdays) != 2 {
		t.Errorf("expected rest weekdays parsed, got %v", stores.createdRegimen.RestWeekdays)
	}

	t.Run("RejectsUnknownType", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/regimens",
			strings.NewReader(`{"client_id": "c1", "type": "yoga", "items": [{"name": "X", "active_from": "2025-06-02"}]}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for an unknown type, got %d", rec.Code)
		}
	})
}

func TestHandleImportItems(t *testing.T) {
	stores := &fakeStores{knownRegimen: &regimen.Regimen{ID: "reg-1"}}
	importer := &fakeImporter{items: []regimen.Item{
		{Name: "Breakfast", ScheduledTime: "08:00", ActiveFrom: "2025-06-02"},
		{Name: "Lunch", ScheduledTime: "13:00", ActiveFrom: "2025-06-02"},
	}}
	mux, token := testServer(t, nil, stores, importer)

	body := `{"regimen_id": "reg-1", "url": "https://coach.example/plans/cut", "active_from": "2025-06-02"}`
	req := httptest.NewRequest("POST", "/api/regimens/import", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(stores.addedItems) != 2 {
		t.Fatalf("expected 2 items stored, got %d", len(stores.addedItems))
	}
	if stores.addedItems[0].RegimenID != "reg-1" {
		t.Errorf("expected items bound to reg-1, got %s", stores.addedItems[0].RegimenID)
	}

	t.Run("UnknownRegimen", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/regimens/import",
			strings.NewReader(`{"regimen_id": "nope", "url": "https://x", "active_from": "2025-06-02"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for an unknown regimen, got %d", rec.Code)
		}
	})
}

func TestHandleLogCompletion(t *testing.T) {
	stores := &fakeStores{}
	mux, token := testServer(t, nil, stores, &fakeImporter{})

	t.Run("ItemCompletion", func(t *testing.T) {
		body := `{"client_id": "c1", "regimen_id": "reg-1", "item_id": "i1", "completed_at": "2025-06-03T08:10:00Z"}`
		req := httptest.NewRequest("POST", "/api/completions", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stores.loggedItemID != "i1" {
			t.Errorf("expected item i1 logged, got %q", stores.loggedItemID)
		}
	})

	t.Run("RestChoiceHasEmptyItem", func(t *testing.T) {
		body := `{"client_id": "c1", "regimen_id": "reg-1"}`
		req := httptest.NewRequest("POST", "/api/completions", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stores.loggedItemID != "" {
			t.Errorf("expected an empty item for a rest choice, got %q", stores.loggedItemID)
		}
	})
}

func TestHandleActivateRegimen(t *testing.T) {
	stores := &fakeStores{}
	mux, token := testServer(t, nil, stores, &fakeImporter{})

	body := `{"regimen_id": "reg-1", "at": "2025-06-09T00:00:00Z"}`
	req := httptest.NewRequest("POST", "/api/regimens/activate", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%s)", rec.Code, rec.Body.String())
	}
	if stores.activatedID != "reg-1" {
		t.Errorf("expected reg-1 activated, got %q", stores.activatedID)
	}
	want := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	if !stores.activatedAt.Equal(want) {
		t.Errorf("expected scheduled activation at %v, got %v", want, stores.activatedAt)
	}
}
