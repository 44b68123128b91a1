// Package httpapi exposes the coach-facing JSON API: regimen management,
// completion logging, and the seven-day compliance calendar.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"adherence-tracker/internal/adherence"
	"adherence-tracker/internal/regimen"
)

// ClientStore creates clients.
type ClientStore interface {
	Create(ctx context.Context, signupDate string, telegramUserID int64) (*regimen.Client, error)
}

// RegimenStore manages regimens and their items.
type RegimenStore interface {
	Create(ctx context.Context, reg *regimen.Regimen) error
	Activate(ctx context.Context, regimenID string, at time.Time) error
	AddItem(ctx context.Context, it *regimen.Item) error
	Get(ctx context.Context, id string) (*regimen.Regimen, error)
}

// CompletionStore appends completion events.
type CompletionStore interface {
	Log(ctx context.Context, clientID, regimenID, itemID string, completedAt time.Time) (*regimen.CompletionEvent, error)
}

// ItemImporter extracts regimen items from a published plan page.
type ItemImporter interface {
	FetchItems(url, activeFrom string) ([]regimen.Item, error)
}

// Server holds the API's dependencies.
type Server struct {
	calendar    adherence.Calendar
	clients     ClientStore
	regimens    RegimenStore
	completions CompletionStore
	importer    ItemImporter
	jwtSecret   string
	now         func() time.Time
}

// NewServer creates a new Server.
func NewServer(calendar adherence.Calendar, clients ClientStore, regimens RegimenStore, completions CompletionStore, importer ItemImporter, jwtSecret string) *Server {
	return &Server{
		calendar:    calendar,
		clients:     clients,
		regimens:    regimens,
		completions: completions,
		importer:    importer,
		jwtSecret:   jwtSecret,
		now:         time.Now,
	}
}

// RegisterHandlers registers all routes on the mux.
func (s *Server) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /api/compliance", s.requireAuth(s.handleCompliance))
	mux.HandleFunc("POST /api/clients", s.requireAuth(s.handleCreateClient))
	mux.HandleFunc("POST /api/regimens", s.requireAuth(s.handleCreateRegimen))
	mux.HandleFunc("POST /api/regimens/activate", s.requireAuth(s.handleActivateRegimen))
	mux.HandleFunc("POST /api/regimens/import", s.requireAuth(s.handleImportItems))
	mux.HandleFunc("POST /api/completions", s.requireAuth(s.handleLogCompletion))
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	week := r.URL.Query().Get("week")
	if clientID == "" || week == "" {
		http.Error(w, "client_id and week are required", http.StatusBadRequest)
		return
	}

	result, err := s.calendar.WeekCalendar(r.Context(), clientID, week)
	if err != nil {
		log.Printf("Failed to compute compliance for client %s week %s: %v", clientID, week, err)
		http.Error(w, "failed to compute compliance", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, encodeWeek(week, result))
}

type createClientRequest struct {
	SignupDate     string `json:"signup_date"`
	TelegramUserID int64  `json:"telegram_user_id"`
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SignupDate == "" {
		http.Error(w, "signup_date is required", http.StatusBadRequest)
		return
	}

	client, err := s.clients.Create(r.Context(), req.SignupDate, req.TelegramUserID)
	if err != nil {
		log.Printf("Failed to create client: %v", err)
		http.Error(w, "failed to create client", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": client.ID})
}

type createRegimenRequest struct {
	ClientID         string              `json:"client_id"`
	Type             string              `json:"type"`
	Name             string              `json:"name"`
	FlexibleSchedule bool                `json:"flexible_schedule"`
	RestWeekdays     []int               `json:"rest_weekdays"`
	Items            []createItemRequest `json:"items"`
}

type createItemRequest struct {
	Name          string `json:"name"`
	ScheduledTime string `json:"scheduled_time"`
	Option        string `json:"option"`
	ActiveFrom    string `json:"active_from"`
}

func (s *Server) handleCreateRegimen(w http.ResponseWriter, r *http.Request) {
	var req createRegimenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	regType := regimen.Type(req.Type)
	switch regType {
	case regimen.TypeMeal, regimen.TypeSupplement, regimen.TypeWorkout:
	default:
		http.Error(w, "type must be meal, supplement or workout", http.StatusBadRequest)
		return
	}
	if req.ClientID == "" || len(req.Items) == 0 {
		http.Error(w, "client_id and at least one item are required", http.StatusBadRequest)
		return
	}

	reg := regimen.Regimen{
		ClientID:         req.ClientID,
		Type:             regType,
		Name:             req.Name,
		FlexibleSchedule: req.FlexibleSchedule,
	}
	for _, d := range req.RestWeekdays {
		if d < 0 || d > 6 {
			http.Error(w, "rest_weekdays entries must be 0 (Sunday) to 6 (Saturday)", http.StatusBadRequest)
			return
		}
		reg.RestWeekdays = append(reg.RestWeekdays, time.Weekday(d))
	}
	for _, it := range req.Items {
		reg.Items = append(reg.Items, regimen.Item{
			Name:          it.Name,
			ScheduledTime: it.ScheduledTime,
			Option:        it.Option,
			ActiveFrom:    it.ActiveFrom,
		})
	}

	if err := s.regimens.Create(r.Context(), &reg); err != nil {
		log.Printf("Failed to create regimen: %v", err)
		http.Error(w, "failed to create regimen", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": reg.ID})
}

type activateRegimenRequest struct {
	RegimenID string `json:"regimen_id"`
	// At is optional RFC3339; empty means activate now. A future instant
	// schedules the activation: the regimen starts governing days from its
	// zone-local activation day.
	At string `json:"at"`
}

func (s *Server) handleActivateRegimen(w http.ResponseWriter, r *http.Request) {
	var req activateRegimenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RegimenID == "" {
		http.Error(w, "regimen_id is required", http.StatusBadRequest)
		return
	}

	at := s.now()
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			http.Error(w, "at must be RFC3339", http.StatusBadRequest)
			return
		}
		at = parsed
	}

	if err := s.regimens.Activate(r.Context(), req.RegimenID, at); err != nil {
		log.Printf("Failed to activate regimen %s: %v", req.RegimenID, err)
		http.Error(w, "failed to activate regimen", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importItemsRequest struct {
	RegimenID  string `json:"regimen_id"`
	URL        string `json:"url"`
	ActiveFrom string `json:"active_from"`
}

func (s *Server) handleImportItems(w http.ResponseWriter, r *http.Request) {
	var req importItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RegimenID == "" || req.URL == "" || req.ActiveFrom == "" {
		http.Error(w, "regimen_id, url and active_from are required", http.StatusBadRequest)
		return
	}

	reg, err := s.regimens.Get(r.Context(), req.RegimenID)
	if err != nil {
		log.Printf("Failed to load regimen %s: %v", req.RegimenID, err)
		http.Error(w, "failed to load regimen", http.StatusInternalServerError)
		return
	}
	if reg == nil {
		http.Error(w, "regimen not found", http.StatusNotFound)
		return
	}

	items, err := s.importer.FetchItems(req.URL, req.ActiveFrom)
	if err != nil {
		log.Printf("Failed to import items from %s: %v", req.URL, err)
		http.Error(w, "failed to import items from page", http.StatusBadGateway)
		return
	}

	for i := range items {
		items[i].RegimenID = req.RegimenID
		if err := s.regimens.AddItem(r.Context(), &items[i]); err != nil {
			log.Printf("Failed to add imported item %q: %v", items[i].Name, err)
			http.Error(w, "failed to store imported items", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]int{"imported": len(items)})
}

type logCompletionRequest struct {
	ClientID  string `json:"client_id"`
	RegimenID string `json:"regimen_id"`
	// ItemID is empty for a workout rest choice.
	ItemID      string `json:"item_id"`
	CompletedAt string `json:"completed_at"` // optional RFC3339, defaults to now
}

func (s *Server) handleLogCompletion(w http.ResponseWriter, r *http.Request) {
	var req logCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ClientID == "" || req.RegimenID == "" {
		http.Error(w, "client_id and regimen_id are required", http.StatusBadRequest)
		return
	}

	completedAt := s.now()
	if req.CompletedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.CompletedAt)
		if err != nil {
			http.Error(w, "completed_at must be RFC3339", http.StatusBadRequest)
			return
		}
		completedAt = parsed
	}

	event, err := s.completions.Log(r.Context(), req.ClientID, req.RegimenID, req.ItemID, completedAt)
	if err != nil {
		log.Printf("Failed to log completion for client %s: %v", req.ClientID, err)
		http.Error(w, "failed to log completion", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": event.ID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
