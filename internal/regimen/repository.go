package regimen

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository is a database-backed repository for regimens and their items.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Create inserts a regimen with its items. The regimen starts unactivated;
// Activate makes it govern compliance days.
func (r *Repository) Create(ctx context.Context, reg *Regimen) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO regimens (id, client_id, type, name, created_at, activated_at, deactivated_at, is_active, flexible_schedule, rest_weekdays)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reg.ID, reg.ClientID, string(reg.Type), reg.Name, reg.CreatedAt,
		nullableTime(reg.ActivatedAt), nullableTime(reg.DeactivatedAt),
		reg.IsActive, reg.FlexibleSchedule, encodeWeekdays(reg.RestWeekdays))
	if err != nil {
		return fmt.Errorf("failed to insert regimen: %w", err)
	}

	for i := range reg.Items {
		it := &reg.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.RegimenID = reg.ID
		if err := insertItem(ctx, tx, it, i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit regimen: %w", err)
	}
	return nil
}

// AddItem appends an item to an existing regimen. ActiveFrom controls the
// first day the item counts toward compliance, so adding to a live regimen
// does not retroactively penalize past days.
func (r *Repository) AddItem(ctx context.Context, it *Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	var position int
	row := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM items WHERE regimen_id = ?`, it.RegimenID)
	if err := row.Scan(&position); err != nil {
		return fmt.Errorf("failed to determine item position: %w", err)
	}
	return insertItem(ctx, r.db, it, position)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertItem(ctx context.Context, db execer, it *Item, position int) error {
	if _, err := time.Parse(DayKeyLayout, it.ActiveFrom); err != nil {
		return fmt.Errorf("failed to parse active_from %q: %w", it.ActiveFrom, err)
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, regimen_id, name, scheduled_time, option_label, active_from, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.RegimenID, it.Name, it.ScheduledTime, it.Option, it.ActiveFrom, position)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// Activate activates a regimen at the given instant, which may be in the
// future for scheduled activations. Any currently active regimen of the same
// client is deactivated at the same instant in the same transaction, so
// governance hands over with no gap and no overlap.
func (r *Repository) Activate(ctx context.Context, regimenID string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var clientID string
	if err := tx.QueryRowContext(ctx,
		`SELECT client_id FROM regimens WHERE id = ?`, regimenID).Scan(&clientID); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("regimen %s not found", regimenID)
		}
		return fmt.Errorf("failed to look up regimen %s: %w", regimenID, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE regimens SET is_active = 0, deactivated_at = ?
		 WHERE client_id = ? AND is_active = 1 AND id != ?`,
		at, clientID, regimenID)
	if err != nil {
		return fmt.Errorf("failed to deactivate previous regimen: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE regimens SET is_active = 1, activated_at = ?, deactivated_at = NULL WHERE id = ?`,
		at, regimenID)
	if err != nil {
		return fmt.Errorf("failed to activate regimen %s: %w", regimenID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activation: %w", err)
	}
	return nil
}

// Get retrieves a regimen with its items. Returns (nil, nil) when not found.
func (r *Repository) Get(ctx context.Context, id string) (*Regimen, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, client_id, type, name, created_at, activated_at, deactivated_at, is_active, flexible_schedule, rest_weekdays
		 FROM regimens WHERE id = ?`, id)

	reg, err := scanRegimen(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get regimen %s: %w", id, err)
	}
	if err := r.loadItems(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// ListByClient retrieves all of a client's regimens with their items, in
// creation order.
func (r *Repository) ListByClient(ctx context.Context, clientID string) ([]Regimen, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, client_id, type, name, created_at, activated_at, deactivated_at, is_active, flexible_schedule, rest_weekdays
		 FROM regimens WHERE client_id = ? ORDER BY created_at, id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list regimens for client %s: %w", clientID, err)
	}
	defer rows.Close()

	var regimens []Regimen
	for rows.Next() {
		reg, err := scanRegimen(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan regimen: %w", err)
		}
		regimens = append(regimens, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate regimens: %w", err)
	}

	for i := range regimens {
		if err := r.loadItems(ctx, &regimens[i]); err != nil {
			return nil, err
		}
	}
	return regimens, nil
}

// FindItemByName resolves an item of the client's currently active regimen by
// case-insensitive name match. Returns (nil, nil) when nothing matches.
func (r *Repository) FindItemByName(ctx context.Context, clientID, name string) (*Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT i.id, i.regimen_id, i.name, i.scheduled_time, i.option_label, i.active_from
		 FROM items i JOIN regimens r ON r.id = i.regimen_id
		 WHERE r.client_id = ? AND r.is_active = 1 AND LOWER(i.name) = LOWER(?)
		 ORDER BY i.position LIMIT 1`, clientID, name)

	var it Item
	if err := row.Scan(&it.ID, &it.RegimenID, &it.Name, &it.ScheduledTime, &it.Option, &it.ActiveFrom); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find item %q: %w", name, err)
	}
	return &it, nil
}

// ActiveRegimen returns the client's currently selected regimen, or (nil, nil).
func (r *Repository) ActiveRegimen(ctx context.Context, clientID string) (*Regimen, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, client_id, type, name, created_at, activated_at, deactivated_at, is_active, flexible_schedule, rest_weekdays
		 FROM regimens WHERE client_id = ? AND is_active = 1 ORDER BY activated_at DESC, id DESC LIMIT 1`, clientID)

	reg, err := scanRegimen(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active regimen for client %s: %w", clientID, err)
	}
	if err := r.loadItems(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Repository) loadItems(ctx context.Context, reg *Regimen) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, regimen_id, name, scheduled_time, option_label, active_from
		 FROM items WHERE regimen_id = ? ORDER BY position, id`, reg.ID)
	if err != nil {
		return fmt.Errorf("failed to load items for regimen %s: %w", reg.ID, err)
	}
	defer rows.Close()

	reg.Items = nil
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.RegimenID, &it.Name, &it.ScheduledTime, &it.Option, &it.ActiveFrom); err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}
		reg.Items = append(reg.Items, it)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegimen(row rowScanner) (*Regimen, error) {
	var (
		reg           Regimen
		regType       string
		activatedAt   sql.NullTime
		deactivatedAt sql.NullTime
		restWeekdays  string
	)
	err := row.Scan(&reg.ID, &reg.ClientID, &regType, &reg.Name, &reg.CreatedAt,
		&activatedAt, &deactivatedAt, &reg.IsActive, &reg.FlexibleSchedule, &restWeekdays)
	if err != nil {
		return nil, err
	}
	reg.Type = Type(regType)
	if activatedAt.Valid {
		t := activatedAt.Time
		reg.ActivatedAt = &t
	}
	if deactivatedAt.Valid {
		t := deactivatedAt.Time
		reg.DeactivatedAt = &t
	}
	reg.RestWeekdays = parseWeekdays(restWeekdays)
	return &reg, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// encodeWeekdays stores rest weekdays as comma-separated ints, Sunday = 0.
func encodeWeekdays(days []time.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func parseWeekdays(encoded string) []time.Weekday {
	if encoded == "" {
		return nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(encoded, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}
