package regimen

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CompletionRepository persists the append-only completion log. Events are
// inserted and range-queried, never updated or deleted.
type CompletionRepository struct {
	db *sql.DB
}

// NewCompletionRepository creates a new CompletionRepository.
func NewCompletionRepository(d *sql.DB) *CompletionRepository {
	return &CompletionRepository{db: d}
}

// Log appends a completion event. An empty itemID records a chosen rest day.
func (r *CompletionRepository) Log(ctx context.Context, clientID, regimenID, itemID string, completedAt time.Time) (*CompletionEvent, error) {
	e := CompletionEvent{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		RegimenID:   regimenID,
		ItemID:      itemID,
		CompletedAt: completedAt,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO completion_events (id, client_id, regimen_id, item_id, completed_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.ClientID, e.RegimenID, e.ItemID, e.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert completion event: %w", err)
	}
	return &e, nil
}

// ListByClientBetween retrieves the client's events in [from, to). Callers
// computing a week widen the window to cover time-zone boundary slop.
func (r *CompletionRepository) ListByClientBetween(ctx context.Context, clientID string, from, to time.Time) ([]CompletionEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, client_id, regimen_id, item_id, completed_at
		 FROM completion_events
		 WHERE client_id = ? AND completed_at >= ? AND completed_at < ?
		 ORDER BY completed_at, id`, clientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list completion events for client %s: %w", clientID, err)
	}
	defer rows.Close()

	var events []CompletionEvent
	for rows.Next() {
		var e CompletionEvent
		if err := rows.Scan(&e.ID, &e.ClientID, &e.RegimenID, &e.ItemID, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completion events: %w", err)
	}
	return events, nil
}
