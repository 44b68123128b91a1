package regimen

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClientRepository is a database-backed repository for clients.
type ClientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(d *sql.DB) *ClientRepository {
	return &ClientRepository{db: d}
}

// Create inserts a new client and returns it with its generated ID.
func (r *ClientRepository) Create(ctx context.Context, signupDate string, telegramUserID int64) (*Client, error) {
	if _, err := time.Parse(DayKeyLayout, signupDate); err != nil {
		return nil, fmt.Errorf("failed to parse signup date %q: %w", signupDate, err)
	}

	c := Client{
		ID:             uuid.NewString(),
		SignupDate:     signupDate,
		TelegramUserID: telegramUserID,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, signup_date, telegram_user_id, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.SignupDate, c.TelegramUserID, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert client: %w", err)
	}
	return &c, nil
}

// Get retrieves a client by ID. Returns (nil, nil) when the client is unknown.
func (r *ClientRepository) Get(ctx context.Context, id string) (*Client, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, signup_date, telegram_user_id, created_at FROM clients WHERE id = ?`, id)

	var c Client
	if err := row.Scan(&c.ID, &c.SignupDate, &c.TelegramUserID, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get client %s: %w", id, err)
	}
	return &c, nil
}

// GetByTelegramUserID resolves the client bound to a Telegram account.
// Returns (nil, nil) when no client is bound.
func (r *ClientRepository) GetByTelegramUserID(ctx context.Context, userID int64) (*Client, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, signup_date, telegram_user_id, created_at FROM clients WHERE telegram_user_id = ?`, userID)

	var c Client
	if err := row.Scan(&c.ID, &c.SignupDate, &c.TelegramUserID, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get client for telegram user %d: %w", userID, err)
	}
	return &c, nil
}
