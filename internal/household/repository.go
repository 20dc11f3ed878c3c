package household

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no household or override is stored.
var ErrNotFound = errors.New("household not found")

// Repository stores households and their weekly overrides.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Get retrieves a household by id.
func (r *Repository) Get(ctx context.Context, id string) (*Household, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM households WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get household %s: %w", id, err)
	}

	var h Household
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal household JSON: %w", err)
	}
	return &h, nil
}

// Save validates and upserts a household.
func (r *Repository) Save(ctx context.Context, h *Household) error {
	if err := h.Validate(); err != nil {
		return err
	}
	h.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal household to JSON: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO households (id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		h.ID, string(data), h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save household %s: %w", h.ID, err)
	}
	return nil
}

// GetOverrides retrieves the overrides for a household's week. weekStart is a
// YYYY-MM-DD Monday.
func (r *Repository) GetOverrides(ctx context.Context, householdID, weekStart string) (*WeeklyOverrides, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM weekly_overrides WHERE household_id = ? AND week_start = ?`,
		householdID, weekStart,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get overrides for %s/%s: %w", householdID, weekStart, err)
	}

	var o WeeklyOverrides
	if err := json.Unmarshal([]byte(data), &o); err != nil {
		return nil, fmt.Errorf("failed to unmarshal overrides JSON: %w", err)
	}
	return &o, nil
}

// SaveOverrides validates and upserts a weekly override.
func (r *Repository) SaveOverrides(ctx context.Context, o *WeeklyOverrides) error {
	if err := o.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal overrides to JSON: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO weekly_overrides (household_id, week_start, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(household_id, week_start) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		o.HouseholdID, o.WeekStart, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save overrides for %s/%s: %w", o.HouseholdID, o.WeekStart, err)
	}
	return nil
}
