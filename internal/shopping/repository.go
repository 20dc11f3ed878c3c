package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no shopping list is stored for a plan.
var ErrNotFound = errors.New("shopping list not found")

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save stores the shopping list of a meal plan, replacing an earlier one.
func (r *Repository) Save(ctx context.Context, list *List) error {
	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC()
	}
	listJSON, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal shopping list: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (meal_plan_id, household_id, items, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(meal_plan_id) DO UPDATE SET items = excluded.items, created_at = excluded.created_at`,
		list.MealPlanID, list.HouseholdID, string(listJSON), list.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert shopping list: %w", err)
	}
	return nil
}

// GetByPlanID retrieves the shopping list of a meal plan.
func (r *Repository) GetByPlanID(ctx context.Context, mealPlanID string) (*List, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT items FROM shopping_lists WHERE meal_plan_id = ?`, mealPlanID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shopping list by meal plan ID: %w", err)
	}

	var list List
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list: %w", err)
	}
	return &list, nil
}

// DeleteByPlanID deletes the shopping list of a meal plan.
func (r *Repository) DeleteByPlanID(ctx context.Context, mealPlanID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE meal_plan_id = ?`, mealPlanID); err != nil {
		return fmt.Errorf("failed to delete shopping list: %w", err)
	}
	return nil
}
