package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrNoPlan is returned when a household has no stored plan.
var ErrNoPlan = errors.New("no meal plan found")

// PlanRepository is a database-backed repository for meal plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save inserts or replaces a meal plan.
func (r *PlanRepository) Save(ctx context.Context, plan *PlanWeek) error {
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	planData, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal meal plan: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (id, household_id, week_start, plan_data, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET plan_data = excluded.plan_data`,
		plan.ID, plan.HouseholdID, plan.WeekStart, string(planData), plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save meal plan %s: %w", plan.ID, err)
	}
	return nil
}

// GetByID retrieves a meal plan by id.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*PlanWeek, error) {
	return r.one(ctx, `SELECT plan_data FROM meal_plans WHERE id = ?`, id)
}

// GetCurrent retrieves the most recently created plan of a household.
func (r *PlanRepository) GetCurrent(ctx context.Context, householdID string) (*PlanWeek, error) {
	return r.one(ctx,
		`SELECT plan_data FROM meal_plans WHERE household_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		householdID)
}

// GetForWeek retrieves the latest plan of a household for a week start.
func (r *PlanRepository) GetForWeek(ctx context.Context, householdID, weekStart string) (*PlanWeek, error) {
	return r.one(ctx,
		`SELECT plan_data FROM meal_plans WHERE household_id = ? AND week_start = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		householdID, weekStart)
}

// ListRecent retrieves the N most recent meal plans of a household.
func (r *PlanRepository) ListRecent(ctx context.Context, householdID string, limit int) ([]PlanWeek, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT plan_data FROM meal_plans WHERE household_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		householdID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for household %s: %w", householdID, err)
	}
	defer rows.Close()

	var plans []PlanWeek
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan row: %w", err)
		}
		var p PlanWeek
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meal plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *PlanRepository) one(ctx context.Context, query string, args ...any) (*PlanWeek, error) {
	var data string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoPlan
		}
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}
	var p PlanWeek
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal plan: %w", err)
	}
	return &p, nil
}

// RecentRecipeIDs collects the recipes cooked in the given plans.
func RecentRecipeIDs(plans []PlanWeek) []string {
	var ids []string
	for i := range plans {
		for _, id := range plans[i].RecipeIDs() {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)
	return ids
}
