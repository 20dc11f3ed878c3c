package planner

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

// MissingNote is the conflict recorded on a day whose recipe is gone.
func MissingNote(recipeID string) string {
	return fmt.Sprintf("recipe %s is no longer in the catalog", recipeID)
}

// Resolve checks every planned recipe against the catalog and returns the
// ones found, keyed by id. Days whose recipe is gone keep their id and are
// flagged Missing with a conflict note rather than dropped.
func Resolve(ctx context.Context, catalog recipe.Catalog, plan *PlanWeek, logger *zap.Logger) (map[string]recipe.Recipe, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	found := make(map[string]recipe.Recipe)
	missing := make(map[string]bool)
	for _, id := range plan.RecipeIDs() {
		r, err := catalog.GetByID(ctx, id)
		if errors.Is(err, recipe.ErrNotFound) {
			missing[id] = true
			logger.Warn("planned recipe missing from catalog",
				zap.String("plan_id", plan.ID), zap.String("recipe_id", id))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve recipe %s: %w", id, err)
		}
		found[id] = *r
	}

	for i := range plan.Days {
		day := &plan.Days[i]
		if day.RecipeID == "" {
			continue
		}
		note := MissingNote(day.RecipeID)
		if missing[day.RecipeID] {
			day.Missing = true
			if !slices.Contains(day.Conflicts, note) {
				day.Conflicts = append(day.Conflicts, note)
			}
			continue
		}
		day.Missing = false
		day.Conflicts = slices.DeleteFunc(day.Conflicts, func(c string) bool { return c == note })
		day.Title = found[day.RecipeID].Title
	}
	plan.Refresh()
	return found, nil
}
