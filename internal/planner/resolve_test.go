package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	catalog := recipe.NewMemoryCatalog(rec("r1", 30, 2))
	plan := &PlanWeek{ID: "p1", Days: []PlanDay{
		{RecipeID: "r1", Title: "stale title", Action: MealActionCook, Servings: 4, Cost: 8},
		{RecipeID: "gone", Title: "Vanished Curry", Action: MealActionCook, Servings: 4, Cost: 12},
		{},
	}}

	found, err := Resolve(ctx, catalog, plan, nil)
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "Recipe r1", plan.Days[0].Title)

	missingDay := plan.Days[1]
	assert.True(t, missingDay.Missing)
	assert.Equal(t, "gone", missingDay.RecipeID, "missing recipes keep their id")
	assert.Equal(t, "Vanished Curry", missingDay.Title)
	assert.Equal(t, []string{MissingNote("gone")}, plan.Conflicts)
	assert.Equal(t, 20.0, plan.TotalCost)

	t.Run("Idempotent", func(t *testing.T) {
		_, err := Resolve(ctx, catalog, plan, nil)
		require.NoError(t, err)
		assert.Len(t, plan.Days[1].Conflicts, 1)
	})

	t.Run("RecoversWhenRecipeReturns", func(t *testing.T) {
		catalog.Put(rec("gone", 30, 3))
		_, err := Resolve(ctx, catalog, plan, nil)
		require.NoError(t, err)
		assert.False(t, plan.Days[1].Missing)
		assert.Empty(t, plan.Conflicts)
	})

	t.Run("CatalogErrorIsReturned", func(t *testing.T) {
		_, err := Resolve(ctx, failingCatalog{}, plan, nil)
		assert.Error(t, err)
	})
}
