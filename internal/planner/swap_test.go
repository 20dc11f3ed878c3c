package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

func swapCatalog() *recipe.MemoryCatalog {
	byChef := func(id, chef string) recipe.Recipe {
		r := rec(id, 30, 3)
		r.Source = recipe.Source{Chef: chef}
		return r
	}
	byDomain := func(id, domain string) recipe.Recipe {
		r := rec(id, 30, 3)
		r.Source = recipe.Source{Domain: domain}
		return r
	}
	return recipe.NewMemoryCatalog(
		byChef("cur", "Nagi"),
		byChef("n1", "Nagi"),
		byChef("n2", "nagi"),
		byDomain("d1", "example.com"),
		byDomain("d2", "example.com"),
		byDomain("d3", "other.com"),
		rec("long", 90, 3),
	)
}

func swapIDs(scored []Scored) []string {
	var ids []string
	for _, s := range scored {
		ids = append(ids, s.Recipe.ID)
	}
	return ids
}

func TestSuggestSwaps(t *testing.T) {
	ctx := context.Background()
	catalog := swapCatalog()

	t.Run("SameSourceFirst", func(t *testing.T) {
		got, err := SuggestSwaps(ctx, catalog, SwapRequest{CurrentID: "cur"})
		require.NoError(t, err)
		assert.Equal(t, []string{"n1", "n2", "d1"}, swapIDs(got))
	})

	t.Run("RespectsMaxAndExclusions", func(t *testing.T) {
		got, err := SuggestSwaps(ctx, catalog, SwapRequest{CurrentID: "cur", Max: 2, ExcludeIDs: []string{"n1"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"n2", "d1"}, swapIDs(got))
	})

	t.Run("NeverIncludesCurrent", func(t *testing.T) {
		got, err := SuggestSwaps(ctx, catalog, SwapRequest{CurrentID: "cur", Weekend: true, Max: 10})
		require.NoError(t, err)
		assert.NotContains(t, swapIDs(got), "cur")
		assert.Contains(t, swapIDs(got), "long", "weekend has no time cap")
		assert.Len(t, got, 6)
	})

	t.Run("WeeknightExcludesLongRecipes", func(t *testing.T) {
		got, err := SuggestSwaps(ctx, catalog, SwapRequest{CurrentID: "cur", Max: 10})
		require.NoError(t, err)
		assert.NotContains(t, swapIDs(got), "long")
	})

	t.Run("ScoredWithinGroups", func(t *testing.T) {
		s := settings(5)
		s.Favorites = []string{"d3", "n2"}
		got, err := SuggestSwaps(ctx, catalog, SwapRequest{CurrentID: "cur", Max: 4, Settings: &s})
		require.NoError(t, err)
		assert.Equal(t, []string{"n2", "n1", "d3", "d1"}, swapIDs(got))
		assert.Contains(t, got[0].Reasons, "favorite")
	})

	t.Run("UnknownCurrentFallsBackToCatalog", func(t *testing.T) {
		got, err := SuggestSwaps(ctx, catalog, SwapRequest{CurrentID: "gone", Max: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"cur", "d1"}, swapIDs(got))
	})
}

func TestApplySwap(t *testing.T) {
	bulk := rec("bulk", 30, 5, recipe.TagBulkCook)
	other := rec("other", 30, 2)
	newPlan := func() *PlanWeek {
		p := &PlanWeek{Days: []PlanDay{
			{Servings: 4, Action: MealActionCook, RecipeID: "bulk", Cost: 20},
			{Servings: 4, Action: MealActionLeftOvers, RecipeID: "bulk", Cost: 20},
			{Servings: 4, Action: MealActionCook, RecipeID: "other", Cost: 8},
		}}
		p.Refresh()
		return p
	}

	t.Run("ReplacesLeftoverContinuation", func(t *testing.T) {
		plan := newPlan()
		replacement := rec("stew", 30, 3)
		require.NoError(t, ApplySwap(plan, 0, replacement))

		assert.Equal(t, "stew", plan.Days[0].RecipeID)
		assert.Equal(t, MealActionCook, plan.Days[0].Action)
		assert.Equal(t, "stew", plan.Days[1].RecipeID)
		assert.True(t, plan.Days[1].Leftover())
		assert.Equal(t, "other", plan.Days[2].RecipeID)
		assert.Equal(t, 32.0, plan.TotalCost)
	})

	t.Run("SwappingLeftoverDayCooksInstead", func(t *testing.T) {
		plan := newPlan()
		require.NoError(t, ApplySwap(plan, 1, rec("stew", 30, 3)))
		assert.Equal(t, bulk.ID, plan.Days[0].RecipeID)
		assert.Equal(t, MealActionCook, plan.Days[1].Action)
		assert.Equal(t, 40.0, plan.TotalCost)
	})

	t.Run("RejectsRecipeCookedOnAnotherDay", func(t *testing.T) {
		plan := newPlan()
		assert.ErrorIs(t, ApplySwap(plan, 0, other), ErrAlreadyPlanned)
		assert.ErrorIs(t, ApplySwap(plan, 1, other), ErrAlreadyPlanned)
		assert.Equal(t, "bulk", plan.Days[0].RecipeID)
		assert.Equal(t, "bulk", plan.Days[1].RecipeID)
	})

	t.Run("LeftoverDayKeepsItsBatch", func(t *testing.T) {
		plan := newPlan()
		require.NoError(t, ApplySwap(plan, 1, bulk))
		assert.Equal(t, "bulk", plan.Days[1].RecipeID)
		assert.True(t, plan.Days[1].Leftover())
	})

	t.Run("ClearsMissingFlag", func(t *testing.T) {
		plan := newPlan()
		plan.Days[2].Missing = true
		plan.Days[2].Conflicts = []string{MissingNote("other")}
		plan.Refresh()
		require.Len(t, plan.Conflicts, 1)

		require.NoError(t, ApplySwap(plan, 2, rec("fresh", 20, 1)))
		assert.False(t, plan.Days[2].Missing)
		assert.Empty(t, plan.Conflicts)
	})

	t.Run("InvalidDay", func(t *testing.T) {
		assert.ErrorIs(t, ApplySwap(newPlan(), 3, other), ErrInvalidDay)
		assert.ErrorIs(t, ApplySwap(newPlan(), -1, other), ErrInvalidDay)
	})
}
