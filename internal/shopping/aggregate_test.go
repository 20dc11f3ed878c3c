package shopping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/common-origin/meal-agent-sub001/internal/planner"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

func cook(id string, servings int) planner.PlanDay {
	return planner.PlanDay{Action: planner.MealActionCook, RecipeID: id, Servings: servings}
}

func findItem(t *testing.T, list *List, name string) AggregatedIngredient {
	t.Helper()
	for _, it := range list.Items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("item %q not in list %+v", name, list.Items)
	return AggregatedIngredient{}
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()
	prices, err := LoadPriceTable("")
	require.NoError(t, err)

	catalog := recipe.NewMemoryCatalog(
		recipe.Recipe{ID: "stir-fry", Title: "Chicken Stir Fry", Servings: 4, Ingredients: []recipe.Ingredient{
			recipe.ParseIngredientLine("500g chicken breast"),
			{Name: "Onions, sliced", Qty: 2},
			{Name: "salt", Qty: 1, Unit: "tsp"},
		}},
		recipe.Recipe{ID: "tray-bake", Title: "Chicken Tray Bake", Servings: 4, Ingredients: []recipe.Ingredient{
			recipe.ParseIngredientLine("500g chicken breast"),
			{Name: "onion", Qty: 1},
			{Name: "potatoes", Qty: 0.5, Unit: "kg"},
		}},
		recipe.Recipe{ID: "mash", Title: "Mash", Servings: 2, Ingredients: []recipe.Ingredient{
			{Name: "potato", Qty: 250, Unit: "g"},
			{Name: "butter", Qty: 20, Unit: "g"},
		}},
	)

	t.Run("MergesSameIngredientAcrossRecipes", func(t *testing.T) {
		plan := &planner.PlanWeek{ID: "p1", Days: []planner.PlanDay{cook("stir-fry", 4), cook("tray-bake", 4)}}
		list, err := Aggregate(ctx, catalog, plan, nil, prices)
		require.NoError(t, err)

		chicken := findItem(t, list, "chicken breast")
		assert.Equal(t, 1000.0, chicken.Qty)
		assert.Equal(t, "g", chicken.Unit)
		assert.Equal(t, CategoryMeat, chicken.Category)
		require.Len(t, chicken.Sources, 2)
		assert.Equal(t, "stir-fry", chicken.Sources[0].RecipeID)
		assert.Equal(t, "tray-bake", chicken.Sources[1].RecipeID)
		assert.Equal(t, 13.0, chicken.EstimatedPrice)

		onion := findItem(t, list, "onion")
		assert.Equal(t, 3.0, onion.Qty)
		assert.Equal(t, "each", onion.Unit)
	})

	t.Run("ScalesAndConvertsUnits", func(t *testing.T) {
		plan := &planner.PlanWeek{Days: []planner.PlanDay{cook("tray-bake", 4), cook("mash", 4)}}
		list, err := Aggregate(ctx, catalog, plan, nil, nil)
		require.NoError(t, err)

		potato := findItem(t, list, "potato")
		assert.Equal(t, 1000.0, potato.Qty, "500 g from the tray bake plus 250 g doubled")
		assert.Equal(t, "g", potato.Unit)
		assert.Zero(t, potato.EstimatedPrice, "no price table")
	})

	t.Run("PantryStaplesAreFlaggedAndNotTotalled", func(t *testing.T) {
		plan := &planner.PlanWeek{Days: []planner.PlanDay{cook("stir-fry", 4)}}
		list, err := Aggregate(ctx, catalog, plan, []string{"Salt", "Onions"}, prices)
		require.NoError(t, err)

		assert.True(t, findItem(t, list, "salt").PantryStaple)
		assert.True(t, findItem(t, list, "onion").PantryStaple)
		assert.False(t, findItem(t, list, "chicken breast").PantryStaple)
		assert.Equal(t, 6.5, list.EstimatedTotal)
		assert.Equal(t, "AUD", list.Currency)
	})

	t.Run("LeftoverDaysAddTheirBatch", func(t *testing.T) {
		leftover := cook("mash", 2)
		leftover.Action = planner.MealActionLeftOvers
		plan := &planner.PlanWeek{Days: []planner.PlanDay{cook("mash", 2), leftover}}
		list, err := Aggregate(ctx, catalog, plan, nil, nil)
		require.NoError(t, err)

		butter := findItem(t, list, "butter")
		assert.Equal(t, 40.0, butter.Qty)
		require.Len(t, butter.Sources, 1)
		assert.Equal(t, 40.0, butter.Sources[0].Qty)
	})

	t.Run("MissingRecipesAreReported", func(t *testing.T) {
		plan := &planner.PlanWeek{Days: []planner.PlanDay{cook("gone", 4), cook("mash", 2), cook("gone", 4), {}}}
		list, err := Aggregate(ctx, catalog, plan, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"gone"}, list.Missing)
		assert.Len(t, list.Items, 2)
	})

	t.Run("SortedByCategoryThenName", func(t *testing.T) {
		plan := &planner.PlanWeek{Days: []planner.PlanDay{cook("stir-fry", 4), cook("tray-bake", 4), cook("mash", 4)}}
		list, err := Aggregate(ctx, catalog, plan, nil, prices)
		require.NoError(t, err)

		for i := 1; i < len(list.Items); i++ {
			prev, cur := list.Items[i-1], list.Items[i]
			assert.True(t, prev.Category < cur.Category || (prev.Category == cur.Category && prev.Name <= cur.Name),
				"%s/%s before %s/%s", prev.Category, prev.Name, cur.Category, cur.Name)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		plan := &planner.PlanWeek{Days: []planner.PlanDay{cook("stir-fry", 4), cook("tray-bake", 6), cook("mash", 3)}}
		first, err := Aggregate(ctx, catalog, plan, []string{"salt"}, prices)
		require.NoError(t, err)
		second, err := Aggregate(ctx, catalog, plan, []string{"salt"}, prices)
		require.NoError(t, err)

		assert.ElementsMatch(t, first.Items, second.Items)
		assert.Equal(t, first.EstimatedTotal, second.EstimatedTotal)
	})
}
