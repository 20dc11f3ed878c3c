package planner

import (
	"time"

	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

var monday = time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

func rec(id string, mins int, cps float64, tags ...string) recipe.Recipe {
	return recipe.Recipe{
		ID:           id,
		Title:        "Recipe " + id,
		TimeMins:     mins,
		Servings:     4,
		CostPerServe: cps,
		Tags:         tags,
		Ingredients:  []recipe.Ingredient{{Name: id + " base", Qty: 1}},
	}
}

func settings(dinners int) household.Settings {
	return household.Resolve(household.Household{ID: "h1", Servings: 4, DinnerCount: dinners}, nil)
}
