package shopping

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/planner"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

// Aggregate builds the shopping list of a plan: ingredient quantities are
// scaled to the plan's servings, then summed per normalised name and unit.
// Leftover days add their batch too. Recipes that no longer resolve are
// reported in List.Missing instead of failing the list. prices may be nil.
func Aggregate(ctx context.Context, catalog recipe.Catalog, plan *planner.PlanWeek, pantry []string, prices *PriceTable) (*List, error) {
	list := &List{
		MealPlanID:  plan.ID,
		HouseholdID: plan.HouseholdID,
		WeekStart:   plan.WeekStart,
		CreatedAt:   time.Now().UTC(),
	}
	if prices != nil {
		list.Currency = prices.Currency
	}
	var staples household.Settings
	for _, p := range pantry {
		if name := NormalizeName(p); name != "" {
			staples.Pantry = append(staples.Pantry, name)
		}
	}

	resolved := map[string]*recipe.Recipe{}
	lines := map[string]*AggregatedIngredient{}

	for _, day := range plan.Days {
		if day.Empty() {
			continue
		}
		r, ok := resolved[day.RecipeID]
		if !ok {
			found, err := catalog.GetByID(ctx, day.RecipeID)
			switch {
			case errors.Is(err, recipe.ErrNotFound):
				if !slices.Contains(list.Missing, day.RecipeID) {
					list.Missing = append(list.Missing, day.RecipeID)
				}
			case err != nil:
				return nil, fmt.Errorf("failed to get recipe %s: %w", day.RecipeID, err)
			}
			resolved[day.RecipeID] = found
			r = found
		}
		if r == nil {
			continue
		}

		scale := 1.0
		if r.Servings > 0 && day.Servings > 0 {
			scale = float64(day.Servings) / float64(r.Servings)
		}
		for _, ing := range r.Ingredients {
			name := NormalizeName(ing.Name)
			if name == "" {
				continue
			}
			qty, unit := canonicalUnit(ing.Qty*scale, recipe.NormalizeUnit(ing.Unit))
			key := name + "|" + unit

			line, ok := lines[key]
			if !ok {
				line = &AggregatedIngredient{
					Name:         name,
					Unit:         unit,
					Category:     Categorize(name),
					PantryStaple: staples.IsPantryStaple(name),
				}
				lines[key] = line
			}
			line.Qty += qty
			addContribution(line, r, qty, unit)
		}
	}

	var total float64
	for _, line := range lines {
		line.Qty = round2(line.Qty)
		for i := range line.Sources {
			line.Sources[i].Qty = round2(line.Sources[i].Qty)
		}
		sort.Slice(line.Sources, func(i, j int) bool { return line.Sources[i].RecipeID < line.Sources[j].RecipeID })
		if price, ok := prices.Estimate(line.Name, line.Qty, line.Unit); ok {
			line.EstimatedPrice = price
			if !line.PantryStaple {
				total += price
			}
		}
		list.Items = append(list.Items, *line)
	}
	list.EstimatedTotal = round2(total)
	slices.Sort(list.Missing)

	sort.Slice(list.Items, func(i, j int) bool {
		a, b := list.Items[i], list.Items[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Unit < b.Unit
	})
	return list, nil
}

func addContribution(line *AggregatedIngredient, r *recipe.Recipe, qty float64, unit string) {
	for i := range line.Sources {
		if line.Sources[i].RecipeID == r.ID {
			line.Sources[i].Qty += qty
			return
		}
	}
	line.Sources = append(line.Sources, Contribution{RecipeID: r.ID, Title: r.Title, Qty: qty, Unit: unit})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
