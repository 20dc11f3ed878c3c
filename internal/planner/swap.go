package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

// DefaultMaxSwaps is the number of alternatives returned when none is requested.
const DefaultMaxSwaps = 3

// ErrInvalidDay is returned for a day index outside the plan.
var ErrInvalidDay = errors.New("invalid plan day")

// ErrAlreadyPlanned is returned when a swap would cook a recipe that another
// day of the week already uses.
var ErrAlreadyPlanned = errors.New("recipe already planned this week")

// SwapRequest asks for alternatives to one planned recipe.
type SwapRequest struct {
	CurrentID  string
	Weekend    bool
	Max        int
	ExcludeIDs []string // other recipes already in the plan
	// Settings scores suggestions against a household when set.
	Settings *household.Settings
}

// SuggestSwaps returns up to req.Max alternatives to req.CurrentID. Recipes
// from the same chef or site come first, the rest of the catalog after them.
// The current recipe is never suggested.
func SuggestSwaps(ctx context.Context, catalog recipe.Catalog, req SwapRequest) ([]Scored, error) {
	limit := req.Max
	if limit <= 0 {
		limit = DefaultMaxSwaps
	}

	var attribution string
	current, err := catalog.GetByID(ctx, req.CurrentID)
	switch {
	case err == nil:
		attribution = current.Attribution()
	case errors.Is(err, recipe.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to get current recipe %s: %w", req.CurrentID, err)
	}

	q := recipe.Query{ExcludeIDs: append([]string{req.CurrentID}, req.ExcludeIDs...)}
	sc := ScoringContext{Weeknight: !req.Weekend}
	maxTime := household.DefaultWeeknightMaxMins
	if s := req.Settings; s != nil {
		q.Tags = s.RequiredTags
		q.ExcludeTags = s.ExcludedTags
		maxTime = s.WeeknightMaxMins
		sc.MaxTimeMins = s.WeeknightMaxMins
		sc.KidFriendly = s.KidFriendlyWeeknights && !req.Weekend
		sc.Favorites = s.Favorites
		if req.Weekend {
			q.MaxTimeMins = s.WeekendMaxMins
		}
	}
	if !req.Weekend {
		q.MaxTimeMins = maxTime + RelaxMins
	}

	found, err := catalog.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search swap candidates: %w", err)
	}
	if req.Settings != nil {
		found = withoutProteins(found, req.Settings.ExcludedTags)
		sc.ValueThreshold = ValueThreshold(found)
	}

	var same, other []recipe.Recipe
	for _, r := range found {
		if r.ID == req.CurrentID {
			continue
		}
		if attribution != "" && strings.EqualFold(r.Attribution(), attribution) {
			same = append(same, r)
		} else {
			other = append(other, r)
		}
	}

	out := append(rankFor(same, sc, req.Settings != nil), rankFor(other, sc, req.Settings != nil)...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// rankFor scores candidates against a household, or keeps catalog order
// when there is none.
func rankFor(candidates []recipe.Recipe, sc ScoringContext, scored bool) []Scored {
	if scored {
		return Rank(candidates, sc)
	}
	out := make([]Scored, 0, len(candidates))
	for _, r := range candidates {
		out = append(out, Scored{Recipe: r})
	}
	return out
}

// ApplySwap puts r on the given day and on any leftover days that continued
// the replaced recipe, then refreshes the plan totals.
func ApplySwap(plan *PlanWeek, dayIndex int, r recipe.Recipe) error {
	if dayIndex < 0 || dayIndex >= len(plan.Days) {
		return fmt.Errorf("%w: %d", ErrInvalidDay, dayIndex)
	}

	day := &plan.Days[dayIndex]
	replaced := day.RecipeID
	if r.ID == replaced && day.Leftover() {
		return nil
	}
	if r.ID != replaced {
		for j, d := range plan.Days {
			if j != dayIndex && d.RecipeID == r.ID {
				return fmt.Errorf("%w: %s on %s", ErrAlreadyPlanned, r.ID, d.Weekday)
			}
		}
	}
	wasLeftover := day.Leftover()
	setRecipe(day, r, MealActionCook)
	day.Reasons = []string{"swapped"}

	if !wasLeftover && replaced != "" {
		for j := dayIndex + 1; j < len(plan.Days); j++ {
			next := &plan.Days[j]
			if !next.Leftover() || next.RecipeID != replaced {
				break
			}
			setRecipe(next, r, MealActionLeftOvers)
			next.Reasons = []string{"leftovers"}
		}
	}

	plan.Refresh()
	return nil
}

func setRecipe(day *PlanDay, r recipe.Recipe, action MealAction) {
	day.Action = action
	day.RecipeID = r.ID
	day.Title = r.Title
	day.Cost = r.CostPerServe * float64(day.Servings)
	day.Missing = false
	day.Conflicts = nil
}
