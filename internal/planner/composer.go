package planner

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

const (
	// RelaxMins is added to the weeknight cap when searching for candidates.
	RelaxMins = 5
	// MinKidFriendlyCandidates is how many kid-friendly options a weeknight
	// needs before non-kid-friendly ones are dropped.
	MinKidFriendlyCandidates = 3
)

// ComposeRequest describes the week to plan.
type ComposeRequest struct {
	HouseholdID     string
	WeekStart       time.Time // any day of the target week
	Settings        household.Settings
	RecentRecipeIDs []string
}

// Composer builds a week of dinners from a recipe catalog.
type Composer struct {
	catalog recipe.Catalog
	weights Weights
	logger  *zap.Logger
	now     func() time.Time
}

// NewComposer creates a new Composer.
func NewComposer(catalog recipe.Catalog, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		catalog: catalog,
		weights: DefaultWeights,
		logger:  logger,
		now:     time.Now,
	}
}

// WithWeights returns a copy of the composer scoring with w.
func (c *Composer) WithWeights(w Weights) *Composer {
	cp := *c
	cp.weights = w
	return &cp
}

type trackers struct {
	used        map[string]bool
	proteins    map[string]int
	ingredients map[string]int
}

func newTrackers() *trackers {
	return &trackers{
		used:        map[string]bool{},
		proteins:    map[string]int{},
		ingredients: map[string]int{},
	}
}

func (t *trackers) add(r recipe.Recipe) {
	t.used[r.ID] = true
	if p := r.Protein(); p != recipe.ProteinOther {
		t.proteins[p]++
	}
	for _, ing := range r.Ingredients {
		t.ingredients[ingredientKey(ing.Name)]++
	}
}

func (t *trackers) usedIDs() []string {
	ids := make([]string, 0, len(t.used))
	for id := range t.used {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ComposeWeek plans req.Settings.DinnerCount dinners starting on the Monday of
// req.WeekStart. Slots without a candidate are left empty with a conflict
// note. The result only depends on the request and the catalog contents.
func (c *Composer) ComposeWeek(ctx context.Context, req ComposeRequest) (*PlanWeek, error) {
	s := req.Settings
	start := household.WeekStart(req.WeekStart)
	plan := &PlanWeek{
		ID:          uuid.NewString(),
		HouseholdID: req.HouseholdID,
		WeekStart:   household.FormatWeek(start),
		Servings:    s.Servings,
		CreatedAt:   c.now().UTC(),
	}

	tr := newTrackers()
	var batch *recipe.Recipe
	leftoversLeft := 0

	for i := 0; i < s.DinnerCount; i++ {
		date := start.AddDate(0, 0, i)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday
		day := PlanDay{
			Date:     household.FormatWeek(date),
			Weekday:  date.Weekday().String(),
			Weekend:  weekend,
			Servings: s.Servings,
		}

		if batch != nil && leftoversLeft > 0 {
			day.Action = MealActionLeftOvers
			day.RecipeID = batch.ID
			day.Title = batch.Title
			day.Cost = batch.CostPerServe * float64(day.Servings)
			day.Reasons = []string{"leftovers"}
			plan.Days = append(plan.Days, day)
			leftoversLeft--
			continue
		}
		batch = nil

		candidates, err := c.candidates(ctx, s, weekend, tr)
		if err != nil {
			return nil, fmt.Errorf("failed to find candidates for %s: %w", day.Weekday, err)
		}
		if len(candidates) == 0 {
			note := fmt.Sprintf("no recipe available for %s %s", day.Weekday, day.Date)
			c.logger.Warn("no candidate for day slot",
				zap.String("household_id", req.HouseholdID), zap.String("date", day.Date))
			day.Conflicts = []string{note}
			plan.Days = append(plan.Days, day)
			continue
		}

		ranked := Rank(candidates, ScoringContext{
			Weeknight:        !weekend,
			MaxTimeMins:      s.WeeknightMaxMins,
			KidFriendly:      s.KidFriendlyWeeknights && !weekend,
			Favorites:        s.Favorites,
			Recent:           req.RecentRecipeIDs,
			ProteinCounts:    tr.proteins,
			IngredientCounts: tr.ingredients,
			ValueThreshold:   ValueThreshold(candidates),
			BulkCookSlot:     i+1 < s.DinnerCount,
			Weights:          &c.weights,
		})
		pick := ranked[0]

		day.Action = MealActionCook
		day.RecipeID = pick.Recipe.ID
		day.Title = pick.Recipe.Title
		day.Cost = pick.Recipe.CostPerServe * float64(day.Servings)
		day.Reasons = pick.Reasons
		plan.Days = append(plan.Days, day)
		tr.add(pick.Recipe)

		if pick.Recipe.BulkCook() && s.LeftoverDays > 0 && i+1 < s.DinnerCount {
			r := pick.Recipe
			batch = &r
			leftoversLeft = s.LeftoverDays
		}
	}

	plan.Refresh()
	c.logger.Info("composed meal plan",
		zap.String("household_id", req.HouseholdID),
		zap.String("week_start", plan.WeekStart),
		zap.Int("days", len(plan.Days)),
		zap.Int("conflicts", len(plan.Conflicts)),
		zap.Float64("total_cost", plan.TotalCost))
	return plan, nil
}

func (c *Composer) candidates(ctx context.Context, s household.Settings, weekend bool, tr *trackers) ([]recipe.Recipe, error) {
	q := recipe.Query{
		Tags:        s.RequiredTags,
		ExcludeTags: s.ExcludedTags,
		ExcludeIDs:  tr.usedIDs(),
	}
	if weekend {
		q.MaxTimeMins = s.WeekendMaxMins
	} else {
		q.MaxTimeMins = s.WeeknightMaxMins + RelaxMins
	}

	found, err := c.catalog.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	candidates := withoutProteins(found, s.ExcludedTags)

	if !weekend && s.KidFriendlyWeeknights {
		var kid []recipe.Recipe
		for _, r := range candidates {
			if r.KidFriendly() {
				kid = append(kid, r)
			}
		}
		if len(kid) >= MinKidFriendlyCandidates {
			candidates = kid
		}
	}
	return candidates, nil
}

// withoutProteins drops recipes whose inferred protein is excluded, covering
// recipes that are not tagged with their protein.
func withoutProteins(recipes []recipe.Recipe, excluded []string) []recipe.Recipe {
	if len(excluded) == 0 {
		return recipes
	}
	out := make([]recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if !slices.Contains(excluded, r.Protein()) {
			out = append(out, r)
		}
	}
	return out
}
