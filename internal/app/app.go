package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/common-origin/meal-agent-sub001/internal/assistant"
	"github.com/common-origin/meal-agent-sub001/internal/clipper"
	"github.com/common-origin/meal-agent-sub001/internal/ghost"
	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/metrics"
	"github.com/common-origin/meal-agent-sub001/internal/planner"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
	"github.com/common-origin/meal-agent-sub001/internal/shopping"
	"github.com/common-origin/meal-agent-sub001/internal/storage"
)

// recentPlans is how many earlier plans feed the recently-cooked penalty.
const recentPlans = 2

// Deps are the collaborators of an App. GhostClient, RecipeStore, Clipper
// and Prices may be nil; the operations needing them then fail or skip.
type Deps struct {
	Recipes     *recipe.Repository
	Households  *household.Repository
	Plans       *planner.PlanRepository
	Lists       *shopping.Repository
	Usage       *metrics.Store
	Collectors  *metrics.Collectors
	Assistant   *assistant.Assistant
	Clipper     *clipper.Clipper
	GhostClient ghost.Client
	RecipeStore *storage.RecipeStore
	Prices      *shopping.PriceTable
	Logger      *zap.Logger
}

// App holds the application's dependencies and implements the use cases
// shared by the HTTP API, the CLI and the Telegram bot.
type App struct {
	recipes     *recipe.Repository
	households  *household.Repository
	plans       *planner.PlanRepository
	lists       *shopping.Repository
	usage       *metrics.Store
	collectors  *metrics.Collectors
	assistant   *assistant.Assistant
	clipper     *clipper.Clipper
	ghostClient ghost.Client
	recipeStore *storage.RecipeStore
	prices      *shopping.PriceTable
	logger      *zap.Logger

	ingestDelay time.Duration
}

// NewApp creates and initializes a new App instance.
func NewApp(d Deps) *App {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	collectors := d.Collectors
	if collectors == nil {
		collectors = metrics.NewCollectors()
	}
	return &App{
		recipes:     d.Recipes,
		households:  d.Households,
		plans:       d.Plans,
		lists:       d.Lists,
		usage:       d.Usage,
		collectors:  collectors,
		assistant:   d.Assistant,
		clipper:     d.Clipper,
		ghostClient: d.GhostClient,
		recipeStore: d.RecipeStore,
		prices:      d.Prices,
		logger:      logger,
		// Stay under the Gemini free tier limit of 15 requests per minute.
		ingestDelay: 5 * time.Second,
	}
}

// Assistant returns the AI proxy used by the app.
func (a *App) Assistant() *assistant.Assistant { return a.assistant }

// Collectors returns the prometheus collectors.
func (a *App) Collectors() *metrics.Collectors { return a.collectors }

// Household returns the stored household, or a default profile when none
// has been saved yet.
func (a *App) Household(ctx context.Context, id string) (*household.Household, error) {
	h, err := a.households.Get(ctx, id)
	if errors.Is(err, household.ErrNotFound) {
		return &household.Household{ID: id}, nil
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// SaveHousehold validates and stores a household.
func (a *App) SaveHousehold(ctx context.Context, h *household.Household) error {
	return a.households.Save(ctx, h)
}

// SaveOverrides validates and stores one week's overrides.
func (a *App) SaveOverrides(ctx context.Context, o *household.WeeklyOverrides) error {
	return a.households.SaveOverrides(ctx, o)
}

// Settings resolves the effective settings of a household for the week
// starting on weekStart (YYYY-MM-DD).
func (a *App) Settings(ctx context.Context, householdID, weekStart string) (household.Settings, error) {
	h, err := a.Household(ctx, householdID)
	if err != nil {
		return household.Settings{}, err
	}
	o, err := a.households.GetOverrides(ctx, householdID, weekStart)
	if err != nil && !errors.Is(err, household.ErrNotFound) {
		return household.Settings{}, err
	}
	return household.Resolve(*h, o), nil
}

// GeneratePlan composes and stores the plan for the week containing day.
func (a *App) GeneratePlan(ctx context.Context, householdID string, day time.Time) (*planner.PlanWeek, error) {
	weekStart := household.FormatWeek(household.WeekStart(day))
	settings, err := a.Settings(ctx, householdID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load household settings: %w", err)
	}

	recent, err := a.plans.ListRecent(ctx, householdID, recentPlans)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent plans: %w", err)
	}

	catalog, err := a.recipes.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe catalog: %w", err)
	}

	plan, err := planner.NewComposer(catalog, a.logger).ComposeWeek(ctx, planner.ComposeRequest{
		HouseholdID:     householdID,
		WeekStart:       day,
		Settings:        settings,
		RecentRecipeIDs: planner.RecentRecipeIDs(recent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compose plan: %w", err)
	}

	if err := a.plans.Save(ctx, plan); err != nil {
		return nil, err
	}

	a.collectors.PlansComposed.Inc()
	a.collectors.PlanConflicts.Add(float64(len(plan.Conflicts)))
	a.logger.Info("plan generated",
		zap.String("household_id", householdID),
		zap.String("plan_id", plan.ID),
		zap.String("week_start", plan.WeekStart),
		zap.Int("conflicts", len(plan.Conflicts)),
		zap.Float64("total_cost", plan.TotalCost))
	return plan, nil
}

// CurrentPlan returns the latest plan with every recipe resolved against the
// catalog. Recipes that disappeared are flagged on their day, not dropped.
func (a *App) CurrentPlan(ctx context.Context, householdID string) (*planner.PlanWeek, map[string]recipe.Recipe, error) {
	plan, err := a.plans.GetCurrent(ctx, householdID)
	if err != nil {
		return nil, nil, err
	}

	before := len(plan.Conflicts)
	found, err := planner.Resolve(ctx, a.recipes, plan, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve plan recipes: %w", err)
	}
	if added := len(plan.Conflicts) - before; added > 0 {
		a.collectors.MissingRecipes.Add(float64(added))
	}
	if err := a.plans.Save(ctx, plan); err != nil {
		return nil, nil, err
	}
	return plan, found, nil
}

// PlanForWeek returns the latest plan composed for the week starting on
// weekStart (YYYY-MM-DD).
func (a *App) PlanForWeek(ctx context.Context, householdID, weekStart string) (*planner.PlanWeek, error) {
	return a.plans.GetForWeek(ctx, householdID, weekStart)
}

// SuggestSwaps returns alternatives for one day of the current plan.
func (a *App) SuggestSwaps(ctx context.Context, householdID string, dayIndex, limit int) ([]planner.Scored, error) {
	plan, err := a.plans.GetCurrent(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if dayIndex < 0 || dayIndex >= len(plan.Days) {
		return nil, fmt.Errorf("%w: %d", planner.ErrInvalidDay, dayIndex)
	}

	settings, err := a.Settings(ctx, householdID, plan.WeekStart)
	if err != nil {
		return nil, err
	}

	day := plan.Days[dayIndex]
	return planner.SuggestSwaps(ctx, a.recipes, planner.SwapRequest{
		CurrentID:  day.RecipeID,
		Weekend:    day.Weekend,
		Max:        limit,
		ExcludeIDs: plan.RecipeIDs(),
		Settings:   &settings,
	})
}

// SwapMeal replaces one day of the current plan with recipeID. The stored
// shopping list for the plan is dropped since it no longer matches.
func (a *App) SwapMeal(ctx context.Context, householdID string, dayIndex int, recipeID string) (*planner.PlanWeek, error) {
	plan, err := a.plans.GetCurrent(ctx, householdID)
	if err != nil {
		return nil, err
	}
	rec, err := a.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := planner.ApplySwap(plan, dayIndex, *rec); err != nil {
		return nil, err
	}
	if err := a.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	if err := a.lists.DeleteByPlanID(ctx, plan.ID); err != nil {
		a.logger.Warn("failed to drop stale shopping list", zap.String("plan_id", plan.ID), zap.Error(err))
	}
	a.logger.Info("meal swapped",
		zap.String("plan_id", plan.ID), zap.Int("day", dayIndex), zap.String("recipe_id", recipeID))
	return plan, nil
}

// ShoppingList aggregates and stores the list for the current plan.
func (a *App) ShoppingList(ctx context.Context, householdID string) (*shopping.List, error) {
	plan, err := a.plans.GetCurrent(ctx, householdID)
	if err != nil {
		return nil, err
	}
	settings, err := a.Settings(ctx, householdID, plan.WeekStart)
	if err != nil {
		return nil, err
	}

	list, err := shopping.Aggregate(ctx, a.recipes, plan, settings.Pantry, a.prices)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}
	if len(list.Missing) > 0 {
		a.logger.Warn("shopping list skipped missing recipes",
			zap.String("plan_id", plan.ID), zap.Strings("recipe_ids", list.Missing))
	}
	if err := a.lists.Save(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// SearchRecipes filters the catalog.
func (a *App) SearchRecipes(ctx context.Context, q recipe.Query) ([]recipe.Recipe, error) {
	return a.recipes.Search(ctx, q)
}

// Recipe returns one catalog recipe.
func (a *App) Recipe(ctx context.Context, id string) (*recipe.Recipe, error) {
	return a.recipes.GetByID(ctx, id)
}

// DeleteRecipe removes a recipe from the catalog. Plans still pointing at it
// flag that day as missing on their next read.
func (a *App) DeleteRecipe(ctx context.Context, id string) error {
	if _, err := a.recipes.GetByID(ctx, id); err != nil {
		return err
	}
	if err := a.recipes.Delete(ctx, id); err != nil {
		return err
	}
	a.logger.Info("recipe deleted", zap.String("recipe_id", id))
	a.refreshCatalogSize(ctx)
	return nil
}

func (a *App) refreshCatalogSize(ctx context.Context) {
	n, err := a.recipes.Count(ctx)
	if err != nil {
		a.logger.Warn("failed to count catalog recipes", zap.Error(err))
		return
	}
	a.collectors.CatalogSize.Set(float64(n))
}

// UsageReport returns token usage per day, newest first.
func (a *App) UsageReport(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.usage.GetDailyUsage(ctx, days)
}

// CleanupMetrics deletes execution metrics older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	return a.usage.Cleanup(ctx, days)
}
