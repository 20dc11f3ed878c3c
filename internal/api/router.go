package api

import (
	"context"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/common-origin/meal-agent-sub001/internal/assistant"
	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/metrics"
	"github.com/common-origin/meal-agent-sub001/internal/planner"
	"github.com/common-origin/meal-agent-sub001/internal/ratelimit"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
	"github.com/common-origin/meal-agent-sub001/internal/shopping"
)

// HouseholdHeader selects the household a request acts on.
const HouseholdHeader = "X-Household-ID"

// Service is the application surface served over HTTP.
type Service interface {
	Household(ctx context.Context, id string) (*household.Household, error)
	SaveHousehold(ctx context.Context, h *household.Household) error
	SaveOverrides(ctx context.Context, o *household.WeeklyOverrides) error

	GeneratePlan(ctx context.Context, householdID string, day time.Time) (*planner.PlanWeek, error)
	CurrentPlan(ctx context.Context, householdID string) (*planner.PlanWeek, map[string]recipe.Recipe, error)
	PlanForWeek(ctx context.Context, householdID, weekStart string) (*planner.PlanWeek, error)
	SuggestSwaps(ctx context.Context, householdID string, dayIndex, limit int) ([]planner.Scored, error)
	SwapMeal(ctx context.Context, householdID string, dayIndex int, recipeID string) (*planner.PlanWeek, error)
	ShoppingList(ctx context.Context, householdID string) (*shopping.List, error)

	SearchRecipes(ctx context.Context, q recipe.Query) ([]recipe.Recipe, error)
	Recipe(ctx context.Context, id string) (*recipe.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error

	GenerateRecipes(ctx context.Context, req assistant.GenerateRequest) (*assistant.GenerateResult, error)
	ScanPantryImage(ctx context.Context, image []byte, mimeType string) ([]string, error)
	ExtractRecipeFromImage(ctx context.Context, image []byte, mimeType string) (*recipe.Recipe, error)
	ExtractRecipeFromURL(ctx context.Context, rawURL string) (*recipe.Recipe, error)
}

// Options configures the router.
type Options struct {
	DefaultHouseholdID string
	// DataPath is reported on /healthz.
	DataPath string
	Limiter  *ratelimit.Limiter
	// TrustedProxies may set the client address through forwarding
	// headers. Everyone else is keyed by the socket peer address.
	TrustedProxies []netip.Prefix
	Collectors     *metrics.Collectors
	Logger         *zap.Logger
	Now            func() time.Time
}

type server struct {
	svc                Service
	defaultHouseholdID string
	dataPath           string
	logger             *zap.Logger
	now                func() time.Time
}

// NewRouter builds the HTTP handler.
func NewRouter(svc Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	collectors := opts.Collectors
	if collectors == nil {
		collectors = metrics.NewCollectors()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &server{
		svc:                svc,
		defaultHouseholdID: opts.DefaultHouseholdID,
		dataPath:           opts.DataPath,
		logger:             logger,
		now:                now,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(realIP(opts.TrustedProxies))
	r.Use(requestLogger(logger, collectors))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", collectors.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.Limiter != nil {
				r.Use(rateLimit(opts.Limiter, collectors, logger))
			}
			r.Post("/generate-recipes", s.handleGenerateRecipes)
			r.Post("/scan-pantry-image", s.handleScanPantryImage)
			r.Post("/extract-recipe-from-image", s.handleExtractRecipeFromImage)
			r.Post("/extract-recipe-from-url", s.handleExtractRecipeFromURL)
		})

		r.Post("/plans", s.handleGeneratePlan)
		r.Get("/plans/current", s.handleCurrentPlan)
		r.Get("/plans/{weekStart}", s.handlePlanForWeek)
		r.Get("/plans/current/days/{day}/swaps", s.handleSuggestSwaps)
		r.Put("/plans/current/days/{day}", s.handleSwapMeal)
		r.Get("/shopping-list", s.handleShoppingList)

		r.Get("/household", s.handleGetHousehold)
		r.Put("/household", s.handlePutHousehold)
		r.Put("/household/overrides", s.handlePutOverrides)

		r.Get("/recipes", s.handleSearchRecipes)
		r.Get("/recipes/{id}", s.handleGetRecipe)
		r.Delete("/recipes/{id}", s.handleDeleteRecipe)
	})

	return r
}

func (s *server) householdID(r *http.Request) string {
	if id := r.Header.Get(HouseholdHeader); id != "" {
		return id
	}
	return s.defaultHouseholdID
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]any{
		"status": "ok",
		"system": metrics.GetSysHealth(s.dataPath),
	})
}
