package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/common-origin/meal-agent-sub001/internal/assistant"
	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *server) handleGenerateRecipes(w http.ResponseWriter, r *http.Request) {
	var req assistant.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.GenerateRecipes(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, res.Recipes)
}

func (s *server) handleScanPantryImage(w http.ResponseWriter, r *http.Request) {
	image, mimeType, ok := readImage(w, r)
	if !ok {
		return
	}
	names, err := s.svc.ScanPantryImage(r.Context(), image, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, names)
}

func (s *server) handleExtractRecipeFromImage(w http.ResponseWriter, r *http.Request) {
	image, mimeType, ok := readImage(w, r)
	if !ok {
		return
	}
	rec, err := s.svc.ExtractRecipeFromImage(r.Context(), image, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, rec)
}

type extractURLRequest struct {
	URL string `json:"url"`
}

func (s *server) handleExtractRecipeFromURL(w http.ResponseWriter, r *http.Request) {
	var req extractURLRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		jsonError(w, "url is required", http.StatusUnprocessableEntity)
		return
	}
	rec, err := s.svc.ExtractRecipeFromURL(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, rec)
}

// readImage reads the "image" part of a multipart upload.
func readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, assistant.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(assistant.MaxImageBytes); err != nil {
		jsonError(w, "expected a multipart form with an image", http.StatusBadRequest)
		return nil, "", false
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		jsonError(w, "image is required", http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "failed to read image", http.StatusBadRequest)
		return nil, "", false
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, true
}

type generatePlanRequest struct {
	// Week is "current" (default) or "next".
	Week string `json:"week,omitempty"`
	// WeekStart picks any other week, YYYY-MM-DD.
	WeekStart string `json:"week_start,omitempty"`
}

func (s *server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	day := s.now()
	switch {
	case req.WeekStart != "":
		parsed, err := time.Parse(time.DateOnly, req.WeekStart)
		if err != nil {
			jsonError(w, "week_start must be YYYY-MM-DD", http.StatusUnprocessableEntity)
			return
		}
		day = parsed
	case req.Week == "" || req.Week == "current":
	case req.Week == "next":
		day = household.NextWeekStart(day)
	default:
		jsonError(w, `week must be "current" or "next"`, http.StatusUnprocessableEntity)
		return
	}

	plan, err := s.svc.GeneratePlan(r.Context(), s.householdID(r), day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonCreated(w, plan)
}

func (s *server) handleCurrentPlan(w http.ResponseWriter, r *http.Request) {
	plan, recipes, err := s.svc.CurrentPlan(r.Context(), s.householdID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, map[string]any{"plan": plan, "recipes": recipes})
}

func (s *server) handlePlanForWeek(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse(time.DateOnly, chi.URLParam(r, "weekStart"))
	if err != nil {
		jsonError(w, "week start must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	weekStart := household.FormatWeek(household.WeekStart(day))
	plan, err := s.svc.PlanForWeek(r.Context(), s.householdID(r), weekStart)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, plan)
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// parseDay accepts a 0-based index from Monday or a weekday name.
func parseDay(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	name := strings.ToLower(raw)
	if len(name) >= 3 {
		for i, d := range weekdays {
			if strings.HasPrefix(d, name) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown day %q", raw)
}

func (s *server) handleSuggestSwaps(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(chi.URLParam(r, "day"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("max"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 20 {
			jsonError(w, "max must be between 1 and 20", http.StatusUnprocessableEntity)
			return
		}
	}

	swaps, err := s.svc.SuggestSwaps(r.Context(), s.householdID(r), day, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, swaps)
}

type swapRequest struct {
	RecipeID string `json:"recipe_id"`
}

func (s *server) handleSwapMeal(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(chi.URLParam(r, "day"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	var req swapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RecipeID == "" {
		jsonError(w, "recipe_id is required", http.StatusUnprocessableEntity)
		return
	}

	plan, err := s.svc.SwapMeal(r.Context(), s.householdID(r), day, req.RecipeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, plan)
}

func (s *server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ShoppingList(r.Context(), s.householdID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, list)
}

func (s *server) handleGetHousehold(w http.ResponseWriter, r *http.Request) {
	h, err := s.svc.Household(r.Context(), s.householdID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, h)
}

func (s *server) handlePutHousehold(w http.ResponseWriter, r *http.Request) {
	var h household.Household
	if !decodeBody(w, r, &h) {
		return
	}
	h.ID = s.householdID(r)
	if err := s.svc.SaveHousehold(r.Context(), &h); err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, h)
}

func (s *server) handlePutOverrides(w http.ResponseWriter, r *http.Request) {
	var o household.WeeklyOverrides
	if !decodeBody(w, r, &o) {
		return
	}
	o.HouseholdID = s.householdID(r)
	if err := s.svc.SaveOverrides(r.Context(), &o); err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, o)
}

// handleSearchRecipes filters the catalog.
//
// Query params:
//   - tag=T        required tag, repeatable
//   - max_time=N   maximum total minutes
//   - chef=NAME    chef or site
//   - exclude=a,b  recipe ids to leave out
//   - limit=N      maximum results
func (s *server) handleSearchRecipes(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := recipe.Query{
		Tags: qs["tag"],
		Chef: qs.Get("chef"),
	}
	if raw := qs.Get("exclude"); raw != "" {
		q.ExcludeIDs = strings.Split(raw, ",")
	}
	for name, dst := range map[string]*int{"max_time": &q.MaxTimeMins, "limit": &q.Limit} {
		raw := qs.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			jsonError(w, name+" must be a non-negative integer", http.StatusBadRequest)
			return
		}
		*dst = n
	}

	recipes, err := s.svc.SearchRecipes(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	jsonOK(w, recipes)
}

func (s *server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Recipe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, rec)
}

func (s *server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteRecipe(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
