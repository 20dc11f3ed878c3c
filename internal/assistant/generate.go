package assistant

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

//go:embed generate_prompt.md
var generatePrompt string

// Limits on a single generation request.
const (
	DefaultRecipeCount = 7
	MaxRecipeCount     = 14
)

// TagGenerated marks recipes written by the model.
const TagGenerated = "ai_generated"

// DayTarget asks for a recipe suited to one day.
type DayTarget struct {
	Day         string `json:"day"`
	MaxTimeMins int    `json:"max_time_mins,omitempty"`
	KidFriendly bool   `json:"kid_friendly,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// GenerateRequest is the body of a recipe generation call.
type GenerateRequest struct {
	Household     household.Household `json:"household"`
	ExcludeTitles []string            `json:"exclude_titles,omitempty"`
	DayTargets    []DayTarget         `json:"day_targets,omitempty"`
	Count         int                 `json:"count,omitempty"`
}

// GenerateResult holds the recipes that passed validation and the reasons
// the others were dropped.
type GenerateResult struct {
	Recipes  []recipe.Recipe       `json:"recipes"`
	Rejected []*recipe.DecodeError `json:"-"`
}

type generatePromptData struct {
	household.Settings
	Count         int
	KidFriendly   bool
	ExcludeTitles []string
	DayTargets    []DayTarget
	Currency      string
}

func (r GenerateRequest) count() int {
	switch {
	case r.Count > 0:
		return r.Count
	case len(r.DayTargets) > 0:
		return len(r.DayTargets)
	default:
		return DefaultRecipeCount
	}
}

func (r GenerateRequest) validate() error {
	if r.Count < 0 || r.count() > MaxRecipeCount {
		return fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidRequest, MaxRecipeCount)
	}
	if len(r.DayTargets) > 7 {
		return fmt.Errorf("%w: at most 7 day targets", ErrInvalidRequest)
	}
	for i, t := range r.DayTargets {
		if strings.TrimSpace(t.Day) == "" {
			return fmt.Errorf("%w: day_targets[%d].day is required", ErrInvalidRequest, i)
		}
		if t.MaxTimeMins < 0 {
			return fmt.Errorf("%w: day_targets[%d].max_time_mins must not be negative", ErrInvalidRequest, i)
		}
	}
	return nil
}

// GenerateRecipes asks the model for new recipes matching the household and
// keeps only those that decode and validate. Valid recipes are added to the
// catalog.
func (a *Assistant) GenerateRecipes(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if a.text == nil {
		return nil, ErrNotConfigured
	}

	settings := household.Resolve(req.Household, nil)
	prompt, err := renderPrompt("Generator", generatePrompt, generatePromptData{
		Settings:      settings,
		Count:         req.count(),
		KidFriendly:   settings.KidFriendlyWeeknights,
		ExcludeTitles: req.ExcludeTitles,
		DayTargets:    req.DayTargets,
		Currency:      a.currency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build generation prompt: %w", err)
	}

	start := time.Now()
	resp, err := a.text.GenerateContent(ctx, prompt)
	if err != nil {
		err = &UpstreamError{Op: OpGenerateRecipes, Err: err}
		a.observe(ctx, OpGenerateRecipes, "RecipeGenerator", start, resp.Usage, err)
		return nil, err
	}

	result, err := a.decodeGenerated(resp.Content, req.ExcludeTitles)
	a.observe(ctx, OpGenerateRecipes, "RecipeGenerator", start, resp.Usage, err)
	if err != nil {
		return nil, err
	}

	for _, rec := range result.Recipes {
		a.save(ctx, rec)
	}
	return result, nil
}

func (a *Assistant) decodeGenerated(content string, excludeTitles []string) (*GenerateResult, error) {
	decoded, err := recipe.DecodeGenerated(content)
	if err != nil {
		return nil, &UpstreamError{Op: OpGenerateRecipes, Err: err}
	}

	excluded := make(map[string]struct{}, len(excludeTitles))
	for _, t := range excludeTitles {
		excluded[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	result := &GenerateResult{Recipes: []recipe.Recipe{}}
	for _, d := range decoded {
		if !d.OK() {
			a.logger.Warn("dropping invalid generated recipe",
				zap.Int("index", d.Err.Index), zap.String("field", d.Err.Field), zap.String("reason", d.Err.Reason))
			result.Rejected = append(result.Rejected, d.Err)
			continue
		}
		if _, skip := excluded[strings.ToLower(d.Recipe.Title)]; skip {
			a.logger.Info("dropping generated recipe on the exclusion list", zap.String("title", d.Recipe.Title))
			continue
		}
		rec := d.Recipe
		// Model-supplied ids could collide with stored recipes.
		rec.ID = recipe.NewGeneratedID()
		rec.Tags = recipe.NormalizeTags(append(rec.Tags, TagGenerated))
		result.Recipes = append(result.Recipes, rec)
	}

	if len(result.Recipes) == 0 {
		return nil, &UpstreamError{Op: OpGenerateRecipes, Err: ErrNoValidRecipes}
	}
	return result, nil
}
