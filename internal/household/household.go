package household

import (
	"slices"
	"strings"
	"time"

	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

// Defaults applied when a household leaves a setting at zero.
const (
	DefaultServings         = 4
	DefaultWeeknightMaxMins = 40
	DefaultDinnerCount      = 7
	DefaultLeftoverDays     = 1
)

// ExcludePrefix marks a dietary flag that rules out a protein, e.g. "no_pork".
const ExcludePrefix = "no_"

// dietTags are the flags that require a matching recipe tag.
var dietTags = []string{recipe.TagVegetarian, recipe.TagVegan, recipe.TagGlutenFree, recipe.TagDairyFree}

// Household is the persisted family profile driving plan generation.
type Household struct {
	ID                    string   `json:"id" validate:"required,max=64"`
	Servings              int      `json:"servings" validate:"gte=0,lte=20"`
	Adults                int      `json:"adults" validate:"gte=0,lte=20"`
	Children              int      `json:"children" validate:"gte=0,lte=20"`
	DietaryFlags          []string `json:"dietary_flags,omitempty" validate:"dive,dietflag"`
	FavoriteRecipeIDs     []string `json:"favorite_recipe_ids,omitempty"`
	PantryStaples         []string `json:"pantry_staples,omitempty" validate:"dive,required"`
	WeeknightMaxMins      int      `json:"weeknight_max_mins" validate:"gte=0,lte=240"`
	WeekendMaxMins        int      `json:"weekend_max_mins" validate:"gte=0,lte=1440"`
	KidFriendlyWeeknights bool     `json:"kid_friendly_weeknights"`
	DinnerCount           int      `json:"dinner_count" validate:"gte=0,lte=7"`
	// LeftoverDays is how many nights a bulk-cook batch covers after it is
	// cooked. Nil uses DefaultLeftoverDays and 0 turns leftovers off.
	LeftoverDays *int      `json:"leftover_days,omitempty" validate:"omitempty,gte=0,lte=3"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WeeklyOverrides adjusts a household for a single week. Nil pointers leave
// the household value in place.
type WeeklyOverrides struct {
	HouseholdID     string   `json:"household_id" validate:"required"`
	WeekStart       string   `json:"week_start" validate:"required,datetime=2006-01-02,monday"`
	DinnerCount     *int     `json:"dinner_count,omitempty" validate:"omitempty,gte=1,lte=7"`
	Servings        *int     `json:"servings,omitempty" validate:"omitempty,gte=1,lte=20"`
	DietAdjustments []string `json:"diet_adjustments,omitempty" validate:"dive,dietflag"`
	ExtraPantry     []string `json:"extra_pantry,omitempty" validate:"dive,required"`
}

// Settings is the effective configuration for composing one week.
type Settings struct {
	Servings              int
	DinnerCount           int
	WeeknightMaxMins      int
	WeekendMaxMins        int
	KidFriendlyWeeknights bool
	LeftoverDays          int
	RequiredTags          []string
	ExcludedTags          []string
	Favorites             []string
	Pantry                []string
}

// Resolve merges a household with an optional weekly override.
func Resolve(h Household, o *WeeklyOverrides) Settings {
	s := Settings{
		Servings:              h.Servings,
		DinnerCount:           h.DinnerCount,
		WeeknightMaxMins:      h.WeeknightMaxMins,
		WeekendMaxMins:        h.WeekendMaxMins,
		KidFriendlyWeeknights: h.KidFriendlyWeeknights,
		LeftoverDays:          DefaultLeftoverDays,
		Favorites:             slices.Clone(h.FavoriteRecipeIDs),
		Pantry:                normalizeList(h.PantryStaples),
	}
	if s.Servings == 0 {
		s.Servings = h.Adults + h.Children
	}
	if h.LeftoverDays != nil {
		s.LeftoverDays = *h.LeftoverDays
	}

	flags := slices.Clone(h.DietaryFlags)
	if o != nil {
		if o.DinnerCount != nil {
			s.DinnerCount = *o.DinnerCount
		}
		if o.Servings != nil {
			s.Servings = *o.Servings
		}
		flags = append(flags, o.DietAdjustments...)
		s.Pantry = normalizeList(append(s.Pantry, o.ExtraPantry...))
	}
	s.RequiredTags, s.ExcludedTags = DietTags(flags)

	if s.Servings <= 0 {
		s.Servings = DefaultServings
	}
	if s.WeeknightMaxMins <= 0 {
		s.WeeknightMaxMins = DefaultWeeknightMaxMins
	}
	if s.DinnerCount <= 0 {
		s.DinnerCount = DefaultDinnerCount
	}
	s.DinnerCount = min(max(s.DinnerCount, 1), 7)
	return s
}

// DietTags maps dietary flags onto required and excluded recipe tags.
func DietTags(flags []string) (required, excluded []string) {
	for _, f := range normalizeList(flags) {
		if protein, ok := strings.CutPrefix(f, ExcludePrefix); ok {
			if !slices.Contains(excluded, protein) {
				excluded = append(excluded, protein)
			}
			continue
		}
		if slices.Contains(dietTags, f) && !slices.Contains(required, f) {
			required = append(required, f)
		}
	}
	return required, excluded
}

// IsPantryStaple reports whether a normalised ingredient name is covered by
// the pantry list. A staple matches the whole name or its last word.
func (s Settings) IsPantryStaple(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range s.Pantry {
		if p == name || strings.HasSuffix(name, " "+p) {
			return true
		}
	}
	return false
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.ToLower(strings.TrimSpace(it))
		if it != "" && !slices.Contains(out, it) {
			out = append(out, it)
		}
	}
	return out
}

// WeekStart returns the Monday (00:00 UTC) of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// NextWeekStart returns the Monday after the week containing t.
func NextWeekStart(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 7)
}

// FormatWeek renders a week start as the storage key.
func FormatWeek(t time.Time) string {
	return t.Format(time.DateOnly)
}
