package recipe

import (
	"slices"
	"strings"
)

// Well-known tags used by the planner.
const (
	TagKidFriendly = "kid_friendly"
	TagBulkCook    = "bulk_cook"
	TagVegetarian  = "vegetarian"
	TagVegan       = "vegan"
	TagGlutenFree  = "gluten_free"
	TagDairyFree   = "dairy_free"
)

// ProteinOther is returned by Protein when no protein type can be inferred.
const ProteinOther = "other"

// Proteins lists the protein types recognised in tags and ingredient names,
// in match priority order.
var Proteins = []string{"chicken", "beef", "pork", "lamb", "fish", "seafood", "tofu", "legumes", "eggs"}

// proteinKeywords maps ingredient words onto protein types.
var proteinKeywords = map[string]string{
	"chicken":    "chicken",
	"turkey":     "chicken",
	"beef":       "beef",
	"mince":      "beef",
	"steak":      "beef",
	"pork":       "pork",
	"bacon":      "pork",
	"ham":        "pork",
	"sausage":    "pork",
	"lamb":       "lamb",
	"salmon":     "fish",
	"tuna":       "fish",
	"cod":        "fish",
	"barramundi": "fish",
	"fish":       "fish",
	"prawn":      "seafood",
	"prawns":     "seafood",
	"shrimp":     "seafood",
	"mussels":    "seafood",
	"tofu":       "tofu",
	"tempeh":     "tofu",
	"lentils":    "legumes",
	"chickpeas":  "legumes",
	"beans":      "legumes",
	"egg":        "eggs",
	"eggs":       "eggs",
}

// Source describes where a recipe came from.
type Source struct {
	URL    string `json:"url,omitempty"`
	Domain string `json:"domain,omitempty"`
	Chef   string `json:"chef,omitempty"`
}

// Ingredient is a single recipe line.
type Ingredient struct {
	Name string  `json:"name" validate:"required"`
	Qty  float64 `json:"qty" validate:"gte=0"`
	Unit string  `json:"unit,omitempty"`
}

// Recipe is an immutable catalog record.
type Recipe struct {
	ID           string       `json:"id" validate:"required"`
	Title        string       `json:"title" validate:"required"`
	Source       Source       `json:"source"`
	TimeMins     int          `json:"time_mins" validate:"gte=0,lte=1440"`
	Servings     int          `json:"servings" validate:"gte=0,lte=100"`
	Ingredients  []Ingredient `json:"ingredients" validate:"required,min=1,dive"`
	Tags         []string     `json:"tags,omitempty"`
	CostPerServe float64      `json:"cost_per_serve" validate:"gte=0"`
	UpdatedAt    string       `json:"updated_at,omitempty"`
}

// HasTag reports whether the recipe carries tag (case-insensitive).
func (r Recipe) HasTag(tag string) bool {
	return slices.ContainsFunc(r.Tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

// KidFriendly reports whether the recipe is tagged kid friendly.
func (r Recipe) KidFriendly() bool {
	return r.HasTag(TagKidFriendly)
}

// BulkCook reports whether the recipe is meant to be cooked in a larger batch.
func (r Recipe) BulkCook() bool {
	return r.HasTag(TagBulkCook)
}

// Protein returns the recipe's protein type. Tags win over ingredient names.
func (r Recipe) Protein() string {
	for _, p := range Proteins {
		if r.HasTag(p) {
			return p
		}
	}
	for _, ing := range r.Ingredients {
		for _, word := range strings.Fields(strings.ToLower(ing.Name)) {
			if p, ok := proteinKeywords[strings.Trim(word, ",.()")]; ok {
				return p
			}
		}
	}
	return ProteinOther
}

// Attribution returns the value used to group recipes by source: the chef when
// known, otherwise the domain.
func (r Recipe) Attribution() string {
	if r.Source.Chef != "" {
		return r.Source.Chef
	}
	return r.Source.Domain
}
