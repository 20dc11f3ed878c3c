package shopping

import "time"

// Contribution is one recipe's share of a shopping-list line.
type Contribution struct {
	RecipeID string  `json:"recipe_id"`
	Title    string  `json:"title"`
	Qty      float64 `json:"qty"`
	Unit     string  `json:"unit"`
}

// AggregatedIngredient is a deduplicated, summed shopping-list line.
type AggregatedIngredient struct {
	Name           string         `json:"name"`
	Qty            float64        `json:"qty"`
	Unit           string         `json:"unit"`
	Category       string         `json:"category"`
	PantryStaple   bool           `json:"pantry_staple"`
	EstimatedPrice float64        `json:"estimated_price,omitempty"`
	Sources        []Contribution `json:"sources"`
}

// List is the shopping list of a meal plan.
type List struct {
	MealPlanID     string                 `json:"meal_plan_id"`
	HouseholdID    string                 `json:"household_id"`
	WeekStart      string                 `json:"week_start"`
	Items          []AggregatedIngredient `json:"items"`
	Missing        []string               `json:"missing,omitempty"` // recipe ids that did not resolve
	EstimatedTotal float64                `json:"estimated_total"`   // excludes pantry staples
	Currency       string                 `json:"currency,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}
