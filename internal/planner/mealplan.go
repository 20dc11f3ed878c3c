package planner

import (
	"math"
	"slices"
	"time"
)

// MealAction says whether a day cooks a recipe or eats a previous batch.
type MealAction string

const (
	MealActionCook      MealAction = "Cook"
	MealActionLeftOvers MealAction = "Reuse"
)

// PlanDay is a single dinner slot.
type PlanDay struct {
	Date      string     `json:"date"` // YYYY-MM-DD
	Weekday   string     `json:"weekday"`
	Weekend   bool       `json:"weekend"`
	Action    MealAction `json:"action,omitempty"`
	RecipeID  string     `json:"recipe_id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Servings  int        `json:"servings"`
	Cost      float64    `json:"cost"`
	Reasons   []string   `json:"reasons,omitempty"`
	Conflicts []string   `json:"conflicts,omitempty"`
	// Missing is set when RecipeID no longer resolves in the catalog.
	Missing bool `json:"missing,omitempty"`
}

// Leftover reports whether the day reuses an earlier batch.
func (d PlanDay) Leftover() bool { return d.Action == MealActionLeftOvers }

// Empty reports whether no recipe was chosen for the day.
func (d PlanDay) Empty() bool { return d.RecipeID == "" }

// PlanWeek is a generated week of dinners.
type PlanWeek struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"household_id"`
	WeekStart   string    `json:"week_start"` // Monday, YYYY-MM-DD
	Servings    int       `json:"servings"`
	Days        []PlanDay `json:"days"`
	TotalCost   float64   `json:"total_cost"`
	Conflicts   []string  `json:"conflicts,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecipeIDs returns the distinct recipe ids of the plan in day order.
func (p *PlanWeek) RecipeIDs() []string {
	var ids []string
	for _, d := range p.Days {
		if d.RecipeID != "" && !slices.Contains(ids, d.RecipeID) {
			ids = append(ids, d.RecipeID)
		}
	}
	return ids
}

// Refresh recomputes the week total and the week-level conflict list from the days.
func (p *PlanWeek) Refresh() {
	var total float64
	var conflicts []string
	for _, d := range p.Days {
		total += d.Cost
		conflicts = append(conflicts, d.Conflicts...)
	}
	p.TotalCost = round2(total)
	p.Conflicts = conflicts
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
