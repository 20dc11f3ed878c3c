package planner

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

// Weights tunes the scoring heuristics.
type Weights struct {
	TimeFit        float64
	KidFriendly    float64
	Favorite       float64
	ReusePerItem   float64
	ReuseCap       float64
	NewProtein     float64
	RepeatProtein  float64 // subtracted per earlier use of the same protein
	RecentlyCooked float64 // subtracted
	BestValue      float64
	BulkCook       float64
}

// DefaultWeights are used when a ScoringContext carries none.
var DefaultWeights = Weights{
	TimeFit:        20,
	KidFriendly:    15,
	Favorite:       25,
	ReusePerItem:   3,
	ReuseCap:       15,
	NewProtein:     5,
	RepeatProtein:  10,
	RecentlyCooked: 30,
	BestValue:      8,
	BulkCook:       6,
}

// ScoringContext is the state a candidate is scored against.
type ScoringContext struct {
	Weeknight   bool
	MaxTimeMins int // weeknight target; 0 disables the time-fit bonus
	KidFriendly bool
	Favorites   []string
	Recent      []string

	ProteinCounts    map[string]int
	IngredientCounts map[string]int

	// ValueThreshold is the cost per serve at or below which a recipe counts
	// as good value. 0 disables the bonus.
	ValueThreshold float64
	// BulkCookSlot is set when a leftover day can follow this slot.
	BulkCookSlot bool

	Weights *Weights
}

// Scored is a candidate with its score and human-readable reasons.
type Scored struct {
	Recipe  recipe.Recipe `json:"recipe"`
	Score   float64       `json:"score"`
	Reasons []string      `json:"reasons,omitempty"`
}

// Score rates a recipe for a day slot.
func Score(r recipe.Recipe, sc ScoringContext) Scored {
	w := DefaultWeights
	if sc.Weights != nil {
		w = *sc.Weights
	}
	s := Scored{Recipe: r}

	if sc.Weeknight && sc.MaxTimeMins > 0 && r.TimeMins > 0 && r.TimeMins <= sc.MaxTimeMins {
		s.Score += w.TimeFit
		s.Reasons = append(s.Reasons, fmt.Sprintf("≤%dm", sc.MaxTimeMins))
	}
	if sc.KidFriendly && r.KidFriendly() {
		s.Score += w.KidFriendly
		s.Reasons = append(s.Reasons, "kid-friendly")
	}
	if slices.Contains(sc.Favorites, r.ID) {
		s.Score += w.Favorite
		s.Reasons = append(s.Reasons, "favorite")
	}

	if reused := reusedIngredients(r, sc.IngredientCounts); reused > 0 {
		s.Score += min(float64(reused)*w.ReusePerItem, w.ReuseCap)
		s.Reasons = append(s.Reasons, fmt.Sprintf("reuses %d ingredients", reused))
	}

	if protein := r.Protein(); protein != recipe.ProteinOther {
		if n := sc.ProteinCounts[protein]; n > 0 {
			s.Score -= float64(n) * w.RepeatProtein
		} else {
			s.Score += w.NewProtein
			s.Reasons = append(s.Reasons, "variety")
		}
	}

	if slices.Contains(sc.Recent, r.ID) {
		s.Score -= w.RecentlyCooked
	}
	if sc.ValueThreshold > 0 && r.CostPerServe > 0 && r.CostPerServe <= sc.ValueThreshold {
		s.Score += w.BestValue
		s.Reasons = append(s.Reasons, "best value")
	}
	if sc.BulkCookSlot && r.BulkCook() {
		s.Score += w.BulkCook
		s.Reasons = append(s.Reasons, "bulk cook")
	}
	return s
}

// Rank scores every candidate and orders them by score, highest first, with
// ties broken by recipe id.
func Rank(candidates []recipe.Recipe, sc ScoringContext) []Scored {
	out := make([]Scored, 0, len(candidates))
	for _, r := range candidates {
		out = append(out, Score(r, sc))
	}
	sortScored(out)
	return out
}

func sortScored(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].Recipe.ID < s[j].Recipe.ID
	})
}

// ValueThreshold returns the cost per serve at the cheapest third of the
// candidates that carry a cost, or 0 when fewer than three do.
func ValueThreshold(candidates []recipe.Recipe) float64 {
	var costs []float64
	for _, r := range candidates {
		if r.CostPerServe > 0 {
			costs = append(costs, r.CostPerServe)
		}
	}
	if len(costs) < 3 {
		return 0
	}
	slices.Sort(costs)
	return costs[(len(costs)-1)/3]
}

func ingredientKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func reusedIngredients(r recipe.Recipe, counts map[string]int) int {
	if len(counts) == 0 {
		return 0
	}
	seen := map[string]struct{}{}
	for _, ing := range r.Ingredients {
		key := ingredientKey(ing.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
	}
	n := 0
	for key := range seen {
		if counts[key] > 0 {
			n++
		}
	}
	return n
}
