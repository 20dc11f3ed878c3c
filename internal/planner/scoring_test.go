package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

func TestScore(t *testing.T) {
	t.Run("PositiveReasons", func(t *testing.T) {
		r := rec("a", 30, 0, recipe.TagKidFriendly)
		s := Score(r, ScoringContext{Weeknight: true, MaxTimeMins: 40, KidFriendly: true, Favorites: []string{"a"}})
		assert.Equal(t, 60.0, s.Score)
		assert.Equal(t, []string{"≤40m", "kid-friendly", "favorite"}, s.Reasons)
	})

	t.Run("NoTimeBonusOnWeekend", func(t *testing.T) {
		s := Score(rec("a", 30, 0), ScoringContext{MaxTimeMins: 40})
		assert.Zero(t, s.Score)
		assert.Empty(t, s.Reasons)
	})

	t.Run("RelaxedBoundGetsNoTimeBonus", func(t *testing.T) {
		s := Score(rec("a", 44, 0), ScoringContext{Weeknight: true, MaxTimeMins: 40})
		assert.Zero(t, s.Score)
	})

	t.Run("ProteinVariety", func(t *testing.T) {
		r := rec("a", 0, 0, "chicken")
		fresh := Score(r, ScoringContext{})
		assert.Equal(t, 5.0, fresh.Score)
		assert.Contains(t, fresh.Reasons, "variety")

		repeated := Score(r, ScoringContext{ProteinCounts: map[string]int{"chicken": 2}})
		assert.Equal(t, -20.0, repeated.Score)
	})

	t.Run("RecentlyCooked", func(t *testing.T) {
		s := Score(rec("a", 0, 0), ScoringContext{Recent: []string{"a"}})
		assert.Equal(t, -30.0, s.Score)
	})

	t.Run("IngredientReuseIsCapped", func(t *testing.T) {
		r := recipe.Recipe{ID: "a"}
		counts := map[string]int{}
		for _, name := range []string{"onion", "garlic", "rice", "carrot", "celery", "stock"} {
			r.Ingredients = append(r.Ingredients, recipe.Ingredient{Name: name})
			counts[name] = 1
		}
		s := Score(r, ScoringContext{IngredientCounts: counts})
		assert.Equal(t, 15.0, s.Score)
		assert.Contains(t, s.Reasons, "reuses 6 ingredients")
	})

	t.Run("BestValueAndBulkCook", func(t *testing.T) {
		r := rec("a", 0, 2.5, recipe.TagBulkCook)
		s := Score(r, ScoringContext{ValueThreshold: 3, BulkCookSlot: true})
		assert.Equal(t, 14.0, s.Score)
		assert.Equal(t, []string{"best value", "bulk cook"}, s.Reasons)
	})

	t.Run("CustomWeights", func(t *testing.T) {
		w := Weights{Favorite: 100}
		s := Score(rec("a", 0, 0), ScoringContext{Favorites: []string{"a"}, Weights: &w})
		assert.Equal(t, 100.0, s.Score)
	})
}

func TestRank(t *testing.T) {
	ranked := Rank([]recipe.Recipe{rec("c", 0, 0), rec("b", 0, 0), rec("a", 0, 0), rec("z", 0, 0)},
		ScoringContext{Favorites: []string{"z"}})

	var ids []string
	for _, s := range ranked {
		ids = append(ids, s.Recipe.ID)
	}
	assert.Equal(t, []string{"z", "a", "b", "c"}, ids)
}

func TestValueThreshold(t *testing.T) {
	candidates := []recipe.Recipe{rec("a", 0, 5), rec("b", 0, 1), rec("c", 0, 3), rec("d", 0, 2), rec("e", 0, 4), rec("f", 0, 0)}
	assert.Equal(t, 2.0, ValueThreshold(candidates))
	assert.Zero(t, ValueThreshold(candidates[:2]))
}
