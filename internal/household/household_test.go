package household

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestResolve(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		s := Resolve(Household{ID: "h1"}, nil)
		assert.Equal(t, DefaultServings, s.Servings)
		assert.Equal(t, DefaultWeeknightMaxMins, s.WeeknightMaxMins)
		assert.Equal(t, DefaultDinnerCount, s.DinnerCount)
		assert.Equal(t, DefaultLeftoverDays, s.LeftoverDays)
		assert.Zero(t, s.WeekendMaxMins)
	})

	t.Run("LeftoversCanBeTurnedOff", func(t *testing.T) {
		s := Resolve(Household{ID: "h1", LeftoverDays: intPtr(0)}, nil)
		assert.Zero(t, s.LeftoverDays)

		s = Resolve(Household{ID: "h1", LeftoverDays: intPtr(2)}, nil)
		assert.Equal(t, 2, s.LeftoverDays)
	})

	t.Run("ServingsFromMembers", func(t *testing.T) {
		s := Resolve(Household{ID: "h1", Adults: 2, Children: 3}, nil)
		assert.Equal(t, 5, s.Servings)
	})

	t.Run("OverridesWin", func(t *testing.T) {
		h := Household{
			ID:            "h1",
			Servings:      4,
			DinnerCount:   5,
			DietaryFlags:  []string{"vegetarian"},
			PantryStaples: []string{"Salt", "olive oil"},
		}
		o := &WeeklyOverrides{
			HouseholdID:     "h1",
			WeekStart:       "2026-10-12",
			DinnerCount:     intPtr(12),
			Servings:        intPtr(6),
			DietAdjustments: []string{"no_pork", "Vegetarian"},
			ExtraPantry:     []string{"rice", "salt"},
		}
		s := Resolve(h, o)
		assert.Equal(t, 7, s.DinnerCount, "dinner count is clamped")
		assert.Equal(t, 6, s.Servings)
		assert.Equal(t, []string{"vegetarian"}, s.RequiredTags)
		assert.Equal(t, []string{"pork"}, s.ExcludedTags)
		assert.Equal(t, []string{"salt", "olive oil", "rice"}, s.Pantry)
	})
}

func TestIsPantryStaple(t *testing.T) {
	s := Settings{Pantry: []string{"salt", "olive oil"}}
	assert.True(t, s.IsPantryStaple("Salt"))
	assert.True(t, s.IsPantryStaple("sea salt"))
	assert.True(t, s.IsPantryStaple("extra virgin olive oil"))
	assert.False(t, s.IsPantryStaple("salted butter"))
}

func TestWeekStart(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC), "2026-10-12"},
		{time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), "2026-10-12"},
		{time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC), "2026-10-12"},
		{time.Date(2027, 1, 1, 9, 0, 0, 0, time.UTC), "2026-12-28"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatWeek(WeekStart(tc.in)), tc.in.String())
	}
	assert.Equal(t, "2026-10-19", FormatWeek(NextWeekStart(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC))))
}

func TestValidate(t *testing.T) {
	t.Run("ValidHousehold", func(t *testing.T) {
		h := Household{ID: "h1", Servings: 4, DietaryFlags: []string{"gluten_free", "no_beef"}, WeeknightMaxMins: 40}
		assert.NoError(t, h.Validate())
	})

	t.Run("FieldErrors", func(t *testing.T) {
		h := Household{ID: "", Servings: -1, DietaryFlags: []string{"paleo"}}
		err := h.Validate()
		require.Error(t, err)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		fields := map[string]string{}
		for _, f := range verr.Fields {
			fields[f.Field] = f.Message
		}
		assert.Equal(t, "is required", fields["id"])
		assert.Equal(t, "must be at least 0", fields["servings"])
		assert.Contains(t, fields["dietary_flags[0]"], "paleo")
	})

	t.Run("LeftoverDaysRange", func(t *testing.T) {
		assert.NoError(t, Household{ID: "h1", LeftoverDays: intPtr(0)}.Validate())
		err := Household{ID: "h1", LeftoverDays: intPtr(4)}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "leftover_days")
	})

	t.Run("OverrideWeekMustBeMonday", func(t *testing.T) {
		o := WeeklyOverrides{HouseholdID: "h1", WeekStart: "2026-10-14"}
		err := o.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "week_start: must be a Monday")

		o.WeekStart = "2026-10-12"
		o.DinnerCount = intPtr(0)
		err = o.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dinner_count")
	})
}
