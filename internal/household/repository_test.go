package household_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/testutil"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := household.NewRepository(testutil.NewTestDatabase(t))

	t.Run("GetMissing", func(t *testing.T) {
		_, err := repo.Get(ctx, "h1")
		assert.ErrorIs(t, err, household.ErrNotFound)
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		h := &household.Household{ID: "h1", Servings: 5, PantryStaples: []string{"salt"}, KidFriendlyWeeknights: true}
		require.NoError(t, repo.Save(ctx, h))
		assert.False(t, h.UpdatedAt.IsZero())

		got, err := repo.Get(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, 5, got.Servings)
		assert.True(t, got.KidFriendlyWeeknights)
	})

	t.Run("SaveRejectsInvalid", func(t *testing.T) {
		err := repo.Save(ctx, &household.Household{ID: "h1", DinnerCount: 9})
		var verr *household.ValidationError
		require.True(t, errors.As(err, &verr))

		got, err := repo.Get(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, 5, got.Servings, "previous data retained")
	})

	t.Run("Overrides", func(t *testing.T) {
		_, err := repo.GetOverrides(ctx, "h1", "2026-10-12")
		assert.ErrorIs(t, err, household.ErrNotFound)

		n := 3
		require.NoError(t, repo.SaveOverrides(ctx, &household.WeeklyOverrides{HouseholdID: "h1", WeekStart: "2026-10-12", DinnerCount: &n}))
		n = 4
		require.NoError(t, repo.SaveOverrides(ctx, &household.WeeklyOverrides{HouseholdID: "h1", WeekStart: "2026-10-12", DinnerCount: &n}))

		got, err := repo.GetOverrides(ctx, "h1", "2026-10-12")
		require.NoError(t, err)
		require.NotNil(t, got.DinnerCount)
		assert.Equal(t, 4, *got.DinnerCount)
	})
}
