package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

func TestRecipeStore(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewRecipeStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create RecipeStore: %v", err)
	}

	rec := recipe.Recipe{
		ID:          "test-recipe-123",
		Title:       "Test Recipe",
		TimeMins:    25,
		Servings:    4,
		Ingredients: []recipe.Ingredient{{Name: "testing", Qty: 1, Unit: "cup"}},
		Tags:        []string{"go", "test"},
		UpdatedAt:   "2023-10-27T10:00:00Z",
	}

	t.Run("CheckExists-False", func(t *testing.T) {
		if store.Exists(rec.ID, rec.UpdatedAt) {
			t.Errorf("Expected recipe '%s' to not exist, but it does", rec.ID)
		}
	})

	t.Run("Save", func(t *testing.T) {
		if err := store.Save(rec); err != nil {
			t.Fatalf("Failed to save recipe: %v", err)
		}

		filePath := filepath.Join(tempDir, "test-recipe-123_2023-10-27T10-00-00Z.json")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			t.Errorf("Expected file '%s' to be created, but it wasn't", filePath)
		}
	})

	t.Run("CheckExists-True", func(t *testing.T) {
		if !store.Exists(rec.ID, rec.UpdatedAt) {
			t.Errorf("Expected recipe '%s' to exist, but it doesn't", rec.ID)
		}
		if store.Exists(rec.ID, "2024-01-01T00:00:00Z") {
			t.Error("Expected a different version to not exist")
		}
	})

	t.Run("Load", func(t *testing.T) {
		loadedRec, err := store.Load(rec.ID, rec.UpdatedAt)
		if err != nil {
			t.Fatalf("Failed to load recipe: %v", err)
		}

		if loadedRec.Title != rec.Title {
			t.Errorf("Expected title '%s', got '%s'", rec.Title, loadedRec.Title)
		}
		if len(loadedRec.Ingredients) != 1 || loadedRec.Ingredients[0].Unit != "cup" {
			t.Errorf("Expected 1 cup of testing, got %+v", loadedRec.Ingredients)
		}
	})

	t.Run("Load-NotFound", func(t *testing.T) {
		if _, err := store.Load("non-existent-recipe", ""); err == nil {
			t.Fatal("Expected an error for loading non-existent recipe, got nil")
		}
	})

	t.Run("RemoveStaleVersions", func(t *testing.T) {
		if err := store.RemoveStaleVersions(rec.ID); err != nil {
			t.Fatalf("RemoveStaleVersions failed: %v", err)
		}
		if store.Exists(rec.ID, rec.UpdatedAt) {
			t.Error("Expected stale version to be removed")
		}
	})

	t.Run("SaveWithoutID", func(t *testing.T) {
		if err := store.Save(recipe.Recipe{Title: "nameless"}); err == nil {
			t.Fatal("Expected an error for a recipe without id")
		}
	})
}

func TestLoadAll(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewRecipeStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create RecipeStore: %v", err)
	}

	older := recipe.Recipe{ID: "pasta", Title: "Old Pasta", Ingredients: []recipe.Ingredient{{Name: "pasta", Qty: 500, Unit: "g"}}, UpdatedAt: "2023-01-01T00:00:00Z"}
	newer := older
	newer.Title = "New Pasta"
	newer.UpdatedAt = "2024-01-01T00:00:00Z"
	for _, r := range []recipe.Recipe{older, newer} {
		if err := store.Save(r); err != nil {
			t.Fatalf("Failed to save recipe: %v", err)
		}
	}

	seed := `[
		{"id": "tacos", "title": "Tacos", "time_mins": "30 mins", "ingredients": ["500g beef mince", "8 tortillas"]},
		{"id": "broken", "ingredients": ["1 egg"]}
	]`
	if err := os.WriteFile(filepath.Join(tempDir, "seed.json"), []byte(seed), 0644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "junk.json"), []byte("not json"), 0644); err != nil {
		t.Fatalf("Failed to write junk file: %v", err)
	}

	recipes, rejected, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if len(recipes) != 2 {
		t.Fatalf("Expected 2 recipes, got %d", len(recipes))
	}
	if recipes[0].ID != "pasta" || recipes[0].Title != "New Pasta" {
		t.Errorf("Expected newest pasta version first, got %+v", recipes[0])
	}
	if recipes[1].ID != "tacos" || recipes[1].TimeMins != 30 {
		t.Errorf("Expected tacos with 30 minutes, got %+v", recipes[1])
	}
	if len(rejected) != 2 {
		t.Errorf("Expected 2 rejected entries (missing title, not json), got %d: %v", len(rejected), rejected)
	}
}
