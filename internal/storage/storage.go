package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

// unversioned is the file version used for recipes without a source timestamp.
const unversioned = "local"

// RecipeStore provides a file-based storage for catalog recipes. Each recipe
// lives in one file named after its id and source timestamp.
type RecipeStore struct {
	basePath string
}

// NewRecipeStore creates a new RecipeStore and ensures the base directory exists.
func NewRecipeStore(basePath string) (*RecipeStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &RecipeStore{basePath: basePath}, nil
}

var unsafeChars = strings.NewReplacer(":", "-", "/", "-", "\\", "-", " ", "-")

// sanitize makes ids and timestamps safe for filenames.
func sanitize(s string) string {
	return unsafeChars.Replace(s)
}

// getVersionedPath returns the full path for a given recipe ID and version.
func (s *RecipeStore) getVersionedPath(recipeID, updatedAt string) string {
	if updatedAt == "" {
		updatedAt = unversioned
	}
	filename := fmt.Sprintf("%s_%s.json", sanitize(recipeID), sanitize(updatedAt))
	return filepath.Join(s.basePath, filename)
}

// Save stores a recipe under its id and UpdatedAt version.
func (s *RecipeStore) Save(rec recipe.Recipe) error {
	if rec.ID == "" {
		return fmt.Errorf("cannot store a recipe without an id")
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	filePath := s.getVersionedPath(rec.ID, rec.UpdatedAt)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

// Load retrieves a recipe from a specific version file.
func (s *RecipeStore) Load(recipeID, updatedAt string) (*recipe.Recipe, error) {
	filePath := s.getVersionedPath(recipeID, updatedAt)
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}

	var rec recipe.Recipe
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}
	return &rec, nil
}

// Exists checks if a specific version of a recipe file exists.
func (s *RecipeStore) Exists(recipeID, updatedAt string) bool {
	filePath := s.getVersionedPath(recipeID, updatedAt)
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// RemoveStaleVersions removes all files associated with a recipeID.
// This should be called before saving a new version to ensure only the latest exists.
func (s *RecipeStore) RemoveStaleVersions(recipeID string) error {
	pattern := filepath.Join(s.basePath, fmt.Sprintf("%s_*.json", sanitize(recipeID)))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to glob stale files: %w", err)
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", match, err)
		}
	}
	return nil
}

// LoadAll reads every JSON file in the store. Files may hold one recipe, a
// list, or a {"recipes": [...]} object, so hand-written seed files work too.
// Entries that fail validation are returned in rejected rather than failing
// the whole load. When an id appears twice the newest UpdatedAt wins.
func (s *RecipeStore) LoadAll() (recipes []recipe.Recipe, rejected []error, err error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list recipe files: %w", err)
	}
	sort.Strings(matches)

	byID := make(map[string]recipe.Recipe)
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read recipe file: %w", err)
		}
		decoded, err := recipe.DecodeGenerated(string(data))
		if err != nil {
			rejected = append(rejected, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		for _, d := range decoded {
			if !d.OK() {
				rejected = append(rejected, fmt.Errorf("%s: %w", filepath.Base(path), d.Err))
				continue
			}
			if prev, ok := byID[d.Recipe.ID]; ok && prev.UpdatedAt >= d.Recipe.UpdatedAt {
				continue
			}
			byID[d.Recipe.ID] = d.Recipe
		}
	}

	recipes = make([]recipe.Recipe, 0, len(byID))
	for _, rec := range byID {
		recipes = append(recipes, rec)
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID < recipes[j].ID })
	return recipes, rejected, nil
}
