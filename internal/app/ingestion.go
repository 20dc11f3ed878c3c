package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/common-origin/meal-agent-sub001/internal/assistant"
	"github.com/common-origin/meal-agent-sub001/internal/clipper"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

// ErrGhostDisabled is returned by IngestRecipes when no Ghost blog is configured.
var ErrGhostDisabled = errors.New("ghost is not configured")

// IngestReport summarises one ingestion run.
type IngestReport struct {
	Fetched  int
	Skipped  int
	Imported int
	Failed   int
}

// IngestRecipes fetches recipe posts from Ghost and adds new or changed ones
// to the catalog. A post that fails extraction is logged and skipped.
func (a *App) IngestRecipes(ctx context.Context) (IngestReport, error) {
	var report IngestReport
	if a.ghostClient == nil {
		return report, ErrGhostDisabled
	}

	posts, err := a.ghostClient.FetchRecipes(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch recipes from ghost: %w", err)
	}
	report.Fetched = len(posts)
	a.logger.Info("fetched recipe posts from ghost", zap.Int("posts", len(posts)))

	for i, post := range posts {
		exists, err := a.recipes.Exists(ctx, post.ID, post.UpdatedAt)
		if err != nil {
			return report, err
		}
		if exists {
			report.Skipped++
			continue
		}

		if i > 0 && a.ingestDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(a.ingestDelay):
			}
		}

		rec, err := a.assistant.ExtractRecipeFromPost(ctx, post)
		if err != nil {
			a.logger.Warn("failed to extract recipe from post",
				zap.String("post_id", post.ID), zap.String("title", post.Title), zap.Error(err))
			report.Failed++
			continue
		}
		a.storeFile(*rec)
		report.Imported++
		a.logger.Info("recipe imported", zap.String("recipe_id", rec.ID), zap.String("title", rec.Title))
	}

	a.refreshCatalogSize(ctx)
	a.logger.Info("ingestion complete",
		zap.Int("imported", report.Imported), zap.Int("skipped", report.Skipped), zap.Int("failed", report.Failed))
	return report, nil
}

// SeedCatalog loads every recipe file from the file store into the catalog.
// It returns how many recipes were saved.
func (a *App) SeedCatalog(ctx context.Context) (int, error) {
	if a.recipeStore == nil {
		return 0, fmt.Errorf("recipe file store is not configured")
	}

	recipes, rejected, err := a.recipeStore.LoadAll()
	if err != nil {
		return 0, err
	}
	for _, rerr := range rejected {
		a.logger.Warn("skipping invalid recipe file entry", zap.Error(rerr))
	}

	saved := 0
	for _, rec := range recipes {
		if err := a.recipes.Save(ctx, rec); err != nil {
			return saved, err
		}
		saved++
	}
	a.collectors.RecipesIngested.Add(float64(saved))
	a.refreshCatalogSize(ctx)
	a.logger.Info("catalog seeded", zap.Int("recipes", saved), zap.Int("rejected", len(rejected)))
	return saved, nil
}

// ClipURL extracts the recipe at rawURL into the catalog and, when publish
// is set, posts it to the Ghost blog.
func (a *App) ClipURL(ctx context.Context, rawURL string, publish bool) (*recipe.Recipe, error) {
	rec, err := a.assistant.ExtractRecipeFromURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	a.storeFile(*rec)

	if publish && a.clipper != nil {
		post, err := a.clipper.Publish(ctx, *rec)
		switch {
		case errors.Is(err, clipper.ErrPublishingDisabled):
		case err != nil:
			a.logger.Warn("failed to publish clipped recipe", zap.String("recipe_id", rec.ID), zap.Error(err))
		default:
			a.logger.Info("clipped recipe published", zap.String("recipe_id", rec.ID), zap.String("post_id", post.ID))
		}
	}
	return rec, nil
}

// storeFile mirrors a catalog recipe into the file store, keeping only its
// latest version.
func (a *App) storeFile(rec recipe.Recipe) {
	if a.recipeStore == nil {
		return
	}
	if a.recipeStore.Exists(rec.ID, rec.UpdatedAt) {
		return
	}
	if err := a.recipeStore.RemoveStaleVersions(rec.ID); err != nil {
		a.logger.Warn("failed to clean up stale recipe versions", zap.String("recipe_id", rec.ID), zap.Error(err))
	}
	if err := a.recipeStore.Save(rec); err != nil {
		a.logger.Warn("failed to write recipe file", zap.String("recipe_id", rec.ID), zap.Error(err))
	}
}

// GenerateRecipes asks the AI provider for new recipes and mirrors the valid
// ones into the file store.
func (a *App) GenerateRecipes(ctx context.Context, req assistant.GenerateRequest) (*assistant.GenerateResult, error) {
	res, err := a.assistant.GenerateRecipes(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, rec := range res.Recipes {
		a.storeFile(rec)
	}
	return res, nil
}

// ScanPantryImage lists the ingredients visible in a photo.
func (a *App) ScanPantryImage(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	return a.assistant.ScanPantryImage(ctx, image, mimeType)
}

// ExtractRecipeFromImage adds the recipe in a photo to the catalog.
func (a *App) ExtractRecipeFromImage(ctx context.Context, image []byte, mimeType string) (*recipe.Recipe, error) {
	rec, err := a.assistant.ExtractRecipeFromImage(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	a.storeFile(*rec)
	return rec, nil
}

// ExtractRecipeFromURL adds the recipe on a web page to the catalog without
// publishing it.
func (a *App) ExtractRecipeFromURL(ctx context.Context, rawURL string) (*recipe.Recipe, error) {
	return a.ClipURL(ctx, rawURL, false)
}
