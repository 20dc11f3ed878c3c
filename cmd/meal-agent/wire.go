package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/common-origin/meal-agent-sub001/internal/app"
	"github.com/common-origin/meal-agent-sub001/internal/assistant"
	"github.com/common-origin/meal-agent-sub001/internal/clipper"
	"github.com/common-origin/meal-agent-sub001/internal/config"
	"github.com/common-origin/meal-agent-sub001/internal/database"
	"github.com/common-origin/meal-agent-sub001/internal/ghost"
	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/llm"
	"github.com/common-origin/meal-agent-sub001/internal/metrics"
	"github.com/common-origin/meal-agent-sub001/internal/planner"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
	"github.com/common-origin/meal-agent-sub001/internal/shopping"
	"github.com/common-origin/meal-agent-sub001/internal/storage"
)

// runtime holds the wired application and whatever needs closing on exit.
type runtime struct {
	app        *app.App
	collectors *metrics.Collectors
	closers    []func() error
	logger     *zap.Logger
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("close failed", zap.Error(err))
		}
	}
}

func wire(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*runtime, error) {
	rt := &runtime{collectors: metrics.NewCollectors(), logger: logger}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	rt.closers = append(rt.closers, db.Close)

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, geminiClient.Close)

	var textGen llm.TextGenerator = geminiClient
	if cfg.TextProvider == "groq" {
		textGen = llm.NewGroqClient(cfg)
	}
	if cfg.LLMCachePath != "" {
		cached, err := llm.NewCachedTextGenerator(textGen, cfg.LLMCachePath, logger)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to initialize llm cache: %w", err)
		}
		rt.closers = append(rt.closers, cached.SaveCache)
		textGen = cached
	}

	var ghostClient ghost.Client
	if cfg.GhostEnabled() {
		ghostClient = ghost.NewClient(cfg)
	}
	recipeClipper := clipper.NewClipper(ghostClient)

	recipeStore, err := storage.NewRecipeStore(cfg.RecipeStoragePath)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to initialize recipe store: %w", err)
	}

	prices, err := shopping.LoadPriceTable(cfg.PriceTablePath)
	if err != nil {
		rt.Close()
		return nil, err
	}

	recipeRepo := recipe.NewRepository(db.SQL, logger)
	usage := metrics.NewStore(db.SQL)

	rt.app = app.NewApp(app.Deps{
		Recipes:    recipeRepo,
		Households: household.NewRepository(db.SQL),
		Plans:      planner.NewPlanRepository(db.SQL),
		Lists:      shopping.NewRepository(db.SQL),
		Usage:      usage,
		Collectors: rt.collectors,
		Assistant: assistant.New(assistant.Options{
			Text:       textGen,
			Vision:     geminiClient,
			Fetcher:    recipeClipper,
			Recipes:    recipeRepo,
			Usage:      usage,
			Collectors: rt.collectors,
			Logger:     logger,
		}),
		Clipper:     recipeClipper,
		GhostClient: ghostClient,
		RecipeStore: recipeStore,
		Prices:      prices,
		Logger:      logger,
	})
	return rt, nil
}
