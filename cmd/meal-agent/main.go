package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/common-origin/meal-agent-sub001/internal/api"
	"github.com/common-origin/meal-agent-sub001/internal/config"
	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/logger"
	"github.com/common-origin/meal-agent-sub001/internal/ratelimit"
	"github.com/common-origin/meal-agent-sub001/internal/telegram"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := wire(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}
	defer rt.Close()

	args := os.Args[2:]
	switch os.Args[1] {
	case "serve":
		err = serve(ctx, cfg, rt, log)
	case "ingest":
		err = ingest(ctx, rt)
	case "seed-catalog":
		err = seedCatalog(ctx, rt)
	case "plan":
		err = plan(ctx, cfg, rt, args)
	case "shopping":
		err = shoppingList(ctx, cfg, rt, args)
	case "metrics-cleanup":
		err = metricsCleanup(ctx, rt, args)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		rt.Close()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: meal-agent <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve              Run the HTTP API (and the Telegram webhook when configured)")
	fmt.Println("  ingest             Import recipe posts from Ghost")
	fmt.Println("  seed-catalog       Load recipe JSON files into the catalog")
	fmt.Println("  plan               Compose a weekly plan and print it")
	fmt.Println("  shopping           Print the shopping list of the current plan")
	fmt.Println("  metrics-cleanup    Remove old usage records")
}

func serve(ctx context.Context, cfg *config.Config, rt *runtime, log *zap.Logger) error {
	limiter := ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitWindow)
	go limiter.Run(ctx, time.Minute)

	r := chi.NewRouter()
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg, rt.app, log.Named("telegram"))
		if err != nil {
			return err
		}
		r.Post("/telegram/webhook", bot.ServeHTTP)
	}
	r.Mount("/", api.NewRouter(rt.app, api.Options{
		DefaultHouseholdID: cfg.DefaultHouseholdID,
		DataPath:           cfg.RecipeStoragePath,
		Limiter:            limiter,
		TrustedProxies:     cfg.TrustedProxies,
		Collectors:         rt.collectors,
		Logger:             log,
	}))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func ingest(ctx context.Context, rt *runtime) error {
	report, err := rt.app.IngestRecipes(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Fetched %d posts: %d imported, %d unchanged, %d failed.\n",
		report.Fetched, report.Imported, report.Skipped, report.Failed)
	return nil
}

func seedCatalog(ctx context.Context, rt *runtime) error {
	n, err := rt.app.SeedCatalog(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d recipes.\n", n)
	return nil
}

func plan(ctx context.Context, cfg *config.Config, rt *runtime, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	householdID := fs.String("household", cfg.DefaultHouseholdID, "Household to plan for")
	next := fs.Bool("next", false, "Plan next week instead of the current one")
	fs.Parse(args) //nolint:errcheck

	day := time.Now()
	if *next {
		day = household.NextWeekStart(day)
	}
	p, err := rt.app.GeneratePlan(ctx, *householdID, day)
	if err != nil {
		return err
	}
	return printJSON(p)
}

func shoppingList(ctx context.Context, cfg *config.Config, rt *runtime, args []string) error {
	fs := flag.NewFlagSet("shopping", flag.ExitOnError)
	householdID := fs.String("household", cfg.DefaultHouseholdID, "Household whose current plan to shop for")
	fs.Parse(args) //nolint:errcheck

	list, err := rt.app.ShoppingList(ctx, *householdID)
	if err != nil {
		return err
	}
	return printJSON(list)
}

func metricsCleanup(ctx context.Context, rt *runtime, args []string) error {
	fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "Keep records for the last N days")
	fs.Parse(args) //nolint:errcheck

	affected, err := rt.app.CleanupMetrics(ctx, *days)
	if err != nil {
		return err
	}
	fmt.Printf("Successfully removed %d old metric records.\n", affected)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
