package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/common-origin/meal-agent-sub001/internal/clipper"
	"github.com/common-origin/meal-agent-sub001/internal/llm"
	"github.com/common-origin/meal-agent-sub001/internal/metrics"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
	"github.com/common-origin/meal-agent-sub001/internal/shared"
)

// Operations label AI calls in logs and metrics.
const (
	OpGenerateRecipes        = "generate_recipes"
	OpScanPantryImage        = "scan_pantry_image"
	OpExtractRecipeFromImage = "extract_recipe_from_image"
	OpExtractRecipeFromURL   = "extract_recipe_from_url"
	OpExtractRecipeFromPost  = "extract_recipe_from_post"
)

// DefaultCurrency is used for cost estimates when none is configured.
const DefaultCurrency = "AUD"

var (
	// ErrInvalidRequest is returned before any AI call is made.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoValidRecipes means the model answered but nothing survived validation.
	ErrNoValidRecipes = errors.New("no valid recipes in response")
	// ErrNotConfigured is returned when the needed generator is missing.
	ErrNotConfigured = errors.New("ai provider not configured")
)

// UpstreamError wraps any failure of the AI provider or of the page being
// clipped, including responses that do not decode into valid records.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream failure: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RecipeSaver stores recipes produced by the assistant.
type RecipeSaver interface {
	Save(ctx context.Context, rec recipe.Recipe) error
}

// UsageRecorder persists token usage.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// PageFetcher fetches and cleans a recipe web page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*clipper.Page, error)
}

// Options configures an Assistant. Only Text is required for recipe
// generation; the other dependencies enable their operations.
type Options struct {
	Text       llm.TextGenerator
	Vision     llm.VisionGenerator
	Fetcher    PageFetcher
	Recipes    RecipeSaver
	Usage      UsageRecorder
	Collectors *metrics.Collectors
	Logger     *zap.Logger
	Currency   string
}

// Assistant is the thin layer between the HTTP surface and the AI provider.
type Assistant struct {
	text       llm.TextGenerator
	vision     llm.VisionGenerator
	fetcher    PageFetcher
	recipes    RecipeSaver
	usage      UsageRecorder
	collectors *metrics.Collectors
	logger     *zap.Logger
	currency   string
}

// New creates an Assistant.
func New(opts Options) *Assistant {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	currency := opts.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Assistant{
		text:       opts.Text,
		vision:     opts.Vision,
		fetcher:    opts.Fetcher,
		recipes:    opts.Recipes,
		usage:      opts.Usage,
		collectors: opts.Collectors,
		logger:     logger.Named("assistant"),
		currency:   currency,
	}
}

var promptFuncs = template.FuncMap{"join": strings.Join}

func renderPrompt(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(promptFuncs).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// observe records the outcome of one AI call in prometheus and the usage store.
func (a *Assistant) observe(ctx context.Context, op, agent string, start time.Time, usage shared.TokenUsage, err error) {
	outcome := shared.OutcomeOK
	var upstream *UpstreamError
	switch {
	case err == nil:
	case errors.As(err, &upstream):
		outcome = shared.OutcomeUpstreamError
	default:
		outcome = shared.OutcomeError
	}

	latency := time.Since(start)
	if a.collectors != nil {
		a.collectors.AIRequests.WithLabelValues(op, outcome).Inc()
		a.collectors.AILatency.WithLabelValues(op).Observe(latency.Seconds())
	}

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("outcome", outcome),
		zap.Duration("latency", latency),
		zap.Int("total_tokens", usage.TotalTokens),
	}
	if err != nil {
		a.logger.Warn("ai request failed", append(fields, zap.Error(err))...)
	} else {
		a.logger.Info("ai request completed", fields...)
	}

	if a.usage == nil {
		return
	}
	meta := shared.AgentMeta{AgentName: agent, Operation: op, Outcome: outcome, Usage: usage, Latency: latency}
	if rerr := a.usage.RecordMeta(ctx, meta); rerr != nil {
		a.logger.Warn("failed to record usage", zap.String("agent", agent), zap.Error(rerr))
	}
}

func (a *Assistant) save(ctx context.Context, rec recipe.Recipe) {
	if a.recipes == nil {
		return
	}
	if err := a.recipes.Save(ctx, rec); err != nil {
		a.logger.Warn("failed to save recipe", zap.String("recipe_id", rec.ID), zap.Error(err))
		return
	}
	if a.collectors != nil {
		a.collectors.RecipesIngested.Inc()
	}
}
