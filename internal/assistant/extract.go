package assistant

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/common-origin/meal-agent-sub001/internal/clipper"
	"github.com/common-origin/meal-agent-sub001/internal/ghost"
	"github.com/common-origin/meal-agent-sub001/internal/llm"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
	"github.com/common-origin/meal-agent-sub001/internal/shared"
	"github.com/common-origin/meal-agent-sub001/internal/shopping"
)

var (
	//go:embed extract_prompt.md
	extractPrompt string
	//go:embed pantry_prompt.md
	pantryPrompt string
)

// MaxImageBytes bounds uploaded images.
const MaxImageBytes = 10 << 20

type extractPromptData struct {
	Title    string
	URL      string
	Text     string
	JSONLD   []string
	Tags     []string
	Image    bool
	Currency string
}

func validateImage(image []byte, mimeType string) error {
	if len(image) == 0 {
		return fmt.Errorf("%w: image is empty", ErrInvalidRequest)
	}
	if len(image) > MaxImageBytes {
		return fmt.Errorf("%w: image is larger than %d bytes", ErrInvalidRequest, MaxImageBytes)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("%w: unsupported content type %q", ErrInvalidRequest, mimeType)
	}
	return nil
}

// ScanPantryImage returns the normalised ingredient names visible in a photo.
func (a *Assistant) ScanPantryImage(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	if err := validateImage(image, mimeType); err != nil {
		return nil, err
	}
	if a.vision == nil {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	resp, err := a.vision.GenerateFromImage(ctx, pantryPrompt, image, mimeType)
	if err == nil {
		var names []string
		names, err = decodeIngredientNames(resp.Content)
		if err == nil {
			a.observe(ctx, OpScanPantryImage, "PantryScanner", start, resp.Usage, nil)
			return names, nil
		}
	}
	err = &UpstreamError{Op: OpScanPantryImage, Err: err}
	a.observe(ctx, OpScanPantryImage, "PantryScanner", start, resp.Usage, err)
	return nil, err
}

// decodeIngredientNames accepts a bare list or {"ingredients": [...]}.
func decodeIngredientNames(content string) ([]string, error) {
	body := recipe.StripCodeFences(content)

	var names []string
	if err := json.Unmarshal([]byte(body), &names); err != nil {
		var wrapper struct {
			Ingredients []string `json:"ingredients"`
		}
		if err := json.Unmarshal([]byte(body), &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", recipe.ErrMalformedPayload, err)
		}
		names = wrapper.Ingredients
	}

	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = shopping.NormalizeName(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// ExtractRecipeFromImage reads a recipe from a photo or screenshot and adds
// it to the catalog.
func (a *Assistant) ExtractRecipeFromImage(ctx context.Context, image []byte, mimeType string) (*recipe.Recipe, error) {
	if err := validateImage(image, mimeType); err != nil {
		return nil, err
	}
	if a.vision == nil {
		return nil, ErrNotConfigured
	}

	prompt, err := renderPrompt("Extractor", extractPrompt, extractPromptData{Image: true, Currency: a.currency})
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction prompt: %w", err)
	}

	sum := sha256.Sum256(image)
	return a.extract(ctx, OpExtractRecipeFromImage, func() (llm.ContentResponse, error) {
		return a.vision.GenerateFromImage(ctx, prompt, image, mimeType)
	}, func(rec *recipe.Recipe) {
		rec.ID = "img-" + hex.EncodeToString(sum[:6])
	})
}

// ExtractRecipeFromURL clips a recipe page and adds it to the catalog. The
// recipe id is derived from the URL, so clipping the same page twice updates
// the same record.
func (a *Assistant) ExtractRecipeFromURL(ctx context.Context, rawURL string) (*recipe.Recipe, error) {
	if a.fetcher == nil || a.text == nil {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	page, err := a.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if errors.Is(err, clipper.ErrInvalidURL) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		err = &UpstreamError{Op: OpExtractRecipeFromURL, Err: err}
		a.observe(ctx, OpExtractRecipeFromURL, "RecipeExtractor", start, shared.TokenUsage{}, err)
		return nil, err
	}

	sum := sha256.Sum256([]byte(rawURL))
	return a.extractPage(ctx, OpExtractRecipeFromURL, page, nil, func(rec *recipe.Recipe) {
		rec.ID = "url-" + hex.EncodeToString(sum[:6])
	})
}

// ExtractRecipeFromPost converts a Ghost post into a catalog recipe keyed by
// the post id and version.
func (a *Assistant) ExtractRecipeFromPost(ctx context.Context, post ghost.Post) (*recipe.Recipe, error) {
	if a.text == nil {
		return nil, ErrNotConfigured
	}

	page, err := clipper.ParseHTML(strings.NewReader(post.HTML), post.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to clean post html: %w", err)
	}
	page.Title = post.Title

	return a.extractPage(ctx, OpExtractRecipeFromPost, page, post.TagNames(), func(rec *recipe.Recipe) {
		rec.ID = post.ID
		rec.UpdatedAt = post.UpdatedAt
		rec.Tags = recipe.NormalizeTags(append(rec.Tags, post.TagNames()...))
		if post.PrimaryAuthor != nil && post.PrimaryAuthor.Name != "" {
			rec.Source.Chef = post.PrimaryAuthor.Name
		}
	})
}

func (a *Assistant) extractPage(ctx context.Context, op string, page *clipper.Page, tags []string, finish func(*recipe.Recipe)) (*recipe.Recipe, error) {
	prompt, err := renderPrompt("Extractor", extractPrompt, extractPromptData{
		Title:    page.Title,
		URL:      page.URL,
		Text:     page.Text,
		JSONLD:   page.JSONLD,
		Tags:     tags,
		Currency: a.currency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction prompt: %w", err)
	}

	return a.extract(ctx, op, func() (llm.ContentResponse, error) {
		return a.text.GenerateContent(ctx, prompt)
	}, func(rec *recipe.Recipe) {
		if rec.Source.URL == "" {
			rec.Source.URL = page.URL
		}
		if rec.Source.Domain == "" {
			rec.Source.Domain = page.Domain
		}
		if finish != nil {
			finish(rec)
		}
	})
}

func (a *Assistant) extract(ctx context.Context, op string, call func() (llm.ContentResponse, error), finish func(*recipe.Recipe)) (*recipe.Recipe, error) {
	start := time.Now()
	resp, err := call()
	if err != nil {
		err = &UpstreamError{Op: op, Err: err}
		a.observe(ctx, op, "RecipeExtractor", start, resp.Usage, err)
		return nil, err
	}

	rec, err := recipe.DecodeSingle(resp.Content)
	if err != nil {
		err = &UpstreamError{Op: op, Err: err}
		a.observe(ctx, op, "RecipeExtractor", start, resp.Usage, err)
		return nil, err
	}
	finish(&rec)
	if err := recipe.Validate(rec); err != nil {
		err = &UpstreamError{Op: op, Err: err}
		a.observe(ctx, op, "RecipeExtractor", start, resp.Usage, err)
		return nil, err
	}

	a.observe(ctx, op, "RecipeExtractor", start, resp.Usage, nil)
	a.save(ctx, rec)
	return &rec, nil
}
