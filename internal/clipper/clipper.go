package clipper

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/common-origin/meal-agent-sub001/internal/ghost"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

// MaxTextChars caps the page text handed to the model.
const MaxTextChars = 20000

// ErrPublishingDisabled is returned by Publish when no Ghost client is configured.
var ErrPublishingDisabled = errors.New("ghost publishing is not configured")

// ErrInvalidURL is returned by Fetch for anything but an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid recipe url")

// Page is the cleaned content of a fetched recipe page.
type Page struct {
	URL    string
	Domain string
	Title  string
	Text   string
	// JSONLD holds raw schema.org blocks, which often carry the recipe verbatim.
	JSONLD []string
}

// Clipper handles fetching recipe pages and publishing clipped recipes.
type Clipper struct {
	ghostClient ghost.Client
	httpClient  *http.Client
}

// NewClipper creates a new Clipper instance. ghostClient may be nil.
func NewClipper(ghostClient ghost.Client) *Clipper {
	return &Clipper{
		ghostClient: ghostClient,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch downloads the URL and strips it down to the text worth sending to a model.
func (c *Clipper) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "meal-agent/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	return ParseHTML(resp.Body, rawURL)
}

// ParseHTML cleans an HTML document down to its title, recipe JSON-LD blocks
// and collapsed body text.
func ParseHTML(r io.Reader, rawURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	page := &Page{
		URL:   rawURL,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if u, err := url.Parse(rawURL); err == nil {
		page.Domain = strings.TrimPrefix(u.Hostname(), "www.")
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		page.Title = h1
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		if block := strings.TrimSpace(s.Text()); strings.Contains(block, "Recipe") {
			page.JSONLD = append(page.JSONLD, block)
		}
	})

	// Remove noise to save LLM tokens
	doc.Find("script, style, noscript, nav, header, footer, iframe, form, ads, .ads, #ads, .comments").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	// Keep block boundaries as spaces so list items don't run together.
	doc.Find("p, li, h1, h2, h3, h4, td, div, br").Each(func(i int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > MaxTextChars {
		text = text[:MaxTextChars]
	}
	page.Text = text
	return page, nil
}

// Publish posts a clipped recipe to the Ghost blog.
func (c *Clipper) Publish(ctx context.Context, rec recipe.Recipe) (*ghost.Post, error) {
	if c.ghostClient == nil {
		return nil, ErrPublishingDisabled
	}
	post, err := c.ghostClient.CreatePost(ctx, rec.Title, formatToHTML(rec), true)
	if err != nil {
		return nil, fmt.Errorf("failed to save to ghost: %w", err)
	}
	return post, nil
}

func formatToHTML(r recipe.Recipe) string {
	var sb strings.Builder
	if r.Source.URL != "" {
		src := html.EscapeString(r.Source.URL)
		sb.WriteString(fmt.Sprintf("<p><i>Imported from: <a href=\"%s\">%s</a></i></p>", src, src))
	}

	sb.WriteString("<h2>Ingredients</h2><ul>")
	for _, ing := range r.Ingredients {
		line := ing.Name
		if ing.Qty > 0 {
			line = strings.TrimSpace(fmt.Sprintf("%g %s %s", ing.Qty, ing.Unit, ing.Name))
			line = strings.Join(strings.Fields(line), " ")
		}
		sb.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(line)))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<hr>")
	sb.WriteString(fmt.Sprintf("<p><strong>Time:</strong> %d mins | <strong>Servings:</strong> %d</p>", r.TimeMins, r.Servings))
	if len(r.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("<p><strong>Tags:</strong> %s</p>", html.EscapeString(strings.Join(r.Tags, ", "))))
	}

	return sb.String()
}
