package recipe

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a recipe id does not resolve in the catalog.
var ErrNotFound = errors.New("recipe not found")

// Query filters catalog searches. Zero values mean "no constraint".
type Query struct {
	Tags        []string // every tag must be present
	ExcludeTags []string // none of these may be present
	MaxTimeMins int
	Chef        string // matches Source.Chef, falling back to Source.Domain
	ExcludeIDs  []string
	Limit       int
}

// Catalog is the read side of the recipe store used by the planner.
type Catalog interface {
	Search(ctx context.Context, q Query) ([]Recipe, error)
	GetByID(ctx context.Context, id string) (*Recipe, error)
}

// Matches reports whether r satisfies every constraint of q.
func (q Query) Matches(r Recipe) bool {
	if q.MaxTimeMins > 0 && r.TimeMins > q.MaxTimeMins {
		return false
	}
	if q.Chef != "" && !strings.EqualFold(r.Attribution(), q.Chef) {
		return false
	}
	if slices.Contains(q.ExcludeIDs, r.ID) {
		return false
	}
	for _, tag := range q.Tags {
		if !r.HasTag(tag) {
			return false
		}
	}
	for _, tag := range q.ExcludeTags {
		if r.HasTag(tag) {
			return false
		}
	}
	return true
}

// Filter applies q to recipes and returns the matches ordered by id.
func Filter(recipes []Recipe, q Query) []Recipe {
	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// MemoryCatalog is a read-mostly, in-process catalog snapshot.
type MemoryCatalog struct {
	mu      sync.RWMutex
	recipes map[string]Recipe
}

// NewMemoryCatalog builds a catalog from recipes. Later duplicates win.
func NewMemoryCatalog(recipes ...Recipe) *MemoryCatalog {
	c := &MemoryCatalog{recipes: make(map[string]Recipe, len(recipes))}
	for _, r := range recipes {
		c.recipes[r.ID] = r
	}
	return c
}

// Put adds or replaces a recipe.
func (c *MemoryCatalog) Put(r Recipe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recipes[r.ID] = r
}

// Len returns the number of recipes held.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.recipes)
}

func (c *MemoryCatalog) Search(_ context.Context, q Query) ([]Recipe, error) {
	c.mu.RLock()
	all := make([]Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		all = append(all, r)
	}
	c.mu.RUnlock()
	return Filter(all, q), nil
}

func (c *MemoryCatalog) GetByID(_ context.Context, id string) (*Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.recipes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}
