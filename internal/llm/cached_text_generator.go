package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// CachedTextGenerator wraps a TextGenerator to cache responses by prompt in a
// file, so repeated development runs and tests do not hit the API.
type CachedTextGenerator struct {
	realGen       TextGenerator
	cache         map[string]string
	cacheFilePath string
	logger        *zap.Logger
	mu            sync.Mutex
}

// NewCachedTextGenerator creates a new CachedTextGenerator.
// It attempts to load the cache from the specified file path.
func NewCachedTextGenerator(realGen TextGenerator, cacheFilePath string, logger *zap.Logger) (*CachedTextGenerator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CachedTextGenerator{
		realGen:       realGen,
		cache:         make(map[string]string),
		cacheFilePath: cacheFilePath,
		logger:        logger,
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("cache file not found, starting with empty cache", zap.String("path", cacheFilePath))
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}

	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	logger.Info("loaded cached responses", zap.Int("count", len(c.cache)), zap.String("path", cacheFilePath))
	return c, nil
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// GenerateContent checks the cache first. On a miss it calls the real
// generator and stores the result. Cached responses carry no token usage.
func (c *CachedTextGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := promptKey(prompt)
	if content, ok := c.cache[key]; ok {
		return ContentResponse{Content: content}, nil
	}

	resp, err := c.realGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content using real generator: %w", err)
	}

	c.cache[key] = resp.Content
	return resp, nil
}

// SaveCache persists the current in-memory cache to the file system.
func (c *CachedTextGenerator) SaveCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}

	c.logger.Info("saved cached responses", zap.Int("count", len(c.cache)), zap.String("path", c.cacheFilePath))
	return nil
}
