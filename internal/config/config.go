package config

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Env      string
	LogLevel string
	Port     string

	DatabasePath      string
	RecipeStoragePath string
	PriceTablePath    string

	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	TextProvider string
	// LLMCachePath enables a file-backed response cache for text prompts.
	LLMCachePath string

	GhostURL        string
	GhostContentKey string
	GhostAdminKey   string

	// Rate limiting for the AI proxy endpoints, per client IP.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// TrustedProxies are the peers whose forwarding headers name the client.
	// With none configured the socket peer address is the client.
	TrustedProxies []netip.Prefix

	DefaultHouseholdID string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "./data/meal-agent.db")
	v.SetDefault("RECIPE_STORAGE_PATH", "./data/recipes")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("TEXT_PROVIDER", "gemini")
	v.SetDefault("RATE_LIMIT_REQUESTS", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("DEFAULT_HOUSEHOLD_ID", "default")
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	geminiAPIKey := v.GetString("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	textProvider := strings.ToLower(v.GetString("TEXT_PROVIDER"))
	groqAPIKey := v.GetString("GROQ_API_KEY")
	switch textProvider {
	case "gemini":
	case "groq":
		if groqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported TEXT_PROVIDER %q", textProvider)
	}

	ghostURL := v.GetString("GHOST_API_URL")
	ghostContentKey := v.GetString("GHOST_CONTENT_API_KEY")
	if ghostURL != "" && ghostContentKey == "" {
		return nil, fmt.Errorf("GHOST_CONTENT_API_KEY environment variable not set")
	}
	ghostAdminKey := v.GetString("GHOST_ADMIN_API_KEY")

	rateLimitRequests := v.GetInt("RATE_LIMIT_REQUESTS")
	if rateLimitRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", rateLimitRequests)
	}
	rateLimitWindow, err := time.ParseDuration(v.GetString("RATE_LIMIT_WINDOW"))
	if err != nil || rateLimitWindow <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW %q", v.GetString("RATE_LIMIT_WINDOW"))
	}

	trustedProxies, err := parsePrefixList(v.GetString("TRUSTED_PROXIES"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	allowed, err := parseIDList(v.GetString("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}

	var adminID int64
	if s := v.GetString("ADMIN_TELEGRAM_ID"); s != "" {
		adminID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return &Config{
		Env:                    v.GetString("APP_ENV"),
		LogLevel:               v.GetString("LOG_LEVEL"),
		Port:                   v.GetString("PORT"),
		DatabasePath:           v.GetString("DATABASE_PATH"),
		RecipeStoragePath:      v.GetString("RECIPE_STORAGE_PATH"),
		PriceTablePath:         v.GetString("PRICE_TABLE_PATH"),
		GeminiAPIKey:           geminiAPIKey,
		GeminiModel:            v.GetString("GEMINI_MODEL"),
		GroqAPIKey:             groqAPIKey,
		TextProvider:           textProvider,
		LLMCachePath:           v.GetString("LLM_CACHE_PATH"),
		GhostURL:               ghostURL,
		GhostContentKey:        ghostContentKey,
		GhostAdminKey:          ghostAdminKey,
		RateLimitRequests:      rateLimitRequests,
		RateLimitWindow:        rateLimitWindow,
		TrustedProxies:         trustedProxies,
		DefaultHouseholdID:     v.GetString("DEFAULT_HOUSEHOLD_ID"),
		TelegramBotToken:       v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     v.GetString("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
	}, nil
}

// GhostEnabled reports whether a Ghost blog is configured as a recipe source.
func (c *Config) GhostEnabled() bool {
	return c.GhostURL != "" && c.GhostContentKey != ""
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parsePrefixList reads a comma separated list of CIDR ranges or single
// addresses.
func parsePrefixList(raw string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			addr, err := netip.ParseAddr(part)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(part)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}
