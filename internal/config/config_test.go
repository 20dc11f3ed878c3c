package config

import (
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("GROQ_API_KEY", "")
		setEnv("TEXT_PROVIDER", "")
		setEnv("GHOST_API_URL", "")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "12, 34")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey to be 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
		if cfg.TextProvider != "gemini" {
			t.Errorf("Expected default TextProvider 'gemini', got '%s'", cfg.TextProvider)
		}
		if cfg.RateLimitRequests != 10 {
			t.Errorf("Expected default RateLimitRequests 10, got %d", cfg.RateLimitRequests)
		}
		if cfg.RateLimitWindow != time.Minute {
			t.Errorf("Expected default RateLimitWindow 1m, got %s", cfg.RateLimitWindow)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[1] != 34 {
			t.Errorf("Expected allowed ids [12 34], got %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.GhostEnabled() {
			t.Error("Expected Ghost to be disabled without GHOST_API_URL")
		}
		if len(cfg.TrustedProxies) != 0 {
			t.Errorf("Expected no trusted proxies by default, got %v", cfg.TrustedProxies)
		}
	})

	t.Run("TrustedProxies", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("TEXT_PROVIDER", "gemini")
		setEnv("GHOST_API_URL", "")
		setEnv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.7")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(cfg.TrustedProxies) != 2 {
			t.Fatalf("Expected 2 trusted proxies, got %v", cfg.TrustedProxies)
		}
		if got := cfg.TrustedProxies[1].String(); got != "192.168.1.7/32" {
			t.Errorf("Expected single address as a /32, got %s", got)
		}

		setEnv("TRUSTED_PROXIES", "not-an-ip")
		if _, err := NewFromEnv(); err == nil {
			t.Error("Expected an error for invalid TRUSTED_PROXIES, got nil")
		}
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("GroqProviderRequiresKey", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("TEXT_PROVIDER", "groq")
		setEnv("GROQ_API_KEY", "")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GROQ_API_KEY, got nil")
		}
		expectedError := "GROQ_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("GhostURLRequiresContentKey", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("TEXT_PROVIDER", "gemini")
		setEnv("GHOST_API_URL", "http://ghost.test")
		setEnv("GHOST_CONTENT_API_KEY", "")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GHOST_CONTENT_API_KEY, got nil")
		}
		expectedError := "GHOST_CONTENT_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("InvalidRateLimitWindow", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("GHOST_API_URL", "")
		setEnv("RATE_LIMIT_WINDOW", "soon")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for invalid RATE_LIMIT_WINDOW, got nil")
		}
	})
}
