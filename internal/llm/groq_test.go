package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGroqClientGenerateContent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("Expected bearer auth, got '%s'", got)
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if body["model"] != groqModel {
				t.Errorf("Expected model %s, got %v", groqModel, body["model"])
			}
			w.Write([]byte(`{"model": "llama-test", "choices": [{"message": {"content": "{\"ok\": true}"}}], "usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}}`))
		}))
		defer server.Close()

		client := &groqClient{apiKey: "test-key", apiURL: server.URL, httpClient: server.Client()}
		resp, err := client.GenerateContent(context.Background(), "hello")
		if err != nil {
			t.Fatalf("GenerateContent failed: %v", err)
		}
		if resp.Content != `{"ok": true}` {
			t.Errorf("Unexpected content: %s", resp.Content)
		}
		if resp.Usage.PromptTokens != 12 || resp.Usage.CompletionTokens != 5 || resp.Usage.Model != "llama-test" {
			t.Errorf("Unexpected usage: %+v", resp.Usage)
		}
	})

	t.Run("ErrorStatus", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := &groqClient{apiKey: "k", apiURL: server.URL, httpClient: server.Client()}
		_, err := client.GenerateContent(context.Background(), "hello")
		if err == nil || !strings.Contains(err.Error(), "status=429") {
			t.Errorf("Expected status error, got %v", err)
		}
	})

	t.Run("NoChoices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		client := &groqClient{apiKey: "k", apiURL: server.URL, httpClient: server.Client()}
		if _, err := client.GenerateContent(context.Background(), "hello"); err == nil {
			t.Error("Expected an error for empty choices")
		}
	})
}
