package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/common-origin/meal-agent-sub001/internal/config"
	"github.com/common-origin/meal-agent-sub001/internal/metrics"
	"github.com/common-origin/meal-agent-sub001/internal/planner"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
	"github.com/common-origin/meal-agent-sub001/internal/shopping"
)

type mockSender struct {
	mu    sync.Mutex
	texts []string
	sent  []tgbotapi.Chattable
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, c)
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		m.texts = append(m.texts, v.Text)
	case tgbotapi.EditMessageTextConfig:
		m.texts = append(m.texts, v.Text)
	}
	return tgbotapi.Message{MessageID: len(m.sent)}, nil
}

func (m *mockSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockSender) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

type mockService struct {
	planDay   time.Time
	swapDay   int
	swapped   string
	clipped   string
	published bool
	err       error
}

func testPlan() *planner.PlanWeek {
	return &planner.PlanWeek{
		WeekStart: "2024-03-04",
		TotalCost: 42.5,
		Days: []planner.PlanDay{
			{Weekday: "Monday", RecipeID: "tacos", Title: "Fish_Tacos", Action: planner.MealActionCook},
			{Weekday: "Tuesday", RecipeID: "tacos", Title: "Fish_Tacos", Action: planner.MealActionLeftOvers},
			{Weekday: "Wednesday"},
			{Weekday: "Thursday", RecipeID: "gone", Title: "gone", Missing: true},
		},
	}
}

func (m *mockService) GeneratePlan(_ context.Context, _ string, day time.Time) (*planner.PlanWeek, error) {
	m.planDay = day
	if m.err != nil {
		return nil, m.err
	}
	return testPlan(), nil
}

func (m *mockService) CurrentPlan(context.Context, string) (*planner.PlanWeek, map[string]recipe.Recipe, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return testPlan(), nil, nil
}

func (m *mockService) SuggestSwaps(_ context.Context, _ string, day, _ int) ([]planner.Scored, error) {
	m.swapDay = day
	return []planner.Scored{
		{Recipe: recipe.Recipe{ID: "soup", Title: "Pumpkin Soup"}},
		{Recipe: recipe.Recipe{ID: strings.Repeat("x", 80), Title: "Too Long"}},
	}, m.err
}

func (m *mockService) SwapMeal(_ context.Context, _ string, day int, recipeID string) (*planner.PlanWeek, error) {
	m.swapDay, m.swapped = day, recipeID
	return testPlan(), m.err
}

func (m *mockService) ShoppingList(context.Context, string) (*shopping.List, error) {
	return &shopping.List{
		Items: []shopping.AggregatedIngredient{
			{Name: "chicken breast", Qty: 500, Unit: "g", Category: "meat & seafood"},
			{Name: "onion", Qty: 2, Category: "produce"},
			{Name: "salt", Category: "pantry", PantryStaple: true},
		},
		EstimatedTotal: 12.3,
	}, m.err
}

func (m *mockService) ClipURL(_ context.Context, rawURL string, publish bool) (*recipe.Recipe, error) {
	m.clipped, m.published = rawURL, publish
	if m.err != nil {
		return nil, m.err
	}
	return &recipe.Recipe{ID: "url-1", Title: "Banh Mi", TimeMins: 30, Servings: 4}, nil
}

func (m *mockService) UsageReport(context.Context, int) ([]metrics.DailyUsage, error) {
	return []metrics.DailyUsage{{Date: "2024-03-04", TotalPrompt: 100, TotalCompletion: 50, TotalExecution: 2}}, nil
}

func newTestBot() (*Bot, *mockSender, *mockService) {
	api := &mockSender{}
	svc := &mockService{}
	cfg := &config.Config{DefaultHouseholdID: "default", TelegramAllowedUserIDs: []int64{1, 2}, AdminTelegramID: 1}
	b := newBot(api, svc, cfg, nil)
	b.now = func() time.Time { return time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC) }
	return b, api, svc
}

func message(from int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: from},
		Chat: &tgbotapi.Chat{ID: 100},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return msg
}

func TestProcessMessage(t *testing.T) {
	t.Run("Plan", func(t *testing.T) {
		b, api, svc := newTestBot()
		b.processMessage(message(1, "/plan"))

		if got := svc.planDay.Format(time.DateOnly); got != "2024-03-06" {
			t.Errorf("Expected plan for today, got %s", got)
		}
		if !strings.Contains(api.last(), "📅 *Week of 2024-03-04*") {
			t.Errorf("Expected plan in final edit, got %q", api.last())
		}
	})

	t.Run("PlanNextWeek", func(t *testing.T) {
		b, _, svc := newTestBot()
		b.processMessage(message(1, "/plan next"))

		if got := svc.planDay.Format(time.DateOnly); got != "2024-03-11" {
			t.Errorf("Expected next Monday, got %s", got)
		}
	})

	t.Run("PlanErrorHidesDetail", func(t *testing.T) {
		b, api, svc := newTestBot()
		svc.err = errors.New("database is locked")
		b.processMessage(message(1, "/plan"))

		if strings.Contains(api.last(), "locked") {
			t.Errorf("Expected internal error to be hidden, got %q", api.last())
		}
	})

	t.Run("WeekWithoutPlan", func(t *testing.T) {
		b, api, svc := newTestBot()
		svc.err = planner.ErrNoPlan
		b.processMessage(message(2, "/week"))

		if !strings.Contains(api.last(), "send /plan first") {
			t.Errorf("Expected no-plan hint, got %q", api.last())
		}
	})

	t.Run("ClipURL", func(t *testing.T) {
		b, api, svc := newTestBot()
		b.processMessage(message(2, "https://example.com/banh-mi"))

		if svc.clipped != "https://example.com/banh-mi" || !svc.published {
			t.Errorf("Expected published clip of the url, got %q publish=%v", svc.clipped, svc.published)
		}
		if !strings.Contains(api.last(), "*Title:* Banh Mi") {
			t.Errorf("Expected saved confirmation, got %q", api.last())
		}
	})

	t.Run("Shopping", func(t *testing.T) {
		b, api, _ := newTestBot()
		b.processMessage(message(1, "/shopping"))

		out := api.last()
		for _, want := range []string{"• 500g chicken breast", "• 2 onion", "_Check the pantry:_ salt", "$12.30"} {
			if !strings.Contains(out, want) {
				t.Errorf("Expected %q in shopping list, got %q", want, out)
			}
		}
	})

	t.Run("SwapSuggestions", func(t *testing.T) {
		b, api, svc := newTestBot()
		b.processMessage(message(1, "/swap wed"))

		if svc.swapDay != 2 {
			t.Errorf("Expected Wednesday (2), got %d", svc.swapDay)
		}
		msg, ok := api.sent[len(api.sent)-1].(tgbotapi.MessageConfig)
		if !ok {
			t.Fatalf("Expected a message, got %T", api.sent[len(api.sent)-1])
		}
		kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		if !ok || len(kb.InlineKeyboard) != 1 {
			t.Fatalf("Expected one button row (long id dropped), got %+v", msg.ReplyMarkup)
		}
		if data := *kb.InlineKeyboard[0][0].CallbackData; data != "swap|2|soup" {
			t.Errorf("Expected callback 'swap|2|soup', got %q", data)
		}
	})

	t.Run("SwapUsage", func(t *testing.T) {
		b, api, _ := newTestBot()
		b.processMessage(message(1, "/swap someday"))

		if !strings.Contains(api.last(), "Usage") {
			t.Errorf("Expected usage hint, got %q", api.last())
		}
	})

	t.Run("MetricsAdminOnly", func(t *testing.T) {
		b, api, _ := newTestBot()
		b.processMessage(message(2, "/metrics"))
		if !strings.Contains(api.last(), "Access Denied") {
			t.Errorf("Expected access denied, got %q", api.last())
		}

		b.processMessage(message(1, "/metrics"))
		if !strings.Contains(api.last(), "150 tokens (2 execs)") {
			t.Errorf("Expected usage report, got %q", api.last())
		}
	})

	t.Run("Help", func(t *testing.T) {
		b, api, _ := newTestBot()
		b.processMessage(message(1, "hello"))
		if api.last() != helpText {
			t.Errorf("Expected help text, got %q", api.last())
		}
	})
}

func TestHandleCallbackQuery(t *testing.T) {
	b, api, svc := newTestBot()
	b.handleCallbackQuery(&tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 1},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: 100}},
		Data:    "swap|4|soup",
	})

	if svc.swapDay != 4 || svc.swapped != "soup" {
		t.Errorf("Expected swap of Friday to soup, got day %d recipe %q", svc.swapDay, svc.swapped)
	}
	edit, ok := api.sent[len(api.sent)-1].(tgbotapi.EditMessageTextConfig)
	if !ok || edit.MessageID != 7 {
		t.Errorf("Expected the suggestion message to be edited, got %+v", api.sent[len(api.sent)-1])
	}
}

func TestServeHTTPRejectsUnknownUsers(t *testing.T) {
	b, api, _ := newTestBot()
	body := `{"update_id":1,"message":{"message_id":1,"from":{"id":99,"username":"stranger"},"chat":{"id":99},"text":"/plan"}}`

	rec := httptest.NewRecorder()
	b.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if len(api.sent) != 0 {
		t.Errorf("Expected no reply to an unknown user, got %d messages", len(api.sent))
	}

	rec = httptest.NewRecorder()
	b.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad update, got %d", rec.Code)
	}
}

func TestFormatPlan(t *testing.T) {
	out := formatPlan(testPlan())

	for _, want := range []string{
		"*Monday*: Fish\\_Tacos\n",
		"*Tuesday*: Fish\\_Tacos (leftovers)",
		"*Wednesday*: _nothing planned_",
		"⚠️ _recipe missing_",
		"$42.50",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in plan, got %q", want, out)
		}
	}
}

func TestParseDay(t *testing.T) {
	tests := map[string]int{"mon": 0, "Wednesday": 2, "sun": 6, "3": 3}
	for in, want := range tests {
		got, ok := parseDay(in)
		if !ok || got != want {
			t.Errorf("parseDay(%q) = %d, %v; want %d", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "mo", "7", "funday"} {
		if _, ok := parseDay(in); ok {
			t.Errorf("parseDay(%q) should fail", in)
		}
	}
}
