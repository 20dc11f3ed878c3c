package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/common-origin/meal-agent-sub001/internal/config"
	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/metrics"
	"github.com/common-origin/meal-agent-sub001/internal/planner"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
	"github.com/common-origin/meal-agent-sub001/internal/shopping"
)

// Service is the part of the application the bot drives.
type Service interface {
	GeneratePlan(ctx context.Context, householdID string, day time.Time) (*planner.PlanWeek, error)
	CurrentPlan(ctx context.Context, householdID string) (*planner.PlanWeek, map[string]recipe.Recipe, error)
	SuggestSwaps(ctx context.Context, householdID string, dayIndex, limit int) ([]planner.Scored, error)
	SwapMeal(ctx context.Context, householdID string, dayIndex int, recipeID string) (*planner.PlanWeek, error)
	ShoppingList(ctx context.Context, householdID string) (*shopping.List, error)
	ClipURL(ctx context.Context, rawURL string, publish bool) (*recipe.Recipe, error)
	UsageReport(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// sender is the subset of tgbotapi.BotAPI used by the bot.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// maxCallbackData is Telegram's limit on inline button payloads.
const maxCallbackData = 64

const requestTimeout = 2 * time.Minute

// Bot answers Telegram updates for a single household.
type Bot struct {
	api         sender
	svc         Service
	householdID string
	allowed     []int64
	adminID     int64
	dataPath    string
	logger      *zap.Logger
	now         func() time.Time
}

// NewBot connects to Telegram and points its webhook at cfg.TelegramWebhookURL.
func NewBot(cfg *config.Config, svc Service, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram authorized", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("telegram webhook set", zap.String("response", resp.Description))

	return newBot(api, svc, cfg, logger), nil
}

func newBot(api sender, svc Service, cfg *config.Config, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:         api,
		svc:         svc,
		householdID: cfg.DefaultHouseholdID,
		allowed:     cfg.TelegramAllowedUserIDs,
		adminID:     cfg.AdminTelegramID,
		dataPath:    cfg.DatabasePath,
		logger:      logger,
		now:         time.Now,
	}
}

// ServeHTTP handles a webhook call. Updates are processed in the background
// so Telegram gets its 200 straight away.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("failed to parse update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	switch {
	case update.CallbackQuery != nil:
		if b.isAllowed(update.CallbackQuery.From) {
			go b.handleCallbackQuery(update.CallbackQuery)
		}
	case update.Message != nil:
		if !b.isAllowed(update.Message.From) {
			from := update.Message.From
			if from != nil {
				b.logger.Warn("unauthorized access attempt", zap.Int64("user_id", from.ID), zap.String("username", from.UserName))
			}
			return
		}
		go b.processMessage(update.Message)
	}
}

func (b *Bot) isAllowed(u *tgbotapi.User) bool {
	return u != nil && slices.Contains(b.allowed, u.ID)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClip(ctx, msg.Chat.ID, text)
		return
	}

	switch msg.Command() {
	case "plan":
		b.handlePlan(ctx, msg.Chat.ID, strings.TrimSpace(msg.CommandArguments()))
	case "week":
		b.handleWeek(ctx, msg.Chat.ID)
	case "shopping":
		b.handleShopping(ctx, msg.Chat.ID)
	case "swap":
		b.handleSwap(ctx, msg.Chat.ID, strings.TrimSpace(msg.CommandArguments()))
	case "metrics":
		if msg.From == nil || msg.From.ID != b.adminID || b.adminID == 0 {
			b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetrics(ctx, msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

const helpText = "🧑‍🍳 *Meal Agent*\n\n" +
	"/plan - plan this week (`/plan next` for next week)\n" +
	"/week - show the current plan\n" +
	"/shopping - shopping list for the current plan\n" +
	"/swap <day> - alternatives for a day\n\n" +
	"Send a recipe link to clip it into the catalog."

func (b *Bot) handleClip(ctx context.Context, chatID int64, rawURL string) {
	sent, ok := b.status(chatID, "✂️ *Clipping recipe...*")
	if !ok {
		return
	}
	rec, err := b.svc.ClipURL(ctx, rawURL, true)
	if err != nil {
		b.logger.Error("failed to clip recipe", zap.String("url", rawURL), zap.Error(err))
		b.edit(chatID, sent.MessageID, "❌ *Error clipping recipe:* "+escape(userMessage(err)))
		return
	}
	b.edit(chatID, sent.MessageID, fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*Time:* %d mins, serves %d",
		escape(rec.Title), rec.TimeMins, rec.Servings))
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, arg string) {
	day := b.now()
	if strings.EqualFold(arg, "next") {
		day = household.NextWeekStart(day)
	}
	sent, ok := b.status(chatID, "🧑‍🍳 *Thinking...*")
	if !ok {
		return
	}
	plan, err := b.svc.GeneratePlan(ctx, b.householdID, day)
	if err != nil {
		b.logger.Error("failed to generate plan", zap.Error(err))
		b.edit(chatID, sent.MessageID, "❌ *Error generating plan:* "+escape(userMessage(err)))
		return
	}
	b.edit(chatID, sent.MessageID, formatPlan(plan))
}

func (b *Bot) handleWeek(ctx context.Context, chatID int64) {
	plan, _, err := b.svc.CurrentPlan(ctx, b.householdID)
	if err != nil {
		b.reply(chatID, "❌ "+escape(userMessage(err)))
		return
	}
	b.reply(chatID, formatPlan(plan))
}

func (b *Bot) handleShopping(ctx context.Context, chatID int64) {
	list, err := b.svc.ShoppingList(ctx, b.householdID)
	if err != nil {
		b.reply(chatID, "❌ "+escape(userMessage(err)))
		return
	}
	b.reply(chatID, formatShoppingList(list))
}

func (b *Bot) handleSwap(ctx context.Context, chatID int64, arg string) {
	day, ok := parseDay(arg)
	if !ok {
		b.reply(chatID, "Usage: /swap <day>, e.g. `/swap wed`")
		return
	}
	swaps, err := b.svc.SuggestSwaps(ctx, b.householdID, day, 0)
	if err != nil {
		b.reply(chatID, "❌ "+escape(userMessage(err)))
		return
	}
	if len(swaps) == 0 {
		b.reply(chatID, "No alternatives found for that day.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range swaps {
		data := fmt.Sprintf("swap|%d|%s", day, s.Recipe.ID)
		if len(data) > maxCallbackData {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(s.Recipe.Title, data)))
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🔄 Pick a replacement for *%s*:", weekdays[day]))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}
	if query.Message == nil {
		return
	}

	parts := strings.SplitN(query.Data, "|", 3)
	if len(parts) != 3 || parts[0] != "swap" {
		return
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}

	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID
	plan, err := b.svc.SwapMeal(ctx, b.householdID, day, parts[2])
	if err != nil {
		b.logger.Error("failed to swap meal", zap.Int("day", day), zap.String("recipe_id", parts[2]), zap.Error(err))
		b.edit(chatID, messageID, "❌ *Error swapping meal:* "+escape(userMessage(err)))
		return
	}
	b.edit(chatID, messageID, formatPlan(plan))
}

func (b *Bot) handleMetrics(ctx context.Context, chatID int64) {
	usage, err := b.svc.UsageReport(ctx, 7)
	if err != nil {
		b.logger.Error("failed to load usage", zap.Error(err))
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatMetrics(usage, metrics.GetSysHealth(b.dataPath)))
}

func (b *Bot) status(chatID int64, text string) (tgbotapi.Message, bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("failed to send status", zap.Error(err))
		return sent, false
	}
	return sent, true
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(msg)
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.send(edit)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("failed to send message", zap.Error(err))
	}
}

// userMessage hides internal error detail from chat users.
func userMessage(err error) string {
	switch {
	case errors.Is(err, planner.ErrNoPlan):
		return "no plan yet, send /plan first"
	case errors.Is(err, planner.ErrInvalidDay):
		return "that day is not in the plan"
	case errors.Is(err, recipe.ErrNotFound):
		return "recipe not found"
	case errors.Is(err, planner.ErrAlreadyPlanned):
		return "that recipe is already on another night this week"
	default:
		return "something went wrong, please try again"
	}
}
