package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"adherence-tracker/internal/adherence"
	"adherence-tracker/internal/compliance"
	"adherence-tracker/internal/config"
	"adherence-tracker/internal/regimen"
	"adherence-tracker/internal/summary"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ClientResolver maps Telegram accounts to clients.
type ClientResolver interface {
	GetByTelegramUserID(ctx context.Context, userID int64) (*regimen.Client, error)
}

// RegimenSource resolves the client's active regimen and its items.
type RegimenSource interface {
	ActiveRegimen(ctx context.Context, clientID string) (*regimen.Regimen, error)
	FindItemByName(ctx context.Context, clientID, name string) (*regimen.Item, error)
}

// CompletionLogger appends completion events.
type CompletionLogger interface {
	Log(ctx context.Context, clientID, regimenID, itemID string, completedAt time.Time) (*regimen.CompletionEvent, error)
}

// weekInvalidator is implemented by caching calendars. Logging a completion
// drops the current week so the next /week reflects it immediately.
type weekInvalidator interface {
	Invalidate(clientID, weekStart string)
}

// Bot wraps the Telegram API and the adherence services behind chat commands.
type Bot struct {
	api         *tgbotapi.BotAPI
	calendar    adherence.Calendar
	clients     ClientResolver
	regimens    RegimenSource
	completions CompletionLogger
	summarizer  *summary.Generator // nil when no Gemini key is configured
	cfg         *config.Config
	now         func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	calendar adherence.Calendar,
	clients ClientResolver,
	regimens RegimenSource,
	completions CompletionLogger,
	summarizer *summary.Generator,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:         bot,
		calendar:    calendar,
		clients:     clients,
		regimens:    regimens,
		completions: completions,
		summarizer:  summarizer,
		cfg:         cfg,
		now:         time.Now,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	if update.Message == nil {
		return
	}

	if b.cfg.TelegramAllowUserID != 0 && update.Message.From.ID != b.cfg.TelegramAllowUserID {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)",
			update.Message.From.ID, update.Message.From.UserName)
		return
	}

	b.handleMessage(r.Context(), update.Message)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	cmd, args, _ := strings.Cut(text, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/start", "/help":
		b.reply(msg.Chat.ID,
			"Commands:\n"+
				"/week [YYYY-MM-DD] — your 7-day adherence calendar\n"+
				"/done <item name> — log a completed item\n"+
				"/rest — log a rest day (flexible workout plans)\n"+
				"/summary — a short recap of your week")
	case "/week":
		b.handleWeek(ctx, msg, args)
	case "/done":
		b.handleDone(ctx, msg, args)
	case "/rest":
		b.handleRest(ctx, msg)
	case "/summary":
		b.handleSummary(ctx, msg)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) resolveClient(ctx context.Context, msg *tgbotapi.Message) *regimen.Client {
	client, err := b.clients.GetByTelegramUserID(ctx, msg.From.ID)
	if err != nil {
		log.Printf("Failed to resolve client for telegram user %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again.")
		return nil
	}
	if client == nil {
		b.reply(msg.Chat.ID, "Your Telegram account is not linked to a client yet — ask your coach.")
		return nil
	}
	return client
}

func (b *Bot) handleWeek(ctx context.Context, msg *tgbotapi.Message, args string) {
	client := b.resolveClient(ctx, msg)
	if client == nil {
		return
	}

	weekStart := args
	if weekStart == "" {
		weekStart = mondayOf(b.now(), b.cfg.Location)
	}

	result, err := b.calendar.WeekCalendar(ctx, client.ID, weekStart)
	if err != nil {
		log.Printf("Failed to compute week for client %s: %v", client.ID, err)
		b.reply(msg.Chat.ID, "Could not compute your week — check the date format (YYYY-MM-DD).")
		return
	}
	b.replyMarkdown(msg.Chat.ID, formatWeekMarkdown(result, b.cfg.Location))
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message, name string) {
	if name == "" {
		b.reply(msg.Chat.ID, "Usage: /done <item name>, e.g. /done Breakfast")
		return
	}
	client := b.resolveClient(ctx, msg)
	if client == nil {
		return
	}

	item, err := b.regimens.FindItemByName(ctx, client.ID, name)
	if err != nil {
		log.Printf("Failed to find item %q for client %s: %v", name, client.ID, err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}
	if item == nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("No item called %q in your current plan.", name))
		return
	}

	if _, err := b.completions.Log(ctx, client.ID, item.RegimenID, item.ID, b.now()); err != nil {
		log.Printf("Failed to log completion for client %s: %v", client.ID, err)
		b.reply(msg.Chat.ID, "Could not save that, please try again.")
		return
	}
	b.invalidateCurrentWeek(client.ID)
	b.reply(msg.Chat.ID, fmt.Sprintf("Logged: %s ✅", item.Name))
}

func (b *Bot) handleRest(ctx context.Context, msg *tgbotapi.Message) {
	client := b.resolveClient(ctx, msg)
	if client == nil {
		return
	}

	reg, err := b.regimens.ActiveRegimen(ctx, client.ID)
	if err != nil {
		log.Printf("Failed to load active regimen for client %s: %v", client.ID, err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}
	if reg == nil || reg.Type != regimen.TypeWorkout {
		b.reply(msg.Chat.ID, "Rest days apply to workout plans only.")
		return
	}
	if !reg.FlexibleSchedule {
		b.reply(msg.Chat.ID, "Your plan has fixed rest days — no need to log them.")
		return
	}

	if _, err := b.completions.Log(ctx, client.ID, reg.ID, "", b.now()); err != nil {
		log.Printf("Failed to log rest for client %s: %v", client.ID, err)
		b.reply(msg.Chat.ID, "Could not save that, please try again.")
		return
	}
	b.invalidateCurrentWeek(client.ID)
	b.reply(msg.Chat.ID, "Rest day logged 🏖")
}

func (b *Bot) handleSummary(ctx context.Context, msg *tgbotapi.Message) {
	if b.summarizer == nil {
		b.reply(msg.Chat.ID, "Weekly summaries are not enabled on this server.")
		return
	}
	client := b.resolveClient(ctx, msg)
	if client == nil {
		return
	}

	weekStart := mondayOf(b.now().AddDate(0, 0, -7), b.cfg.Location)
	result, err := b.calendar.WeekCalendar(ctx, client.ID, weekStart)
	if err != nil {
		log.Printf("Failed to compute summary week for client %s: %v", client.ID, err)
		b.reply(msg.Chat.ID, "Could not compute your week, please try again.")
		return
	}

	text, err := b.summarizer.WeeklySummary(ctx, result)
	if err != nil {
		log.Printf("Failed to generate summary for client %s: %v", client.ID, err)
		b.reply(msg.Chat.ID, "Could not generate a summary right now.")
		return
	}
	b.reply(msg.Chat.ID, text)
}

func (b *Bot) invalidateCurrentWeek(clientID string) {
	if inv, ok := b.calendar.(weekInvalidator); ok {
		inv.Invalidate(clientID, mondayOf(b.now(), b.cfg.Location))
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func (b *Bot) replyMarkdown(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(m); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

// mondayOf returns the Monday of the week containing t, as a zone-local day key.
func mondayOf(t time.Time, loc *time.Location) string {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return t.AddDate(0, 0, -offset).Format(regimen.DayKeyLayout)
}

// formatWeekMarkdown renders a computed week as a Telegram calendar message.
// Ratios are rounded to whole percent here, at display time only.
func formatWeekMarkdown(result *compliance.Result, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("📅 *Your Week*\n\n")

	for i, key := range result.DayKeys {
		day, err := time.ParseInLocation(regimen.DayKeyLayout, key, loc)
		label := key
		if err == nil {
			label = day.Format("Mon 02 Jan")
		}
		fmt.Fprintf(&sb, "*%s*: %s\n", label, statusLine(result.Days[i]))

		if units := result.IntroducedUnits[key]; len(units) > 0 {
			fmt.Fprintf(&sb, "  🆕 new: %s — counts from tomorrow\n", strings.Join(units, ", "))
		}
	}
	return sb.String()
}

func statusLine(s compliance.DayStatus) string {
	switch s.Kind {
	case compliance.KindRatio:
		switch {
		case s.Ratio >= 1:
			return "✅ 100%"
		case s.Ratio == 0:
			return "❌ 0%"
		default:
			return fmt.Sprintf("🔸 %.0f%%", s.Ratio*100)
		}
	case compliance.KindNotSignedUp:
		return "— before signup"
	case compliance.KindNoRegimen:
		return "➖ no plan"
	case compliance.KindIntroduced:
		return "🆕 plan started"
	case compliance.KindRest:
		return "🏖 rest"
	case compliance.KindPending:
		return "⏳ pending"
	}
	return "?"
}
