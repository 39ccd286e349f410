package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/i474232898/travel-viability/internal/travel"
)

// Sender delivers a chat message. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier implements travel.Notifier. It only speaks up for cities
// with a high-severity alert or a risk tier of ALTO or worse.
type TelegramNotifier struct {
	api      Sender
	chatID   int64
	disabled bool
	logger   zerolog.Logger
}

var _ travel.Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier creates the notifier. An empty token gives a disabled
// notifier that only logs what it would have sent.
func NewTelegramNotifier(token, chatID string, logger zerolog.Logger) (*TelegramNotifier, error) {
	logger = logger.With().Str("component", "telegram").Logger()
	if token == "" {
		logger.Info().Msg("no token provided, running in disabled mode (logging only)")
		return &TelegramNotifier{disabled: true, logger: logger}, nil
	}

	parsedChatID, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID %q: %w", chatID, err)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	logger.Info().Str("bot", api.Self.UserName).Msg("authorized")

	return &TelegramNotifier{api: api, chatID: parsedChatID, logger: logger}, nil
}

// NewTelegramNotifierWith uses an existing sender.
func NewTelegramNotifierWith(api Sender, chatID int64, logger zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID, logger: logger}
}

// ShouldNotify reports whether a record is worth a message.
func ShouldNotify(r travel.RunRecord) bool {
	if travel.HasSeverity(r.Alerts, travel.SeverityHigh) {
		return true
	}
	return r.IVV.Risk == travel.RiskHigh || r.IVV.Risk == travel.RiskCritical
}

func (n *TelegramNotifier) NotifyRecord(ctx context.Context, r travel.RunRecord) error {
	if !ShouldNotify(r) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.send(FormatRecord(r))
}

// FormatRecord renders the Markdown message for a record.
func FormatRecord(r travel.RunRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", escapeMarkdown(fmt.Sprintf("IVV %s: %.1f (%s)", r.City.Name, r.IVV.Score, r.IVV.Risk)))
	for _, a := range r.Alerts {
		fmt.Fprintf(&b, "- %s: %s\n", a.Severity, escapeMarkdown(a.Message))
	}
	fmt.Fprintf(&b, "Tendencia %s: `%s`", r.Exchange.Currency, r.Exchange.Trend)
	return b.String()
}

func (n *TelegramNotifier) send(text string) error {
	if n.disabled {
		n.logger.Info().Str("text", text).Msg("(disabled) notification")
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

func escapeMarkdown(s string) string {
	r := strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")
	return r.Replace(s)
}
