// Package notify delivers operator reports outside the web UI.
package notify

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// MaxMessageLength is Telegram's per-message text limit, in characters.
const MaxMessageLength = 4096

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts HTML-formatted text to one chat.
type Telegram struct {
	api    Sender
	chatID int64
	log    *zap.Logger
}

// NewTelegram authorizes token against the Bot API.
func NewTelegram(token string, chatID int64, log *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("telegram notifier authorized", zap.String("account", api.Self.UserName), zap.Int64("chat_id", chatID))
	return NewTelegramWithSender(api, chatID, log), nil
}

func NewTelegramWithSender(api Sender, chatID int64, log *zap.Logger) *Telegram {
	return &Telegram{api: api, chatID: chatID, log: log}
}

// Notify sends text, split on line boundaries when it exceeds MaxMessageLength.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	for i, part := range split(text, MaxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.api.Send(msg); err != nil {
			return fmt.Errorf("send message part %d: %w", i+1, err)
		}
	}
	t.log.Debug("telegram report sent", zap.Int64("chat_id", t.chatID), zap.Int("chars", utf8.RuneCountInString(text)))
	return nil
}

// split packs whole lines into chunks of at most limit characters. A single
// line longer than limit is cut at the limit.
func split(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		parts []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if n > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			n = 0
		}
	}
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			parts = append(parts, string(runes[:limit]))
			runes = runes[limit:]
		}
		sep := 0
		if n > 0 {
			sep = 1
		}
		if n+sep+len(runes) > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			cur.WriteByte('\n')
		}
		cur.WriteString(string(runes))
		n += sep + len(runes)
	}
	flush()
	return parts
}
