package notifier

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bassista/go_pagewatch/internal/config"
	"github.com/bassista/go_pagewatch/internal/logger"
	tele "gopkg.in/telebot.v4"
)

// Telegram rejects messages longer than this many characters.
const telegramMaxText = 4096

// TelegramNotifier posts the report to one or more chats. Recipients are chat IDs.
type TelegramNotifier struct {
	bot *tele.Bot
}

func NewTelegramNotifier(cfg config.TelegramConfig, timeout time.Duration) (*TelegramNotifier, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	settings := tele.Settings{
		Token:   cfg.Token,
		Offline: true,
		Client:  &http.Client{Timeout: timeout},
	}
	if cfg.APIURL != "" {
		settings.URL = cfg.APIURL
	}
	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{bot: bot}, nil
}

// Notify reports success only when every chat received the message.
func (n *TelegramNotifier) Notify(ctx context.Context, subject, body string, recipients []string) bool {
	log := logger.WithComponent("notify")
	if len(recipients) == 0 {
		log.Error("telegram: no recipients")
		return false
	}

	text := truncateRunes(subject+"\n\n"+body, telegramMaxText)
	ok := true
	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			log.Errorf("telegram: %v", err)
			return false
		}
		chatID, err := strconv.ParseInt(r, 10, 64)
		if err != nil {
			log.Errorf("telegram: invalid chat id %q: %v", r, err)
			ok = false
			continue
		}
		if _, err := n.bot.Send(&tele.Chat{ID: chatID}, text, &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
			log.Errorf("telegram: send to %d failed: %v", chatID, err)
			ok = false
			continue
		}
		log.Infof("telegram message sent to %d", chatID)
	}
	return ok
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
