package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	logx "mindwell/pkg/logx"
)

// TelegramConfig configures the send-only Telegram channel.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// TelegramAdapter pushes reminders to a Telegram chat. It never polls
// for updates; only outbound sends.
type TelegramAdapter struct {
	cfg TelegramConfig
	log logx.Logger
	bot *tele.Bot
}

func NewTelegramAdapter(cfg TelegramConfig, log logx.Logger) (*TelegramAdapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	return &TelegramAdapter{cfg: cfg, log: log, bot: b}, nil
}

func (a *TelegramAdapter) Name() string { return "telegram" }

func (a *TelegramAdapter) SendText(_ context.Context, n Notification) error {
	text := n.Title
	if n.Message != "" {
		text += "\n" + n.Message
	}
	_, err := a.bot.Send(&tele.Chat{ID: a.cfg.ChatID}, text, &tele.SendOptions{
		DisableWebPagePreview: true,
	})
	return err
}
