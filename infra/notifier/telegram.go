// Package notifier delivers rendered notification text to users.
package notifier

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/atollmatch/atollmatch/pkg/config"
	tele "gopkg.in/telebot.v3"
)

// TelegramSender sends messages through the Telegram Bot API.
type TelegramSender struct {
	bot    *tele.Bot
	logger *slog.Logger
}

// NewTelegram creates a sender for cfg.BotToken. apiURL overrides the Bot
// API endpoint and may be empty.
func NewTelegram(cfg *config.Telegram, apiURL string, logger *slog.Logger) (*TelegramSender, error) {
	if cfg == nil || cfg.BotToken == "" {
		return nil, errors.New("telegram sender: bot token is required")
	}
	bot, err := tele.NewBot(tele.Settings{
		URL:     apiURL,
		Token:   cfg.BotToken,
		Client:  &http.Client{Timeout: cfg.Timeout},
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram sender: %w", err)
	}
	return &TelegramSender{bot: bot, logger: logger.With("component", "telegram-sender")}, nil
}

// Send delivers text to chatID.
func (s *TelegramSender) Send(chatID int64, text string) error {
	if _, err := s.bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. It is
// used when no bot token is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "log-sender")}
}

// Send logs the message.
func (s *LogSender) Send(chatID int64, text string) error {
	s.logger.Info("notification", "chatID", chatID, "text", text)
	return nil
}

var (
	_ config.Sender = (*TelegramSender)(nil)
	_ config.Sender = (*LogSender)(nil)
)
