package telegram

import (
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/coopermor/hive/internal/fleet"
)

const (
	maxRetries  = 3
	retryBaseMs = 2000
	retryGrowth = 2
)

// NewBot creates a Telegram bot with retries, since the Telegram API is
// occasionally unreachable right after startup.
func NewBot(token string, chatID int64, logger *slog.Logger, manager *fleet.Manager) (*Bot, error) {
	var bot *tgbotapi.BotAPI
	var err error

	delay := retryBaseMs
	for attempt := 1; attempt <= maxRetries; attempt++ {
		bot, err = tgbotapi.NewBotAPI(token)
		if err == nil {
			return &Bot{bot: bot, chatID: chatID, logger: logger, manager: manager}, nil
		}

		logger.Warn("Telegram bot creation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)

		if attempt < maxRetries {
			time.Sleep(time.Duration(delay) * time.Millisecond)
			delay *= retryGrowth
		}
	}

	return nil, fmt.Errorf("creating telegram bot after %d attempts: %w", maxRetries, err)
}
