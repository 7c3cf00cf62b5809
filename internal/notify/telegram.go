// Package notify pushes booking notifications to a staff Telegram chat.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"gymbook/internal/models"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

// Notifier sends booking-created messages to the configured chats.
type Notifier struct {
	tg      telegramClient
	chatIDs []int64
	logger  *zerolog.Logger
}

// New constructs a notifier with a real Telegram client.
func New(token string, chatIDs []int64, logger *zerolog.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return newNotifier(&realTelegramClient{api: api}, chatIDs, logger), nil
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(tg telegramClient, chatIDs []int64, logger *zerolog.Logger) *Notifier {
	return newNotifier(tg, chatIDs, logger)
}

func newNotifier(tg telegramClient, chatIDs []int64, logger *zerolog.Logger) *Notifier {
	return &Notifier{tg: tg, chatIDs: chatIDs, logger: logger}
}

// BookingCreated sends the new booking line to every configured chat.
// Delivery is best-effort; a failed send is logged, not propagated, so a
// Telegram outage never blocks a booking.
func (n *Notifier) BookingCreated(b models.Booking) {
	text := "📅 จองใหม่: " + b.DisplayLine()
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.tg.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send notification failed")
		}
	}
}
