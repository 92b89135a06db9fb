package events

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram notifies the admin chat about new orders. Other events are ignored.
type Telegram struct {
	bot    messageSender
	chatID int64
}

// NewTelegram logs the bot in with token.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return &Telegram{bot: api, chatID: chatID}, nil
}

func (t *Telegram) Publish(_ context.Context, e Event) error {
	if e.Type != OrderCreated || e.Order == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, orderText(e))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func orderText(e Event) string {
	o := e.Order
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n", o.ID)
	fmt.Fprintf(&b, "Customer: %s <%s>\n", o.UserName, o.UserEmail)
	for _, line := range o.Items {
		fmt.Fprintf(&b, "- %s (%s) $%.2f\n", line.Name, line.Category, line.Price)
	}
	fmt.Fprintf(&b, "Total: $%.2f", o.TotalAmount)
	return b.String()
}
