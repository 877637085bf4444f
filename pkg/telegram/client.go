package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stock-news-trader/pkg/utils"
)

// Telegram rejects messages longer than 4096 characters. Stay under it so
// a long article title cannot kill an alert.
const maxMessageRunes = 4000

// Notifier delivers pipeline notifications to the operator chat.
type Notifier interface {
	SendMessage(text string) error
}

type client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewClient authenticates the bot and returns a Notifier bound to one chat.
func NewClient(botToken string, chatID int64) (Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &client{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// SendMessage sends text to the configured chat as Markdown. News titles
// sometimes carry characters the Markdown parser chokes on (unbalanced
// underscores and the like), so a parse failure is retried as plain text
// rather than dropped.
func (c *client) SendMessage(text string) error {
	text = utils.TruncateRunes(utils.CleanToValidUTF8(text), maxMessageRunes)

	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := c.bot.Send(msg); err != nil {
		plain := tgbotapi.NewMessage(c.chatID, text)
		plain.DisableWebPagePreview = true
		if _, retryErr := c.bot.Send(plain); retryErr != nil {
			return fmt.Errorf("failed to send telegram message: %w", retryErr)
		}
	}
	return nil
}
