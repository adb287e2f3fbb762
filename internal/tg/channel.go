package tg

import (
	"context"
	"strconv"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

const defaultRatePerMinute = 20 // телеграм душит частые посты в канал

// Channel — транспорт доставки в канал: send возвращает message id,
// edit правит ранее отправленный текст. Исходящие вызовы идут через
// rate limiter, чтобы не ловить 429 от Telegram.
type Channel struct {
	bot     *tgbot.Bot
	chatID  any // "@username" или численный -100...
	limiter *rate.Limiter
}

func NewChannel(b *tgbot.Bot, channelID string, perMinute int) *Channel {
	if perMinute <= 0 {
		perMinute = defaultRatePerMinute
	}

	var chatID any = channelID
	if id, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		chatID = id
	}

	return &Channel{
		bot:     b,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 5),
	}
}

func (c *Channel) Send(ctx context.Context, text string) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	msg, err := c.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (c *Channel) Edit(ctx context.Context, messageID int, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.bot.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    c.chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	return err
}
