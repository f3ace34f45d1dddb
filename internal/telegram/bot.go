package telegram

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"crypto-news-bot/internal/delivery"
	"crypto-news-bot/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig) (*Bot, error) {
	endpoint := c.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	// long polling holds requests open for UpdatesTimeout seconds
	client := &http.Client{Timeout: time.Duration(c.UpdatesTimeout+30) * time.Second}
	bot, err := tgbotapi.NewBotAPIWithClient(c.Token, endpoint, client)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug
	log.Infof("🤖 authorized as @%s", bot.Self.UserName)

	b := &Bot{
		Bot:    bot,
		Config: c,
	}
	b.SetReplyLimits(nil, 1)
	return b, nil
}

// SetReplyLimits throttles command replies with limiter, which may be nil,
// and gives each reply chunk attempts tries. Call it before handling updates.
func (b *Bot) SetReplyLimits(limiter *rate.Limiter, attempts int) {
	b.replies = delivery.NewDeliverer(b, limiter, attempts)
	b.menuReplies = delivery.NewDeliverer(menuGateway{bot: b}, limiter, attempts)
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() tgbotapi.UpdatesChannel {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig)
}

func (b *Bot) Stop() {
	b.Bot.StopReceivingUpdates()
}

// Send delivers one message. Rejections that will not go away on retry, such
// as a user that blocked the bot, are marked permanent.
func (b *Bot) Send(ctx context.Context, chatID int64, text string, mode delivery.ParseMode) error {
	return b.send(ctx, chatID, text, mode, false)
}

// menuGateway sends messages with the main keyboard attached.
type menuGateway struct {
	bot *Bot
}

func (g menuGateway) Send(ctx context.Context, chatID int64, text string, mode delivery.ParseMode) error {
	return g.bot.send(ctx, chatID, text, mode, true)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, mode delivery.ParseMode, keyboard bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = string(mode)
	msg.DisableWebPagePreview = true
	if keyboard {
		msg.ReplyMarkup = mainKeyboard()
	}

	if _, err := b.Bot.Send(msg); err != nil {
		err = redact(err)
		wrapped := errors.Wrapf(err, "could not send message to %d", chatID)

		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusForbidden:
				return delivery.Permanent(wrapped)
			case apiErr.Code == http.StatusTooManyRequests && apiErr.RetryAfter > 0:
				return delivery.RetryAfter(wrapped, time.Duration(apiErr.RetryAfter)*time.Second)
			}
		}
		return wrapped
	}
	return nil
}

// redact drops the request URL from transport errors, it carries the bot
// token.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return errors.Wrap(urlErr.Err, "telegram api request failed")
	}
	return err
}

// IsMember reports whether userID is a member, administrator or creator of
// channelID.
func (b *Bot) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	member, err := b.Bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: channelID, UserID: userID},
	})
	if err != nil {
		return false, errors.Wrap(redact(err), "could not get chat member")
	}

	switch member.Status {
	case "member", "administrator", "creator":
		return true, nil
	}
	return false, nil
}

// HandleUpdate answers a single update with handler.
func (b *Bot) HandleUpdate(ctx context.Context, handler *Handler, u tgbotapi.Update) {
	if u.Message == nil {
		log.Debug("Received non-message update")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	m := u.Message
	metrics.TrackMessage(m.Chat.ID, m.Chat.Title)

	in := Incoming{ChatID: m.Chat.ID, UserID: m.Chat.ID, Text: m.Text}
	if m.From != nil {
		in.UserID = m.From.ID
	}
	if m.IsCommand() {
		in.Command = m.Command()
		in.Args = m.CommandArguments()
	}

	failed := 0
	for _, reply := range handler.Handle(ctx, in) {
		replies := b.replies
		if reply.Keyboard {
			replies = b.menuReplies
		}
		if err := replies.Deliver(ctx, m.Chat.ID, reply.Text, delivery.HTML); err != nil {
			log.WithError(err).WithField("chat_id", m.Chat.ID).Error("❌ failed to send reply")
			failed++
		}
	}
	if failed > 0 {
		log.WithField("chat_id", m.Chat.ID).Warnf("⚠️ %d replies were not delivered", failed)
	}
	metrics.CommandsProcessed.Inc()
}
