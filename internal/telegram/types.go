package telegram

import (
	"crypto-news-bot/internal/delivery"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
	// APIEndpoint overrides the Bot API URL format, tests point it at a local server.
	APIEndpoint string
}

// Bot telegram interaction client
type Bot struct {
	Bot    *tgbotapi.BotAPI
	Config BotConfig

	// replies answer commands, menu replies also carry the main keyboard
	replies     *delivery.Deliverer
	menuReplies *delivery.Deliverer
}

// Incoming is a text message or command addressed to the bot.
type Incoming struct {
	ChatID  int64
	UserID  int64
	Command string
	Args    string
	Text    string
}

// Reply is one outgoing HTML message. Keyboard attaches the main menu.
type Reply struct {
	Text     string
	Keyboard bool
}

type awaiting int

const (
	awaitingNothing awaiting = iota
	awaitingSubscribe
	awaitingUnsubscribe
	awaitingChannel
)
