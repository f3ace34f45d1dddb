package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	buttonNews        = "📰 News"
	buttonPrice       = "💰 Price"
	buttonVolatility  = "📈 Volatility"
	buttonTelegram    = "📨 Telegram"
	buttonHelp        = "🆘 Help"
	buttonSubscribe   = "🔔 Subscribe"
	buttonUnsubscribe = "🔕 Unsubscribe"
)

// buttonCommands maps reply keyboard labels, lowercased, onto commands.
var buttonCommands = map[string]string{
	strings.ToLower(buttonNews):        "news",
	strings.ToLower(buttonPrice):       "price",
	strings.ToLower(buttonVolatility):  "volatility",
	strings.ToLower(buttonTelegram):    "channel",
	strings.ToLower(buttonHelp):        "help",
	strings.ToLower(buttonSubscribe):   "subscribe",
	strings.ToLower(buttonUnsubscribe): "unsubscribe",
}

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonNews),
			tgbotapi.NewKeyboardButton(buttonPrice),
			tgbotapi.NewKeyboardButton(buttonVolatility),
			tgbotapi.NewKeyboardButton(buttonTelegram),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonHelp),
			tgbotapi.NewKeyboardButton(buttonSubscribe),
			tgbotapi.NewKeyboardButton(buttonUnsubscribe),
		),
	)
	keyboard.OneTimeKeyboard = false
	return keyboard
}
