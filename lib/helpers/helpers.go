package helpers

import (
	"fmt"
	"html"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// EscapeHTML escapes text for Telegram HTML parse mode.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

func FormatPriceUS(price float64) string {
	decimals := 6

	if price >= 1000 {
		decimals = 0
	} else if price > 1.2 {
		decimals = 2
	} else if price < 0.00001 {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	return p.Sprintf("%.*f", decimals, price)
}

func FormatPriceRoundedUS(price float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d", int64(price+0.5))
}

// FormatPercent renders a signed percent change, or "n/a" when unknown.
func FormatPercent(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", *p)
}

// AssetName turns an asset id into a display name, "usd-coin" into "Usd-Coin".
func AssetName(asset string) string {
	return cases.Title(language.English).String(strings.TrimSpace(asset))
}
