package helpers

import (
	"fmt"
	"math"
	"strings"

	"crypto-news-bot/internal/types"
	"crypto-news-bot/lib/translation"
)

func SentimentLabel(s types.Sentiment) string {
	switch s {
	case types.Positive:
		return "🟢 " + translation.Translate("Positive")
	case types.Negative:
		return "🔴 " + translation.Translate("Negative")
	default:
		return "<i>" + translation.Translate("Neutral") + "</i>"
	}
}

// NewsMessage renders one scored headline in HTML.
func NewsMessage(item types.ScoredNews) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n%s\n\n", translation.Translate("NEWS:"), EscapeHTML(item.Title))
	fmt.Fprintf(&b, "<b>%s</b> %s", translation.Translate("Sentiment:"), SentimentLabel(item.Sentiment))
	if item.URL != "" {
		fmt.Fprintf(&b, "\n\n<a href='%s'>%s</a>", EscapeHTML(item.URL), translation.Translate("Source link"))
	}
	return b.String()
}

// AlertMessage renders a price alert in HTML.
func AlertMessage(a types.Alert) string {
	arrow := "↑"
	if a.Direction == types.Down {
		arrow = "↓"
	}
	return fmt.Sprintf("⚠️ %s\n%s",
		translation.Translate("Price change %s: %s USD", EscapeHTML(AssetName(a.Asset)), FormatPriceUS(a.Price)),
		translation.Translate("Change: %s%.2f%%", arrow, math.Abs(a.Change)),
	)
}

// DigestMessage renders the matched headlines of one subscriber as a single
// HTML message.
func DigestMessage(items []types.ScoredNews) string {
	var b strings.Builder
	b.WriteString("📰 <b>" + translation.Translate("News for your subscriptions") + "</b>\n")
	for _, item := range items {
		b.WriteString("\n" + sentimentDot(item.Sentiment) + " ")
		if item.URL != "" {
			fmt.Fprintf(&b, "<a href='%s'>%s</a>", EscapeHTML(item.URL), EscapeHTML(item.Title))
		} else {
			b.WriteString(EscapeHTML(item.Title))
		}
	}
	return b.String()
}

func sentimentDot(s types.Sentiment) string {
	switch s {
	case types.Positive:
		return "🟢"
	case types.Negative:
		return "🔴"
	default:
		return "⚪"
	}
}

// PricesMessage lists the USD price of every asset in order.
func PricesMessage(assets []types.AssetID, prices map[types.AssetID]float64) string {
	lines := make([]string, 0, len(assets))
	for _, asset := range assets {
		name := EscapeHTML(AssetName(asset))
		if p, ok := prices[asset]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s USD", name, FormatPriceUS(p)))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %s", name, translation.Translate("not found")))
		}
	}
	return strings.Join(lines, "\n")
}

// VolatilityMessage lists the multi window changes of every asset in order.
func VolatilityMessage(assets []types.AssetID, markets map[types.AssetID]types.MarketChange) string {
	blocks := make([]string, 0, len(assets))
	for _, asset := range assets {
		name := EscapeHTML(AssetName(asset))
		m, ok := markets[asset]
		if !ok {
			blocks = append(blocks, fmt.Sprintf("%s: %s", name, translation.Translate("no data found")))
			continue
		}

		var b strings.Builder
		b.WriteString(name + ":")
		for _, w := range types.VolatilityWindows {
			fmt.Fprintf(&b, "\n  %-4s %s", string(w)+":", FormatPercent(m.Changes[w]))
		}
		blocks = append(blocks, b.String())
	}
	return translation.Translate("Price dynamics (Volatility):") + "\n\n" + strings.Join(blocks, "\n\n")
}

// SubscriptionList renders assets as a dashed list.
func SubscriptionList(assets []types.AssetID) string {
	lines := make([]string, 0, len(assets))
	for _, asset := range assets {
		lines = append(lines, "- "+EscapeHTML(asset))
	}
	return strings.Join(lines, "\n")
}
