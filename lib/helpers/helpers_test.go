package helpers

import (
	"path/filepath"
	"testing"

	"crypto-news-bot/internal/types"
	"crypto-news-bot/lib/translation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestFormatPriceUS(t *testing.T) {
	assert.Equal(t, "65,000", FormatPriceUS(65000.4))
	assert.Equal(t, "106.00", FormatPriceUS(106))
	assert.Equal(t, "0.950000", FormatPriceUS(0.95))
	assert.Equal(t, "0.00000120", FormatPriceUS(0.0000012))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "n/a", FormatPercent(nil))
	assert.Equal(t, "+1.50%", FormatPercent(ptr(1.5)))
	assert.Equal(t, "-0.25%", FormatPercent(ptr(-0.25)))
}

func TestAssetName(t *testing.T) {
	assert.Equal(t, "Bitcoin", AssetName("bitcoin"))
	assert.Equal(t, "Usd-Coin", AssetName("usd-coin"))
}

func TestNewsMessage(t *testing.T) {
	msg := NewsMessage(types.ScoredNews{
		NewsItem:  types.NewsItem{Title: "Bitcoin <surges> & rallies", URL: "https://x.io/a?b=1&c=2"},
		Sentiment: types.Positive,
	})
	assert.Equal(t,
		"<b>NEWS:</b>\nBitcoin &lt;surges&gt; &amp; rallies\n\n"+
			"<b>Sentiment:</b> 🟢 Positive\n\n"+
			"<a href='https://x.io/a?b=1&amp;c=2'>Source link</a>", msg)

	neutral := NewsMessage(types.ScoredNews{NewsItem: types.NewsItem{Title: "t"}, Sentiment: types.Neutral})
	assert.Equal(t, "<b>NEWS:</b>\nt\n\n<b>Sentiment:</b> <i>Neutral</i>", neutral)
}

func TestAlertMessage(t *testing.T) {
	up := AlertMessage(types.Alert{Asset: "bitcoin", Price: 106, Change: 6, Direction: types.Up})
	assert.Equal(t, "⚠️ Price change Bitcoin: 106.00 USD\nChange: ↑6.00%", up)

	down := AlertMessage(types.Alert{Asset: "ethereum", Price: 95, Change: -5.004, Direction: types.Down})
	assert.Contains(t, down, "↓5.00%")
}

func TestAlertMessage_Translated(t *testing.T) {
	locales := filepath.Join("..", "..", "locales")
	translation.Configure(locales, "ru")
	t.Cleanup(func() { translation.Configure(locales, "en") })

	msg := AlertMessage(types.Alert{Asset: "bitcoin", Price: 94, Change: -6, Direction: types.Down})
	assert.Equal(t, "⚠️ Изменение цены Bitcoin: 94.00 USD\nИзменение: ↓6.00%", msg)
}

func TestPricesMessage(t *testing.T) {
	msg := PricesMessage([]types.AssetID{"bitcoin", "nosuch"}, map[types.AssetID]float64{"bitcoin": 65000})
	assert.Equal(t, "Bitcoin: 65,000 USD\nNosuch: not found", msg)
}

func TestVolatilityMessage(t *testing.T) {
	msg := VolatilityMessage([]types.AssetID{"bitcoin", "ghost"}, map[types.AssetID]types.MarketChange{
		"bitcoin": {Asset: "bitcoin", Changes: map[types.Window]*float64{
			types.Window1h:  ptr(0.1),
			types.Window24h: ptr(-2),
			types.Window7d:  ptr(3),
			types.Window30d: ptr(10),
		}},
	})

	require.Contains(t, msg, "Bitcoin:\n  1h:  +0.10%\n  24h: -2.00%\n  7d:  +3.00%\n  14d: n/a\n  30d: +10.00%")
	assert.Contains(t, msg, "Ghost: no data found")
}

func TestDigestMessage(t *testing.T) {
	msg := DigestMessage([]types.ScoredNews{
		{NewsItem: types.NewsItem{Title: "ETH up", URL: "https://a"}, Sentiment: types.Positive},
		{NewsItem: types.NewsItem{Title: "BTC flat"}, Sentiment: types.Neutral},
	})
	assert.Equal(t, "📰 <b>News for your subscriptions</b>\n\n🟢 <a href='https://a'>ETH up</a>\n⚪ BTC flat", msg)
}

func TestSubscriptionList(t *testing.T) {
	assert.Equal(t, "- bitcoin\n- ethereum", SubscriptionList([]types.AssetID{"bitcoin", "ethereum"}))
	assert.Empty(t, SubscriptionList(nil))
}
