package relevance

import (
	"testing"

	"crypto-news-bot/internal/types"

	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tt := []struct {
		title  string
		assets []string
		want   bool
	}{
		{"Bitcoin rallies", []string{"bitcoin"}, true},
		{"tonight's show", []string{"ton"}, false},
		{"TON climbs after listing", []string{"ton"}, true},
		{"Why bitcoin-cash forked", []string{"bitcoin"}, true},
		{"Ethereum upgrade ships", []string{"bitcoin", "ethereum"}, true},
		{"Solana outage", []string{"sol"}, false},
		{"anything", nil, false},
		{"what is usd-coin (USDC)?", []string{"usd-coin"}, true},
		{"éton pumps", []string{"ton"}, false},
		{"tonа rally", []string{"ton"}, false},
		{"ton_bridge reopens", []string{"ton"}, false},
		{"«TON» gains", []string{"ton"}, true},
		{"Новости: TON растёт", []string{"ton"}, true},
	}

	for _, tc := range tt {
		require.Equalf(t, tc.want, Matches(tc.title, tc.assets), "%q vs %v", tc.title, tc.assets)
	}
}

func TestMatch(t *testing.T) {
	items := []types.NewsItem{
		{Title: "Ethereum upgrade ships", URL: "https://a/1"},
		{Title: "Dogecoin meme trends", URL: "https://a/2"},
	}

	require.Equal(t, items[:1], Match(items, []string{"ethereum"}))
	require.Empty(t, Match(items, nil))
}

func TestDedupe(t *testing.T) {
	items := []types.NewsItem{
		{Title: "Bitcoin ETF approved", URL: "https://news/etf/", Source: "cryptopanic"},
		{Title: "bitcoin etf approved", URL: "https://NEWS/etf", Source: "newsapi"},
		{Title: "No link here", Source: "coindesk"},
		{Title: "NO LINK HERE", Source: "cointelegraph"},
		{Title: "Other", URL: "https://news/other"},
	}

	out := Dedupe(items)
	require.Len(t, out, 3)
	require.Equal(t, "cryptopanic", out[0].Source)
	require.Equal(t, "coindesk", out[1].Source)
	require.Equal(t, "Other", out[2].Title)
}
