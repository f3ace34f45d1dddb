package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"crypto-news-bot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewrite sends every request to the test server whatever host it names.
type rewrite struct {
	target *url.URL
}

func (r rewrite) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func paprikaServer(t *testing.T) *CoinPaprika {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/coins"):
			w.Write([]byte(`[
				{"id":"bitcoin-bitcoin","rank":0,"is_active":true},
				{"id":"btc-bitcoin","rank":1,"is_active":true},
				{"id":"eth-ethereum","rank":2,"is_active":true},
				{"id":"old-deadcoin","rank":0,"is_active":false}
			]`))
		case strings.HasSuffix(r.URL.Path, "/tickers/btc-bitcoin"):
			assert.Equal(t, "USD", r.URL.Query().Get("quotes"))
			w.Write([]byte(`{"id":"btc-bitcoin","quotes":{"USD":{
				"price":65000.5,"percent_change_1h":0.5,"percent_change_24h":-2.25,
				"percent_change_7d":4,"percent_change_30d":12.5}}}`))
		case strings.HasSuffix(r.URL.Path, "/search"):
			if r.URL.Query().Get("q") == "btc" && r.URL.Query().Get("modifier") == "symbol_search" {
				w.Write([]byte(`{"currencies":[{"id":"btc-bitcoin","rank":1}]}`))
				return
			}
			if r.URL.Query().Get("q") == "ether" && r.URL.Query().Get("modifier") == "" {
				w.Write([]byte(`{"currencies":[{"id":"eth-ethereum","rank":2}]}`))
				return
			}
			w.Write([]byte(`{"currencies":[]}`))
		case strings.HasSuffix(r.URL.Path, "/tickers/eth-ethereum"):
			http.Error(w, "down", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewCoinPaprika(&http.Client{Transport: rewrite{target: target}}, "")
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "bitcoin", Slug("btc-bitcoin"))
	assert.Equal(t, "usd-coin", Slug("usdc-usd-coin"))
	assert.Equal(t, "plain", Slug("Plain"))
}

func TestCoinPaprika_KnownAssets(t *testing.T) {
	p := paprikaServer(t)

	assets, err := p.KnownAssets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.AssetID{"bitcoin", "ethereum"}, assets)

	index, err := p.loadIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "btc-bitcoin", index["bitcoin"], "ranked coin wins the slug")
}

func TestCoinPaprika_Prices(t *testing.T) {
	p := paprikaServer(t)

	prices, err := p.Prices(context.Background(), []types.AssetID{"bitcoin", "ethereum", "nosuchcoin"})
	require.NoError(t, err)
	assert.Equal(t, map[types.AssetID]float64{"bitcoin": 65000.5}, prices)
}

func TestCoinPaprika_PricesAllFailing(t *testing.T) {
	p := paprikaServer(t)

	_, err := p.Prices(context.Background(), []types.AssetID{"ethereum"})
	require.Error(t, err)
}

func TestCoinPaprika_Markets(t *testing.T) {
	p := paprikaServer(t)

	markets, err := p.Markets(context.Background(), []types.AssetID{"bitcoin"})
	require.NoError(t, err)

	btc := markets["bitcoin"]
	require.NotNil(t, btc.Price)
	assert.Equal(t, 65000.5, *btc.Price)
	assert.Equal(t, -2.25, *btc.Changes[types.Window24h])
	assert.Equal(t, 12.5, *btc.Changes[types.Window30d])
	assert.Nil(t, btc.Changes[types.Window14d])
}

func geckoServer(t *testing.T, handler http.HandlerFunc) *CoinGecko {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewCoinGecko("demo-key", 0)
	g.baseURL = srv.URL
	return g
}

func TestCoinGecko_Prices(t *testing.T) {
	g := geckoServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,ethereum", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		w.Write([]byte(`{"bitcoin":{"usd":65000},"ethereum":{"usd":null},"dogecoin":{"usd":0.1}}`))
	})

	prices, err := g.Prices(context.Background(), []types.AssetID{"bitcoin", "ethereum"})
	require.NoError(t, err)
	assert.Equal(t, map[types.AssetID]float64{"bitcoin": 65000}, prices)
}

func TestCoinGecko_PricesError(t *testing.T) {
	g := geckoServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := g.Prices(context.Background(), []types.AssetID{"bitcoin"})
	require.Error(t, err)
}

func TestCoinGecko_Markets(t *testing.T) {
	g := geckoServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "1h,24h,7d,14d,30d", r.URL.Query().Get("price_change_percentage"))
		w.Write([]byte(`[{"id":"bitcoin","current_price":65000,
			"price_change_percentage_1h_in_currency":0.1,
			"price_change_percentage_24h_in_currency":-1.5,
			"price_change_percentage_7d_in_currency":3,
			"price_change_percentage_14d_in_currency":null,
			"price_change_percentage_30d_in_currency":9.75}]`))
	})

	markets, err := g.Markets(context.Background(), []types.AssetID{"bitcoin"})
	require.NoError(t, err)

	btc := markets["bitcoin"]
	assert.Equal(t, 65000.0, *btc.Price)
	assert.Equal(t, -1.5, *btc.Changes[types.Window24h])
	assert.Nil(t, btc.Changes[types.Window14d])
	assert.Equal(t, 9.75, *btc.Changes[types.Window30d])
}

func TestCoinGecko_KnownAssets(t *testing.T) {
	g := geckoServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/list", r.URL.Path)
		w.Write([]byte(`[{"id":"bitcoin","symbol":"btc"},{"id":"Ethereum","symbol":"eth"},{"id":""}]`))
	})

	assets, err := g.KnownAssets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.AssetID{"bitcoin", "ethereum"}, assets)
}

func TestCoinPaprika_Suggest(t *testing.T) {
	p := paprikaServer(t)

	asset, ok := p.Suggest(context.Background(), "btc")
	require.True(t, ok)
	assert.Equal(t, "bitcoin", asset)

	asset, ok = p.Suggest(context.Background(), "ether")
	require.True(t, ok)
	assert.Equal(t, "ethereum", asset)

	_, ok = p.Suggest(context.Background(), "zzz")
	assert.False(t, ok)
}
