package price

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crypto-news-bot/internal/types"
	"crypto-news-bot/lib/helpers"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

const coinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGecko prices assets through the public CoinGecko REST API. Asset ids are
// CoinGecko coin ids, which already are canonical slugs.
type CoinGecko struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewCoinGecko(apiKey string, timeout time.Duration) *CoinGecko {
	return &CoinGecko{apiKey: apiKey, baseURL: coinGeckoURL, client: newHTTPClient(timeout)}
}

func (g *CoinGecko) Name() string { return "coingecko" }

func (g *CoinGecko) fetch(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	var headers map[string]string
	if g.apiKey != "" {
		headers = map[string]string{"x-cg-demo-api-key": g.apiKey}
	}

	target := g.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	body, err := helpers.FetchBody(ctx, g.client, target, headers)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "coingecko: %s", path)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.Errorf("coingecko: %s returned invalid json", path)
	}
	return gjson.ParseBytes(body), nil
}

func (g *CoinGecko) Prices(ctx context.Context, assets []types.AssetID) (map[types.AssetID]float64, error) {
	out := make(map[types.AssetID]float64, len(assets))
	if len(assets) == 0 {
		return out, nil
	}

	res, err := g.fetch(ctx, "/simple/price", url.Values{
		"ids":           {strings.Join(assets, ",")},
		"vs_currencies": {Currency},
	})
	if err != nil {
		return nil, err
	}

	wanted := lo.Associate(assets, func(a types.AssetID) (types.AssetID, struct{}) { return a, struct{}{} })
	res.ForEach(func(key, value gjson.Result) bool {
		if _, ok := wanted[key.String()]; !ok {
			return true
		}
		if p := value.Get(Currency); p.Exists() && p.Type == gjson.Number {
			out[key.String()] = p.Float()
		}
		return true
	})
	return out, nil
}

func (g *CoinGecko) Markets(ctx context.Context, assets []types.AssetID) (map[types.AssetID]types.MarketChange, error) {
	out := make(map[types.AssetID]types.MarketChange, len(assets))
	if len(assets) == 0 {
		return out, nil
	}

	windows := lo.Map(types.VolatilityWindows, func(w types.Window, _ int) string { return string(w) })
	res, err := g.fetch(ctx, "/coins/markets", url.Values{
		"vs_currency":             {Currency},
		"ids":                     {strings.Join(assets, ",")},
		"price_change_percentage": {strings.Join(windows, ",")},
	})
	if err != nil {
		return nil, err
	}

	res.ForEach(func(_, coin gjson.Result) bool {
		asset := coin.Get("id").String()
		if asset == "" {
			return true
		}

		change := types.MarketChange{
			Asset:   asset,
			Price:   numberOrNil(coin.Get("current_price")),
			Changes: make(map[types.Window]*float64, len(types.VolatilityWindows)),
		}
		for _, w := range types.VolatilityWindows {
			change.Changes[w] = numberOrNil(coin.Get("price_change_percentage_" + string(w) + "_in_currency"))
		}
		out[asset] = change
		return true
	})
	return out, nil
}

func (g *CoinGecko) KnownAssets(ctx context.Context) ([]types.AssetID, error) {
	res, err := g.fetch(ctx, "/coins/list", nil)
	if err != nil {
		return nil, err
	}

	var out []types.AssetID
	for _, id := range res.Get("#.id").Array() {
		if s := strings.ToLower(id.String()); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func numberOrNil(r gjson.Result) *float64 {
	if r.Type != gjson.Number {
		return nil
	}
	v := r.Float()
	return &v
}
