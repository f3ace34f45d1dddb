package price

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"crypto-news-bot/internal/types"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CoinPaprika prices assets through the coinpaprika API client.
//
// CoinPaprika identifies coins as "<symbol>-<slug>", e.g. "btc-bitcoin". The
// canonical asset id is the slug, so "btc-bitcoin" is known as "bitcoin". When
// two coins share a slug the better ranked one wins.
type CoinPaprika struct {
	client *coinpaprika.Client

	mu    sync.RWMutex
	index map[types.AssetID]string
}

// NewCoinPaprika builds a provider. httpClient may be nil, apiKey may be empty.
func NewCoinPaprika(httpClient *http.Client, apiKey string) *CoinPaprika {
	if httpClient == nil {
		httpClient = newHTTPClient(DefaultTimeout)
	}

	var opts []coinpaprika.ClientOptions
	if apiKey != "" {
		opts = append(opts, coinpaprika.WithAPIKey(apiKey))
	}

	return &CoinPaprika{client: coinpaprika.NewClient(httpClient, opts...)}
}

// NewCoinPaprikaWithTimeout is NewCoinPaprika with a fresh http client.
func NewCoinPaprikaWithTimeout(timeout time.Duration, apiKey string) *CoinPaprika {
	return NewCoinPaprika(newHTTPClient(timeout), apiKey)
}

func (p *CoinPaprika) Name() string { return "coinpaprika" }

// Slug turns a coinpaprika id into the canonical asset id.
func Slug(paprikaID string) types.AssetID {
	id := strings.ToLower(strings.TrimSpace(paprikaID))
	if _, slug, ok := strings.Cut(id, "-"); ok && slug != "" {
		return slug
	}
	return id
}

func (p *CoinPaprika) KnownAssets(ctx context.Context) ([]types.AssetID, error) {
	index, err := p.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]types.AssetID, 0, len(index))
	for asset := range index {
		out = append(out, asset)
	}
	sort.Strings(out)
	return out, nil
}

func (p *CoinPaprika) loadIndex(ctx context.Context) (map[types.AssetID]string, error) {
	p.mu.RLock()
	index := p.index
	p.mu.RUnlock()
	if index != nil {
		return index, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	coins, err := p.client.Coins.List()
	if err != nil {
		return nil, errors.Wrap(err, "coinpaprika: list coins")
	}

	active := make([]*coinpaprika.Coin, 0, len(coins))
	for _, c := range coins {
		if c == nil || c.ID == nil {
			continue
		}
		if c.IsActive != nil && !*c.IsActive {
			continue
		}
		active = append(active, c)
	}
	sort.SliceStable(active, func(i, j int) bool {
		return rankOf(active[i]) < rankOf(active[j])
	})

	index = make(map[types.AssetID]string, len(active))
	for _, c := range active {
		slug := Slug(*c.ID)
		if _, taken := index[slug]; !taken {
			index[slug] = *c.ID
		}
	}

	p.mu.Lock()
	p.index = index
	p.mu.Unlock()

	log.Infof("🪙 coinpaprika index loaded with %d assets", len(index))
	return index, nil
}

// rankOf orders unranked coins after ranked ones.
func rankOf(c *coinpaprika.Coin) int64 {
	if c.Rank == nil || *c.Rank <= 0 {
		return 1 << 62
	}
	return *c.Rank
}

func (p *CoinPaprika) ticker(ctx context.Context, asset types.AssetID) (coinpaprika.Quote, error) {
	index, err := p.loadIndex(ctx)
	if err != nil {
		return coinpaprika.Quote{}, err
	}
	id, ok := index[asset]
	if !ok {
		return coinpaprika.Quote{}, errUnknown
	}
	if err := ctx.Err(); err != nil {
		return coinpaprika.Quote{}, err
	}

	quote := strings.ToUpper(Currency)
	t, err := p.client.Tickers.GetByID(id, &coinpaprika.TickersOptions{Quotes: quote})
	if err != nil {
		return coinpaprika.Quote{}, errors.Wrapf(err, "coinpaprika: ticker %s", id)
	}
	q, ok := t.Quotes[quote]
	if !ok {
		return coinpaprika.Quote{}, errors.Errorf("coinpaprika: ticker %s has no %s quote", id, quote)
	}
	return q, nil
}

var errUnknown = errors.New("unknown asset")

func (p *CoinPaprika) Prices(ctx context.Context, assets []types.AssetID) (map[types.AssetID]float64, error) {
	out := make(map[types.AssetID]float64, len(assets))
	var lastErr error
	for _, asset := range assets {
		q, err := p.ticker(ctx, asset)
		if errors.Is(err, errUnknown) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).WithField("asset", asset).Warn("⚠️ price lookup failed")
			lastErr = err
			continue
		}
		if q.Price != nil {
			out[asset] = *q.Price
		}
	}

	if len(out) == 0 && lastErr != nil {
		return nil, errors.Wrap(lastErr, ErrNoPrices.Error())
	}
	return out, nil
}

// Markets fills every window coinpaprika reports. The 14d window has no
// coinpaprika counterpart and stays nil.
func (p *CoinPaprika) Markets(ctx context.Context, assets []types.AssetID) (map[types.AssetID]types.MarketChange, error) {
	out := make(map[types.AssetID]types.MarketChange, len(assets))
	var lastErr error
	for _, asset := range assets {
		q, err := p.ticker(ctx, asset)
		if errors.Is(err, errUnknown) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).WithField("asset", asset).Warn("⚠️ market lookup failed")
			lastErr = err
			continue
		}

		out[asset] = types.MarketChange{
			Asset: asset,
			Price: q.Price,
			Changes: map[types.Window]*float64{
				types.Window1h:  q.PercentChange1h,
				types.Window24h: q.PercentChange24h,
				types.Window7d:  q.PercentChange7d,
				types.Window14d: nil,
				types.Window30d: q.PercentChange30d,
			},
		}
	}

	if len(out) == 0 && lastErr != nil {
		return nil, errors.Wrap(lastErr, ErrNoPrices.Error())
	}
	return out, nil
}

// Suggest searches coinpaprika for query, first as a symbol then as a name,
// and returns the canonical id of the best known match.
func (p *CoinPaprika) Suggest(ctx context.Context, query string) (types.AssetID, bool) {
	query = strings.TrimSpace(query)
	if query == "" || ctx.Err() != nil {
		return "", false
	}
	index, err := p.loadIndex(ctx)
	if err != nil {
		return "", false
	}

	for _, modifier := range []string{"symbol_search", ""} {
		result, err := p.client.Search.Search(&coinpaprika.SearchOptions{
			Query:      query,
			Categories: "currencies",
			Limit:      5,
			Modifier:   modifier,
		})
		if err != nil || result == nil {
			log.WithError(err).Debugf("no search results for %q", query)
			continue
		}

		for _, c := range result.Currencies {
			if c == nil || c.ID == nil {
				continue
			}
			slug := Slug(*c.ID)
			if index[slug] == *c.ID {
				return slug, true
			}
		}
	}
	return "", false
}
