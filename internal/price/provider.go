// Package price fetches spot prices and detects significant moves between
// polling cycles.
package price

import (
	"context"
	"net/http"
	"time"

	"crypto-news-bot/internal/types"

	"github.com/pkg/errors"
)

// Currency is the quote currency used everywhere.
const Currency = "usd"

// DefaultTimeout bounds every provider request.
const DefaultTimeout = 10 * time.Second

// ErrNoPrices is returned when a provider could not price any requested asset.
var ErrNoPrices = errors.New("no prices returned")

// Provider is a market data source.
type Provider interface {
	Name() string
	// Prices returns the current price per asset. Assets the provider does
	// not know are absent from the result.
	Prices(ctx context.Context, assets []types.AssetID) (map[types.AssetID]float64, error)
	// Markets returns multi window percent changes per asset.
	Markets(ctx context.Context, assets []types.AssetID) (map[types.AssetID]types.MarketChange, error)
	// KnownAssets lists every identifier the provider can price.
	KnownAssets(ctx context.Context) ([]types.AssetID, error)
}

// Suggester is implemented by providers that can map a loose query such as a
// ticker symbol onto an asset id.
type Suggester interface {
	Suggest(ctx context.Context, query string) (types.AssetID, bool)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
