package price

import (
	"context"
	"math"
	"sort"
	"sync"

	"crypto-news-bot/internal/metrics"
	"crypto-news-bot/internal/statefile"
	"crypto-news-bot/internal/types"

	log "github.com/sirupsen/logrus"
)

// FileName is the default previous price file inside the data directory.
const FileName = "previous_prices.json"

// Tracker compares fresh prices with the ones seen on the previous check.
//
// Check only stages the fresh prices. They become the previous prices once
// Commit is called, so a caller that failed to deliver the alerts can check
// again against the same baseline.
type Tracker struct {
	provider      Provider
	path          string
	persistAlways bool

	mu       sync.Mutex
	loaded   bool
	previous map[types.AssetID]float64
	pending  map[types.AssetID]float64
	alerted  bool
}

// NewTracker creates a tracker backed by the JSON file at path. With
// persistAlways the file is rewritten after every committed check, otherwise
// only after checks that produced an alert.
func NewTracker(provider Provider, path string, persistAlways bool) *Tracker {
	return &Tracker{provider: provider, path: path, persistAlways: persistAlways}
}

// Check fetches the prices of every asset in thresholds and returns an alert
// for each asset that moved at least its threshold, in percent, since the
// last committed check.
func (t *Tracker) Check(ctx context.Context, thresholds map[types.AssetID]float64) []types.Alert {
	t.mu.Lock()
	t.pending, t.alerted = nil, false
	t.mu.Unlock()

	assets := make([]types.AssetID, 0, len(thresholds))
	for asset := range thresholds {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	if len(assets) == 0 {
		return nil
	}

	current, err := t.provider.Prices(ctx, assets)
	if err != nil {
		log.WithError(err).Error("❌ failed to fetch prices, skipping price check")
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.load()

	var alerts []types.Alert
	pending := make(map[types.AssetID]float64)
	for _, asset := range assets {
		cur, ok := current[asset]
		if !ok || !valid(cur) {
			log.WithField("asset", asset).Warn("⚠️ no current price")
			continue
		}

		if prev, ok := t.previous[asset]; ok && valid(prev) && prev > 0 {
			change := (cur - prev) / prev * 100
			log.Debugf("🔍 %s: previous %.8g current %.8g change %.2f%% threshold %.2f%%",
				asset, prev, cur, change, thresholds[asset])

			if math.Abs(change) >= thresholds[asset] {
				alerts = append(alerts, types.Alert{
					Asset:     asset,
					Price:     cur,
					Change:    change,
					Threshold: thresholds[asset],
					Direction: direction(change),
				})
			}
		}

		pending[asset] = cur
	}

	t.pending = pending
	t.alerted = len(alerts) > 0
	metrics.PriceAlerts.Add(float64(len(alerts)))
	return alerts
}

// Commit makes the prices of the last Check the previous prices. The state
// file is rewritten when that check raised an alert, or always with
// persistAlways. Commit without a pending check does nothing.
func (t *Tracker) Commit() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) == 0 {
		return
	}
	t.load()
	for asset, price := range t.pending {
		t.previous[asset] = price
	}
	alerted := t.alerted
	t.pending, t.alerted = nil, false

	if alerted || t.persistAlways {
		if err := statefile.Write(t.path, t.previous); err != nil {
			log.WithError(err).Error("❌ failed to persist previous prices")
		}
	}
}

// Previous returns the remembered price of asset.
func (t *Tracker) Previous(asset types.AssetID) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load()

	p, ok := t.previous[asset]
	return p, ok
}

func (t *Tracker) load() {
	if t.loaded {
		return
	}
	t.loaded = true
	t.previous = make(map[types.AssetID]float64)

	if err := statefile.Read(t.path, &t.previous); err != nil {
		log.WithError(err).Warn("⚠️ could not read previous prices, starting empty")
		t.previous = make(map[types.AssetID]float64)
	}
}

func direction(change float64) types.Direction {
	if change < 0 {
		return types.Down
	}
	return types.Up
}

func valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
