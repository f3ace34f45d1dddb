package types

import "time"

// SubscriberID identifies a chat user, the Telegram user ID in decimal.
type SubscriberID = string

// AssetID is a canonical lowercase coin identifier, e.g. "bitcoin".
type AssetID = string

type Sentiment string

const (
	Positive Sentiment = "POSITIVE"
	Negative Sentiment = "NEGATIVE"
	Neutral  Sentiment = "NEUTRAL"
)

// NewsItem is a normalized headline from any news source.
type NewsItem struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

type ScoredNews struct {
	NewsItem
	Sentiment Sentiment `json:"sentiment"`
}

type PriceSample struct {
	Asset      AssetID   `json:"asset"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

type Direction string

const (
	Up   Direction = "UP"
	Down Direction = "DOWN"
)

// Alert is emitted when a price moved at least Threshold percent since the
// previous sample.
type Alert struct {
	Asset     AssetID   `json:"asset"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	Threshold float64   `json:"threshold"`
	Direction Direction `json:"direction"`
}

// Window is a price change period understood by the price providers.
type Window string

const (
	Window1h  Window = "1h"
	Window24h Window = "24h"
	Window7d  Window = "7d"
	Window14d Window = "14d"
	Window30d Window = "30d"
)

// VolatilityWindows are the periods reported by the volatility command.
var VolatilityWindows = []Window{Window1h, Window24h, Window7d, Window14d, Window30d}

// MarketChange holds multi-window percent changes of an asset. A nil pointer
// means the provider had no value.
type MarketChange struct {
	Asset   AssetID             `json:"asset"`
	Price   *float64            `json:"price"`
	Changes map[Window]*float64 `json:"changes"`
}
