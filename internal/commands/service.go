// Package commands implements the on-demand bot commands independently of
// the chat transport.
package commands

import (
	"context"

	"crypto-news-bot/internal/notifier"
	"crypto-news-bot/internal/price"
	"crypto-news-bot/internal/types"

	"github.com/pkg/errors"
)

var (
	ErrNoSubscriptions = errors.New("no subscriptions")
	ErrNoNews          = errors.New("no news available")
)

type SubscriptionStore interface {
	Add(subscriber types.SubscriberID, asset types.AssetID) bool
	Remove(subscriber types.SubscriberID, asset types.AssetID) bool
	List(subscriber types.SubscriberID) []types.AssetID
}

type AssetValidator interface {
	Contains(asset types.AssetID) bool
}

type NewsFetcher interface {
	FetchAll(ctx context.Context) []types.NewsItem
}

type Scorer interface {
	Score(text string) types.Sentiment
}

type MarketData interface {
	Prices(ctx context.Context, assets []types.AssetID) (map[types.AssetID]float64, error)
	Markets(ctx context.Context, assets []types.AssetID) (map[types.AssetID]types.MarketChange, error)
}

type StatusReporter interface {
	Status() notifier.Status
}

// Deps wires a Service. Suggester and Scheduler are optional.
type Deps struct {
	Store     SubscriptionStore
	Known     AssetValidator
	News      NewsFetcher
	Scorer    Scorer
	Market    MarketData
	Suggester price.Suggester
	Scheduler StatusReporter
}

type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

func (s *Service) subscriptions(subscriber types.SubscriberID) ([]types.AssetID, error) {
	subs := s.deps.Store.List(subscriber)
	if len(subs) == 0 {
		return nil, ErrNoSubscriptions
	}
	return subs, nil
}
