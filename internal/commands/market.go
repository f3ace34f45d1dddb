package commands

import (
	"context"

	"crypto-news-bot/internal/relevance"
	"crypto-news-bot/internal/types"
	"crypto-news-bot/lib/helpers"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// News returns the current headlines matching the subscriber's assets, scored.
// An empty result with a nil error means nothing matched.
func (s *Service) News(ctx context.Context, subscriber types.SubscriberID) ([]types.ScoredNews, error) {
	subs, err := s.subscriptions(subscriber)
	if err != nil {
		return nil, err
	}
	log.Debugf("processing news request of %s for %v", subscriber, subs)

	items := s.deps.News.FetchAll(ctx)
	if len(items) == 0 {
		return nil, ErrNoNews
	}

	matched := relevance.Dedupe(relevance.Match(items, subs))
	out := make([]types.ScoredNews, 0, len(matched))
	for _, item := range matched {
		out = append(out, types.ScoredNews{NewsItem: item, Sentiment: s.deps.Scorer.Score(item.Title)})
	}
	return out, nil
}

func (s *Service) Price(ctx context.Context, subscriber types.SubscriberID) (string, error) {
	subs, err := s.subscriptions(subscriber)
	if err != nil {
		return "", err
	}

	prices, err := s.deps.Market.Prices(ctx, subs)
	if err != nil {
		return "", errors.Wrap(err, "command price")
	}
	return helpers.PricesMessage(subs, prices), nil
}

func (s *Service) Volatility(ctx context.Context, subscriber types.SubscriberID) (string, error) {
	subs, err := s.subscriptions(subscriber)
	if err != nil {
		return "", err
	}

	markets, err := s.deps.Market.Markets(ctx, subs)
	if err != nil {
		return "", errors.Wrap(err, "command volatility")
	}
	return helpers.VolatilityMessage(subs, markets), nil
}
