package news

import (
	"context"
	"fmt"
	"sync"

	"crypto-news-bot/internal/metrics"
	"crypto-news-bot/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Aggregator queries every source and concatenates their items. A failing
// source only ever costs its own items.
type Aggregator struct {
	sources []Source
}

func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{sources: sources}
}

// FetchAll runs all sources concurrently. The result keeps source
// registration order and is not deduplicated across sources.
func (a *Aggregator) FetchAll(ctx context.Context) []types.NewsItem {
	results := make([][]types.NewsItem, len(a.sources))

	var wg sync.WaitGroup
	for i, source := range a.sources {
		wg.Add(1)
		go func(i int, source Source) {
			defer wg.Done()
			results[i] = fetchOne(ctx, source)
		}(i, source)
	}
	wg.Wait()

	var all []types.NewsItem
	for _, items := range results {
		all = append(all, items...)
	}
	log.Infof("📰 fetched %d news items from %d sources", len(all), len(a.sources))
	return all
}

func fetchOne(ctx context.Context, source Source) (items []types.NewsItem) {
	logger := log.WithField("source", source.Name())

	defer func() {
		if r := recover(); r != nil {
			logger.WithError(fmt.Errorf("%v", r)).Error("🔥 panic recovered in news source")
			metrics.SourceFailures.WithLabelValues(source.Name()).Inc()
			items = nil
		}
	}()

	items, err := source.Fetch(ctx)
	if errors.Is(err, ErrNotConfigured) {
		logger.Warn("news source has no API key, skipping")
		return nil
	}
	if err != nil {
		logger.WithError(err).Warn("❌ news source failed")
		metrics.SourceFailures.WithLabelValues(source.Name()).Inc()
		return nil
	}

	logger.Debugf("received %d items", len(items))
	return items
}
