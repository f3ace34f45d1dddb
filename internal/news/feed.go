package news

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"crypto-news-bot/internal/types"
	"crypto-news-bot/lib/helpers"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
)

const (
	CoinDeskFeedURL      = "https://feeds.feedburner.com/CoinDesk"
	CoinTelegraphFeedURL = "https://cointelegraph.com/rss"
)

// Feed reads an RSS, Atom or JSON feed.
type Feed struct {
	name   string
	url    string
	client *http.Client
}

func NewFeed(name, url string, timeout time.Duration) *Feed {
	return &Feed{name: name, url: url, client: newHTTPClient(timeout)}
}

func NewCoinDesk(timeout time.Duration) *Feed {
	return NewFeed("coindesk", CoinDeskFeedURL, timeout)
}

func NewCoinTelegraph(timeout time.Duration) *Feed {
	return NewFeed("cointelegraph", CoinTelegraphFeedURL, timeout)
}

func (f *Feed) Name() string { return f.name }

func (f *Feed) Fetch(ctx context.Context) ([]types.NewsItem, error) {
	body, err := helpers.FetchBody(ctx, f.client, f.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, f.name)
	}

	// gofeed parsers are not safe for concurrent use, one per fetch
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "%s: parse feed", f.name)
	}

	items := make([]types.NewsItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if item, ok := normalize(f.name, entry.Title, entry.Link); ok {
			items = append(items, item)
		}
	}
	return items, nil
}
