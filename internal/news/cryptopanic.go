package news

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"crypto-news-bot/internal/types"
	"crypto-news-bot/lib/helpers"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const cryptoPanicURL = "https://cryptopanic.com/api/v1/posts/"

// CryptoPanic reads the curated feed restricted to rising news.
type CryptoPanic struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewCryptoPanic(apiKey string, timeout time.Duration) *CryptoPanic {
	return &CryptoPanic{apiKey: apiKey, baseURL: cryptoPanicURL, client: newHTTPClient(timeout)}
}

func (c *CryptoPanic) Name() string { return "cryptopanic" }

func (c *CryptoPanic) Fetch(ctx context.Context) ([]types.NewsItem, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("auth_token", c.apiKey)
	params.Set("filter", "rising")
	params.Set("kind", "news")

	body, err := helpers.FetchBody(ctx, c.client, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "cryptopanic")
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("cryptopanic: malformed response")
	}

	var items []types.NewsItem
	gjson.GetBytes(body, "results").ForEach(func(_, post gjson.Result) bool {
		if item, ok := normalize(c.Name(), post.Get("title").String(), post.Get("url").String()); ok {
			items = append(items, item)
		}
		return true
	})
	return items, nil
}
