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

const (
	newsAPIURL   = "https://newsapi.org/v2/everything"
	newsAPIQuery = "cryptocurrency OR bitcoin OR ethereum"
)

// NewsAPI runs a keyword search over general news outlets.
type NewsAPI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewNewsAPI(apiKey string, timeout time.Duration) *NewsAPI {
	return &NewsAPI{apiKey: apiKey, baseURL: newsAPIURL, client: newHTTPClient(timeout)}
}

func (n *NewsAPI) Name() string { return "newsapi" }

func (n *NewsAPI) Fetch(ctx context.Context) ([]types.NewsItem, error) {
	if n.apiKey == "" {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("q", newsAPIQuery)
	params.Set("apiKey", n.apiKey)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", "50")

	body, err := helpers.FetchBody(ctx, n.client, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "newsapi")
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("newsapi: malformed response")
	}
	if status := gjson.GetBytes(body, "status").String(); status == "error" {
		return nil, errors.Errorf("newsapi: %s", gjson.GetBytes(body, "message").String())
	}

	var items []types.NewsItem
	gjson.GetBytes(body, "articles").ForEach(func(_, article gjson.Result) bool {
		if item, ok := normalize(n.Name(), article.Get("title").String(), article.Get("url").String()); ok {
			items = append(items, item)
		}
		return true
	})
	return items, nil
}
