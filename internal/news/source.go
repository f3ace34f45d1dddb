// Package news collects headlines from independent news providers.
package news

import (
	"context"
	"net/http"
	"strings"
	"time"

	"crypto-news-bot/internal/types"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds every provider request.
const DefaultTimeout = 10 * time.Second

// Source is one news provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]types.NewsItem, error)
}

// ErrNotConfigured is returned by sources that need an API key they do not have.
var ErrNotConfigured = errors.New("source not configured")

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// normalize trims the record and drops it when it has no title.
func normalize(source, title, url string) (types.NewsItem, bool) {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return types.NewsItem{}, false
	}
	return types.NewsItem{Title: title, URL: strings.TrimSpace(url), Source: source}, true
}
