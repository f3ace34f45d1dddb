// Package relevance matches news headlines against subscribed assets.
package relevance

import (
	"regexp"
	"strings"
	"sync"

	"crypto-news-bot/internal/types"

	"github.com/samber/lo"
)

var patterns sync.Map // asset -> *regexp.Regexp

// pattern returns a case-insensitive whole word matcher for asset. RE2's \b
// only knows ASCII word characters, so the boundaries are spelled out with
// Unicode letter and digit classes.
func pattern(asset types.AssetID) *regexp.Regexp {
	if re, ok := patterns.Load(asset); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(asset) + `(?:$|[^\p{L}\p{N}_])`)
	actual, _ := patterns.LoadOrStore(asset, re)
	return actual.(*regexp.Regexp)
}

// Matches reports whether any asset appears as a whole word in title.
func Matches(title string, assets []types.AssetID) bool {
	for _, asset := range assets {
		if asset == "" {
			continue
		}
		if pattern(asset).MatchString(title) {
			return true
		}
	}
	return false
}

// Match keeps the items whose title mentions at least one of assets.
func Match(items []types.NewsItem, assets []types.AssetID) []types.NewsItem {
	if len(assets) == 0 {
		return nil
	}
	return lo.Filter(items, func(item types.NewsItem, _ int) bool {
		return Matches(item.Title, assets)
	})
}

// Dedupe drops repeated items, keeping the first occurrence. Items are the
// same when their URLs match, or their titles when the URL is missing.
func Dedupe(items []types.NewsItem) []types.NewsItem {
	return lo.UniqBy(items, Key)
}

// Key identifies a news item across sources.
func Key(item types.NewsItem) string {
	if u := strings.TrimRight(strings.TrimSpace(item.URL), "/"); u != "" {
		return strings.ToLower(u)
	}
	return "title:" + strings.ToLower(strings.TrimSpace(item.Title))
}
