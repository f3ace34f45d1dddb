package commands

import (
	"context"
	"strings"
	"unicode"

	"crypto-news-bot/internal/types"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type SubscribeResult struct {
	Added   []types.AssetID
	Already []types.AssetID
	Invalid []types.AssetID
	// Suggestions maps an invalid entry to a known asset it probably meant.
	Suggestions map[types.AssetID]types.AssetID
}

// Empty reports whether the input contained no asset at all.
func (r SubscribeResult) Empty() bool {
	return len(r.Added)+len(r.Already)+len(r.Invalid) == 0
}

// ParseAssets splits user input on commas and spaces into lowercase asset
// ids, dropping empty and repeated entries.
func ParseAssets(input string) []types.AssetID {
	fields := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	return lo.Uniq(fields)
}

// Subscribe adds every known asset of input to the subscriber.
func (s *Service) Subscribe(ctx context.Context, subscriber types.SubscriberID, input string) SubscribeResult {
	var res SubscribeResult
	for _, asset := range ParseAssets(input) {
		switch {
		case !s.deps.Known.Contains(asset):
			res.Invalid = append(res.Invalid, asset)
		case s.deps.Store.Add(subscriber, asset):
			res.Added = append(res.Added, asset)
		default:
			res.Already = append(res.Already, asset)
		}
	}

	if s.deps.Suggester != nil {
		for _, asset := range res.Invalid {
			if suggestion, ok := s.deps.Suggester.Suggest(ctx, asset); ok && s.deps.Known.Contains(suggestion) {
				if res.Suggestions == nil {
					res.Suggestions = make(map[types.AssetID]types.AssetID)
				}
				res.Suggestions[asset] = suggestion
			}
		}
	}

	log.WithFields(log.Fields{
		"subscriber": subscriber,
		"added":      len(res.Added),
		"already":    len(res.Already),
		"invalid":    len(res.Invalid),
	}).Info("🔔 subscribe request processed")
	return res
}

// Unsubscribe removes one asset. It returns false when the subscriber did not
// follow it.
func (s *Service) Unsubscribe(subscriber types.SubscriberID, input string) (types.AssetID, bool) {
	asset := strings.ToLower(strings.TrimSpace(input))
	if asset == "" {
		return asset, false
	}
	return asset, s.deps.Store.Remove(subscriber, asset)
}

func (s *Service) Subscriptions(subscriber types.SubscriberID) []types.AssetID {
	return s.deps.Store.List(subscriber)
}
