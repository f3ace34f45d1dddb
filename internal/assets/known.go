// Package assets holds the set of coin identifiers accepted for subscriptions.
package assets

import (
	"context"
	"strings"

	"crypto-news-bot/internal/types"

	log "github.com/sirupsen/logrus"
)

// Lister returns every asset identifier a price provider knows about.
type Lister interface {
	KnownAssets(ctx context.Context) ([]types.AssetID, error)
}

// Known is loaded once at startup and read-only afterwards, so it is safe for
// concurrent use without locking.
type Known struct {
	ids map[types.AssetID]struct{}
}

// NewKnown builds a set from explicit identifiers.
func NewKnown(ids ...types.AssetID) *Known {
	k := &Known{ids: make(map[types.AssetID]struct{}, len(ids))}
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id != "" {
			k.ids[id] = struct{}{}
		}
	}
	return k
}

// Load asks the provider for its asset list. On failure the set is empty and
// every subscription attempt is rejected until the next start.
func Load(ctx context.Context, lister Lister) *Known {
	ids, err := lister.KnownAssets(ctx)
	if err != nil {
		log.WithError(err).Error("❌ could not load known assets, subscriptions are disabled")
		return NewKnown()
	}

	k := NewKnown(ids...)
	log.Infof("✅ loaded %d known assets", k.Len())
	return k
}

func (k *Known) Contains(id types.AssetID) bool {
	_, ok := k.ids[id]
	return ok
}

func (k *Known) Len() int {
	return len(k.ids)
}
