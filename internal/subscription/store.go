// Package subscription keeps the subscriber to asset mapping in a JSON file.
//
// Every mutation reads the whole file, applies the change and rewrites it.
// I/O failures are logged and the in-memory outcome is still reported, so
// durability is best effort.
package subscription

import (
	"sync"

	"crypto-news-bot/internal/statefile"
	"crypto-news-bot/internal/types"

	"github.com/StudioSol/set"
	log "github.com/sirupsen/logrus"
)

// FileName is the default file name inside the data directory.
const FileName = "subscriptions.json"

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Add subscribes the subscriber to asset. It returns false when the
// subscription already existed.
func (s *Store) Add(subscriber types.SubscriberID, asset types.AssetID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.load()
	assets, ok := subs[subscriber]
	if !ok {
		assets = set.NewLinkedHashSetString()
		subs[subscriber] = assets
	}
	if assets.InArray(asset) {
		return false
	}

	assets.Add(asset)
	s.save(subs)
	log.WithFields(log.Fields{"subscriber": subscriber, "asset": asset}).Info("subscription added")
	return true
}

// Remove drops the subscription. It returns false when there was none.
func (s *Store) Remove(subscriber types.SubscriberID, asset types.AssetID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.load()
	assets, ok := subs[subscriber]
	if !ok || !assets.InArray(asset) {
		return false
	}

	assets.Remove(asset)
	if assets.Length() == 0 {
		delete(subs, subscriber)
	}
	s.save(subs)
	log.WithFields(log.Fields{"subscriber": subscriber, "asset": asset}).Info("subscription removed")
	return true
}

// List returns the assets of subscriber in subscription order.
func (s *Store) List(subscriber types.SubscriberID) []types.AssetID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if assets, ok := s.load()[subscriber]; ok {
		return assets.AsSlice()
	}
	return []types.AssetID{}
}

// All returns a snapshot of every subscriber with at least one asset.
func (s *Store) All() map[types.SubscriberID][]types.AssetID {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[types.SubscriberID][]types.AssetID)
	for subscriber, assets := range s.load() {
		if assets.Length() > 0 {
			out[subscriber] = assets.AsSlice()
		}
	}
	return out
}

func (s *Store) load() map[types.SubscriberID]*set.LinkedHashSetString {
	subs := make(map[types.SubscriberID]*set.LinkedHashSetString)

	raw := make(map[types.SubscriberID][]types.AssetID)
	if err := statefile.Read(s.path, &raw); err != nil {
		log.WithError(err).Warn("could not read subscriptions, starting empty")
		return subs
	}

	for subscriber, assets := range raw {
		subs[subscriber] = set.NewLinkedHashSetString(assets...)
	}
	return subs
}

func (s *Store) save(subs map[types.SubscriberID]*set.LinkedHashSetString) {
	raw := make(map[types.SubscriberID][]types.AssetID, len(subs))
	for subscriber, assets := range subs {
		raw[subscriber] = assets.AsSlice()
	}

	if err := statefile.Write(s.path, raw); err != nil {
		log.WithError(err).Error("could not persist subscriptions")
	}
}
