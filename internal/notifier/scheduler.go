// Package notifier runs the periodic news and price notification cycle.
package notifier

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"crypto-news-bot/internal/delivery"
	"crypto-news-bot/internal/metrics"
	"crypto-news-bot/internal/relevance"
	"crypto-news-bot/internal/types"
	"crypto-news-bot/lib/helpers"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// seenCapacity bounds the broadcast dedupe cache.
const seenCapacity = 10000

// ErrPanic is wrapped into the error of a cycle that panicked.
var ErrPanic = errors.New("panic in notification cycle")

type NewsFetcher interface {
	FetchAll(ctx context.Context) []types.NewsItem
}

type Scorer interface {
	Score(text string) types.Sentiment
}

// PriceChecker raises price alerts. Commit accepts the prices of the last
// Check as the new baseline and is only called once its alerts were handled.
type PriceChecker interface {
	Check(ctx context.Context, thresholds map[types.AssetID]float64) []types.Alert
	Commit()
}

type Subscribers interface {
	All() map[types.SubscriberID][]types.AssetID
}

type Sender interface {
	Deliver(ctx context.Context, chatID int64, text string, mode delivery.ParseMode) error
}

// Deps are the collaborators of a Scheduler. Direct may be nil, Channel is
// used for digests too in that case.
type Deps struct {
	News        NewsFetcher
	Scorer      Scorer
	Prices      PriceChecker
	Subscribers Subscribers
	Channel     Sender
	Direct      Sender
}

type Config struct {
	// ChannelID is the broadcast channel. Zero disables channel delivery.
	ChannelID int64
	// Schedule is a cron expression, e.g. "@every 3600s".
	Schedule        string
	ErrorBackoff    time.Duration
	MaxErrorBackoff time.Duration
	// DedupeWindow keeps broadcast items from being sent again. Zero disables it.
	DedupeWindow        time.Duration
	DirectNotifications bool
	Thresholds          map[types.AssetID]float64
}

type Scheduler struct {
	deps     Deps
	cfg      Config
	schedule cron.Schedule
	backoff  *backoff.Backoff
	seen     *expirable.LRU[string, struct{}]

	mu     sync.Mutex
	status Status
}

func New(deps Deps, cfg Config) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid poll schedule %q", cfg.Schedule)
	}
	if deps.Direct == nil {
		deps.Direct = deps.Channel
	}

	maxBackoff := cfg.MaxErrorBackoff
	if maxBackoff < cfg.ErrorBackoff {
		maxBackoff = cfg.ErrorBackoff
	}

	s := &Scheduler{
		deps:     deps,
		cfg:      cfg,
		schedule: schedule,
		backoff:  &backoff.Backoff{Min: cfg.ErrorBackoff, Max: maxBackoff, Factor: 2},
	}
	if cfg.DedupeWindow > 0 {
		s.seen = expirable.NewLRU[string, struct{}](seenCapacity, nil, cfg.DedupeWindow)
	}
	return s, nil
}

// Run executes cycles until ctx is cancelled. A failed cycle is retried after
// the error backoff, a successful one waits for the next scheduled time.
func (s *Scheduler) Run(ctx context.Context) {
	log.Info("🚀 notification scheduler started")
	defer s.setState(Idle, time.Time{})

	for {
		s.setState(RunningCycle, time.Time{})
		err := s.RunCycle(ctx)
		if ctx.Err() != nil {
			log.Info("🛑 notification scheduler stopped")
			return
		}

		now := time.Now()
		var wait time.Duration
		if err != nil {
			wait = s.backoff.Duration()
			s.setState(ErrorBackoff, now.Add(wait))
			log.WithError(err).WithField("cycle", s.Status().LastCycleID).
				Errorf("❌ notification cycle failed, retrying in %s", wait)
		} else {
			s.backoff.Reset()
			next := s.schedule.Next(now)
			wait = next.Sub(now)
			s.setState(Sleeping, next)
			log.Infof("😴 next cycle at %s", next.Format(time.RFC3339))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("🛑 notification scheduler stopped")
			return
		case <-timer.C:
		}
	}
}

// RunCycle performs one full cycle. A panic inside the cycle is returned as
// an error.
func (s *Scheduler) RunCycle(ctx context.Context) (err error) {
	cycleID := uuid.NewString()
	logger := log.WithField("cycle", cycleID)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("🔥 panic recovered in notification cycle: %v", r)
			err = errors.Wrapf(ErrPanic, "%v", r)
		}
		s.finish(cycleID, started, err)
	}()

	logger.Info("🔄 notification cycle started")

	fresh := s.unseen(relevance.Dedupe(s.deps.News.FetchAll(ctx)))
	scored := make([]types.ScoredNews, 0, len(fresh))
	for _, item := range fresh {
		scored = append(scored, types.ScoredNews{NewsItem: item, Sentiment: s.deps.Scorer.Score(item.Title)})
	}

	if err := s.broadcastNews(ctx, logger, scored); err != nil {
		return err
	}
	if err := s.broadcastAlerts(ctx, logger); err != nil {
		return err
	}
	if s.cfg.DirectNotifications {
		if err := s.sendDigests(ctx, logger, scored); err != nil {
			return err
		}
	}

	logger.WithField("took", time.Since(started).Round(time.Millisecond)).Info("✅ notification cycle completed")
	return nil
}

func (s *Scheduler) unseen(items []types.NewsItem) []types.NewsItem {
	if s.seen == nil {
		return items
	}
	out := make([]types.NewsItem, 0, len(items))
	for _, item := range items {
		if !s.seen.Contains(relevance.Key(item)) {
			out = append(out, item)
		}
	}
	return out
}

func (s *Scheduler) markSeen(item types.NewsItem) {
	if s.seen != nil {
		s.seen.Add(relevance.Key(item), struct{}{})
	}
}

func (s *Scheduler) broadcastNews(ctx context.Context, logger *log.Entry, scored []types.ScoredNews) error {
	if s.cfg.ChannelID == 0 {
		for _, item := range scored {
			s.markSeen(item.NewsItem)
		}
		return nil
	}

	logger.Infof("📨 broadcasting %d news items", len(scored))
	for _, item := range scored {
		err := s.deps.Channel.Deliver(ctx, s.cfg.ChannelID, helpers.NewsMessage(item), delivery.HTML)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.WithError(err).WithField("url", item.URL).Warn("⚠️ failed to broadcast news item")
			continue
		}
		s.markSeen(item.NewsItem)
		metrics.NewsBroadcast.Inc()
	}
	return nil
}

func (s *Scheduler) broadcastAlerts(ctx context.Context, logger *log.Entry) error {
	alerts := s.deps.Prices.Check(ctx, s.cfg.Thresholds)
	if len(alerts) == 0 {
		logger.Info("📉 no significant price changes")
		s.deps.Prices.Commit()
		return nil
	}
	if s.cfg.ChannelID == 0 {
		logger.Warnf("⚠️ %d price alerts dropped, no channel configured", len(alerts))
		s.deps.Prices.Commit()
		return nil
	}

	// a failed alert leaves the baseline untouched, the retry raises it again
	logger.Infof("🚨 sending %d price alerts", len(alerts))
	for _, alert := range alerts {
		if err := s.deps.Channel.Deliver(ctx, s.cfg.ChannelID, helpers.AlertMessage(alert), delivery.HTML); err != nil {
			return errors.Wrapf(err, "send %s alert", alert.Asset)
		}
	}
	s.deps.Prices.Commit()
	return nil
}

func (s *Scheduler) sendDigests(ctx context.Context, logger *log.Entry, scored []types.ScoredNews) error {
	subscribers := s.deps.Subscribers.All()
	metrics.Subscribers.Set(float64(len(subscribers)))
	if len(scored) == 0 {
		return nil
	}

	ids := make([]types.SubscriberID, 0, len(subscribers))
	for id := range subscribers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		assets := subscribers[id]
		var matched []types.ScoredNews
		for _, item := range scored {
			if relevance.Matches(item.Title, assets) {
				matched = append(matched, item)
			}
		}
		if len(matched) == 0 {
			continue
		}

		chatID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			logger.WithField("subscriber", id).Warn("⚠️ subscriber id is not a chat id")
			continue
		}

		err = s.deps.Direct.Deliver(ctx, chatID, helpers.DigestMessage(matched), delivery.HTML)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.WithError(err).WithField("subscriber", id).Warn("⚠️ failed to send digest")
			continue
		}
		metrics.DigestsSent.Inc()
	}
	return nil
}

func (s *Scheduler) finish(cycleID string, started time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Runs++
	s.status.LastCycleID = cycleID
	s.status.LastRun = started
	s.status.LastErr = err

	result := "success"
	if err != nil {
		s.status.Failures++
		result = "failure"
	}
	metrics.Cycles.WithLabelValues(result).Inc()
}

func (s *Scheduler) setState(state State, next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = state
	s.status.NextRun = next
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
