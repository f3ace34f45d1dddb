// Package delivery pushes formatted messages to chats with chunking,
// throttling and retries.
package delivery

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"crypto-news-bot/internal/metrics"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// MaxMessageLength is the Telegram limit for a single message, in characters.
const MaxMessageLength = 4096

type ParseMode string

const (
	Plain ParseMode = ""
	HTML  ParseMode = "HTML"
)

// Gateway sends a single message that already fits the length limit.
type Gateway interface {
	Send(ctx context.Context, chatID int64, text string, mode ParseMode) error
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying, e.g. a chat that blocked the bot.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

type throttledError struct {
	err   error
	after time.Duration
}

func (t throttledError) Error() string { return t.err.Error() }
func (t throttledError) Unwrap() error { return t.err }

// RetryAfter marks err as a rate limit rejection that may be retried once
// after has passed.
func RetryAfter(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return throttledError{err: err, after: after}
}

// RetryAfterOf returns the wait requested by a rate limit rejection.
func RetryAfterOf(err error) (time.Duration, bool) {
	var t throttledError
	if errors.As(err, &t) {
		return t.after, true
	}
	return 0, false
}

type Deliverer struct {
	gateway  Gateway
	limiters []*rate.Limiter
	attempts int

	retryMin time.Duration
	retryMax time.Duration
}

// NewDeliverer wraps gateway. limiter may be nil. attempts below one means a
// single attempt per chunk.
func NewDeliverer(gateway Gateway, limiter *rate.Limiter, attempts int) *Deliverer {
	if attempts < 1 {
		attempts = 1
	}
	d := &Deliverer{
		gateway:  gateway,
		attempts: attempts,
		retryMin: time.Second,
		retryMax: 10 * time.Second,
	}
	return d.WithLimiter(limiter)
}

// WithLimiter makes every chunk also wait on limiter, typically one shared by
// all deliverers of a bot. A nil limiter is ignored.
func (d *Deliverer) WithLimiter(limiter *rate.Limiter) *Deliverer {
	if limiter != nil {
		d.limiters = append(d.limiters, limiter)
	}
	return d
}

// Deliver sends text to chatID, split into ordered chunks when it is too long.
// It stops at the first chunk that could not be delivered.
func (d *Deliverer) Deliver(ctx context.Context, chatID int64, text string, mode ParseMode) error {
	for i, chunk := range Split(text, MaxMessageLength) {
		for _, limiter := range d.limiters {
			if err := limiter.Wait(ctx); err != nil {
				return errors.Wrap(err, "wait for send slot")
			}
		}

		if err := d.send(ctx, chatID, chunk, mode); err != nil {
			metrics.DeliveryFailures.Inc()
			return errors.Wrapf(err, "deliver chunk %d to %d", i+1, chatID)
		}
	}
	return nil
}

func (d *Deliverer) send(ctx context.Context, chatID int64, text string, mode ParseMode) error {
	b := &backoff.Backoff{Min: d.retryMin, Max: d.retryMax, Factor: 2, Jitter: true}

	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if err = d.gateway.Send(ctx, chatID, text, mode); err == nil {
			return nil
		}
		if IsPermanent(err) || attempt == d.attempts {
			break
		}

		wait := b.Duration()
		if after, ok := RetryAfterOf(err); ok && after > wait {
			wait = after
		}
		log.WithError(err).WithFields(log.Fields{"chat_id": chatID, "attempt": attempt}).
			Warnf("⚠️ send failed, retrying in %s", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

// Split cuts text into pieces of at most limit runes. A piece ends at the last
// newline inside the limit when there is one. Joining the pieces gives text back.
func Split(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		cut := byteOffset(text, limit)
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > 0 {
			cut = nl + 1
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// byteOffset returns the byte index just past the first n runes of s.
func byteOffset(s string, n int) int {
	i := 0
	for n > 0 && i < len(s) {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n--
	}
	return i
}
