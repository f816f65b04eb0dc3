// Package ratelimit implements per-client sliding-window request limiting
// backed by the cache store. Clients are identified by a hash of their
// forwarded address and user agent, never by raw identifiers.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"walletscore/internal/cache"
	"walletscore/internal/metrics"
)

const (
	windowMinute = "minute"
	windowHour   = "hour"
)

// LimitError is returned by Check when a client exceeded a window. It
// carries the seconds a client should wait before retrying.
type LimitError struct {
	Window     string
	RetryAfter int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s window, retry after %ds", e.Window, e.RetryAfter)
}

// Info reports the counts seen at admission time, for response headers.
type Info struct {
	MinuteCount int
	HourCount   int
	MinuteLimit int
	HourLimit   int
}

// MinuteRemaining returns the requests left in the current minute window.
func (i Info) MinuteRemaining() int {
	if r := i.MinuteLimit - i.MinuteCount; r > 0 {
		return r
	}
	return 0
}

// Limiter counts requests per client in minute and hour buckets. Counter
// reads and writes go through the shared cache store, so limits hold
// across instances when the store is the database. Any store error fails
// open: the request proceeds unlimited rather than being blocked by an
// infrastructure fault.
type Limiter struct {
	store       cache.Store
	minuteLimit int
	hourLimit   int
	log         *logrus.Logger
	now         func() time.Time
}

func NewLimiter(store cache.Store, perMinute, perHour int, log *logrus.Logger) *Limiter {
	return &Limiter{
		store:       store,
		minuteLimit: perMinute,
		hourLimit:   perHour,
		log:         log,
		now:         time.Now,
	}
}

// ClientHash derives the privacy-preserving client identifier from the
// forwarded address and user agent.
func ClientHash(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}
	sum := sha256.Sum256([]byte(ip + ":" + r.UserAgent()))
	return hex.EncodeToString(sum[:])
}

// Check reads the client's current bucket counts and rejects with a
// *LimitError when either window is at or over its limit.
func (l *Limiter) Check(ctx context.Context, clientHash string) (Info, error) {
	now := l.now().Unix()
	info := Info{MinuteLimit: l.minuteLimit, HourLimit: l.hourLimit}

	minuteCount, err := l.readCount(ctx, cache.RateMinuteKey(clientHash, now/60))
	if err != nil {
		l.log.WithError(err).Warn("Rate limiter store read failed, admitting request")
		return info, nil
	}
	hourCount, err := l.readCount(ctx, cache.RateHourKey(clientHash, now/3600))
	if err != nil {
		l.log.WithError(err).Warn("Rate limiter store read failed, admitting request")
		return info, nil
	}

	info.MinuteCount = minuteCount
	info.HourCount = hourCount

	if minuteCount >= l.minuteLimit {
		metrics.RateLimitRejections.WithLabelValues(windowMinute).Inc()
		return info, &LimitError{Window: windowMinute, RetryAfter: 60}
	}
	if hourCount >= l.hourLimit {
		metrics.RateLimitRejections.WithLabelValues(windowHour).Inc()
		return info, &LimitError{Window: windowHour, RetryAfter: 3600}
	}
	return info, nil
}

// Increment bumps both window counters. Called only after an admitted
// request completes. The read-modify-write can undercount under heavy
// concurrency; that race is tolerated as it only errs in the client's
// favor.
func (l *Limiter) Increment(ctx context.Context, clientHash string) {
	now := l.now().Unix()
	l.bump(ctx, cache.RateMinuteKey(clientHash, now/60), time.Minute)
	l.bump(ctx, cache.RateHourKey(clientHash, now/3600), time.Hour)
}

func (l *Limiter) readCount(ctx context.Context, key string) (int, error) {
	raw, found, err := l.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	count, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, nil
	}
	return count, nil
}

func (l *Limiter) bump(ctx context.Context, key string, ttl time.Duration) {
	count, err := l.readCount(ctx, key)
	if err != nil {
		l.log.WithError(err).Warn("Rate limiter store read failed, skipping increment")
		return
	}
	if err := l.store.Set(ctx, key, []byte(strconv.Itoa(count+1)), ttl); err != nil {
		l.log.WithError(err).Warn("Rate limiter store write failed, skipping increment")
	}
}
