package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"walletscore/internal/metrics"
)

// Store is the backing key-value store for the cache. Implementations must
// expire entries at their TTL and be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// envelope wraps every cached value with a schema version so entries
// written by an older build are detected instead of silently misread.
type envelope struct {
	Version int             `json:"v"`
	Data    json.RawMessage `json:"data"`
}

const envelopeVersion = 1

// Cache serializes structured values into a Store. Every failure degrades
// to a miss: the request path never aborts because the cache is down.
type Cache struct {
	store Store
	log   *logrus.Logger
}

func New(store Store, log *logrus.Logger) *Cache {
	return &Cache{store: store, log: log}
}

// GetJSON loads the value at key into out. Returns false on a miss, an
// expired or unreadable entry, or a store error.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) bool {
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Cache read failed, treating as miss")
		metrics.RecordCacheOperation("get", "error")
		return false
	}
	if !found {
		metrics.RecordCacheOperation("get", "miss")
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Version != envelopeVersion {
		c.log.WithField("key", key).Warn("Cache entry unreadable or stale schema, treating as miss")
		metrics.RecordCacheOperation("get", "error")
		return false
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Cache entry failed to decode, treating as miss")
		metrics.RecordCacheOperation("get", "error")
		return false
	}
	metrics.RecordCacheOperation("get", "hit")
	return true
}

// SetJSON stores val at key for ttl. Errors are logged and swallowed.
func (c *Cache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) {
	data, err := json.Marshal(val)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Cache value failed to encode")
		metrics.RecordCacheOperation("set", "error")
		return
	}
	raw, err := json.Marshal(envelope{Version: envelopeVersion, Data: data})
	if err != nil {
		metrics.RecordCacheOperation("set", "error")
		return
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Cache write failed")
		metrics.RecordCacheOperation("set", "error")
		return
	}
	metrics.RecordCacheOperation("set", "ok")
}

// Delete removes the entry at key if present.
func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Cache delete failed")
		metrics.RecordCacheOperation("delete", "error")
		return
	}
	metrics.RecordCacheOperation("delete", "ok")
}

// Exists reports whether a live entry is present at key.
func (c *Cache) Exists(ctx context.Context, key string) bool {
	ok, err := c.store.Exists(ctx, key)
	if err != nil {
		metrics.RecordCacheOperation("exists", "error")
		return false
	}
	return ok
}
