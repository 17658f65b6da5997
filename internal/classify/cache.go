package classify

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/danbi-ai/danbi/pkg/models"
)

const (
	defaultCacheMaxSize = 256
	defaultCacheTTL     = 5 * time.Minute
)

// CacheConfig configures the classification cache.
type CacheConfig struct {
	// MaxSize is the maximum number of entries in the LRU cache.
	MaxSize int
	// TTL is how long a cached classification remains valid.
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults for classification caching.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxSize: defaultCacheMaxSize,
		TTL:     defaultCacheTTL,
	}
}

type cacheEntry struct {
	intent   models.Intent
	storedAt time.Time
}

// cachedClassifier wraps a Classifier with an LRU result cache keyed by the
// normalized query text. Identical queries across sessions skip the model
// call entirely.
type cachedClassifier struct {
	delegate Classifier
	cache    *lru.Cache[string, cacheEntry]
	ttl      time.Duration
}

// NewCached wraps delegate with an LRU classification cache.
// Zero config values fall back to DefaultCacheConfig defaults.
func NewCached(delegate Classifier, config CacheConfig) Classifier {
	if delegate == nil {
		return nil
	}
	if config.MaxSize <= 0 {
		config.MaxSize = defaultCacheMaxSize
	}
	if config.TTL <= 0 {
		config.TTL = defaultCacheTTL
	}
	cache, err := lru.New[string, cacheEntry](config.MaxSize)
	if err != nil {
		// lru.New only errors on non-positive size which we guard above.
		return delegate
	}
	return &cachedClassifier{
		delegate: delegate,
		cache:    cache,
		ttl:      config.TTL,
	}
}

// Classify implements Classifier.
func (c *cachedClassifier) Classify(ctx context.Context, query string) (models.Intent, error) {
	key := strings.TrimSpace(query)

	if entry, ok := c.cache.Get(key); ok {
		if time.Since(entry.storedAt) < c.ttl {
			return cloneIntent(entry.intent), nil
		}
		// Expired, evict so the LRU bookkeeping stays clean.
		c.cache.Remove(key)
	}

	intent, err := c.delegate.Classify(ctx, query)
	if err != nil {
		return intent, err
	}
	c.cache.Add(key, cacheEntry{intent: cloneIntent(intent), storedAt: time.Now()})
	return intent, nil
}

// cloneIntent copies the intent so cached entries do not alias caller slices.
func cloneIntent(in models.Intent) models.Intent {
	out := in
	if in.Secondary != nil {
		out.Secondary = append([]string(nil), in.Secondary...)
	}
	return out
}

var _ Classifier = (*cachedClassifier)(nil)
