// Package cache holds query results for a fixed time window. Expiry is by
// wall clock only; nothing invalidates an entry early.
package cache

import (
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"inflections/internal/metrics"
)

const (
	DefaultTTL  = time.Hour
	DefaultSize = 1024
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

type entry struct {
	value   any
	expires time.Time
}

type Options struct {
	TTL   time.Duration
	Size  int
	Clock Clock

	// Routes overrides TTL per operation name.
	Routes map[string]time.Duration
}

// Cache is a keyed store of query signature -> {value, expiry}. Concurrent
// misses on one key share a single load.
type Cache struct {
	ttl    time.Duration
	routes map[string]time.Duration
	clock  Clock
	items  *lru.Cache[string, entry]
	group  singleflight.Group

	mu sync.Mutex
	// loads counts calls into a loader, for tests and debugging.
	loads int
}

func New(opt Options) (*Cache, error) {
	if opt.TTL <= 0 {
		opt.TTL = DefaultTTL
	}
	if opt.Size <= 0 {
		opt.Size = DefaultSize
	}
	if opt.Clock == nil {
		opt.Clock = SystemClock
	}
	items, err := lru.New[string, entry](opt.Size)
	if err != nil {
		return nil, err
	}
	routes := make(map[string]time.Duration, len(opt.Routes))
	for k, v := range opt.Routes {
		if v > 0 {
			routes[k] = v
		}
	}
	return &Cache{
		ttl:    opt.TTL,
		routes: routes,
		clock:  opt.Clock,
		items:  items,
	}, nil
}

// TTL returns the window used for an operation.
func (c *Cache) TTL(operation string) time.Duration {
	if d, ok := c.routes[operation]; ok {
		return d
	}
	return c.ttl
}

// Key builds a query signature from an operation and its arguments.
func Key(operation string, args ...string) string {
	k := operation
	for _, a := range args {
		k += "\x00" + a
	}
	return k
}

// ErrSkip can be returned by a loader to hand back its value without caching
// it, e.g. for a soft-failed fetch.
var ErrSkip = errors.New("cache: skip")

// Remember returns the cached value for key, or runs load and stores its
// result for the operation's TTL. Loader errors are returned and never cached.
func Remember[T any](c *Cache, operation, key string, load func() (T, error)) (T, error) {
	now := c.clock.Now()
	if e, ok := c.items.Get(key); ok && now.Before(e.expires) {
		metrics.RecordCacheLookup(operation, true)
		return e.value.(T), nil
	}
	metrics.RecordCacheLookup(operation, false)

	v, err, _ := c.group.Do(key, func() (any, error) {
		// another caller may have filled the entry while we waited
		if e, ok := c.items.Get(key); ok && c.clock.Now().Before(e.expires) {
			return e.value, nil
		}
		c.mu.Lock()
		c.loads++
		c.mu.Unlock()

		val, err := load()
		if errors.Is(err, ErrSkip) {
			return val, err
		}
		if err != nil {
			return nil, err
		}
		c.items.Add(key, entry{value: val, expires: c.clock.Now().Add(c.TTL(operation))})
		return val, nil
	})
	if errors.Is(err, ErrSkip) {
		return v.(T), nil
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Len reports the number of entries, expired ones included.
func (c *Cache) Len() int { return c.items.Len() }

func (c *Cache) loadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}
