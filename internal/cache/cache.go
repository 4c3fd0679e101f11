package cache

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultMaxEntries        = 100
	DefaultTTL               = 30 * time.Minute
	DefaultBatchEvictionSize = 10
)

// Config configures a QueryCache.
type Config struct {
	// MaxEntries is the capacity bound. Must be positive.
	MaxEntries int

	// TTL is the entry lifetime, shared by all entries. Must not be
	// negative. A zero TTL makes every entry expire on the next lookup.
	TTL time.Duration

	// BatchEvictionSize is how many slots eviction frees at once when the
	// cache is at capacity. Must be positive and no larger than MaxEntries.
	BatchEvictionSize int
}

// DefaultConfig returns the configuration used when no config file
// overrides are provided.
func DefaultConfig() Config {
	return Config{
		MaxEntries:        DefaultMaxEntries,
		TTL:               DefaultTTL,
		BatchEvictionSize: DefaultBatchEvictionSize,
	}
}

func (c Config) mustValidate() {
	if c.MaxEntries <= 0 {
		panic(fmt.Sprintf("cache: MaxEntries must be positive, got %d", c.MaxEntries))
	}
	if c.TTL < 0 {
		panic(fmt.Sprintf("cache: TTL must not be negative, got %s", c.TTL))
	}
	if c.BatchEvictionSize <= 0 {
		panic(fmt.Sprintf("cache: BatchEvictionSize must be positive, got %d", c.BatchEvictionSize))
	}
	if c.BatchEvictionSize > c.MaxEntries {
		panic(fmt.Sprintf("cache: BatchEvictionSize %d exceeds MaxEntries %d", c.BatchEvictionSize, c.MaxEntries))
	}
}

type entry struct {
	value     string
	createdAt time.Time
	seq       uint64 // insertion order, tiebreak for equal createdAt
}

// QueryCache is a capacity-bounded, time-expiring store mapping normalized
// queries to previously computed results. A single instance is shared
// across request handlers; all operations are safe for concurrent use.
//
// Entries are removed lazily when a lookup finds them expired, in batches
// when an insert hits the capacity bound, and periodically by a background
// sweep (stopped by Close).
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	cfg     Config
	seq     uint64

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	stopChan chan struct{}
	stopped  bool
}

// Stats holds cache performance counters.
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// New creates a QueryCache. Panics on invalid configuration: a
// misconfigured cache would mask correctness bugs in callers, so this
// fails fast rather than clamping.
func New(cfg Config) *QueryCache {
	cfg.mustValidate()

	c := &QueryCache{
		entries:  make(map[string]entry),
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Lookup normalizes the query and returns the stored value. Misses on an
// absent key and on an expired entry; the expired entry is deleted as a
// side effect of the miss. A genuine hit leaves the entry untouched.
func (c *QueryCache) Lookup(rawQuery string) (string, bool) {
	key := Normalize(rawQuery)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return "", false
	}
	if time.Since(e.createdAt) > c.cfg.TTL {
		delete(c.entries, key)
		c.misses.Add(1)
		return "", false
	}

	c.hits.Add(1)
	return e.value, true
}

// Store normalizes the query and inserts the value, overwriting any
// existing entry for the same key and resetting its creation time. An
// empty normalized key is stored as its own slot; routing degenerate
// queries away from the cache is the caller's job.
//
// When the cache is at or over MaxEntries, the oldest entries by creation
// time are evicted until BatchEvictionSize slots are free before the
// insert. The fixed batch amortizes eviction cost under sustained pressure
// at the capacity boundary.
func (c *QueryCache) Store(rawQuery, value string) {
	key := Normalize(rawQuery)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	if len(c.entries) >= c.cfg.MaxEntries {
		c.evictOldestLocked()
	}

	c.seq++
	c.entries[key] = entry{
		value:     value,
		createdAt: time.Now(),
		seq:       c.seq,
	}
}

// evictOldestLocked removes the oldest entries until BatchEvictionSize
// slots are free. Caller must hold the mutex.
func (c *QueryCache) evictOldestLocked() {
	target := c.cfg.MaxEntries - c.cfg.BatchEvictionSize
	over := len(c.entries) - target
	if over <= 0 {
		return
	}

	type aged struct {
		key       string
		createdAt time.Time
		seq       uint64
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, createdAt: e.createdAt, seq: e.seq})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].createdAt.Equal(all[j].createdAt) {
			return all[i].seq < all[j].seq
		}
		return all[i].createdAt.Before(all[j].createdAt)
	})

	for _, a := range all[:over] {
		delete(c.entries, a.key)
		c.evictions.Add(1)
	}
}

// Clear removes all entries unconditionally. Idempotent; used for explicit
// invalidation (logout, manual cache clear).
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the current entry count. Expired entries that have not yet
// been observed by a lookup or sweep are included.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache performance counters.
func (c *QueryCache) Stats() Stats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	return Stats{
		Entries:   entries,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Close stops the background sweep and drops all entries. Subsequent
// Store calls are no-ops.
func (c *QueryCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stopped {
		c.stopped = true
		close(c.stopChan)
		c.entries = make(map[string]entry)
	}
}

// sweep periodically removes expired entries so that idle caches do not
// hold dead values until the next lookup.
func (c *QueryCache) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.stopped {
				now := time.Now()
				for k, e := range c.entries {
					if now.Sub(e.createdAt) > c.cfg.TTL {
						delete(c.entries, k)
					}
				}
			}
			c.mu.Unlock()
		}
	}
}
