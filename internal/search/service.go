// Package search serves profile/talent search queries through the query
// cache. The actual search execution is an injected compute function; this
// package only decides when to call it and when a cached result suffices.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amiqt/talent-gateway/internal/cache"
	"github.com/amiqt/talent-gateway/internal/monitoring"
)

// ErrEmptyQuery is returned for queries that normalize to the empty
// string. Degenerate queries are short-circuited before the cache so they
// never occupy the empty-key slot.
var ErrEmptyQuery = errors.New("search: query is empty")

// ComputeFunc executes a search for a normalized query. Invoked on cache
// miss only.
type ComputeFunc func(ctx context.Context, normalizedQuery string) (string, error)

// Service memoizes search results.
type Service struct {
	cache   *cache.QueryCache
	compute ComputeFunc
	metrics *monitoring.MetricsCollector
}

// New creates a search service around the shared cache instance.
func New(c *cache.QueryCache, compute ComputeFunc, metrics *monitoring.MetricsCollector) *Service {
	if metrics == nil {
		metrics = monitoring.NewMetricsCollector()
	}
	return &Service{cache: c, compute: compute, metrics: metrics}
}

// Search resolves a raw query, serving from the cache when possible. A
// failed compute is returned as-is and never stored.
func (s *Service) Search(ctx context.Context, rawQuery string) (string, error) {
	key := cache.Normalize(rawQuery)
	if key == "" {
		return "", ErrEmptyQuery
	}

	if value, ok := s.cache.Lookup(rawQuery); ok {
		s.metrics.RecordCacheHit()
		log.Debug().Str("query", key).Msg("search cache hit")
		return value, nil
	}
	s.metrics.RecordCacheMiss()

	start := time.Now()
	value, err := s.compute(ctx, key)
	if err != nil {
		return "", fmt.Errorf("search compute: %w", err)
	}

	s.cache.Store(rawQuery, value)
	log.Debug().
		Str("query", key).
		Dur("compute_time", time.Since(start)).
		Msg("search computed and cached")
	return value, nil
}

// ClearCache drops all cached results (logout, manual invalidation).
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// CacheStats exposes the underlying cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}
