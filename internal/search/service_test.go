package search_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiqt/talent-gateway/internal/cache"
	"github.com/amiqt/talent-gateway/internal/monitoring"
	"github.com/amiqt/talent-gateway/internal/search"
)

func newTestCache(t *testing.T) *cache.QueryCache {
	t.Helper()
	c := cache.New(cache.Config{MaxEntries: 100, TTL: time.Minute, BatchEvictionSize: 10})
	t.Cleanup(c.Close)
	return c
}

func TestSearch_ComputesOnMissServesFromCacheOnHit(t *testing.T) {
	calls := 0
	svc := search.New(newTestCache(t), func(_ context.Context, q string) (string, error) {
		calls++
		return "results for " + q, nil
	}, monitoring.NewMetricsCollector())

	first, err := svc.Search(context.Background(), "AI skills")
	require.NoError(t, err)
	assert.Equal(t, "results for ai skills", first)
	assert.Equal(t, 1, calls)

	// Near-duplicate query hits the same entry without recomputing.
	second, err := svc.Search(context.Background(), "  ai SKILLS!  ")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "duplicate query must not recompute")
}

func TestSearch_ComputeReceivesNormalizedQuery(t *testing.T) {
	var got string
	svc := search.New(newTestCache(t), func(_ context.Context, q string) (string, error) {
		got = q
		return "ok", nil
	}, monitoring.NewMetricsCollector())

	_, err := svc.Search(context.Background(), "  Who plays CHESS?  ")
	require.NoError(t, err)
	assert.Equal(t, "who plays chess", got)
}

func TestSearch_EmptyQueryShortCircuits(t *testing.T) {
	c := newTestCache(t)
	svc := search.New(c, func(_ context.Context, _ string) (string, error) {
		t.Fatal("compute must not run for degenerate queries")
		return "", nil
	}, monitoring.NewMetricsCollector())

	for _, q := range []string{"", "   ", "?!..."} {
		_, err := svc.Search(context.Background(), q)
		assert.ErrorIs(t, err, search.ErrEmptyQuery, "query %q", q)
	}
	assert.Equal(t, 0, c.Len(), "degenerate queries never reach the cache")
}

func TestSearch_FailedComputeIsNotCached(t *testing.T) {
	c := newTestCache(t)
	boom := errors.New("upstream down")
	fail := true
	svc := search.New(c, func(_ context.Context, _ string) (string, error) {
		if fail {
			return "", boom
		}
		return "recovered", nil
	}, monitoring.NewMetricsCollector())

	_, err := svc.Search(context.Background(), "talent events")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len(), "a failed compute must never call Store")

	fail = false
	got, err := svc.Search(context.Background(), "talent events")
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
}

func TestSearch_MetricsRecorded(t *testing.T) {
	metrics := monitoring.NewMetricsCollector()
	svc := search.New(newTestCache(t), func(_ context.Context, _ string) (string, error) {
		return "ok", nil
	}, metrics)

	svc.Search(context.Background(), "q")
	svc.Search(context.Background(), "q")

	stats := metrics.Stats()
	assert.Equal(t, int64(1), stats["cache_misses"])
	assert.Equal(t, int64(1), stats["cache_hits"])
}

func TestSearch_ClearCache(t *testing.T) {
	calls := 0
	svc := search.New(newTestCache(t), func(_ context.Context, _ string) (string, error) {
		calls++
		return "ok", nil
	}, monitoring.NewMetricsCollector())

	svc.Search(context.Background(), "q")
	svc.ClearCache()
	svc.Search(context.Background(), "q")

	assert.Equal(t, 2, calls, "clear must force recomputation")
}
