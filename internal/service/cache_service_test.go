package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-scheduler/internal/dto"
	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
)

type cacheRepoFake struct {
	items  map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newCacheRepoFake() *cacheRepoFake {
	return &cacheRepoFake{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *cacheRepoFake) Get(_ context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *cacheRepoFake) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.items[key] = raw
	f.ttls[key] = ttl
	return nil
}

func (f *cacheRepoFake) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.items, k)
	}
	return nil
}

func (f *cacheRepoFake) DeleteByPattern(_ context.Context, pattern string) error {
	for k := range f.items {
		if ok, _ := path.Match(pattern, k); ok {
			delete(f.items, k)
		}
	}
	return nil
}

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	repo := newCacheRepoFake()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil)
	ctx := context.Background()

	var out dto.TimetableStatsResponse
	hit, err := svc.Get(ctx, statsCacheKey("tt-1"), &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, statsCacheKey("tt-1"), dto.TimetableStatsResponse{TotalSessions: 4}, 0))
	assert.Equal(t, 10*time.Minute, repo.ttls[statsCacheKey("tt-1")])

	hit, err = svc.Get(ctx, statsCacheKey("tt-1"), &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, out.TotalSessions)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := newCacheRepoFake()
	svc := NewCacheService(repo, nil, time.Minute, nil)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, svc.Set(ctx, statsCacheKey(id), id, 0))
	}
	require.NoError(t, svc.Invalidate(ctx, statsCacheKey("a")))
	assert.NotContains(t, repo.items, statsCacheKey("a"))
	assert.Len(t, repo.items, 2)

	require.NoError(t, svc.InvalidatePattern(ctx, StatsCachePattern))
	assert.Empty(t, repo.items)
}

func TestCacheServiceDisabledAndFailures(t *testing.T) {
	disabled := NewCacheService(nil, nil, 0, nil)
	assert.False(t, disabled.Enabled())
	hit, err := disabled.Get(context.Background(), "k", &struct{}{})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, disabled.Set(context.Background(), "k", 1, 0))
	assert.NoError(t, disabled.Invalidate(context.Background(), "k"))

	repo := newCacheRepoFake()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, 0, nil)
	hit, err = svc.Get(context.Background(), "k", &struct{}{})
	assert.Error(t, err)
	assert.False(t, hit)
}
