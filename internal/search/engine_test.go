package search

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"mentorbook/internal/catalog"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]string
	gets    int
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]string)}
}

func (c *memoryCache) k(version uint64, q Query) string {
	return q.Key() + "@" + strconv.FormatUint(version, 10)
}

func (c *memoryCache) Get(ctx context.Context, version uint64, q Query) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, errors.New("connection refused")
	}
	ids, ok := c.entries[c.k(version, q)]
	if !ok {
		return nil, ErrCacheMiss
	}
	return ids, nil
}

func (c *memoryCache) Set(ctx context.Context, version uint64, q Query, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.k(version, q)] = ids
	return nil
}

func seededStore(t *testing.T) *catalog.Store {
	t.Helper()
	store := catalog.NewStore(catalog.NewMemoryRepository())
	records := make([]catalog.ProviderRecord, 0, 4)
	for _, p := range fixture() {
		records = append(records, catalog.ProviderRecord{Provider: p})
	}
	require.NoError(t, store.Load(context.Background(), records))
	return store
}

func TestEngine_WithoutCache(t *testing.T) {
	engine := NewEngine(seededStore(t), nil)

	got, err := engine.Search(context.Background(), Query{Institution: "iit-bombay"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, idsOf(got))
}

func TestEngine_RejectsUnknownSort(t *testing.T) {
	engine := NewEngine(seededStore(t), nil)

	_, err := engine.Search(context.Background(), Query{SortBy: "newest"})
	assert.ErrorIs(t, err, ErrUnknownSort)
}

func TestEngine_ExcludesInactive(t *testing.T) {
	store := seededStore(t)
	require.NoError(t, store.Deactivate(context.Background(), "b"))
	engine := NewEngine(store, nil)

	got, err := engine.Search(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d", "c"}, idsOf(got))
}

func TestEngine_CachesRankedIDs(t *testing.T) {
	store := seededStore(t)
	cache := newMemoryCache()
	engine := NewEngine(store, cache)
	ctx := context.Background()

	first, err := engine.Search(ctx, Query{SortBy: SortPriceHigh})
	require.NoError(t, err)
	assert.Len(t, cache.entries, 1)

	second, err := engine.Search(ctx, Query{SortBy: SortPriceHigh})
	require.NoError(t, err)
	assert.Equal(t, idsOf(first), idsOf(second))
	assert.Len(t, cache.entries, 1)
}

func TestEngine_CatalogChangeInvalidates(t *testing.T) {
	store := seededStore(t)
	cache := newMemoryCache()
	engine := NewEngine(store, cache)
	ctx := context.Background()

	_, err := engine.Search(ctx, Query{})
	require.NoError(t, err)

	require.NoError(t, store.Deactivate(ctx, "a"))

	got, err := engine.Search(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d", "c"}, idsOf(got))
	assert.Len(t, cache.entries, 2)
}

func TestEngine_CacheFailureFallsBack(t *testing.T) {
	cache := newMemoryCache()
	cache.failGet = true
	engine := NewEngine(seededStore(t), cache)

	got, err := engine.Search(context.Background(), Query{BatchYear: "2015"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d"}, idsOf(got))
	assert.Equal(t, 1, cache.gets)
}

func TestRedisCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db, 30*time.Second)
	ctx := context.Background()
	q := mustNormalize(t, Query{Text: "go"})
	key := cache.key(3, q)

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet(key).RedisNil()

		_, err := cache.Get(ctx, 3, q)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("set then get", func(t *testing.T) {
		payload, _ := json.Marshal([]string{"a", "c"})
		mock.ExpectSet(key, payload, 30*time.Second).SetVal("OK")
		mock.ExpectGet(key).SetVal(string(payload))

		require.NoError(t, cache.Set(ctx, 3, q, []string{"a", "c"}))
		ids, err := cache.Get(ctx, 3, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, ids)
	})

	t.Run("redis error", func(t *testing.T) {
		mock.ExpectGet(key).SetErr(errors.New("timeout"))

		_, err := cache.Get(ctx, 3, q)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrCacheMiss)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_WithRedisCacheHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := seededStore(t)
	cache := NewRedisCache(db, time.Minute)
	engine := NewEngine(store, cache)

	q := mustNormalize(t, Query{SortBy: SortSessions})
	payload, _ := json.Marshal([]string{"c", "a"})
	mock.ExpectGet(cache.key(store.Version(), q)).SetVal(string(payload))

	got, err := engine.Search(context.Background(), Query{SortBy: SortSessions})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, idsOf(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}
