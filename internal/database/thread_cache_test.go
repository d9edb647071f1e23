package database

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rentitout/backend/internal/messaging"
	"github.com/rentitout/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapRedis is a threadCacheClient backed by a map.
type mapRedis struct {
	mu       sync.Mutex
	data     map[string]string
	failGet  bool
	failIncr bool
}

func newMapRedis() *mapRedis {
	return &mapRedis{data: make(map[string]string)}
}

func (m *mapRedis) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mapRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mapRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIncr {
		return redis.NewIntResult(0, errors.New("connection refused"))
	}
	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (m *mapRedis) keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func TestThreadCache_VersionedEntries(t *testing.T) {
	ctx := context.Background()
	client := newMapRedis()
	c := &ThreadCache{client: client, ttl: time.Minute}
	q := messaging.ThreadQuery{ListingID: 7, Identity: "renter", Counterpart: "owner"}

	v, ok := c.Version(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, uint64(0), v)

	c.Set(ctx, q, v, []models.ChatMessage{{ID: 1, Content: "hi"}})
	got, ok := c.Get(ctx, q, v)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].Content)

	c.InvalidateListing(ctx, 7)
	v2, ok := c.Version(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, uint64(1), v2)
	_, ok = c.Get(ctx, q, v2)
	assert.False(t, ok)

	// A load that started before the invalidation writes under the old
	// version and stays invisible.
	c.Set(ctx, q, v, []models.ChatMessage{{ID: 1}})
	_, ok = c.Get(ctx, q, v2)
	assert.False(t, ok)

	other, ok := c.Version(ctx, 8)
	require.True(t, ok)
	assert.Equal(t, uint64(0), other)
}

func TestThreadCache_InvalidateIsOneKey(t *testing.T) {
	ctx := context.Background()
	client := newMapRedis()
	c := &ThreadCache{client: client, ttl: time.Minute}

	for i := 0; i < 5; i++ {
		c.InvalidateListing(ctx, 3)
	}
	assert.Equal(t, 1, client.keys())
	v, _ := c.Version(ctx, 3)
	assert.Equal(t, uint64(5), v)
}

func TestThreadCache_Failures(t *testing.T) {
	ctx := context.Background()
	client := newMapRedis()
	c := &ThreadCache{client: client, ttl: time.Minute}

	client.failIncr = true
	assert.NotPanics(t, func() { c.InvalidateListing(ctx, 3) })

	client.failGet = true
	_, ok := c.Version(ctx, 3)
	assert.False(t, ok)

	disabled := &ThreadCache{client: newMapRedis(), ttl: 0}
	q := messaging.ThreadQuery{ListingID: 1, Identity: "a"}
	disabled.Set(ctx, q, 0, []models.ChatMessage{{ID: 1}})
	_, ok = disabled.Get(ctx, q, 0)
	assert.False(t, ok)
}
