package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domainErrors "github.com/voicegate/fraud-manager-backend/internal/domain/errors"
	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
	"github.com/voicegate/fraud-manager-backend/internal/infrastructure/config"
)

type stubRegistry struct {
	mu      sync.Mutex
	entries map[string]fraud.BlockEntry
	gets    int
	getErr  error
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{entries: make(map[string]fraud.BlockEntry)}
}

func (r *stubRegistry) GetBlockEntry(_ context.Context, phoneNumber string) (*fraud.BlockEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.getErr != nil {
		return nil, r.getErr
	}
	entry, ok := r.entries[phoneNumber]
	if !ok {
		return nil, domainErrors.ErrBlockEntryNotFound
	}
	return &entry, nil
}

func (r *stubRegistry) PutBlockEntry(_ context.Context, entry *fraud.BlockEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.PhoneNumber] = *entry
	return nil
}

func setupBlockCache(t *testing.T) (*BlockEntryCache, *stubRegistry, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	registry := newStubRegistry()
	cache, err := NewBlockEntryCache(context.Background(), registry, config.RedisConfig{
		URL: mr.Addr(),
		TTL: time.Minute,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return cache, registry, mr
}

func TestNewBlockEntryCache_Validation(t *testing.T) {
	t.Run("nil registry", func(t *testing.T) {
		_, err := NewBlockEntryCache(context.Background(), nil, config.RedisConfig{}, zaptest.NewLogger(t))
		assert.ErrorContains(t, err, "block registry is required")
	})

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewBlockEntryCache(context.Background(), newStubRegistry(), config.RedisConfig{}, nil)
		assert.ErrorContains(t, err, "logger is required")
	})

	t.Run("unreachable redis", func(t *testing.T) {
		_, err := NewBlockEntryCache(context.Background(), newStubRegistry(), config.RedisConfig{
			URL: "localhost:1",
		}, zaptest.NewLogger(t))
		assert.ErrorContains(t, err, "redis connection failed")
	})
}

func TestBlockEntryCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	cache, registry, _ := setupBlockCache(t)

	entry := fraud.BlockEntry{
		PhoneNumber: "56911111111",
		Reason:      "Automatic block (rule: day period)",
		BlockedAt:   time.Now().UTC().Truncate(time.Second),
		Origin:      fraud.OriginAutomatic,
	}
	registry.entries[entry.PhoneNumber] = entry

	// First read goes to the registry and fills the cache.
	got, err := cache.GetBlockEntry(ctx, entry.PhoneNumber)
	require.NoError(t, err)
	assert.Equal(t, entry, *got)
	assert.Equal(t, 1, registry.gets)

	// Second read is served from Redis.
	got, err = cache.GetBlockEntry(ctx, entry.PhoneNumber)
	require.NoError(t, err)
	assert.Equal(t, entry.Reason, got.Reason)
	assert.Equal(t, 1, registry.gets)
}

func TestBlockEntryCache_MissIsNotCached(t *testing.T) {
	ctx := context.Background()
	cache, registry, _ := setupBlockCache(t)

	_, err := cache.GetBlockEntry(ctx, "56900000000")
	assert.ErrorIs(t, err, domainErrors.ErrBlockEntryNotFound)

	// Every miss consults the registry again; a number blocked between
	// two checks is seen immediately.
	_, err = cache.GetBlockEntry(ctx, "56900000000")
	assert.ErrorIs(t, err, domainErrors.ErrBlockEntryNotFound)
	assert.Equal(t, 2, registry.gets)
}

func TestBlockEntryCache_PutWritesThroughAndCaches(t *testing.T) {
	ctx := context.Background()
	cache, registry, _ := setupBlockCache(t)

	entry := fraud.BlockEntry{
		PhoneNumber: "56922222222",
		Reason:      "Automatic block (rule: week period)",
		BlockedAt:   time.Now().UTC().Truncate(time.Second),
		Origin:      fraud.OriginAutomatic,
	}
	require.NoError(t, cache.PutBlockEntry(ctx, &entry))

	// The registry holds the entry.
	stored, ok := registry.entries[entry.PhoneNumber]
	require.True(t, ok)
	assert.Equal(t, entry.Reason, stored.Reason)

	// Reads are served without another registry round trip.
	got, err := cache.GetBlockEntry(ctx, entry.PhoneNumber)
	require.NoError(t, err)
	assert.Equal(t, entry.Reason, got.Reason)
	assert.Equal(t, 0, registry.gets)
}

func TestBlockEntryCache_RedisFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	cache, registry, mr := setupBlockCache(t)

	entry := fraud.BlockEntry{PhoneNumber: "56933333333", Reason: "manual", Origin: fraud.OriginManual}
	registry.entries[entry.PhoneNumber] = entry

	mr.Close()

	got, err := cache.GetBlockEntry(ctx, entry.PhoneNumber)
	require.NoError(t, err)
	assert.Equal(t, entry.Reason, got.Reason)
}

func TestBlockEntryCache_RegistryErrorPropagates(t *testing.T) {
	ctx := context.Background()
	cache, registry, _ := setupBlockCache(t)
	registry.getErr = errors.New("registry down")

	_, err := cache.GetBlockEntry(ctx, "56944444444")
	assert.ErrorContains(t, err, "registry down")
}

func TestBlockEntryCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	cache, registry, _ := setupBlockCache(t)

	entry := fraud.BlockEntry{PhoneNumber: "56955555555", Reason: "manual", Origin: fraud.OriginManual}
	require.NoError(t, cache.PutBlockEntry(ctx, &entry))
	require.NoError(t, cache.Invalidate(ctx, entry.PhoneNumber))

	// The next read must hit the registry again.
	_, err := cache.GetBlockEntry(ctx, entry.PhoneNumber)
	require.NoError(t, err)
	assert.Equal(t, 1, registry.gets)
}

func TestBlockEntryCache_EntriesExpire(t *testing.T) {
	ctx := context.Background()
	cache, registry, mr := setupBlockCache(t)

	entry := fraud.BlockEntry{PhoneNumber: "56966666666", Reason: "manual", Origin: fraud.OriginManual}
	require.NoError(t, cache.PutBlockEntry(ctx, &entry))

	mr.FastForward(2 * time.Minute)

	_, err := cache.GetBlockEntry(ctx, entry.PhoneNumber)
	require.NoError(t, err)
	assert.Equal(t, 1, registry.gets)
}
