package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingStore struct {
	mu      sync.Mutex
	revoked map[string]bool
	lookups int
}

func newCountingStore() *countingStore {
	return &countingStore{revoked: make(map[string]bool)}
}

func (s *countingStore) RevokeToken(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = true
	return nil
}

func (s *countingStore) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	return s.revoked[jti], nil
}

func TestStoreRevocationsCachesPositives(t *testing.T) {
	ctx := context.Background()
	backing := newCountingStore()
	backing.revoked["old"] = true
	r := NewStoreRevocations(backing)

	for i := 0; i < 3; i++ {
		revoked, err := r.IsRevoked(ctx, "old")
		require.NoError(t, err)
		assert.True(t, revoked)
	}
	assert.Equal(t, 1, backing.lookups)

	for i := 0; i < 2; i++ {
		revoked, err := r.IsRevoked(ctx, "fresh")
		require.NoError(t, err)
		assert.False(t, revoked)
	}
	assert.Equal(t, 3, backing.lookups)

	require.NoError(t, r.Revoke(ctx, "fresh"))
	revoked, err := r.IsRevoked(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 3, backing.lookups)
}

func TestStoreRevocationsConcurrent(t *testing.T) {
	ctx := context.Background()
	r := NewStoreRevocations(newCountingStore())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Revoke(ctx, "jti")
		}()
		go func() {
			defer wg.Done()
			_, _ = r.IsRevoked(ctx, "jti")
		}()
	}
	wg.Wait()

	revoked, err := r.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRedisRevocations(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := newCountingStore()
	r := NewRedisRevocations(client, NewStoreRevocations(backing), time.Hour, zap.NewNop())

	require.NoError(t, r.Revoke(ctx, "a"))
	assert.True(t, mr.Exists(revokedKeyPrefix+"a"))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(revokedKeyPrefix+"a").Seconds(), 1)

	revoked, err := r.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Zero(t, backing.lookups)

	// Revoked durably but missing from redis: answered by the store, then backfilled.
	backing.revoked["b"] = true
	revoked, err = r.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(revokedKeyPrefix+"b"))

	revoked, err = r.IsRevoked(ctx, "c")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocationsFallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	backing := newCountingStore()
	r := NewRedisRevocations(client, NewStoreRevocations(backing), time.Hour, zap.NewNop())
	mr.Close()

	require.NoError(t, r.Revoke(ctx, "a"))
	revoked, err := r.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)
}
