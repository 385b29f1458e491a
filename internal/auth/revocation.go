package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Revocations is an append-only set of revoked token identifiers.
type Revocations interface {
	Revoke(ctx context.Context, jti string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RevokedTokenStore is the durable side of the revocation set.
type RevokedTokenStore interface {
	RevokeToken(ctx context.Context, jti string) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// StoreRevocations persists revocations and remembers every positive answer
// in memory. Entries are never evicted since a revoked jti stays revoked.
type StoreRevocations struct {
	store RevokedTokenStore

	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewStoreRevocations wraps a durable store.
func NewStoreRevocations(store RevokedTokenStore) *StoreRevocations {
	return &StoreRevocations{store: store, seen: make(map[string]struct{})}
}

func (r *StoreRevocations) Revoke(ctx context.Context, jti string) error {
	if err := r.store.RevokeToken(ctx, jti); err != nil {
		return err
	}
	r.remember(jti)
	return nil
}

func (r *StoreRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.RLock()
	_, ok := r.seen[jti]
	r.mu.RUnlock()
	if ok {
		return true, nil
	}

	revoked, err := r.store.IsTokenRevoked(ctx, jti)
	if err != nil {
		return false, err
	}
	if revoked {
		r.remember(jti)
	}
	return revoked, nil
}

func (r *StoreRevocations) remember(jti string) {
	r.mu.Lock()
	r.seen[jti] = struct{}{}
	r.mu.Unlock()
}

const revokedKeyPrefix = "chatline:revoked:"

// RedisRevocations mirrors a durable revocation set in redis. Keys expire
// after ttl, which should be at least the token lifetime; an expired token
// is rejected before its jti is ever checked. Redis faults fall back to the
// durable set.
type RedisRevocations struct {
	client  *redis.Client
	durable Revocations
	ttl     time.Duration
	log     *zap.Logger
}

// NewRedisRevocations creates a redis mirror in front of durable.
func NewRedisRevocations(client *redis.Client, durable Revocations, ttl time.Duration, log *zap.Logger) *RedisRevocations {
	return &RedisRevocations{
		client:  client,
		durable: durable,
		ttl:     ttl,
		log:     log.With(zap.String("component", "revocations")),
	}
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string) error {
	if err := r.durable.Revoke(ctx, jti); err != nil {
		return err
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+jti, 1, r.ttl).Err(); err != nil {
		r.log.Warn("redis revoke failed", zap.String("jti", jti), zap.Error(err))
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	if err != nil {
		r.log.Warn("redis revocation lookup failed", zap.String("jti", jti), zap.Error(err))
	}

	revoked, err := r.durable.IsRevoked(ctx, jti)
	if err != nil {
		return false, err
	}
	if revoked {
		if err := r.client.Set(ctx, revokedKeyPrefix+jti, 1, r.ttl).Err(); err != nil {
			r.log.Warn("redis backfill failed", zap.String("jti", jti), zap.Error(err))
		}
	}
	return revoked, nil
}

// NewRedisClient parses a redis URL and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
