package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/healthfirst/provider-auth/internal/domain"
)

const providerCachePrefix = "provider:"

// cachedProviderRepository reads providers through Redis before Postgres.
type cachedProviderRepository struct {
	base   ProviderRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProviderRepository wraps base with a Redis read-through cache.
// A nil client or non-positive ttl disables caching. Entries are never
// invalidated, so reads may lag the database by up to ttl; callers that
// gate on verification status must read base directly.
func NewCachedProviderRepository(base ProviderRepository, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) ProviderRepository {
	if client == nil || ttl <= 0 {
		return base
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedProviderRepository{base: base, client: client, ttl: ttl, logger: logger}
}

func providerCacheKey(id uuid.UUID) string {
	return providerCachePrefix + id.String()
}

func (r *cachedProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Provider, error) {
	key := providerCacheKey(id)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p domain.Provider
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			return &p, nil
		}
		r.logger.Warn("discarding unreadable provider cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("provider cache read failed", zap.String("key", key), zap.Error(err))
	}

	p, err := r.base.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(p); err == nil {
		if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("provider cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return p, nil
}

