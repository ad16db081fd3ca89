package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"caseflow/internal/institution/models"
	id "caseflow/pkg/domain"
)

// Finder is the read path the cache wraps.
type Finder interface {
	FindByID(ctx context.Context, instID id.InstitutionID) (*models.Institution, error)
}

// Cached is a Redis read-through cache in front of a Finder. Redis errors
// degrade to the underlying store; they never fail a lookup.
type Cached struct {
	inner  Finder
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(inner Finder, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(instID id.InstitutionID) string {
	return "caseflow:institution:" + instID.String()
}

func (c *Cached) FindByID(ctx context.Context, instID id.InstitutionID) (*models.Institution, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(instID)).Bytes()
	switch {
	case err == nil:
		var inst models.Institution
		if jsonErr := json.Unmarshal(raw, &inst); jsonErr == nil {
			return &inst, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable institution cache entry", "institution_id", instID)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "institution cache read failed", "error", err)
	}

	inst, err := c.inner.FindByID(ctx, instID)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(inst); err == nil {
		if err := c.rdb.Set(ctx, cacheKey(instID), payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "institution cache write failed", "error", err)
		}
	}
	return inst, nil
}

// Invalidate drops the cached entry, used after a soft delete.
func (c *Cached) Invalidate(ctx context.Context, instID id.InstitutionID) error {
	return c.rdb.Del(ctx, cacheKey(instID)).Err()
}
