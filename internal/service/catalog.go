package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MohammedMashal/smart-booking-system/internal/repository"
)

// ServiceCatalog answers whether a bookable service exists.
type ServiceCatalog interface {
	Exists(ctx context.Context, serviceID uuid.UUID) (bool, error)
}

// RepositoryCatalog reads the services table; retired services do not exist.
type RepositoryCatalog struct {
	repo repository.ServiceRepository
}

func NewRepositoryCatalog(repo repository.ServiceRepository) *RepositoryCatalog {
	return &RepositoryCatalog{repo: repo}
}

func (c *RepositoryCatalog) Exists(ctx context.Context, serviceID uuid.UUID) (bool, error) {
	ok, err := c.repo.ExistsActive(ctx, serviceID)
	if err != nil {
		return false, fmt.Errorf("lookup service: %w", err)
	}
	return ok, nil
}

// CachedCatalog remembers positive answers in redis for ttl. Redis is
// never the source of truth: any cache failure falls through to next.
type CachedCatalog struct {
	next ServiceCatalog
	rdb  *redis.Client
	ttl  time.Duration
	log  *zap.Logger
}

func NewCachedCatalog(next ServiceCatalog, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedCatalog{next: next, rdb: rdb, ttl: ttl, log: log}
}

func catalogKey(id uuid.UUID) string {
	return "catalog:service:" + id.String() + ":exists"
}

func (c *CachedCatalog) Exists(ctx context.Context, serviceID uuid.UUID) (bool, error) {
	key := catalogKey(serviceID)

	_, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return true, nil
	case err != redis.Nil:
		c.log.Debug("catalog cache read failed", zap.String("service_id", serviceID.String()), zap.Error(err))
	}

	ok, err := c.next.Exists(ctx, serviceID)
	if err != nil || !ok {
		return ok, err
	}

	if err := c.rdb.Set(ctx, key, "1", c.ttl).Err(); err != nil {
		c.log.Debug("catalog cache write failed", zap.String("service_id", serviceID.String()), zap.Error(err))
	}
	return true, nil
}
