package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"myobclient/entity"
	"myobclient/internal/config"
	"myobclient/internal/lib/sl"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix         = "myob:sku:"
	idempotencyPrefix = "myob:idem:"
	idempotencyTTL    = 24 * time.Hour
)

// SkuCache keeps recent SKU resolutions so repeated orders skip the MYOB lookup.
type SkuCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewSkuCache(conf *config.Config, log *slog.Logger) (*SkuCache, error) {
	if !conf.Redis.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := time.Duration(conf.Redis.TTL) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &SkuCache{
		client: client,
		ttl:    ttl,
		log:    log.With(sl.Module("redis")),
	}, nil
}

func key(sku string) string {
	return keyPrefix + strings.ToUpper(strings.TrimSpace(sku))
}

// Get returns nil without error on a cache miss.
func (c *SkuCache) Get(ctx context.Context, sku string) (*entity.ItemRef, error) {
	data, err := c.client.Get(ctx, key(sku)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var ref entity.ItemRef
	if err = json.Unmarshal(data, &ref); err != nil {
		// drop a corrupt entry rather than fail the lookup
		_ = c.client.Del(ctx, key(sku)).Err()
		return nil, nil
	}
	return &ref, nil
}

func (c *SkuCache) Set(ctx context.Context, ref *entity.ItemRef) error {
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	if err = c.client.Set(ctx, key(ref.Sku), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *SkuCache) Delete(ctx context.Context, sku string) error {
	return c.client.Del(ctx, key(sku)).Err()
}

// Claim marks an idempotency key as used. It returns false when the key was already claimed.
func (c *SkuCache) Claim(ctx context.Context, idemKey string) (bool, error) {
	ok, err := c.client.SetNX(ctx, idempotencyPrefix+idemKey, "1", idempotencyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Release frees an idempotency key so the request can be retried.
func (c *SkuCache) Release(ctx context.Context, idemKey string) error {
	if err := c.client.Del(ctx, idempotencyPrefix+idemKey).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *SkuCache) Close() error {
	return c.client.Close()
}
