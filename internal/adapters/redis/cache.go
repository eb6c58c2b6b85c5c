package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"hazards_directory/internal/adapters/observability"
)

// keyPrefix namespaces every key so the directory can share a Redis database.
const keyPrefix = "hazards:"

type Cache struct{ c *redis.Client }

func New(addr, pass string, db int) *Cache {
	return NewFromClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewFromClient(c *redis.Client) *Cache { return &Cache{c: c} }

func (r *Cache) Ping(ctx context.Context) error {
	return eris.Wrap(r.c.Ping(ctx).Err(), "redis: ping")
}

func (r *Cache) Close() error { return r.c.Close() }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "redis: get %s", key)
	}
	observability.ObserveCache("redis", "hit")
	if err := json.Unmarshal(v, dst); err != nil {
		return false, eris.Wrapf(err, "redis: decode %s", key)
	}
	return true, nil
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "redis: encode %s", key)
	}
	observability.ObserveCache("redis", "set")
	return eris.Wrapf(r.c.Set(ctx, keyPrefix+key, b, time.Duration(ttlSec)*time.Second).Err(), "redis: set %s", key)
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return eris.Wrapf(r.c.Del(ctx, keyPrefix+key).Err(), "redis: del %s", key)
}
