package rdx

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect creates a Redis client and checks it with a ping.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	log.Printf("[Redis] Connected to %s", addr)
	return conn, nil
}

// RouteCache stores serialized routes in Redis. It satisfies directions.Cache.
type RouteCache struct {
	conn redis.Cmdable
}

func NewRouteCache(conn redis.Cmdable) *RouteCache {
	return &RouteCache{conn: conn}
}

func (c *RouteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.conn.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RouteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.conn.Set(ctx, key, value, ttl).Err()
}
