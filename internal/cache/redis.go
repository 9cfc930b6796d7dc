package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// dialCheckTimeout tope del ping inicial de NewRedis.
const dialCheckTimeout = 5 * time.Second

// redisClient implementa Client sobre go-redis. Las vistas de proyectos se
// guardan como strings bajo "<prefix>:project_view:<id>".
type redisClient struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedis abre un cliente Redis y verifica la conexión con un ping.
func NewRedis(cfg Config) (Client, error) {
	port := cfg.Port
	if port == 0 {
		port = 6379
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialCheckTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", rdb.Options().Addr, err)
	}
	return newRedisClient(rdb, cfg.Prefix), nil
}

func newRedisClient(rdb redis.UniversalClient, prefix string) *redisClient {
	return &redisClient{rdb: rdb, prefix: prefix}
}

// redisErr traduce redis.Nil (key ausente) a ErrNotFound.
func redisErr(err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	return err
}

func (c *redisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, prefixed(c.prefix, key)).Result()
	if err != nil {
		return "", redisErr(err)
	}
	return val, nil
}

func (c *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.rdb.Set(ctx, prefixed(c.prefix, key), value, ttl).Err()
}

func (c *redisClient) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, prefixed(c.prefix, key)).Err()
}

func (c *redisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *redisClient) Close() error {
	return c.rdb.Close()
}
