package cache

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"coinpilot/internal/domain"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

func InitRedis(ctx context.Context, addr string) {
	if addr == "" {
		addr = "localhost:6379"
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Fatalf("failed to parse redis address: %v", err)
		}
		opts = parsed
	}

	Client = newRedisClient(opts)
	if err := pingRedis(ctx, Client); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
}

const snapshotTTL = 90 * time.Second

// RedisCmdable is the subset of the redis client the snapshot cache uses.
type RedisCmdable interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// SnapshotCache stores per-product market snapshots with a short TTL so a
// cycle restarted shortly after a crash does not hammer the exchange.
type SnapshotCache struct {
	redis RedisCmdable
}

func NewSnapshotCache(client RedisCmdable) *SnapshotCache {
	return &SnapshotCache{redis: client}
}

func (c *SnapshotCache) Put(ctx context.Context, snap *domain.AssetSnapshot) error {
	if c == nil || c.redis == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, "snapshot:"+snap.Symbol, data, snapshotTTL).Err()
}

func (c *SnapshotCache) Get(ctx context.Context, symbol string) (*domain.AssetSnapshot, error) {
	if c == nil || c.redis == nil {
		return nil, nil
	}
	data, err := c.redis.Get(ctx, "snapshot:"+symbol).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.AssetSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
