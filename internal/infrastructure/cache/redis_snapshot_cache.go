package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appledger "github.com/backoffice/ledger/internal/application/ledger"
	"github.com/backoffice/ledger/internal/infrastructure/config"
)

const defaultSnapshotKeyPrefix = "ledger:snapshot:"

// RedisSnapshotCache implements SnapshotCache backed by Redis.
// Suitable for deployments where several instances serve display reads
// against the same documents.
type RedisSnapshotCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSnapshotCache creates a Redis-backed snapshot cache and verifies
// the connection
func NewRedisSnapshotCache(cfg config.RedisConfig, ttl time.Duration) (*RedisSnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSnapshotCache{
		client:    client,
		keyPrefix: defaultSnapshotKeyPrefix,
		ttl:       ttl,
	}, nil
}

// NewRedisSnapshotCacheWithClient creates a cache with an existing Redis
// client, useful for testing or sharing a client across components
func NewRedisSnapshotCacheWithClient(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{
		client:    client,
		keyPrefix: defaultSnapshotKeyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached snapshot and whether it was present.
// Redis errors degrade to a cache miss; the caller falls through to
// source data.
func (c *RedisSnapshotCache) Get(ctx context.Context, documentID uuid.UUID) (*appledger.DocumentSnapshot, bool) {
	data, err := c.client.Get(ctx, c.key(documentID)).Bytes()
	if err != nil {
		return nil, false
	}

	var snapshot appledger.DocumentSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false
	}
	return &snapshot, true
}

// Set stores a snapshot with the configured TTL
func (c *RedisSnapshotCache) Set(ctx context.Context, snapshot *appledger.DocumentSnapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(snapshot.DocumentID), data, c.ttl)
}

// Invalidate drops the snapshot for a document
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, documentID uuid.UUID) {
	c.client.Del(ctx, c.key(documentID))
}

// Close closes the underlying Redis client
func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}

func (c *RedisSnapshotCache) key(documentID uuid.UUID) string {
	return c.keyPrefix + documentID.String()
}

// Ensure RedisSnapshotCache implements SnapshotCache
var _ appledger.SnapshotCache = (*RedisSnapshotCache)(nil)
