package cache

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	appledger "github.com/backoffice/ledger/internal/application/ledger"
	"github.com/backoffice/ledger/internal/infrastructure/config"
)

// SnapshotCacheFactory creates snapshot caches based on configuration
type SnapshotCacheFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SnapshotCacheFactoryOption is a functional option for configuring the factory
type SnapshotCacheFactoryOption func(*SnapshotCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SnapshotCacheFactoryOption {
	return func(f *SnapshotCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory
// cache when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SnapshotCacheFactoryOption {
	return func(f *SnapshotCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSnapshotCacheFactory creates a new factory
func NewSnapshotCacheFactory(cfg config.RedisConfig, ttl time.Duration, opts ...SnapshotCacheFactoryOption) *SnapshotCacheFactory {
	f := &SnapshotCacheFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateCache creates a snapshot cache based on whether Redis is
// configured and reachable, falling back to in-memory when allowed
func (f *SnapshotCacheFactory) CreateCache() (appledger.SnapshotCache, error) {
	if !f.redisConfig.Enabled() {
		f.logger.Info("no Redis host configured, using in-memory snapshot cache")
		return NewInMemorySnapshotCache(f.ttl), nil
	}

	redisCache, err := NewRedisSnapshotCache(f.redisConfig, f.ttl)
	if err == nil {
		f.logger.Info("using Redis snapshot cache",
			zap.String("addr", f.redisConfig.Addr()),
		)
		return redisCache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for snapshot cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory snapshot cache. "+
		"Instances will not share cached snapshots.",
		zap.Error(err),
	)
	return NewInMemorySnapshotCache(f.ttl), nil
}
