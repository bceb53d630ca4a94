package features

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/hoopscore/internal/metrics"
	"github.com/yourusername/hoopscore/internal/models"
)

// CacheKey identifies a point-in-time vector computed from one specific
// game history.
type CacheKey struct {
	TeamID      models.TeamID
	Season      string
	AsOf        time.Time
	Fingerprint uint64
}

// String returns the cache key string.
func (k CacheKey) String() string {
	return fmt.Sprintf("features:%s:%s:%s:%s",
		k.Season, k.TeamID, k.AsOf.Format(models.DateLayout), strconv.FormatUint(k.Fingerprint, 16))
}

// Cache stores computed feature vectors. Lookups never fail; a backend error
// is a miss.
type Cache interface {
	Get(ctx context.Context, key CacheKey) (models.FeatureVector, bool)
	Set(ctx context.Context, key CacheKey, vector models.FeatureVector)
}

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get retrieves a cached vector.
func (mc *MemoryCache) Get(ctx context.Context, key CacheKey) (models.FeatureVector, bool) {
	if item, found := mc.cache.Get(key.String()); found {
		if v, ok := item.(models.FeatureVector); ok {
			metrics.RecordFeatureCacheLookup("memory", true)
			return v, true
		}
	}
	metrics.RecordFeatureCacheLookup("memory", false)
	return models.FeatureVector{}, false
}

// Set stores a vector.
func (mc *MemoryCache) Set(ctx context.Context, key CacheKey, vector models.FeatureVector) {
	mc.cache.Set(key.String(), vector, mc.ttl)
}

// ItemCount returns the number of cached vectors.
func (mc *MemoryCache) ItemCount() int {
	return mc.cache.ItemCount()
}

// Flush empties the cache.
func (mc *MemoryCache) Flush() {
	mc.cache.Flush()
}

// RedisCache shares vectors between processes through Redis, JSON encoded.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.WithField("component", "feature_cache"),
	}
}

// DialRedis parses a redis URL and verifies the connection.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Get retrieves a cached vector.
func (rc *RedisCache) Get(ctx context.Context, key CacheKey) (models.FeatureVector, bool) {
	data, err := rc.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err != redis.Nil {
			rc.logger.WithError(err).WithField("key", key.String()).Warn("Feature cache read failed")
		}
		metrics.RecordFeatureCacheLookup("redis", false)
		return models.FeatureVector{}, false
	}

	var v models.FeatureVector
	if err := json.Unmarshal(data, &v); err != nil {
		rc.logger.WithError(err).WithField("key", key.String()).Warn("Discarding undecodable cached vector")
		metrics.RecordFeatureCacheLookup("redis", false)
		return models.FeatureVector{}, false
	}
	metrics.RecordFeatureCacheLookup("redis", true)
	return v, true
}

// Set stores a vector.
func (rc *RedisCache) Set(ctx context.Context, key CacheKey, vector models.FeatureVector) {
	data, err := json.Marshal(vector)
	if err != nil {
		rc.logger.WithError(err).Warn("Failed to encode feature vector")
		return
	}
	if err := rc.client.Set(ctx, key.String(), data, rc.ttl).Err(); err != nil {
		rc.logger.WithError(err).WithField("key", key.String()).Warn("Feature cache write failed")
	}
}

// TieredCache reads through a fast local tier before a shared tier and
// back-fills the local tier on a shared hit.
type TieredCache struct {
	local  Cache
	shared Cache
}

// NewTieredCache combines two caches.
func NewTieredCache(local, shared Cache) *TieredCache {
	return &TieredCache{local: local, shared: shared}
}

// Get retrieves a cached vector.
func (tc *TieredCache) Get(ctx context.Context, key CacheKey) (models.FeatureVector, bool) {
	if v, ok := tc.local.Get(ctx, key); ok {
		return v, true
	}
	v, ok := tc.shared.Get(ctx, key)
	if ok {
		tc.local.Set(ctx, key, v)
	}
	return v, ok
}

// Set stores a vector in both tiers.
func (tc *TieredCache) Set(ctx context.Context, key CacheKey, vector models.FeatureVector) {
	tc.local.Set(ctx, key, vector)
	tc.shared.Set(ctx, key, vector)
}
