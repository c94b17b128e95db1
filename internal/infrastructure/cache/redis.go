package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/redis/go-redis/v9"

	"scamguard-lab/internal/config"
	"scamguard-lab/internal/domain/models"
	"scamguard-lab/pkg/logger"
)

// ErrMiss is returned when a key is not cached
var ErrMiss = errors.New("cache miss")

// RedisCache wraps the Redis client with typed operations
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *logger.Logger
}

// NewRedis creates a new Redis client
func NewRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisCache, error) {
	log = log.WithComponent("redis")
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info().Msg("connected to Redis successfully")

	return &RedisCache{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		logger:    log,
	}, nil
}

// Ping checks the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	c.logger.Info().Msg("closing Redis connection")
	return c.client.Close()
}

func (c *RedisCache) key(k string) string {
	return c.keyPrefix + k
}

// Get retrieves a value from cache. A missing key yields ErrMiss.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

// GetJSON retrieves and unmarshals a JSON value from cache
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// Set stores a value in cache with optional TTL
func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// SetJSON marshals and stores a value in cache
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.Set(ctx, key, string(data), ttl)
}

// Pipeline returns a Redis pipeline for batch operations
func (c *RedisCache) Pipeline() redis.Pipeliner {
	return c.client.Pipeline()
}

// Cache key constants
const (
	// LLM verdicts keyed by text hash and model
	KeyAnalysisPrefix = "analysis:"

	// Last good knowledge base snapshot
	KeyKnowledgeBase = "kb:snapshot"

	// Rate limiting keys
	KeyRateLimitPrefix = "rate_limit:"
)

// AnalysisKey derives the cache key for a model's verdict on text. The text is
// normalized for whitespace so trivially different pastes share an entry.
func AnalysisKey(model, text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	return KeyAnalysisPrefix + model + ":" + strconv.FormatUint(xxhash.ChecksumString64(normalized), 16)
}

// CacheAnalysis stores an LLM verdict
func (c *RedisCache) CacheAnalysis(ctx context.Context, model, text string, result *models.AnalysisResult, ttl time.Duration) error {
	return c.SetJSON(ctx, AnalysisKey(model, text), result, ttl)
}

// GetCachedAnalysis returns a cached LLM verdict or ErrMiss
func (c *RedisCache) GetCachedAnalysis(ctx context.Context, model, text string) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := c.GetJSON(ctx, AnalysisKey(model, text), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// KnowledgeSnapshot is the cached form of a knowledge base load
type KnowledgeSnapshot struct {
	Categories []models.ScamCategory `json:"categories"`
	Records    []models.ScamRecord   `json:"records"`
	LoadedAt   time.Time             `json:"loaded_at"`
}

// SaveKnowledgeSnapshot stores the last successful knowledge base load
func (c *RedisCache) SaveKnowledgeSnapshot(ctx context.Context, snap *KnowledgeSnapshot, ttl time.Duration) error {
	return c.SetJSON(ctx, KeyKnowledgeBase, snap, ttl)
}

// LoadKnowledgeSnapshot returns the cached knowledge base or ErrMiss
func (c *RedisCache) LoadKnowledgeSnapshot(ctx context.Context) (*KnowledgeSnapshot, error) {
	var snap KnowledgeSnapshot
	if err := c.GetJSON(ctx, KeyKnowledgeBase, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// CheckRateLimit checks and increments the rate limit counter
// Returns (allowed, remaining, resetTime, error)
func (c *RedisCache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error) {
	now := time.Now()
	windowSeconds := int64(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	bucket := now.Unix() / windowSeconds
	windowKey := fmt.Sprintf("%s%s:%d", KeyRateLimitPrefix, key, bucket)

	pipe := c.Pipeline()
	incr := pipe.Incr(ctx, c.key(windowKey))
	pipe.Expire(ctx, c.key(windowKey), window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := incr.Val()
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetTime := time.Unix((bucket+1)*windowSeconds, 0)

	return count <= limit, remaining, resetTime, nil
}
