package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/campus-io/study-buddy/pkg/utils/json"
)

// EmbeddingCacheConfig configures the cached embedding provider.
type EmbeddingCacheConfig struct {
	// Enabled turns caching on. When off, calls pass straight through.
	Enabled bool
	// TTL is the cache entry lifetime.
	TTL time.Duration
	// KeyPrefix namespaces cache keys in redis.
	KeyPrefix string
}

// CachedEmbeddingProvider wraps an EmbeddingProvider with a redis cache
// for single-text (query) embeddings. Batch calls are not cached; they
// run once per file at indexing time and rarely repeat.
type CachedEmbeddingProvider struct {
	inner  EmbeddingProvider
	redis  *goredis.Client
	config *EmbeddingCacheConfig
}

// NewCachedEmbeddingProvider wraps inner with a redis query cache.
func NewCachedEmbeddingProvider(inner EmbeddingProvider, redis *goredis.Client, config *EmbeddingCacheConfig) *CachedEmbeddingProvider {
	if config == nil {
		config = &EmbeddingCacheConfig{
			Enabled:   false,
			TTL:       1 * time.Hour,
			KeyPrefix: "assistant:embed:",
		}
	}
	return &CachedEmbeddingProvider{
		inner:  inner,
		redis:  redis,
		config: config,
	}
}

// Name returns the wrapped provider's name.
func (c *CachedEmbeddingProvider) Name() string {
	return c.inner.Name()
}

// Embed delegates to the wrapped provider.
func (c *CachedEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.inner.Embed(ctx, texts)
}

// EmbedSingle returns a cached vector when available, otherwise embeds
// through the wrapped provider and stores the result. Cache failures
// degrade to a plain provider call.
func (c *CachedEmbeddingProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if !c.config.Enabled || c.redis == nil {
		return c.inner.EmbedSingle(ctx, text)
	}

	key := c.cacheKey(text)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var vector []float32
		if err := json.Unmarshal(data, &vector); err != nil {
			logger.Warnw("failed to unmarshal cached embedding", "error", err.Error(), "key", key)
			_ = c.redis.Del(ctx, key).Err()
		} else {
			return vector, nil
		}
	} else if err != goredis.Nil {
		logger.Warnw("failed to read embedding cache", "error", err.Error(), "key", key)
	}

	vector, err := c.inner.EmbedSingle(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vector); err == nil {
		if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
			logger.Warnw("failed to write embedding cache", "error", err.Error(), "key", key)
		}
	}

	return vector, nil
}

func (c *CachedEmbeddingProvider) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}
