package faq

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"vanrental/pkg/config"
	pkgredis "vanrental/pkg/redis"
)

const cacheKeyPrefix = "faq:"

// AnswerCache caches synthesized answers in Redis, keyed by the normalized
// question. Concurrent misses for the same question are collapsed into one
// retrieval via singleflight.
type AnswerCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func NewAnswerCache(client *pkgredis.Client, cfg config.RedisConfig) *AnswerCache {
	return &AnswerCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "answer-cache"),
	}
}

func (c *AnswerCache) Get(ctx context.Context, question string) (*Answer, bool) {
	key := c.buildKey(question)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var answer Answer
	if err := json.Unmarshal([]byte(data), &answer); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &answer, true
}

func (c *AnswerCache) Set(ctx context.Context, question string, answer *Answer) {
	key := c.buildKey(question)
	data, err := json.Marshal(answer)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached answer for question, or computes, caches,
// and returns a fresh one. The second return value reports a cache hit.
func (c *AnswerCache) GetOrCompute(
	ctx context.Context,
	question string,
	computeFn func() (*Answer, error),
) (*Answer, bool, error) {
	if answer, ok := c.Get(ctx, question); ok {
		return answer, true, nil
	}
	key := c.buildKey(question)
	val, err, _ := c.group.Do(key, func() (any, error) {
		if answer, ok := c.Get(ctx, question); ok {
			return answer, nil
		}
		answer, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, question, answer)
		return answer, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Answer), false, nil
}

// Invalidate removes every cached answer. Called after a corpus reload so no
// stale answer outlives the documents it came from.
func (c *AnswerCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, cacheKeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating answer cache: %w", err)
	}
	c.logger.Info("answer cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *AnswerCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *AnswerCache) buildKey(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%s%x", cacheKeyPrefix, hash[:16])
}
