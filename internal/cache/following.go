// Package cache 读缓存：关注列表 ID 以 redis list 形式缓存，关注关系变化时失效。
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-api/pkg/logger"
)

// emptyMarker 占位元素，区分"没有关注任何人"和"未缓存"
const emptyMarker = "-"

// versionTTL 版本键的存活时间，远大于一次回源的耗时
const versionTTL = 24 * time.Hour

// FolloweeLoader 缓存未命中时回源
type FolloweeLoader func(ctx context.Context, userID string) ([]string, error)

// FollowingCache 关注 ID 列表缓存
type FollowingCache struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewFollowingCache(client *redis.Client, ttl time.Duration) *FollowingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FollowingCache{client: client, ttl: ttl}
}

func followingKey(userID string) string { return fmt.Sprintf("following:index:%s", userID) }

// versionKey Invalidate 每次自增；回填前版本变了说明回源期间关注关系有变化
func versionKey(userID string) string { return fmt.Sprintf("following:ver:%s", userID) }

// FolloweeIDs 先读缓存，未命中时调用 load 并回填。
// redis 出错时直接回源，缓存只是加速，不影响正确性。
func (c *FollowingCache) FolloweeIDs(ctx context.Context, userID string, load FolloweeLoader) ([]string, error) {
	key := followingKey(userID)
	ids, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err == nil && len(ids) > 0 {
		c.hits.Add(1)
		if len(ids) == 1 && ids[0] == emptyMarker {
			return []string{}, nil
		}
		return ids, nil
	}
	if err != nil {
		logger.Debug("following cache read failed", zap.String("user", userID), zap.Error(err))
	}
	c.misses.Add(1)

	// 版本必须在回源之前读
	version, verErr := c.client.Get(ctx, versionKey(userID)).Result()
	if errors.Is(verErr, redis.Nil) {
		version, verErr = "", nil
	}

	ids, err = load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if verErr == nil {
		c.store(ctx, userID, version, ids)
	}
	return ids, nil
}

var errStaleLoad = errors.New("following changed during load")

// store 仅当版本未变时回填，WATCH 保证检查与写入之间没有 Invalidate 插入
func (c *FollowingCache) store(ctx context.Context, userID, version string, ids []string) {
	key, vkey := followingKey(userID), versionKey(userID)
	values := interfaceSlice(ids)
	if len(values) == 0 {
		values = []interface{}{emptyMarker}
	}
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vkey).Result()
		if errors.Is(err, redis.Nil) {
			cur, err = "", nil
		}
		if err != nil {
			return err
		}
		if cur != version {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.RPush(ctx, key, values...)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, vkey)
	if err != nil {
		logger.Debug("following cache write skipped", zap.String("user", userID), zap.Error(err))
	}
}

// Invalidate 关注/取关提交后调用
func (c *FollowingCache) Invalidate(ctx context.Context, userID string) {
	vkey := versionKey(userID)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, vkey)
	pipe.Expire(ctx, vkey, versionTTL)
	pipe.Del(ctx, followingKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("following cache invalidate failed", zap.String("user", userID), zap.Error(err))
	}
}

// Counters 命中/未命中计数
func (c *FollowingCache) Counters() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func interfaceSlice(strs []string) []interface{} {
	result := make([]interface{}, len(strs))
	for i, s := range strs {
		result[i] = s
	}
	return result
}
