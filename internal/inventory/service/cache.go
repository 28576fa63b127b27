package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dashboardCachePrefix = "dashboard:"

// dashboardCache 仪表盘结果缓存，rdb 为 nil 时所有操作为空操作
type dashboardCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func (c *dashboardCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, dashboardCachePrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *dashboardCache) set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.rdb == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, dashboardCachePrefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate 清除全部仪表盘缓存，库存或销售变化后调用
func (c *dashboardCache) invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, dashboardCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("dashboard cache scan failed", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("dashboard cache invalidate failed", zap.Int("keys", len(keys)), zap.Error(err))
	}
}
