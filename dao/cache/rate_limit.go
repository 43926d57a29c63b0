package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitStorage 固定窗口计数限流
type RateLimitStorage struct {
	redis *redis.Client
}

func NewRateLimitStorage(rds *redis.Client) *RateLimitStorage {
	return &RateLimitStorage{rds}
}

// Allow 窗口内次数未超过 limit 时放行
// @params scope   业务标识
// @params uid     用户ID
// @params limit   窗口内最大次数
// @params window  窗口长度
func (r *RateLimitStorage) Allow(ctx context.Context, scope string, uid uint64, limit int, window time.Duration) (bool, error) {
	name := r.name(scope, uid)

	count, err := r.redis.Incr(ctx, name).Result()
	if err != nil {
		return false, err
	}
	// 窗口内第一次计数时设置过期，之后不再续期
	if count == 1 {
		if err := r.redis.Expire(ctx, name, window).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

// Reset 清除计数
func (r *RateLimitStorage) Reset(ctx context.Context, scope string, uid uint64) {
	r.redis.Del(ctx, r.name(scope, uid))
}

func (r *RateLimitStorage) name(scope string, uid uint64) string {
	return fmt.Sprintf("ratelimit:%s:%d", scope, uid)
}
