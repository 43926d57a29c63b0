package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type ViewStorage struct {
	redis *redis.Client
}

func NewViewStorage(rds *redis.Client) *ViewStorage {
	return &ViewStorage{rds}
}

// MarkViewed 标记用户在窗口期内浏览过帖子
// 返回 true 表示窗口内首次浏览，应计入浏览数
// @params postID  帖子ID
// @params userID  浏览者ID
// @params window  去重窗口
func (v *ViewStorage) MarkViewed(ctx context.Context, postID, userID uint64, window time.Duration) (bool, error) {
	return v.redis.SetNX(ctx, v.name(postID, userID), 1, window).Result()
}

// Forget 清除浏览标记
func (v *ViewStorage) Forget(ctx context.Context, postID, userID uint64) {
	v.redis.Del(ctx, v.name(postID, userID))
}

func (v *ViewStorage) name(postID, userID uint64) string {
	return fmt.Sprintf("post:view:%d:%d", postID, userID)
}
