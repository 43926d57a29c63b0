package dao

import (
	"Agora/models"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostDAO struct {
	Repo[models.Post]
}

func NewPostDAO(db *gorm.DB) *PostDAO {
	return &PostDAO{Repo: NewRepo[models.Post](db)}
}

// WithDB 绑定到事务
func (d *PostDAO) WithDB(db *gorm.DB) *PostDAO {
	return NewPostDAO(db)
}

func (d *PostDAO) GetByID(ctx context.Context, postID uint64) (*models.Post, error) {
	return d.FindById(ctx, postID)
}

// GetForUpdate 加行锁读取，写评论/点赞前锁住文章，阻塞并发的删除
func (d *PostDAO) GetForUpdate(ctx context.Context, postID uint64) (*models.Post, error) {
	var post models.Post
	err := d.Db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", postID).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// IncrLikeCount 点赞数增减，减少时不会出现负数
func (d *PostDAO) IncrLikeCount(ctx context.Context, postID uint64, delta int64) (int64, error) {
	return incrCounter(ctx, d.Db, &models.Post{}, postID, "like_count", delta)
}

// IncrReplyCount 评论数增减
func (d *PostDAO) IncrReplyCount(ctx context.Context, postID uint64, delta int64) (int64, error) {
	return incrCounter(ctx, d.Db, &models.Post{}, postID, "reply_count", delta)
}

// IncrViewCount 浏览数 +1
func (d *PostDAO) IncrViewCount(ctx context.Context, postID uint64) (int64, error) {
	return incrCounter(ctx, d.Db, &models.Post{}, postID, "view_count", 1)
}

func (d *PostDAO) LikeCount(ctx context.Context, postID uint64) (int64, error) {
	return readCounter(ctx, d.Db, &models.Post{}, postID, "like_count")
}

// CompareAndSetStatus 仅当当前状态为 from 时才更新
func (d *PostDAO) CompareAndSetStatus(ctx context.Context, postID uint64, from, to models.PostStatus) (bool, error) {
	res := d.Db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND status = ?", postID, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// GetPublishedByCursor 已发布文章，按创建时间倒序
func (d *PostDAO) GetPublishedByCursor(ctx context.Context, cursorAt int64, cursorID uint64, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	query := d.Db.WithContext(ctx).
		Where("status = ?", models.PostPublished)

	if cursorAt > 0 {
		query = before(query, "created_at", cursorAt, cursorID)
	}

	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// GetIDsAfter 按主键顺序遍历全部文章ID
func (d *PostDAO) GetIDsAfter(ctx context.Context, afterID uint64, limit int) ([]uint64, error) {
	var ids []uint64
	err := d.Db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// CountPublishedByUser 用户已发布文章数
func (d *PostDAO) CountPublishedByUser(ctx context.Context, userID uint64) (int64, error) {
	return d.FindCount(ctx, "user_id = ? AND status = ?", userID, models.PostPublished)
}

// SetCounters 直接覆盖计数
func (d *PostDAO) SetCounters(ctx context.Context, postID uint64, likeCount, replyCount int64) error {
	return d.Db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumns(map[string]any{"like_count": likeCount, "reply_count": replyCount}).
		Error
}

// Recount 按点赞记录和有效评论重算计数，一条语句完成，返回修正的行数
func (d *PostDAO) Recount(ctx context.Context, postID uint64) (int64, error) {
	likes := "(SELECT COUNT(*) FROM like_facts WHERE like_facts.target_kind = ? AND like_facts.target_id = posts.id)"
	comments := "(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.status = ?)"

	res := d.Db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Where("(like_count <> "+likes+" OR reply_count <> "+comments+")",
			models.TargetPost, models.StatusActive).
		UpdateColumns(map[string]any{
			"like_count":  gorm.Expr(likes, models.TargetPost),
			"reply_count": gorm.Expr(comments, models.StatusActive),
		})
	return res.RowsAffected, res.Error
}

// Destroy 物理删除
func (d *PostDAO) Destroy(ctx context.Context, postID uint64) error {
	return d.Db.WithContext(ctx).Where("id = ?", postID).Delete(&models.Post{}).Error
}

// Transaction 事务
func (d *PostDAO) Transaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return d.Db.WithContext(ctx).Transaction(fn)
}
