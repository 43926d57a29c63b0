package dao

import (
	"Agora/models"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Reply struct {
	Repo[models.Reply]
}

func NewReply(db *gorm.DB) *Reply {
	return &Reply{Repo: NewRepo[models.Reply](db)}
}

// WithDB 绑定到事务
func (d *Reply) WithDB(db *gorm.DB) *Reply {
	return NewReply(db)
}

func (d *Reply) GetByID(ctx context.Context, replyID uint64) (*models.Reply, error) {
	return d.FindById(ctx, replyID)
}

// GetForUpdate 加行锁读取，状态流转前使用
func (d *Reply) GetForUpdate(ctx context.Context, replyID uint64) (*models.Reply, error) {
	var reply models.Reply
	err := d.Db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", replyID).
		First(&reply).Error
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// GetRepliesByCursor 使用游标获取回复(按时间正序)
func (d *Reply) GetRepliesByCursor(ctx context.Context, commentID uint64, cursorAt int64, cursorID uint64, limit int) ([]*models.Reply, error) {
	var replies []*models.Reply
	query := d.Db.WithContext(ctx).
		Where("comment_id = ? AND status = ?", commentID, models.StatusActive)

	// 回复是正序,游标之后的数据
	if cursorAt > 0 {
		query = after(query, "created_at", cursorAt, cursorID)
	}

	err := query.
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&replies).Error

	return replies, err
}

// BatchGetLatestReplies 批量获取多个评论的最新回复，每条评论最多 limit 条
func (d *Reply) BatchGetLatestReplies(ctx context.Context, commentIDs []uint64, limit int) (map[uint64][]*models.Reply, error) {
	result := make(map[uint64][]*models.Reply)
	if len(commentIDs) == 0 || limit <= 0 {
		return result, nil
	}

	ranked := d.Db.WithContext(ctx).
		Model(&models.Reply{}).
		Select("replies.*, ROW_NUMBER() OVER (PARTITION BY comment_id ORDER BY created_at DESC, id DESC) AS rn").
		Where("comment_id IN ? AND status = ?", commentIDs, models.StatusActive)

	var replies []*models.Reply
	err := d.Db.WithContext(ctx).
		Table("(?) AS ranked", ranked).
		Where("rn <= ?", limit).
		Order("comment_id, created_at DESC, id DESC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}

	// 分组
	for _, reply := range replies {
		result[reply.CommentID] = append(result[reply.CommentID], reply)
	}

	return result, nil
}

// CompareAndSetStatus 仅当当前状态为 from 时才更新
func (d *Reply) CompareAndSetStatus(ctx context.Context, replyID uint64, from, to models.Status) (bool, error) {
	res := d.Db.WithContext(ctx).
		Model(&models.Reply{}).
		Where("id = ? AND status = ?", replyID, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// IncrementLikeCount 点赞数增减
func (d *Reply) IncrementLikeCount(ctx context.Context, replyID uint64, delta int64) (int64, error) {
	return incrCounter(ctx, d.Db, &models.Reply{}, replyID, "like_count", delta)
}

func (d *Reply) LikeCount(ctx context.Context, replyID uint64) (int64, error) {
	return readCounter(ctx, d.Db, &models.Reply{}, replyID, "like_count")
}

// CountActiveByComment 评论下有效回复数
func (d *Reply) CountActiveByComment(ctx context.Context, commentID uint64) (int64, error) {
	return d.FindCount(ctx, "comment_id = ? AND status = ?", commentID, models.StatusActive)
}

// GetIDsByPost 帖子下全部回复ID
func (d *Reply) GetIDsByPost(ctx context.Context, postID uint64) ([]uint64, error) {
	var ids []uint64
	err := d.Db.WithContext(ctx).
		Model(&models.Reply{}).
		Where("post_id = ?", postID).
		Pluck("id", &ids).Error
	return ids, err
}

func (d *Reply) SetLikeCount(ctx context.Context, replyID uint64, likeCount int64) error {
	return d.Db.WithContext(ctx).
		Model(&models.Reply{}).
		Where("id = ?", replyID).
		UpdateColumn("like_count", likeCount).
		Error
}

// RecountLikesByPost 重算帖子下每条回复的点赞数，返回修正的行数
func (d *Reply) RecountLikesByPost(ctx context.Context, postID uint64) (int64, error) {
	likes := "(SELECT COUNT(*) FROM like_facts WHERE like_facts.target_kind = ? AND like_facts.target_id = replies.id)"

	res := d.Db.WithContext(ctx).
		Model(&models.Reply{}).
		Where("post_id = ?", postID).
		Where("like_count <> "+likes, models.TargetReply).
		UpdateColumn("like_count", gorm.Expr(likes, models.TargetReply))
	return res.RowsAffected, res.Error
}

// DeleteByPost 物理删除帖子下全部回复
func (d *Reply) DeleteByPost(ctx context.Context, postID uint64) error {
	return d.Db.WithContext(ctx).
		Where("post_id = ?", postID).
		Delete(&models.Reply{}).Error
}

// CountByUser 用户发表的有效回复数
func (d *Reply) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	return d.FindCount(ctx, "user_id = ? AND status = ?", userID, models.StatusActive)
}

// Transaction 事务
func (d *Reply) Transaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return d.Db.WithContext(ctx).Transaction(fn)
}
