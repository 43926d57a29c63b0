package dao

import (
	"Agora/models"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Comment struct {
	Repo[models.Comment]
}

func NewComment(db *gorm.DB) *Comment {
	return &Comment{
		Repo: NewRepo[models.Comment](db),
	}
}

// WithDB 绑定到事务
func (d *Comment) WithDB(db *gorm.DB) *Comment {
	return NewComment(db)
}

// GetByID 根据ID获取评论(不区分状态)
func (d *Comment) GetByID(ctx context.Context, commentID uint64) (*models.Comment, error) {
	return d.FindById(ctx, commentID)
}

// GetForUpdate 加行锁读取，状态流转前使用
func (d *Comment) GetForUpdate(ctx context.Context, commentID uint64) (*models.Comment, error) {
	var comment models.Comment
	err := d.Db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", commentID).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetTopComments 置顶评论
func (d *Comment) GetTopComments(ctx context.Context, postID uint64) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := d.Db.WithContext(ctx).
		Where("post_id = ? AND status = ? AND is_top = ?", postID, models.StatusActive, true).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

// GetCommentsByCursor 使用游标获取非置顶评论(按时间倒序)
func (d *Comment) GetCommentsByCursor(ctx context.Context, postID uint64, cursorAt int64, cursorID uint64, limit int) ([]*models.Comment, error) {
	var comments []*models.Comment
	query := d.Db.WithContext(ctx).
		Where("post_id = ? AND status = ? AND is_top = ?", postID, models.StatusActive, false)

	// 如果有游标,则查询游标之前的数据
	if cursorAt > 0 {
		query = before(query, "created_at", cursorAt, cursorID)
	}

	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&comments).Error

	return comments, err
}

// CompareAndSetStatus 仅当当前状态为 from 时才更新，返回是否更新成功
func (d *Comment) CompareAndSetStatus(ctx context.Context, commentID uint64, from, to models.Status) (bool, error) {
	res := d.Db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ? AND status = ?", commentID, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// SetTop 置顶/取消置顶
func (d *Comment) SetTop(ctx context.Context, commentID uint64, top bool) error {
	return d.Db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", commentID).
		Updates(map[string]any{"is_top": top, "updated_at": time.Now().UTC()}).
		Error
}

// IncrementReplyCount 回复数增减
func (d *Comment) IncrementReplyCount(ctx context.Context, commentID uint64, delta int64) (int64, error) {
	return incrCounter(ctx, d.Db, &models.Comment{}, commentID, "reply_count", delta)
}

// IncrementLikeCount 点赞数增减
func (d *Comment) IncrementLikeCount(ctx context.Context, commentID uint64, delta int64) (int64, error) {
	return incrCounter(ctx, d.Db, &models.Comment{}, commentID, "like_count", delta)
}

func (d *Comment) LikeCount(ctx context.Context, commentID uint64) (int64, error) {
	return readCounter(ctx, d.Db, &models.Comment{}, commentID, "like_count")
}

// CountActive 帖子下有效评论数
func (d *Comment) CountActive(ctx context.Context, postID uint64) (int64, error) {
	return d.FindCount(ctx, "post_id = ? AND status = ?", postID, models.StatusActive)
}

// GetIDsByPost 帖子下全部评论ID(含已删除)
func (d *Comment) GetIDsByPost(ctx context.Context, postID uint64) ([]uint64, error) {
	var ids []uint64
	err := d.Db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Pluck("id", &ids).Error
	return ids, err
}

// SetCounters 直接覆盖计数
func (d *Comment) SetCounters(ctx context.Context, commentID uint64, likeCount, replyCount int64) error {
	return d.Db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", commentID).
		UpdateColumns(map[string]any{"like_count": likeCount, "reply_count": replyCount}).
		Error
}

// RecountByPost 重算帖子下每条评论的点赞数和有效回复数，返回修正的行数
func (d *Comment) RecountByPost(ctx context.Context, postID uint64) (int64, error) {
	likes := "(SELECT COUNT(*) FROM like_facts WHERE like_facts.target_kind = ? AND like_facts.target_id = comments.id)"
	replies := "(SELECT COUNT(*) FROM replies WHERE replies.comment_id = comments.id AND replies.status = ?)"

	res := d.Db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Where("(like_count <> "+likes+" OR reply_count <> "+replies+")",
			models.TargetComment, models.StatusActive).
		UpdateColumns(map[string]any{
			"like_count":  gorm.Expr(likes, models.TargetComment),
			"reply_count": gorm.Expr(replies, models.StatusActive),
		})
	return res.RowsAffected, res.Error
}

// DeleteByPost 物理删除帖子下全部评论
func (d *Comment) DeleteByPost(ctx context.Context, postID uint64) error {
	return d.Db.WithContext(ctx).
		Where("post_id = ?", postID).
		Delete(&models.Comment{}).Error
}

// CountByUser 用户发表的有效评论数
func (d *Comment) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	return d.FindCount(ctx, "user_id = ? AND status = ?", userID, models.StatusActive)
}

// Transaction 事务
func (d *Comment) Transaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return d.Db.WithContext(ctx).Transaction(fn)
}
