package dao

import (
	"Agora/models"
	"context"

	"gorm.io/gorm"
)

type LikeDAO struct {
	Repo[models.LikeFact]
}

func NewLikeDAO(db *gorm.DB) *LikeDAO {
	return &LikeDAO{Repo: NewRepo[models.LikeFact](db)}
}

// WithDB 绑定到事务
func (d *LikeDAO) WithDB(db *gorm.DB) *LikeDAO {
	return NewLikeDAO(db)
}

// Find 查询点赞记录，不存在返回 nil
func (d *LikeDAO) Find(ctx context.Context, userID, targetID uint64, kind models.TargetKind) (*models.LikeFact, error) {
	var item models.LikeFact
	err := d.Db.WithContext(ctx).
		Where("user_id = ? AND target_id = ? AND target_kind = ?", userID, targetID, kind).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

// Remove 删除点赞记录，返回受影响行数
func (d *LikeDAO) Remove(ctx context.Context, userID, targetID uint64, kind models.TargetKind) (int64, error) {
	res := d.Db.WithContext(ctx).
		Where("user_id = ? AND target_id = ? AND target_kind = ?", userID, targetID, kind).
		Delete(&models.LikeFact{})
	return res.RowsAffected, res.Error
}

// BatchCheckExists 批量检查点赞状态
func (d *LikeDAO) BatchCheckExists(ctx context.Context, userID uint64, kind models.TargetKind, targetIDs []uint64) (map[uint64]bool, error) {
	result := make(map[uint64]bool)
	if len(targetIDs) == 0 || userID == 0 {
		return result, nil
	}

	var ids []uint64
	err := d.Db.WithContext(ctx).
		Model(&models.LikeFact{}).
		Where("user_id = ? AND target_kind = ? AND target_id IN ?", userID, kind, targetIDs).
		Pluck("target_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// CountByTarget 对象的点赞记录数
func (d *LikeDAO) CountByTarget(ctx context.Context, targetID uint64, kind models.TargetKind) (int64, error) {
	return d.FindCount(ctx, "target_id = ? AND target_kind = ?", targetID, kind)
}

// CountByUser 用户点赞总数
func (d *LikeDAO) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	return d.FindCount(ctx, "user_id = ?", userID)
}

// DeleteByTargets 删除一批对象的全部点赞记录
func (d *LikeDAO) DeleteByTargets(ctx context.Context, kind models.TargetKind, targetIDs []uint64) error {
	if len(targetIDs) == 0 {
		return nil
	}
	return d.Db.WithContext(ctx).
		Where("target_kind = ? AND target_id IN ?", kind, targetIDs).
		Delete(&models.LikeFact{}).Error
}

