package dao

import (
	"Agora/models"
	"context"
	"time"

	"gorm.io/gorm"
)

type ChatSessionDAO struct {
	Repo[models.ChatSession]
}

func NewChatSessionDAO(db *gorm.DB) *ChatSessionDAO {
	return &ChatSessionDAO{Repo: NewRepo[models.ChatSession](db)}
}

// WithDB 绑定到事务
func (d *ChatSessionDAO) WithDB(db *gorm.DB) *ChatSessionDAO {
	return NewChatSessionDAO(db)
}

// GetOwned 查询属于该用户的会话
func (d *ChatSessionDAO) GetOwned(ctx context.Context, sessionID, userID uint64) (*models.ChatSession, error) {
	return d.FindByWhere(ctx, "id = ? AND user_id = ?", sessionID, userID)
}

// AppendMessages 会话仍为 active 时消息数增加 n，返回是否成功
func (d *ChatSessionDAO) AppendMessages(ctx context.Context, sessionID uint64, n int64) (bool, error) {
	res := d.Db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ? AND status = ?", sessionID, models.SessionActive).
		Updates(map[string]any{
			"message_count": gorm.Expr("message_count + ?", n),
			"updated_at":    time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

func (d *ChatSessionDAO) MessageCount(ctx context.Context, sessionID uint64) (int64, error) {
	return readCounter(ctx, d.Db, &models.ChatSession{}, sessionID, "message_count")
}

// SetTitleIfEmpty 只在还没有标题时写入，避免覆盖用户改过的标题
func (d *ChatSessionDAO) SetTitleIfEmpty(ctx context.Context, sessionID uint64, title string) (bool, error) {
	res := d.Db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ? AND title = ?", sessionID, "").
		UpdateColumn("title", title)
	return res.RowsAffected > 0, res.Error
}

func (d *ChatSessionDAO) Rename(ctx context.Context, sessionID uint64, title string) error {
	return d.Db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{"title": title, "updated_at": time.Now().UTC()}).
		Error
}

// CompareAndSetStatus 仅当当前状态为 from 时才更新
func (d *ChatSessionDAO) CompareAndSetStatus(ctx context.Context, sessionID uint64, from, to models.SessionStatus) (bool, error) {
	res := d.Db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ? AND status = ?", sessionID, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// GetByUserCursor 用户会话列表，最近活跃在前
func (d *ChatSessionDAO) GetByUserCursor(ctx context.Context, userID uint64, cursorAt int64, cursorID uint64, limit int) ([]*models.ChatSession, error) {
	var sessions []*models.ChatSession
	query := d.Db.WithContext(ctx).Where("user_id = ?", userID)
	if cursorAt > 0 {
		query = before(query, "updated_at", cursorAt, cursorID)
	}
	err := query.
		Order("updated_at DESC, id DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func (d *ChatSessionDAO) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	return d.FindCount(ctx, "user_id = ?", userID)
}

// Destroy 物理删除会话
func (d *ChatSessionDAO) Destroy(ctx context.Context, sessionID uint64) error {
	return d.Db.WithContext(ctx).Where("id = ?", sessionID).Delete(&models.ChatSession{}).Error
}

// Transaction 事务
func (d *ChatSessionDAO) Transaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return d.Db.WithContext(ctx).Transaction(fn)
}
