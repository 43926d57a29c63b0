package dao

import (
	"Agora/models"
	"context"

	"gorm.io/gorm"
)

type ChatMessageDAO struct {
	Repo[models.ChatMessage]
}

func NewChatMessageDAO(db *gorm.DB) *ChatMessageDAO {
	return &ChatMessageDAO{Repo: NewRepo[models.ChatMessage](db)}
}

// WithDB 绑定到事务
func (d *ChatMessageDAO) WithDB(db *gorm.DB) *ChatMessageDAO {
	return NewChatMessageDAO(db)
}

// BatchCreate 按顺序插入
func (d *ChatMessageDAO) BatchCreate(ctx context.Context, msgs []*models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	return d.Db.WithContext(ctx).Create(&msgs).Error
}

// GetBySeqCursor 按 seq 正序分页
func (d *ChatMessageDAO) GetBySeqCursor(ctx context.Context, sessionID uint64, afterSeq int64, limit int) ([]*models.ChatMessage, error) {
	var msgs []*models.ChatMessage
	err := d.Db.WithContext(ctx).
		Where("session_id = ? AND seq > ?", sessionID, afterSeq).
		Order("seq ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// GetRecent 最近 limit 条消息，按 seq 正序返回
func (d *ChatMessageDAO) GetRecent(ctx context.Context, sessionID uint64, limit int) ([]*models.ChatMessage, error) {
	var msgs []*models.ChatMessage
	err := d.Db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (d *ChatMessageDAO) CountBySession(ctx context.Context, sessionID uint64) (int64, error) {
	return d.FindCount(ctx, "session_id = ?", sessionID)
}

// DeleteBySession 会话删除时一并删除
func (d *ChatMessageDAO) DeleteBySession(ctx context.Context, sessionID uint64) error {
	return d.Db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.ChatMessage{}).Error
}
