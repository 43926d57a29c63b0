package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus int8

const (
	SessionActive   SessionStatus = 1
	SessionArchived SessionStatus = 2
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatSession AI 对话会话
type ChatSession struct {
	ID           uint64        `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	UserID       uint64        `gorm:"column:user_id;not null;index:idx_session_user,priority:1" json:"user_id,string"`
	Title        string        `gorm:"column:title;type:varchar(64);not null;default:''" json:"title"`
	Model        string        `gorm:"column:model;type:varchar(64);not null;default:''" json:"model"`
	Context      string        `gorm:"column:context;type:text" json:"context,omitempty"` // 会话级上下文
	MessageCount int64         `gorm:"column:message_count;not null;default:0" json:"message_count"`
	Status       SessionStatus `gorm:"column:status;not null;default:1" json:"status"`
	CreatedAt    time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;index:idx_session_user,priority:2" json:"updated_at"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage 只追加，不单独修改或删除
// seq 在会话内从 1 开始连续递增
type ChatMessage struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	SessionID uint64         `gorm:"column:session_id;not null;uniqueIndex:uk_session_seq,priority:1" json:"session_id,string"`
	Seq       int64          `gorm:"column:seq;not null;uniqueIndex:uk_session_seq,priority:2" json:"seq"`
	Role      Role           `gorm:"column:role;type:varchar(16);not null" json:"role"`
	Content   string         `gorm:"column:content;type:text;not null" json:"content"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
