package models

import (
	"time"
)

// Status 评论/回复状态
type Status int8

const (
	StatusDeleted Status = 0 // 已删除
	StatusActive  Status = 1 // 正常
	StatusHidden  Status = 2 // 已隐藏(审核)
)

func (s Status) String() string {
	switch s {
	case StatusDeleted:
		return "deleted"
	case StatusActive:
		return "active"
	case StatusHidden:
		return "hidden"
	}
	return "unknown"
}

// Comment 评论表结构
type Comment struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	PostID     uint64    `gorm:"column:post_id;not null;index:idx_post_status" json:"post_id,string"`
	UserID     uint64    `gorm:"column:user_id;not null;index:idx_user_id" json:"user_id,string"`
	Content    string    `gorm:"column:content;type:text;not null" json:"content"`
	LikeCount  int64     `gorm:"column:like_count;not null;default:0" json:"like_count"`
	ReplyCount int64     `gorm:"column:reply_count;not null;default:0" json:"reply_count"` // 有效回复数
	Status     Status    `gorm:"column:status;not null;default:1;index:idx_post_status" json:"status"`
	IsTop      bool      `gorm:"column:is_top;not null;default:false" json:"is_top"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Comment) TableName() string {
	return "comments"
}

// Reply 评论的回复，post_id 冗余用于整帖删除
type Reply struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	CommentID     uint64    `gorm:"column:comment_id;not null;index:idx_comment_status" json:"comment_id,string"`
	PostID        uint64    `gorm:"column:post_id;not null;index:idx_reply_post" json:"post_id,string"`
	UserID        uint64    `gorm:"column:user_id;not null;index:idx_reply_user" json:"user_id,string"`
	ReplyToUserID uint64    `gorm:"column:reply_to_user_id;not null;default:0" json:"reply_to_user_id,string"`
	Content       string    `gorm:"column:content;type:text;not null" json:"content"`
	LikeCount     int64     `gorm:"column:like_count;not null;default:0" json:"like_count"`
	Status        Status    `gorm:"column:status;not null;default:1;index:idx_comment_status" json:"status"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Reply) TableName() string {
	return "replies"
}

// TransitionDelta 状态流转对父级计数的影响
// 只有离开 active 会 -1，恢复到 active 会 +1；ok=false 表示不允许的流转
func TransitionDelta(from, to Status) (delta int64, ok bool) {
	if from == to {
		return 0, true
	}
	switch {
	case from == StatusActive && to == StatusHidden:
		return -1, true
	case from == StatusActive && to == StatusDeleted:
		return -1, true
	case from == StatusHidden && to == StatusDeleted:
		return 0, true
	case from == StatusHidden && to == StatusActive:
		return 1, true
	}
	return 0, false
}
