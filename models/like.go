package models

import "time"

// TargetKind 点赞对象类型
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
	TargetReply   TargetKind = "reply"
)

func (k TargetKind) Valid() bool {
	switch k {
	case TargetPost, TargetComment, TargetReply:
		return true
	}
	return false
}

// LikeFact 点赞记录，记录存在即为已点赞
// 唯一键: user_id + target_id + target_kind
type LikeFact struct {
	ID         uint64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	UserID     uint64     `gorm:"column:user_id;not null;uniqueIndex:uk_like_user_target,priority:1" json:"user_id,string"`
	TargetID   uint64     `gorm:"column:target_id;not null;uniqueIndex:uk_like_user_target,priority:2;index:idx_like_target,priority:1" json:"target_id,string"`
	TargetKind TargetKind `gorm:"column:target_kind;type:varchar(16);not null;uniqueIndex:uk_like_user_target,priority:3;index:idx_like_target,priority:2" json:"target_kind"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (LikeFact) TableName() string {
	return "like_facts"
}
