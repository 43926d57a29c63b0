package models

import "time"

type PostStatus int8

const (
	PostDraft     PostStatus = 0 // 草稿
	PostPublished PostStatus = 1 // 已发布
	PostArchived  PostStatus = 2 // 已归档
)

// Post 文章/帖子
// view_count、like_count、reply_count 为冗余计数，读路径直接使用
type Post struct {
	ID         uint64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	UserID     uint64     `gorm:"column:user_id;not null;index:idx_user_status" json:"user_id,string"`
	Title      string     `gorm:"column:title;type:varchar(200);not null;default:''" json:"title"`
	Content    string     `gorm:"column:content;type:text" json:"content"`
	Status     PostStatus `gorm:"column:status;not null;default:0;index:idx_user_status" json:"status"`
	ViewCount  int64      `gorm:"column:view_count;not null;default:0" json:"view_count"`
	LikeCount  int64      `gorm:"column:like_count;not null;default:0" json:"like_count"`
	ReplyCount int64      `gorm:"column:reply_count;not null;default:0" json:"reply_count"` // 有效评论数
	CreatedAt  time.Time  `gorm:"column:created_at;index:idx_created_at" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

// CanTransit 草稿 -> 发布 -> 归档，归档后可重新发布
func (s PostStatus) CanTransit(to PostStatus) bool {
	switch s {
	case PostDraft:
		return to == PostPublished
	case PostPublished:
		return to == PostArchived
	case PostArchived:
		return to == PostPublished
	}
	return false
}
