package types

import "time"

// 创建评论请求
type CreateCommentRequest struct {
	PostID  uint64 `json:"post_id,string" binding:"required"`
	Content string `json:"content" binding:"required,max=1000"`
}

// 创建回复请求
type CreateReplyRequest struct {
	CommentID     uint64 `json:"comment_id,string" binding:"required"`
	ReplyToUserID uint64 `json:"reply_to_user_id,string"` // 回复的目标用户ID
	Content       string `json:"content" binding:"required,max=1000"`
}

type UpdateTopRequest struct {
	IsTop bool `json:"is_top"`
}

// 评论响应
type CommentResponse struct {
	ID         uint64    `json:"id,string"`
	PostID     uint64    `json:"post_id,string"`
	UserID     uint64    `json:"user_id,string"`
	Content    string    `json:"content"`
	LikeCount  int64     `json:"like_count"`
	ReplyCount int64     `json:"reply_count"` // 有效回复数
	IsTop      bool      `json:"is_top"`
	IsLiked    bool      `json:"is_liked"` // 当前用户是否点赞
	CreatedAt  time.Time `json:"created_at"`

	// 最新3条回复
	LatestReplies []*ReplyResponse `json:"latest_replies"`
}

type ReplyResponse struct {
	ID            uint64    `json:"id,string"`
	CommentID     uint64    `json:"comment_id,string"`
	UserID        uint64    `json:"user_id,string"`
	ReplyToUserID uint64    `json:"reply_to_user_id,string"`
	Content       string    `json:"content"`
	LikeCount     int64     `json:"like_count"`
	IsLiked       bool      `json:"is_liked"`
	CreatedAt     time.Time `json:"created_at"`
}

type GetCommentsRequest struct {
	PostID   uint64 `form:"post_id" binding:"required"`
	PageSize int    `form:"page_size"` // 每页数量
	Cursor
}

type GetRepliesRequest struct {
	CommentID uint64 `form:"comment_id" binding:"required"`
	PageSize  int    `form:"page_size"`
	Cursor
}

type CommentsListResponse struct {
	Comments     []*CommentResponse `json:"comments"`
	NextCursor   int64              `json:"next_cursor,string"`
	NextCursorID uint64             `json:"next_cursor_id,string"`
	HasMore      bool               `json:"has_more"`
}

type RepliesListResponse struct {
	Replies      []*ReplyResponse `json:"replies"`
	NextCursor   int64            `json:"next_cursor,string"`
	NextCursorID uint64           `json:"next_cursor_id,string"`
	HasMore      bool             `json:"has_more"`
}
