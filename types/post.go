package types

import "time"

type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content"`
	Publish bool   `json:"publish"` // 直接发布，否则存为草稿
}

type PostResponse struct {
	ID         uint64    `json:"id,string"`
	UserID     uint64    `json:"user_id,string"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Status     int8      `json:"status"`
	ViewCount  int64     `json:"view_count"`
	LikeCount  int64     `json:"like_count"`
	ReplyCount int64     `json:"reply_count"`
	IsLiked    bool      `json:"is_liked"`
	ShareCode  string    `json:"share_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ListPostsRequest struct {
	Cursor
	PageSize int `form:"page_size"`
}

type PostListResponse struct {
	Posts        []*PostResponse `json:"posts"`
	NextCursor   int64           `json:"next_cursor,string"`
	NextCursorID uint64          `json:"next_cursor_id,string"`
	HasMore      bool            `json:"has_more"`
}

type PostStats struct {
	PostID     uint64 `json:"post_id,string"`
	ViewCount  int64  `json:"view_count"`
	LikeCount  int64  `json:"like_count"`
	ReplyCount int64  `json:"reply_count"`
}

type UserStats struct {
	UserID       uint64 `json:"user_id,string"`
	PostCount    int64  `json:"post_count"` // 已发布
	CommentCount int64  `json:"comment_count"`
	ReplyCount   int64  `json:"reply_count"`
	LikesGiven   int64  `json:"likes_given"`
	SessionCount int64  `json:"session_count"`
}
