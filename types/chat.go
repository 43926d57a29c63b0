package types

import "Agora/models"

// 发送消息，不带 session_id 时新建会话
type SendMessageRequest struct {
	SessionID uint64 `json:"session_id,string"`
	Text      string `json:"text" binding:"required"`
	Context   string `json:"context"` // 本轮补充上下文
	Model     string `json:"model"`
}

type SendMessageResponse struct {
	Session          *models.ChatSession `json:"session"`
	UserMessage      *models.ChatMessage `json:"user_message"`
	AssistantMessage *models.ChatMessage `json:"assistant_message"`
}

type CreateSessionRequest struct {
	Title   string `json:"title" binding:"max=64"`
	Context string `json:"context"` // 会话级上下文
	Model   string `json:"model"`
}

type RenameSessionRequest struct {
	Title string `json:"title" binding:"required,max=64"`
}

type ListSessionsRequest struct {
	Cursor
	PageSize int `form:"page_size"`
}

type SessionListResponse struct {
	Sessions     []*models.ChatSession `json:"sessions"`
	NextCursor   int64                 `json:"next_cursor,string"`
	NextCursorID uint64                `json:"next_cursor_id,string"`
	HasMore      bool                  `json:"has_more"`
}

type ListMessagesRequest struct {
	AfterSeq int64 `form:"after_seq"` // 从该序号之后开始
	PageSize int `form:"page_size"`
}

type MessageListResponse struct {
	Messages []*models.ChatMessage `json:"messages"`
	NextSeq  int64                 `json:"next_seq"`
	HasMore  bool                  `json:"has_more"`
}
