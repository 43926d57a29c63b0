package service

import (
	"Agora/config"
	"Agora/dao"
	"Agora/dao/cache"
	"Agora/models"
	"Agora/pkg/llm"
	"Agora/pkg/log"
	"Agora/pkg/metrics"
	"Agora/pkg/safety"
	"Agora/pkg/snowflake"
	"Agora/pkg/utils"
	"Agora/types"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const chatRateScope = "chat"

// CompletionProvider 对话补全
type CompletionProvider interface {
	Complete(ctx context.Context, model string, messages []llm.Message) (*llm.Completion, error)
	GenerateTitle(ctx context.Context, text string) (string, error)
}

var _ IChatService = (*ChatService)(nil)

type IChatService interface {
	SendMessage(ctx context.Context, userID uint64, req *types.SendMessageRequest) (*types.SendMessageResponse, error)
	CreateSession(ctx context.Context, userID uint64, req *types.CreateSessionRequest) (*models.ChatSession, error)
	GetSession(ctx context.Context, userID, sessionID uint64) (*models.ChatSession, error)
	ListSessions(ctx context.Context, userID uint64, cursor types.Cursor, pageSize int) (*types.SessionListResponse, error)
	ListMessages(ctx context.Context, userID, sessionID uint64, afterSeq int64, pageSize int) (*types.MessageListResponse, error)
	RenameSession(ctx context.Context, userID, sessionID uint64, title string) error
	ArchiveSession(ctx context.Context, userID, sessionID uint64) error
	DeleteSession(ctx context.Context, userID, sessionID uint64) error
}

type ChatService struct {
	Conf           *config.Chat
	ChatSessionDAO *dao.ChatSessionDAO
	ChatMessageDAO *dao.ChatMessageDAO
	Completion     CompletionProvider
	Safety         safety.Checker
	RateLimit      *cache.RateLimitStorage
	Publisher      EventPublisher
}

// SendMessage 发送一轮对话
// 补全调用在事务外完成，成功后在同一事务内写入用户消息、助手消息并将消息数 +2
// 任一步失败都不会留下没有回复的用户消息
func (s *ChatService) SendMessage(ctx context.Context, userID uint64, req *types.SendMessageRequest) (*types.SendMessageResponse, error) {
	receivedAt := time.Now().UTC()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: 消息不能为空", ErrInvalidArgument)
	}
	if s.Conf.MaxInputRunes > 0 && utf8.RuneCountInString(text) > s.Conf.MaxInputRunes {
		return nil, fmt.Errorf("%w: 消息不能超过%d字", ErrInvalidArgument, s.Conf.MaxInputRunes)
	}

	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	// 安全检查在任何写入之前
	if s.Safety != nil {
		safe, reason, err := s.Safety.IsSafe(ctx, text)
		if err != nil {
			return nil, wrapInternal("safety check", err, zap.Uint64("user_id", userID))
		}
		if !safe {
			log.L.Info("chat message rejected by safety", zap.Uint64("user_id", userID), zap.String("reason", reason))
			return nil, fmt.Errorf("%w: %s", ErrUnsafe, reason)
		}
	}

	session, isNew, err := s.resolveSession(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	prompt, err := s.buildPrompt(ctx, session, isNew, req.Context, text)
	if err != nil {
		return nil, wrapInternal("build prompt", err, zap.Uint64("session_id", session.ID))
	}

	completion, err := s.Completion.Complete(ctx, session.Model, prompt)
	if err != nil {
		metrics.ChatCompletions.WithLabelValues(completionResult(err)).Inc()
		log.L.Warn("chat completion failed",
			zap.Uint64("user_id", userID),
			zap.Uint64("session_id", session.ID),
			zap.Bool("new_session", isNew),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	metrics.ChatCompletions.WithLabelValues("ok").Inc()
	metrics.ChatCompletionDuration.Observe(completion.Latency.Seconds())

	if session.Model == "" {
		session.Model = completion.Model
	}
	repliedAt := time.Now().UTC()
	if !repliedAt.After(receivedAt) {
		repliedAt = receivedAt.Add(time.Microsecond)
	}

	userMsg := &models.ChatMessage{
		ID:        snowflake.GenID(),
		SessionID: session.ID,
		Role:      models.RoleUser,
		Content:   text,
		Metadata:  userMetadata(req.Context),
		CreatedAt: receivedAt,
	}
	assistantMsg := &models.ChatMessage{
		ID:        snowflake.GenID(),
		SessionID: session.ID,
		Role:      models.RoleAssistant,
		Content:   completion.Content,
		Metadata:  assistantMetadata(completion),
		CreatedAt: repliedAt,
	}

	err = s.ChatSessionDAO.Transaction(ctx, func(tx *gorm.DB) error {
		sessionDAO := s.ChatSessionDAO.WithDB(tx)

		if isNew {
			if err := sessionDAO.Create(ctx, session); err != nil {
				return err
			}
		}

		ok, err := sessionDAO.AppendMessages(ctx, session.ID, 2)
		if err != nil {
			return err
		}
		// 会话在补全期间被归档或删除
		if !ok {
			return fmt.Errorf("%w: session %d is not active", ErrInvalidState, session.ID)
		}

		n, err := sessionDAO.MessageCount(ctx, session.ID)
		if err != nil {
			return err
		}
		userMsg.Seq, assistantMsg.Seq = n-1, n

		return s.ChatMessageDAO.WithDB(tx).BatchCreate(ctx, []*models.ChatMessage{userMsg, assistantMsg})
	})
	if err != nil {
		return nil, wrapInternal("send message", err, zap.Uint64("user_id", userID), zap.Uint64("session_id", session.ID))
	}

	session.MessageCount = assistantMsg.Seq
	session.UpdatedAt = repliedAt

	if session.Title == "" {
		s.autoTitle(ctx, session, text)
	}

	publish(ctx, s.Publisher, EventChatMessage, strconv.FormatUint(session.ID, 10), map[string]any{
		"session_id": strconv.FormatUint(session.ID, 10),
		"user_id":    strconv.FormatUint(userID, 10),
		"seq":        assistantMsg.Seq,
		"model":      completion.Model,
	})

	return &types.SendMessageResponse{
		Session:          session,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// allow 发送频率限制，redis 不可用时放行
func (s *ChatService) allow(ctx context.Context, userID uint64) error {
	if s.RateLimit == nil || s.Conf.RateLimit <= 0 {
		return nil
	}
	ok, err := s.RateLimit.Allow(ctx, chatRateScope, userID, s.Conf.RateLimit, s.Conf.RateWindow())
	if err != nil {
		log.L.Warn("chat rate limit unavailable", zap.Uint64("user_id", userID), zap.Error(err))
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: user %d", ErrTooFrequent, userID)
	}
	return nil
}

// resolveSession 已有会话必须属于该用户且处于 active；未指定时在内存中准备新会话，提交时才落库
func (s *ChatService) resolveSession(ctx context.Context, userID uint64, req *types.SendMessageRequest) (*models.ChatSession, bool, error) {
	if req.SessionID == 0 {
		now := time.Now().UTC()
		return &models.ChatSession{
			ID:        snowflake.GenID(),
			UserID:    userID,
			Model:     req.Model,
			Status:    models.SessionActive,
			CreatedAt: now,
			UpdatedAt: now,
		}, true, nil
	}

	session, err := s.getOwned(ctx, userID, req.SessionID)
	if err != nil {
		return nil, false, err
	}
	if session.Status != models.SessionActive {
		return nil, false, fmt.Errorf("%w: session %d is archived", ErrInvalidState, session.ID)
	}
	if req.Model != "" {
		session.Model = req.Model
	}
	return session, false, nil
}

// buildPrompt 固定前言 + 会话上下文 + 本轮上下文 + 最近历史 + 本次输入
func (s *ChatService) buildPrompt(ctx context.Context, session *models.ChatSession, isNew bool, turnContext, text string) ([]llm.Message, error) {
	var system strings.Builder
	system.WriteString(s.Conf.Preamble)
	if c := strings.TrimSpace(session.Context); c != "" {
		system.WriteString("\n\n【会话背景】\n")
		system.WriteString(c)
	}
	if c := strings.TrimSpace(turnContext); c != "" {
		system.WriteString("\n\n【本轮补充】\n")
		system.WriteString(c)
	}

	messages := make([]llm.Message, 0, s.Conf.HistoryLimit+2)
	if system.Len() > 0 {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: strings.TrimSpace(system.String())})
	}

	if !isNew && s.Conf.HistoryLimit > 0 {
		history, err := s.ChatMessageDAO.GetRecent(ctx, session.ID, s.Conf.HistoryLimit)
		if err != nil {
			return nil, err
		}
		for _, m := range history {
			messages = append(messages, llm.Message{Role: string(m.Role), Content: m.Content})
		}
	}

	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})
	return messages, nil
}

// autoTitle 首轮对话后生成标题，失败只记录日志
func (s *ChatService) autoTitle(ctx context.Context, session *models.ChatSession, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Conf.TitleTimeout())
	defer cancel()

	title, err := s.Completion.GenerateTitle(ctx, text)
	if err != nil {
		log.L.Warn("generate session title failed", zap.Uint64("session_id", session.ID), zap.Error(err))
		return
	}
	title = utils.TruncateRunes(strings.TrimSpace(title), llm.TitleMaxRunes)
	if title == "" {
		return
	}

	ok, err := s.ChatSessionDAO.SetTitleIfEmpty(ctx, session.ID, title)
	if err != nil {
		log.L.Warn("save session title failed", zap.Uint64("session_id", session.ID), zap.Error(err))
		return
	}
	if ok {
		session.Title = title
	}
}

func (s *ChatService) CreateSession(ctx context.Context, userID uint64, req *types.CreateSessionRequest) (*models.ChatSession, error) {
	now := time.Now().UTC()
	session := &models.ChatSession{
		ID:        snowflake.GenID(),
		UserID:    userID,
		Title:     utils.TruncateRunes(strings.TrimSpace(req.Title), 64),
		Model:     req.Model,
		Context:   strings.TrimSpace(req.Context),
		Status:    models.SessionActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ChatSessionDAO.Create(ctx, session); err != nil {
		return nil, wrapInternal("create session", err, zap.Uint64("user_id", userID))
	}
	return session, nil
}

func (s *ChatService) GetSession(ctx context.Context, userID, sessionID uint64) (*models.ChatSession, error) {
	return s.getOwned(ctx, userID, sessionID)
}

func (s *ChatService) ListSessions(ctx context.Context, userID uint64, cursor types.Cursor, pageSize int) (*types.SessionListResponse, error) {
	pageSize = clampPageSize(pageSize)

	sessions, err := s.ChatSessionDAO.GetByUserCursor(ctx, userID, cursor.At, cursor.ID, pageSize+1)
	if err != nil {
		return nil, wrapInternal("list sessions", err, zap.Uint64("user_id", userID))
	}

	resp := &types.SessionListResponse{Sessions: sessions}
	if len(sessions) > pageSize {
		resp.Sessions = sessions[:pageSize]
		resp.HasMore = true
	}
	if n := len(resp.Sessions); n > 0 {
		last := resp.Sessions[n-1]
		resp.NextCursor, resp.NextCursorID = last.UpdatedAt.UnixNano(), last.ID
	}
	return resp, nil
}

// ListMessages 按追加顺序分页，归档会话仍可读取
func (s *ChatService) ListMessages(ctx context.Context, userID, sessionID uint64, afterSeq int64, pageSize int) (*types.MessageListResponse, error) {
	if _, err := s.getOwned(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	pageSize = clampPageSize(pageSize)

	msgs, err := s.ChatMessageDAO.GetBySeqCursor(ctx, sessionID, afterSeq, pageSize+1)
	if err != nil {
		return nil, wrapInternal("list messages", err, zap.Uint64("session_id", sessionID))
	}

	resp := &types.MessageListResponse{Messages: msgs, NextSeq: afterSeq}
	if len(msgs) > pageSize {
		resp.Messages = msgs[:pageSize]
		resp.HasMore = true
	}
	if n := len(resp.Messages); n > 0 {
		resp.NextSeq = resp.Messages[n-1].Seq
	}
	return resp, nil
}

func (s *ChatService) RenameSession(ctx context.Context, userID, sessionID uint64, title string) error {
	title = utils.TruncateRunes(strings.TrimSpace(title), 64)
	if title == "" {
		return fmt.Errorf("%w: 标题不能为空", ErrInvalidArgument)
	}
	if _, err := s.getOwned(ctx, userID, sessionID); err != nil {
		return err
	}
	if err := s.ChatSessionDAO.Rename(ctx, sessionID, title); err != nil {
		return wrapInternal("rename session", err, zap.Uint64("session_id", sessionID))
	}
	return nil
}

// ArchiveSession active -> archived，重复归档直接成功
func (s *ChatService) ArchiveSession(ctx context.Context, userID, sessionID uint64) error {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if session.Status == models.SessionArchived {
		return nil
	}
	if _, err := s.ChatSessionDAO.CompareAndSetStatus(ctx, sessionID, models.SessionActive, models.SessionArchived); err != nil {
		return wrapInternal("archive session", err, zap.Uint64("session_id", sessionID))
	}
	return nil
}

// DeleteSession 会话与消息一起物理删除
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID uint64) error {
	if _, err := s.getOwned(ctx, userID, sessionID); err != nil {
		return err
	}
	err := s.ChatSessionDAO.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.ChatMessageDAO.WithDB(tx).DeleteBySession(ctx, sessionID); err != nil {
			return err
		}
		return s.ChatSessionDAO.WithDB(tx).Destroy(ctx, sessionID)
	})
	if err != nil {
		return wrapInternal("delete session", err, zap.Uint64("session_id", sessionID))
	}
	return nil
}

// getOwned 不属于该用户的会话按不存在处理
func (s *ChatService) getOwned(ctx context.Context, userID, sessionID uint64) (*models.ChatSession, error) {
	session, err := s.ChatSessionDAO.GetOwned(ctx, sessionID, userID)
	if dao.IsNotFound(err) {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, wrapInternal("get session", err, zap.Uint64("session_id", sessionID))
	}
	return session, nil
}

func userMetadata(turnContext string) datatypes.JSON {
	turnContext = strings.TrimSpace(turnContext)
	if turnContext == "" {
		return nil
	}
	raw, _ := json.Marshal(map[string]any{"context": turnContext})
	return datatypes.JSON(raw)
}

func assistantMetadata(c *llm.Completion) datatypes.JSON {
	raw, _ := json.Marshal(map[string]any{
		"model":             c.Model,
		"finish_reason":     c.FinishReason,
		"prompt_tokens":     c.PromptTokens,
		"completion_tokens": c.CompletionTokens,
		"latency_ms":        c.Latency.Milliseconds(),
	})
	return datatypes.JSON(raw)
}

func completionResult(err error) string {
	switch {
	case errors.Is(err, llm.ErrTimeout):
		return "timeout"
	case errors.Is(err, llm.ErrQuota):
		return "quota"
	case errors.Is(err, llm.ErrRejected):
		return "rejected"
	}
	return "unavailable"
}
