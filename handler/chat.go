package handler

import (
	"Agora/config"
	"Agora/middleware"
	"Agora/pkg/context"
	"Agora/pkg/response"
	"Agora/service"
	"Agora/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	Config      *config.Config
	ChatService service.IChatService
}

func (h *ChatHandler) RegisterRouter(r gin.IRouter) {
	chat := r.Group("/v1/chat", middleware.Auth([]byte(h.Config.Jwt.Secret)))
	chat.POST("/messages", context.Wrap(h.Send))
	chat.POST("/sessions", context.Wrap(h.CreateSession))
	chat.GET("/sessions", context.Wrap(h.ListSessions))
	chat.GET("/sessions/:id", context.Wrap(h.GetSession))
	chat.GET("/sessions/:id/messages", context.Wrap(h.ListMessages))
	chat.PUT("/sessions/:id/title", context.Wrap(h.Rename))
	chat.POST("/sessions/:id/archive", context.Wrap(h.Archive))
	chat.DELETE("/sessions/:id", context.Wrap(h.Delete))
}

// Send 发送一轮对话，不带 session_id 时自动新建会话
func (h *ChatHandler) Send(c *gin.Context) error {
	var req types.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "消息不能为空")
	}
	userID, err := context.MustUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.ChatService.SendMessage(c.Request.Context(), userID, &req)
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, resp)
	return nil
}

func (h *ChatHandler) CreateSession(c *gin.Context) error {
	var req types.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "请求参数错误")
	}
	userID, err := context.MustUserID(c)
	if err != nil {
		return err
	}

	session, err := h.ChatService.CreateSession(c.Request.Context(), userID, &req)
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, session)
	return nil
}

func (h *ChatHandler) ListSessions(c *gin.Context) error {
	var req types.ListSessionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "请求参数错误")
	}
	userID, err := context.MustUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.ChatService.ListSessions(c.Request.Context(), userID, req.Cursor, req.PageSize)
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, resp)
	return nil
}

func (h *ChatHandler) GetSession(c *gin.Context) error {
	userID, sessionID, err := h.owner(c)
	if err != nil {
		return err
	}
	session, err := h.ChatService.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, session)
	return nil
}

func (h *ChatHandler) ListMessages(c *gin.Context) error {
	userID, sessionID, err := h.owner(c)
	if err != nil {
		return err
	}
	var req types.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "请求参数错误")
	}

	resp, err := h.ChatService.ListMessages(c.Request.Context(), userID, sessionID, req.AfterSeq, req.PageSize)
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, resp)
	return nil
}

func (h *ChatHandler) Rename(c *gin.Context) error {
	userID, sessionID, err := h.owner(c)
	if err != nil {
		return err
	}
	var req types.RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "标题不能为空且不超过64字")
	}

	if err := h.ChatService.RenameSession(c.Request.Context(), userID, sessionID, req.Title); err != nil {
		return toBizError(err)
	}
	response.Success(c, nil)
	return nil
}

func (h *ChatHandler) Archive(c *gin.Context) error {
	userID, sessionID, err := h.owner(c)
	if err != nil {
		return err
	}
	if err := h.ChatService.ArchiveSession(c.Request.Context(), userID, sessionID); err != nil {
		return toBizError(err)
	}
	response.Success(c, nil)
	return nil
}

func (h *ChatHandler) Delete(c *gin.Context) error {
	userID, sessionID, err := h.owner(c)
	if err != nil {
		return err
	}
	if err := h.ChatService.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		return toBizError(err)
	}
	response.Success(c, nil)
	return nil
}

func (h *ChatHandler) owner(c *gin.Context) (uint64, uint64, error) {
	userID, err := context.MustUserID(c)
	if err != nil {
		return 0, 0, err
	}
	sessionID, err := paramID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	return userID, sessionID, nil
}
