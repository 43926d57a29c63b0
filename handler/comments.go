package handler

import (
	"Agora/config"
	"Agora/middleware"
	"Agora/pkg/context"
	"Agora/pkg/response"
	"Agora/service"
	"Agora/types"
	gocontext "context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CommentsHandler struct {
	Config        *config.Config
	ThreadService service.IThreadService
	QueryService  service.IQueryService
}

func (ch *CommentsHandler) RegisterRouter(r gin.IRouter) {
	secret := []byte(ch.Config.Jwt.Secret)
	authorize := middleware.Auth(secret)
	optional := middleware.OptionalAuth(secret)

	comments := r.Group("/v1/comments")
	comments.POST("", authorize, context.Wrap(ch.CreateComment)) //创建评论
	comments.GET("", optional, context.Wrap(ch.GetComments))
	comments.DELETE("/:id", authorize, context.Wrap(ch.DeleteComment))
	comments.POST("/:id/top", authorize, context.Wrap(ch.UpdateTop))
	comments.POST("/:id/hide", authorize, context.Wrap(ch.HideComment)) // 管理员
	comments.POST("/:id/restore", authorize, context.Wrap(ch.RestoreComment))

	replies := r.Group("/v1/replies")
	replies.POST("", authorize, context.Wrap(ch.CreateReply))
	replies.GET("", optional, context.Wrap(ch.GetReplies))
	replies.DELETE("/:id", authorize, context.Wrap(ch.DeleteReply))
	replies.POST("/:id/hide", authorize, context.Wrap(ch.HideReply))
	replies.POST("/:id/restore", authorize, context.Wrap(ch.RestoreReply))
}

// CreateComment 创建评论
func (ch *CommentsHandler) CreateComment(c *gin.Context) error {
	var req types.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "请求参数错误")
	}
	userID, err := context.MustUserID(c)
	if err != nil {
		return err
	}

	comment, err := ch.ThreadService.CreateComment(c.Request.Context(), req.PostID, userID, req.Content)
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, comment)
	return nil
}

func (ch *CommentsHandler) CreateReply(c *gin.Context) error {
	var req types.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "请求参数错误")
	}
	userID, err := context.MustUserID(c)
	if err != nil {
		return err
	}

	reply, err := ch.ThreadService.CreateReply(c.Request.Context(), req.CommentID, userID, req.ReplyToUserID, req.Content)
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, reply)
	return nil
}

// GetComments 获取评论列表(游标分页)
func (ch *CommentsHandler) GetComments(c *gin.Context) error {
	var req types.GetCommentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "post_id参数错误")
	}

	result, err := ch.QueryService.ListComments(c.Request.Context(), req.PostID, req.Cursor, req.PageSize, context.GetUserID(c))
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, result)
	return nil
}

// GetReplies 获取回复列表(游标分页)
func (ch *CommentsHandler) GetReplies(c *gin.Context) error {
	var req types.GetRepliesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "comment_id参数错误")
	}

	result, err := ch.QueryService.ListReplies(c.Request.Context(), req.CommentID, req.Cursor, req.PageSize, context.GetUserID(c))
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, result)
	return nil
}

func (ch *CommentsHandler) DeleteComment(c *gin.Context) error {
	return ch.act(c, ch.ThreadService.DeleteComment)
}

func (ch *CommentsHandler) HideComment(c *gin.Context) error {
	return ch.act(c, ch.ThreadService.HideComment)
}

func (ch *CommentsHandler) RestoreComment(c *gin.Context) error {
	return ch.act(c, ch.ThreadService.RestoreComment)
}

func (ch *CommentsHandler) DeleteReply(c *gin.Context) error {
	return ch.act(c, ch.ThreadService.DeleteReply)
}

func (ch *CommentsHandler) HideReply(c *gin.Context) error {
	return ch.act(c, ch.ThreadService.HideReply)
}

func (ch *CommentsHandler) RestoreReply(c *gin.Context) error {
	return ch.act(c, ch.ThreadService.RestoreReply)
}

// UpdateTop 置顶/取消置顶
func (ch *CommentsHandler) UpdateTop(c *gin.Context) error {
	commentID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req types.UpdateTopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "请求参数错误")
	}
	if err := ch.ThreadService.UpdateTop(c.Request.Context(), actorOf(c), commentID, req.IsTop); err != nil {
		return toBizError(err)
	}
	response.Success(c, nil)
	return nil
}

// act 路径ID + 当前用户的状态流转操作
func (ch *CommentsHandler) act(c *gin.Context, fn func(gocontext.Context, types.Actor, uint64) error) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := fn(c.Request.Context(), actorOf(c), id); err != nil {
		return toBizError(err)
	}
	response.Success(c, nil)
	return nil
}
