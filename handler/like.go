package handler

import (
	"Agora/config"
	"Agora/middleware"
	"Agora/models"
	"Agora/pkg/context"
	"Agora/pkg/response"
	"Agora/service"
	"Agora/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	Config      *config.Config
	LikeService service.ILikeService
}

func (h *LikeHandler) RegisterRouter(r gin.IRouter) {
	authorize := middleware.Auth([]byte(h.Config.Jwt.Secret))
	r.POST("/v1/likes/toggle", authorize, context.Wrap(h.Toggle))
}

// Toggle 点赞/取消点赞
func (h *LikeHandler) Toggle(c *gin.Context) error {
	var req types.ToggleLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "请求参数错误")
	}
	userID, err := context.MustUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.LikeService.ToggleLike(c.Request.Context(), userID, req.TargetID, models.TargetKind(req.TargetKind))
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, resp)
	return nil
}
