package handler

import (
	"Agora/config"
	"Agora/middleware"
	"Agora/pkg/context"
	"Agora/pkg/response"
	"Agora/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	Config           *config.Config
	ReconcileService service.IReconcileService
}

func (h *AdminHandler) RegisterRouter(r gin.IRouter) {
	admin := r.Group("/v1/admin", middleware.Auth([]byte(h.Config.Jwt.Secret)))
	admin.POST("/posts/:id/reconcile", context.Wrap(h.Reconcile))
}

// Reconcile 按事实行修正一篇文章的计数
func (h *AdminHandler) Reconcile(c *gin.Context) error {
	if !actorOf(c).IsAdmin() {
		return response.NewError(http.StatusForbidden, "无权进行该操作")
	}
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	corrected, err := h.ReconcileService.Reconcile(c.Request.Context(), postID)
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, gin.H{"corrected": corrected})
	return nil
}
