package context

import (
	"Agora/pkg/log"
	"Agora/pkg/response"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxRequestID = "request_id"
)

type HandlerFunc func(*gin.Context) error

func Wrap(h func(*gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h(c); err != nil {

			// 如果已经写过响应，直接返回
			if c.Writer.Written() {
				return
			}
			// 业务错误
			var be *response.BizError
			if errors.As(err, &be) {
				response.Fail(c, be.Code, be.Msg)
				return
			}

			log.L.Error("unhandled error",
				zap.String("request_id", c.GetString(CtxRequestID)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
			response.Fail(c, http.StatusInternalServerError, "系统繁忙")
		}
	}
}

// GetUserID 登录用户ID，未登录返回 0
func GetUserID(c *gin.Context) uint64 {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return 0
	}
	uid, _ := v.(uint64)
	return uid
}

func GetRole(c *gin.Context) string {
	return c.GetString(CtxRole)
}

// MustUserID 需要登录的接口使用
func MustUserID(c *gin.Context) (uint64, error) {
	uid := GetUserID(c)
	if uid == 0 {
		return 0, response.NewError(http.StatusUnauthorized, "请先登录")
	}
	return uid, nil
}
