package middleware

import (
	"net/http"
	"strings"

	"Agora/pkg/context"
	"Agora/pkg/jwt"
	"Agora/pkg/response"

	"github.com/gin-gonic/gin"
)

// Auth 必须登录
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "缺少 Authorization")
			return
		}

		token, ok := bearer(authHeader)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "Authorization 格式错误")
			return
		}

		claims, err := jwt.ParseToken(secret, token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "登录已失效")
			return
		}
		c.Set(context.CtxUserID, claims.UserID)
		c.Set(context.CtxRole, claims.Role)

		c.Next()
	}
}

// OptionalAuth 携带合法 token 时解析用户，否则按游客处理
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearer(c.GetHeader("Authorization")); ok {
			if claims, err := jwt.ParseToken(secret, token); err == nil {
				c.Set(context.CtxUserID, claims.UserID)
				c.Set(context.CtxRole, claims.Role)
			}
		}
		c.Next()
	}
}

func bearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
