package handler

import (
	"Agora/pkg/context"
	"Agora/pkg/llm"
	"Agora/pkg/response"
	"Agora/service"
	"Agora/types"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// toBizError 业务错误转成固定的状态码和提示，其余错误原样返回由 Wrap 统一处理
func toBizError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrNotFound):
		return response.NewError(http.StatusNotFound, "内容不存在或已删除")
	case errors.Is(err, service.ErrForbidden):
		return response.NewError(http.StatusForbidden, "无权进行该操作")
	case errors.Is(err, service.ErrInvalidState):
		return response.NewError(http.StatusConflict, "当前状态不允许该操作")
	case errors.Is(err, service.ErrConflict):
		return response.NewError(http.StatusConflict, "操作失败，请稍后重试")
	case errors.Is(err, service.ErrInvalidArgument):
		return response.NewError(http.StatusBadRequest, detail(err, service.ErrInvalidArgument, "参数错误"))
	case errors.Is(err, service.ErrTooFrequent):
		return response.NewError(http.StatusTooManyRequests, "发送太频繁，请稍后再试")
	case errors.Is(err, service.ErrUnsafe):
		return response.NewError(http.StatusUnprocessableEntity, "内容未通过安全审核")
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return response.NewError(http.StatusServiceUnavailable, upstreamMessage(err))
	}
	return err
}

func upstreamMessage(err error) string {
	switch {
	case errors.Is(err, llm.ErrTimeout):
		return "AI 助手响应超时，请稍后重试"
	case errors.Is(err, llm.ErrQuota):
		return "AI 助手额度已用完，请稍后再试"
	case errors.Is(err, llm.ErrRejected):
		return "AI 助手拒绝回答该内容"
	}
	return "AI 助手暂时不可用"
}

// detail 取 "%w: 原因" 中的原因部分
func detail(err, sentinel error, fallback string) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" || msg == err.Error() {
		return fallback
	}
	return msg
}

func actorOf(c *gin.Context) types.Actor {
	return types.Actor{UserID: context.GetUserID(c), Role: context.GetRole(c)}
}

// paramID 路径中的ID参数
func paramID(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, response.NewError(http.StatusBadRequest, name+"参数错误")
	}
	return id, nil
}
