package service

import (
	"Agora/pkg/log"
	"context"

	"go.uber.org/zap"
)

const (
	EventLikeToggled      = "like.toggled"
	EventCommentCreated   = "comment.created"
	EventReplyCreated     = "reply.created"
	EventThreadTransition = "thread.transition"
	EventChatMessage      = "chat.message"
	EventPostPublished    = "post.published"
)

// EventPublisher 事务提交后投递业务事件
type EventPublisher interface {
	Publish(ctx context.Context, tag, key string, payload any) error
}

// publish 投递失败只记日志
func publish(ctx context.Context, p EventPublisher, tag, key string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, tag, key, payload); err != nil {
		log.L.Warn("publish event failed", zap.String("tag", tag), zap.String("key", key), zap.Error(err))
	}
}
