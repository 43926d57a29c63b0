package rocketmq

import (
	"Agora/config"
	"Agora/pkg/log"
	"context"
	"encoding/json"

	"github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/apache/rocketmq-client-go/v2/producer"
	"github.com/apache/rocketmq-client-go/v2/rlog"
	"go.uber.org/zap"
)

func init() {
	rlog.SetLogLevel("error")
}

// Publisher 业务事件投递
type Publisher interface {
	Publish(ctx context.Context, tag, key string, payload any) error
}

// NopPublisher 未配置消息队列时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }

type Producer struct {
	producer rocketmq.Producer
	topic    string
}

// NewPublisher 根据配置创建事件投递器，返回的 cleanup 用于关闭生产者
func NewPublisher(cfg *config.RocketMQConfig) (Publisher, func(), error) {
	if cfg == nil || !cfg.Enabled() {
		log.L.Info("rocketmq disabled, events will be dropped")
		return NopPublisher{}, func() {}, nil
	}

	opts := []producer.Option{
		producer.WithNameServer(cfg.NameServer),
		producer.WithRetry(cfg.Producer.Retry),
	}
	if cfg.Producer.Group != "" {
		opts = append(opts, producer.WithGroupName(cfg.Producer.Group))
	}

	p, err := rocketmq.NewProducer(opts...)
	if err != nil {
		return nil, nil, err
	}
	if err = p.Start(); err != nil {
		return nil, nil, err
	}
	log.L.Info("init producer success", zap.Strings("nameserver", cfg.NameServer))

	cleanup := func() {
		if err := p.Shutdown(); err != nil {
			log.L.Warn("shutdown producer", zap.Error(err))
		}
	}
	return &Producer{producer: p, topic: cfg.Topic}, cleanup, nil
}

// Publish 同步发送，key 同时作为顺序键保证同一对象的事件有序
func (p *Producer) Publish(ctx context.Context, tag, key string, payload any) error {
	msg, err := buildMessage(p.topic, tag, key, payload)
	if err != nil {
		return err
	}

	res, err := p.producer.SendSync(ctx, msg)
	if err != nil {
		return err
	}
	log.L.Debug("send message success", zap.String("tag", tag), zap.String("msg_id", res.MsgID))
	return nil
}

func buildMessage(topic, tag, key string, payload any) (*primitive.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg := primitive.NewMessage(topic, body).WithTag(tag)
	if key != "" {
		msg = msg.WithKeys([]string{key}).WithShardingKey(key)
	}
	return msg, nil
}
