//go:build wireinject
// +build wireinject

package main

import (
	"Agora/config"
	"Agora/dao"
	"Agora/dao/cache"
	"Agora/handler"
	"Agora/pkg/client"
	"Agora/pkg/database"
	"Agora/pkg/llm"
	"Agora/pkg/rocketmq"
	"Agora/pkg/server"
	"Agora/service"

	"github.com/google/wire"
)

func InitApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		client.NewRedisClient,
		database.NewDB,

		config.ProvideChatConfig,
		config.ProvideLLMConfig,
		config.ProvideSafetyConfig,
		config.ProvideRocketMQConfig,

		llm.NewClient,
		rocketmq.NewPublisher,

		cache.ProviderSet,
		dao.ProviderSet,
		service.ProviderSet,

		wire.Struct(new(handler.PostHandler), "*"),
		wire.Struct(new(handler.CommentsHandler), "*"),
		wire.Struct(new(handler.LikeHandler), "*"),
		wire.Struct(new(handler.ChatHandler), "*"),
		wire.Struct(new(handler.AdminHandler), "*"),

		server.NewGinEngine,
		wire.Struct(new(server.Handlers), "*"),
		wire.Struct(new(server.AppProvider), "*"),
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
