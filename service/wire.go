package service

import (
	"Agora/pkg/llm"

	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	ProvideHashID,
	ProvideAppConfig,
	ProvideSafetyChecker,
	ProvideEventPublisher,
	wire.Bind(new(CompletionProvider), new(*llm.Client)),

	wire.Struct(new(LikeService), "*"),
	wire.Bind(new(ILikeService), new(*LikeService)),

	wire.Struct(new(ThreadService), "*"),
	wire.Bind(new(IThreadService), new(*ThreadService)),

	wire.Struct(new(ChatService), "*"),
	wire.Bind(new(IChatService), new(*ChatService)),

	wire.Struct(new(PostService), "*"),
	wire.Bind(new(IPostService), new(*PostService)),

	wire.Struct(new(QueryService), "*"),
	wire.Bind(new(IQueryService), new(*QueryService)),

	wire.Struct(new(ReconcileService), "*"),
	wire.Bind(new(IReconcileService), new(*ReconcileService)),
)
