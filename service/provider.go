package service

import (
	"Agora/config"
	"Agora/pkg/llm"
	"Agora/pkg/rocketmq"
	"Agora/pkg/safety"
	"Agora/pkg/utils"
)

func ProvideHashID(conf *config.Config) (*utils.HashID, error) {
	return utils.NewHashID(conf.App.HashSalt)
}

func ProvideAppConfig(conf *config.Config) *config.App {
	return conf.App
}

func ProvideSafetyChecker(conf *config.Safety, client *llm.Client) safety.Checker {
	return safety.New(conf, client)
}

func ProvideEventPublisher(p rocketmq.Publisher) EventPublisher {
	return p
}
