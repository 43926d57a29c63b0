package client

import (
	"Agora/config"
	"Agora/pkg/log"
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient 建立连接池并探活，启动阶段连不上直接退出
func NewRedisClient(conf *config.Config) *redis.Client {
	client, err := dialRedis(conf.Redis)
	if err != nil {
		log.L.Fatal("connect redis error", zap.String("addr", conf.Redis.Addr()), zap.Error(err))
	}
	log.L.Info("redis client success",
		zap.String("addr", conf.Redis.Addr()),
		zap.Int("pool_size", conf.Redis.PoolSize),
	)
	return client
}

func dialRedis(conf *config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         conf.Addr(),
		Password:     conf.Password,
		Username:     conf.Username,
		DB:           conf.Database,
		PoolSize:     conf.PoolSize,
		MinIdleConns: conf.MinIdleConns,
		DialTimeout:  conf.DialTimeout(),
		ReadTimeout:  conf.ReadTimeout(),
		WriteTimeout: conf.ReadTimeout(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), conf.DialTimeout())
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
