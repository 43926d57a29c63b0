package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 配置信息
type Config struct {
	App       *App            `json:"app" yaml:"app"`
	Server    *Server         `json:"server" yaml:"server"`
	MySQL     *MySQL          `json:"mysql" yaml:"mysql"`
	Redis     *Redis          `json:"redis" yaml:"redis"`
	Jwt       *Jwt            `json:"jwt" yaml:"jwt"`
	LLM       *LLM            `json:"llm" yaml:"llm"`
	Chat      *Chat           `json:"chat" yaml:"chat"`
	Safety    *Safety         `json:"safety" yaml:"safety"`
	RocketMQ  *RocketMQConfig `json:"rocketmq" yaml:"rocketmq"`
	Snowflake *Snowflake      `json:"snowflake" yaml:"snowflake"`
}

type Server struct {
	Http int `json:"http" yaml:"http"`
}

type Snowflake struct {
	Node int64 `json:"node" yaml:"node"`
}

func New(filename string) *Config {
	conf, err := Load(filename)
	if err != nil {
		panic(err)
	}
	return conf
}

// Load 读取并解析配置文件，未填写的项使用默认值
func Load(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var conf Config
	if err := yaml.Unmarshal(content, &conf); err != nil {
		return nil, fmt.Errorf("解析 %s 读取错误: %w", filename, err)
	}
	conf.applyDefaults()

	return &conf, nil
}

// Debug 调试模式
func (c *Config) Debug() bool {
	return c.App.Debug
}

func (c *Config) applyDefaults() {
	if c.App == nil {
		c.App = &App{}
	}
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.HashSalt == "" {
		c.App.HashSalt = "agora"
	}
	if c.App.ViewDedupSeconds <= 0 {
		c.App.ViewDedupSeconds = 600
	}
	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Server.Http == 0 {
		c.Server.Http = 8080
	}
	if c.MySQL == nil {
		c.MySQL = &MySQL{}
	}
	if c.MySQL.Charset == "" {
		c.MySQL.Charset = "utf8mb4"
	}
	if c.Redis == nil {
		c.Redis = &Redis{Address: "127.0.0.1", Port: 6379}
	}
	if c.Redis.PoolSize <= 0 {
		c.Redis.PoolSize = 20
	}
	if c.Redis.MinIdleConns <= 0 {
		c.Redis.MinIdleConns = 2
	}
	if c.Redis.DialTimeoutMs <= 0 {
		c.Redis.DialTimeoutMs = 2000
	}
	if c.Redis.ReadTimeoutMs <= 0 {
		c.Redis.ReadTimeoutMs = 1000
	}
	if c.Jwt == nil {
		c.Jwt = &Jwt{}
	}
	if c.Jwt.ExpiresTime <= 0 {
		c.Jwt.ExpiresTime = 7200
	}
	if c.LLM == nil {
		c.LLM = &LLM{}
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "qwen-plus"
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if c.Chat == nil {
		c.Chat = &Chat{}
	}
	if c.Chat.HistoryLimit <= 0 {
		c.Chat.HistoryLimit = 10
	}
	if c.Chat.MaxInputRunes <= 0 {
		c.Chat.MaxInputRunes = 4000
	}
	if c.Chat.RateLimit <= 0 {
		c.Chat.RateLimit = 20
	}
	if c.Chat.RateWindowSeconds <= 0 {
		c.Chat.RateWindowSeconds = 60
	}
	if c.Chat.TitleTimeoutMs <= 0 {
		c.Chat.TitleTimeoutMs = 2000
	}
	if c.Safety == nil {
		c.Safety = &Safety{}
	}
	if c.RocketMQ == nil {
		c.RocketMQ = &RocketMQConfig{}
	}
	if c.RocketMQ.Topic == "" {
		c.RocketMQ.Topic = "AGORA_ENGAGEMENT"
	}
	if c.Snowflake == nil {
		c.Snowflake = &Snowflake{Node: 1}
	}
}
