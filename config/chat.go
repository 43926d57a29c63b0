package config

import "time"

type Chat struct {
	// 固定角色前言
	Preamble string `json:"preamble" yaml:"preamble"`
	// 拼进上下文的历史消息条数
	HistoryLimit  int `json:"history_limit" yaml:"history_limit"`
	MaxInputRunes int `json:"max_input_runes" yaml:"max_input_runes"`
	// 每个用户在窗口内最多发送次数
	RateLimit         int `json:"rate_limit" yaml:"rate_limit"`
	RateWindowSeconds int `json:"rate_window_seconds" yaml:"rate_window_seconds"`
	// 自动标题最长等待，毫秒
	TitleTimeoutMs int `json:"title_timeout_ms" yaml:"title_timeout_ms"`
}

func (c *Chat) RateWindow() time.Duration {
	return time.Duration(c.RateWindowSeconds) * time.Second
}

func (c *Chat) TitleTimeout() time.Duration {
	return time.Duration(c.TitleTimeoutMs) * time.Millisecond
}

func ProvideChatConfig(cfg *Config) *Chat {
	return cfg.Chat
}
