package config

import "time"

// LLM 对话补全服务配置（OpenAI 兼容接口）
type LLM struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	APIKey         string `json:"api_key" yaml:"api_key"`
	Model          string `json:"model" yaml:"model"`
	TitleModel     string `json:"title_model" yaml:"title_model"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int    `json:"max_retries" yaml:"max_retries"`
}

func (l *LLM) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

func ProvideLLMConfig(cfg *Config) *LLM {
	return cfg.LLM
}
