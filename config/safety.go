package config

type Safety struct {
	// 屏蔽词
	Keywords []string `json:"keywords" yaml:"keywords"`
	// 开启后额外调用大模型审核
	Moderation bool `json:"moderation" yaml:"moderation"`
}

func ProvideSafetyConfig(cfg *Config) *Safety {
	return cfg.Safety
}
