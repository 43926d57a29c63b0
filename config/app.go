package config

import "time"

type App struct {
	Env   string `json:"env" yaml:"env"`
	Debug bool   `json:"debug" yaml:"debug"`
	// 分享码盐值
	HashSalt string `json:"hash_salt" yaml:"hash_salt"`
	// 同一用户重复浏览在窗口内只计一次
	ViewDedupSeconds int `json:"view_dedup_seconds" yaml:"view_dedup_seconds"`
}

func (a *App) ViewDedupWindow() time.Duration {
	return time.Duration(a.ViewDedupSeconds) * time.Second
}
