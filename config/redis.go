package config

import (
	"fmt"
	"time"
)

// Redis Redis配置信息
type Redis struct {
	Address  string `json:"address" yaml:"address"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Database int    `json:"database" yaml:"database"`
	// 连接池
	PoolSize     int `json:"pool_size" yaml:"pool_size"`
	MinIdleConns int `json:"min_idle_conns" yaml:"min_idle_conns"`
	// 毫秒
	DialTimeoutMs int `json:"dial_timeout_ms" yaml:"dial_timeout_ms"`
	ReadTimeoutMs int `json:"read_timeout_ms" yaml:"read_timeout_ms"`
}

func (r *Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Address, r.Port)
}

func (r *Redis) DialTimeout() time.Duration {
	return time.Duration(r.DialTimeoutMs) * time.Millisecond
}

func (r *Redis) ReadTimeout() time.Duration {
	return time.Duration(r.ReadTimeoutMs) * time.Millisecond
}
