package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 同时接受 Go Duration 字符串（"90s"、"5m"）与纯数字秒值。
type Duration time.Duration

// UnmarshalText 让 Viper/TOML 能够直接解析 Duration 字段。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(seconds * float64(time.Second)))
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回 time.Duration 便于计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述进程级参数：监听端口、日志与缓存目录。
type GlobalConfig struct {
	ListenPort    int      `mapstructure:"ListenPort"`
	LogLevel      string   `mapstructure:"LogLevel"`
	LogFilePath   string   `mapstructure:"LogFilePath"`
	LogMaxSize    int      `mapstructure:"LogMaxSize"`
	LogMaxBackups int      `mapstructure:"LogMaxBackups"`
	LogCompress   bool     `mapstructure:"LogCompress"`
	CacheRoot     string   `mapstructure:"CacheRoot"`
	CacheTTL      Duration `mapstructure:"CacheTTL"`
}

// OriginConfig 指向负责实际渲染页面的上游服务。
type OriginConfig struct {
	URL     string   `mapstructure:"URL"`
	Timeout Duration `mapstructure:"Timeout"`
}

// Config 是 TOML 文件映射的整体结构，Global 字段位于顶层。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Origin OriginConfig `mapstructure:"Origin"`
}
