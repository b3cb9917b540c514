package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("加载有效配置失败: %v", err)
	}
	if cfg.Global.CacheTTL.DurationValue() != 90*time.Second {
		t.Fatalf("CacheTTL 解析错误: %v", cfg.Global.CacheTTL.DurationValue())
	}
	if cfg.Origin.Timeout.DurationValue() != 15*time.Second {
		t.Fatalf("纯数字 Timeout 应按秒解析，得到 %v", cfg.Origin.Timeout.DurationValue())
	}
	if !filepath.IsAbs(cfg.Global.CacheRoot) {
		t.Fatalf("CacheRoot 应为绝对路径: %s", cfg.Global.CacheRoot)
	}
	if u := cfg.OriginURL(); u == nil || u.Host != "localhost:3000" {
		t.Fatalf("Origin URL 解析错误: %v", u)
	}
}

func TestLoadFailsWithMissingOrigin(t *testing.T) {
	_, err := Load(testConfigPath(t, "missing.toml"))
	if err == nil {
		t.Fatalf("缺失 Origin 的配置应返回错误")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
[Origin]
URL = "https://render.example.com"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Global.ListenPort != 5000 {
		t.Fatalf("默认端口应为 5000，得到 %d", cfg.Global.ListenPort)
	}
	if cfg.Global.LogLevel != "info" {
		t.Fatalf("默认日志级别应为 info，得到 %s", cfg.Global.LogLevel)
	}
	if cfg.Global.CacheTTL.DurationValue() != 60*time.Second {
		t.Fatalf("默认 TTL 应为 60s，得到 %v", cfg.Global.CacheTTL.DurationValue())
	}
	wantRoot, _ := filepath.Abs(os.TempDir())
	if cfg.Global.CacheRoot != wantRoot {
		t.Fatalf("默认缓存目录应为系统临时目录，得到 %s", cfg.Global.CacheRoot)
	}
	if cfg.Origin.Timeout.DurationValue() != 30*time.Second {
		t.Fatalf("默认 Origin.Timeout 应为 30s，得到 %v", cfg.Origin.Timeout.DurationValue())
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	path := writeTempConfig(t, `
CacheTTL = "boom"

[Origin]
URL = "http://localhost:3000"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadRejectsNonHTTPOrigin(t *testing.T) {
	path := writeTempConfig(t, `
[Origin]
URL = "ftp://render.example.com"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("非 http/https 渲染源应失败")
	}
}

func TestValidateReportsFieldErrors(t *testing.T) {
	cfg := &Config{
		Global: GlobalConfig{
			ListenPort: 70000,
			LogLevel:   "info",
			CacheRoot:  "/tmp",
			CacheTTL:   Duration(time.Minute),
		},
		Origin: OriginConfig{URL: "http://localhost:3000", Timeout: Duration(time.Second)},
	}

	var fieldErr FieldError
	if err := cfg.Validate(); !errors.As(err, &fieldErr) || fieldErr.Field != "Global.ListenPort" {
		t.Fatalf("期望 ListenPort 字段错误，得到 %v", err)
	}

	cfg.Global.ListenPort = 5000
	cfg.Global.LogLevel = "loud"
	if err := cfg.Validate(); !errors.As(err, &fieldErr) || fieldErr.Field != "Global.LogLevel" {
		t.Fatalf("期望 LogLevel 字段错误，得到 %v", err)
	}

	cfg.Global.LogLevel = "debug"
	cfg.Global.CacheTTL = 0
	if err := cfg.Validate(); !errors.As(err, &fieldErr) || fieldErr.Field != "Global.CacheTTL" {
		t.Fatalf("期望 CacheTTL 字段错误，得到 %v", err)
	}

	cfg.Global.CacheTTL = Duration(time.Minute)
	cfg.Origin.Timeout = 0
	if err := cfg.Validate(); !errors.As(err, &fieldErr) || fieldErr.Field != "Origin.Timeout" {
		t.Fatalf("期望 Origin.Timeout 字段错误，得到 %v", err)
	}

	cfg.Origin.Timeout = Duration(time.Second)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("修正后的配置应通过校验: %v", err)
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("2m")); err != nil || d.DurationValue() != 2*time.Minute {
		t.Fatalf("解析 2m 失败: %v %v", d.DurationValue(), err)
	}
	if err := d.UnmarshalText([]byte("45")); err != nil || d.DurationValue() != 45*time.Second {
		t.Fatalf("解析纯秒值失败: %v %v", d.DurationValue(), err)
	}
	if err := d.UnmarshalText([]byte("1.5")); err != nil || d.DurationValue() != 1500*time.Millisecond {
		t.Fatalf("解析小数秒失败: %v %v", d.DurationValue(), err)
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Fatalf("非法值应返回错误")
	}
}
