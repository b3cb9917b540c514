package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Validate 做语义级校验，阻止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", "无法识别的日志级别 "+g.LogLevel)
	}
	if g.LogMaxSize < 0 {
		return newFieldError("Global.LogMaxSize", "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError("Global.LogMaxBackups", "不能为负数")
	}
	if strings.TrimSpace(g.CacheRoot) == "" {
		return newFieldError("Global.CacheRoot", "不能为空")
	}
	if g.CacheTTL.DurationValue() <= 0 {
		return newFieldError("Global.CacheTTL", "必须大于 0")
	}

	if err := validateOrigin(c.Origin.URL); err != nil {
		return fmt.Errorf("%s: %w", originField("URL"), err)
	}
	if c.Origin.Timeout.DurationValue() <= 0 {
		return newFieldError(originField("Timeout"), "必须大于 0")
	}

	return nil
}

func validateOrigin(raw string) error {
	if raw == "" {
		return errors.New("缺少渲染源地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，渲染源: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("渲染源缺少 Host: %s", raw)
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return fmt.Errorf("渲染源不应包含查询参数或锚点: %s", raw)
	}
	return nil
}

// OriginURL 返回解析后的渲染源地址（假定 Validate 已通过）。
func (c *Config) OriginURL() *url.URL {
	parsed, err := url.Parse(c.Origin.URL)
	if err != nil {
		return nil
	}
	return parsed
}
