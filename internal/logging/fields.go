package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径字段，CLI 各入口共用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 汇总一次页面请求的缓存结果，regen handler 每个请求输出一行。
func RequestFields(requestID, method, path, cacheStatus string, status int, elapsedMs int64) logrus.Fields {
	return logrus.Fields{
		"action":       "regen",
		"request_id":   requestID,
		"method":       method,
		"path":         path,
		"cache_status": cacheStatus,
		"status":       status,
		"elapsed_ms":   elapsedMs,
	}
}
