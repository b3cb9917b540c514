package routes

import (
	"time"

	"github.com/gofiber/fiber/v3"
)

// CacheInfo 描述当前进程的缓存参数，供诊断接口展示。
type CacheInfo struct {
	Root    string
	TTL     time.Duration
	Origin  string
	Version string
}

type healthPayload struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type cachePayload struct {
	Root       string `json:"root"`
	TTLSeconds int64  `json:"ttl_seconds"`
	Origin     string `json:"origin"`
}

// RegisterDiagnosticRoutes 暴露 /-/healthz 与 /-/cache 两个只读接口。
func RegisterDiagnosticRoutes(app *fiber.App, info CacheInfo) {
	if app == nil {
		return
	}

	app.Get("/-/healthz", func(c fiber.Ctx) error {
		return c.JSON(healthPayload{Status: "ok", Version: info.Version})
	})

	app.Get("/-/cache", func(c fiber.Ctx) error {
		return c.JSON(cachePayload{
			Root:       info.Root,
			TTLSeconds: int64(info.TTL / time.Second),
			Origin:     info.Origin,
		})
	})
}
