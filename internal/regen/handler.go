package regen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"

	"github.com/regen-cache/regen-cache/internal/cache"
	"github.com/regen-cache/regen-cache/internal/logging"
	"github.com/regen-cache/regen-cache/internal/render"
	"github.com/regen-cache/regen-cache/internal/server"
)

// HeaderCacheStatus 标记响应来自缓存还是渲染源。
const HeaderCacheStatus = "X-Regen-Cache"

const (
	StatusHit    = "HIT"
	StatusMiss   = "MISS"
	StatusStale  = "STALE"
	StatusBypass = "BYPASS"
)

// Renderer 负责真正生成页面，通常是 *render.Origin；测试中可替换。
type Renderer interface {
	Render(ctx context.Context, req render.Request) (*http.Response, error)
}

// Options 汇总 Handler 依赖，Root 为空时使用 cache.DefaultRoot()。
type Options struct {
	Renderer Renderer
	Logger   *logrus.Logger
	Root     string
	TTL      time.Duration
	Now      func() time.Time
}

// Handler 负责 “查缓存 → 命中直接返回 / 未命中回源 → 后台重建缓存” 的流程。
type Handler struct {
	renderer Renderer
	logger   *logrus.Logger
	root     string
	ttl      time.Duration
	now      func() time.Time

	pending conc.WaitGroup
}

// NewHandler 校验依赖并构造 Handler。
func NewHandler(opts Options) (*Handler, error) {
	if opts.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("invalid cache ttl: %s", opts.TTL)
	}
	root := opts.Root
	if root == "" {
		root = cache.DefaultRoot()
	}
	return &Handler{
		renderer: opts.Renderer,
		logger:   opts.Logger,
		root:     root,
		ttl:      opts.TTL,
		now:      opts.Now,
	}, nil
}

// CacheIdentifier 以请求路径与查询串的 SHA-256 作为缓存标识符。
func CacheIdentifier(path, rawQuery string) string {
	if rawQuery == "" {
		return cache.HashString(path)
	}
	return cache.HashString(path + "?" + rawQuery)
}

// Handle 实现 server.PageHandler。
func (h *Handler) Handle(c fiber.Ctx) error {
	started := time.Now()
	req := render.Request{
		Method:   c.Method(),
		Path:     string(c.Request().URI().Path()),
		RawQuery: string(c.Request().URI().QueryString()),
		Header:   http.Header(c.GetReqHeaders()),
	}

	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		req.Body = append([]byte(nil), c.Body()...)
		return h.renderOrigin(c, nil, req, StatusBypass, started)
	}

	manager, err := cache.NewManager(cache.ManagerOptions{
		Root:       h.root,
		TTL:        h.ttl,
		Identifier: CacheIdentifier(req.Path, req.RawQuery),
		Logger:     h.logger,
		Now:        h.now,
	})
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"action": "cache_init",
			"path":   req.Path,
		}).Warn("cache manager unavailable")
		return h.renderOrigin(c, nil, req, StatusBypass, started)
	}

	cacheStatus := StatusMiss
	if manager.IsValid() {
		if body, ok := manager.Read(); ok {
			return h.serveCached(c, req, body, started)
		}
	} else if manager.Exists() {
		cacheStatus = StatusStale
	}

	return h.renderOrigin(c, manager, req, cacheStatus, started)
}

// Wait 等待所有后台缓存写入结束，用于停机与测试。
func (h *Handler) Wait() {
	h.pending.Wait()
}

func (h *Handler) serveCached(c fiber.Ctx, req render.Request, body []byte, started time.Time) error {
	c.Set("Content-Type", http.DetectContentType(body))
	c.Set(HeaderCacheStatus, StatusHit)
	c.Status(fiber.StatusOK)
	h.logResult(c, req, StatusHit, fiber.StatusOK, started, nil)
	return c.Send(body)
}

// renderOrigin 回源并把响应转给客户端；manager 非空且响应为 200 的 GET 时后台写入缓存。
func (h *Handler) renderOrigin(
	c fiber.Ctx,
	manager *cache.Manager,
	req render.Request,
	cacheStatus string,
	started time.Time,
) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := h.renderer.Render(ctx, req)
	if err != nil {
		h.logResult(c, req, cacheStatus, fiber.StatusBadGateway, started, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "origin_unavailable"})
	}
	defer resp.Body.Close()

	// 需要缓存时先完整读出正文：读取失败按回源失败处理，不把残缺页面当作 200 返回。
	if manager != nil && req.Method == http.MethodGet && resp.StatusCode == http.StatusOK {
		data, err := cache.CloneBody(resp)
		if err != nil {
			h.logResult(c, req, cacheStatus, fiber.StatusBadGateway, started, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "origin_unavailable"})
		}
		manager.Save(data)
		h.pending.Go(manager.Wait)
	}

	copyResponseHeaders(c, resp.Header)
	c.Set(HeaderCacheStatus, cacheStatus)
	c.Status(resp.StatusCode)

	if req.Method == http.MethodHead {
		h.logResult(c, req, cacheStatus, resp.StatusCode, started, nil)
		return nil
	}

	_, err = io.Copy(c.Response().BodyWriter(), resp.Body)
	h.logResult(c, req, cacheStatus, resp.StatusCode, started, err)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf("origin stream failed: %v", err))
	}
	return nil
}

func (h *Handler) logResult(c fiber.Ctx, req render.Request, cacheStatus string, status int, started time.Time, err error) {
	fields := logging.RequestFields(
		server.RequestID(c),
		req.Method,
		req.Path,
		cacheStatus,
		status,
		time.Since(started).Milliseconds(),
	)
	if err != nil {
		fields["error"] = err.Error()
		h.logger.WithFields(fields).Error("regen_failed")
		return
	}
	h.logger.WithFields(fields).Info("regen_complete")
}

func copyResponseHeaders(c fiber.Ctx, headers http.Header) {
	for key, values := range headers {
		if render.IsHopByHopHeader(key) {
			continue
		}
		for i, value := range values {
			if i == 0 {
				c.Set(key, value)
				continue
			}
			c.Response().Header.Add(key, value)
		}
	}
}
