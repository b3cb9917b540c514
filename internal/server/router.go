package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PageHandler answers page requests; tests inject recorders in its place.
type PageHandler interface {
	Handle(fiber.Ctx) error
}

// PageHandlerFunc adapts a function to the PageHandler interface.
type PageHandlerFunc func(fiber.Ctx) error

// Handle makes PageHandlerFunc satisfy PageHandler.
func (f PageHandlerFunc) Handle(c fiber.Ctx) error {
	return f(c)
}

// AppOptions controls how the Fiber application is assembled.
type AppOptions struct {
	Logger     *logrus.Logger
	Pages      PageHandler
	ListenPort int
}

const contextKeyRequestID = "_regen_request_id"

// NewApp builds the Fiber application with request-id middleware and a
// catch-all page route. Diagnostics routes are registered separately.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Pages == nil {
		return nil, errors.New("page handler is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ErrorHandler:  errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware)

	app.All("/*", func(c fiber.Ctx) error {
		if isDiagnosticsPath(string(c.Request().URI().Path())) {
			return c.Next()
		}
		return opts.Pages.Handle(c)
	})

	return app, nil
}

// requestIDMiddleware 为每个请求生成 ID，写入 Locals 与响应头。
func requestIDMiddleware(c fiber.Ctx) error {
	reqID := uuid.NewString()
	c.Locals(contextKeyRequestID, reqID)
	c.Set("X-Request-ID", reqID)
	return c.Next()
}

// errorHandler 把未处理的错误转成 JSON，并记录结构化日志。
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"action":     "request_error",
			"request_id": RequestID(c),
			"path":       c.Path(),
			"status":     code,
		}).Warn("request failed")
		return c.Status(code).JSON(fiber.Map{
			"error":  "request_failed",
			"status": code,
		})
	}
}

// RequestID returns the request identifier stored by the middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
