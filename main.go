package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/regen-cache/regen-cache/internal/config"
	"github.com/regen-cache/regen-cache/internal/logging"
	"github.com/regen-cache/regen-cache/internal/regen"
	"github.com/regen-cache/regen-cache/internal/render"
	"github.com/regen-cache/regen-cache/internal/server"
	"github.com/regen-cache/regen-cache/internal/server/routes"
	"github.com/regen-cache/regen-cache/internal/version"
)

// cliOptions 汇总 CLI 标志解析结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

const shutdownTimeout = 10 * time.Second

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 执行 “配置 → 日志 → 渲染源 → regen handler → Fiber” 的启动流程并返回退出码。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["cache_root"] = cfg.Global.CacheRoot
	fields["cache_ttl"] = cfg.Global.CacheTTL.DurationValue().String()
	fields["origin"] = cfg.Origin.URL

	if opts.checkOnly {
		fields["action"] = "check_config"
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	origin, err := render.NewOrigin(cfg.OriginURL(), render.NewHTTPClient(cfg))
	if err != nil {
		fmt.Fprintf(stdErr, "初始化渲染源失败: %v\n", err)
		return 1
	}

	handler, err := regen.NewHandler(regen.Options{
		Renderer: origin,
		Logger:   logger,
		Root:     cfg.Global.CacheRoot,
		TTL:      cfg.Global.CacheTTL.DurationValue(),
	})
	if err != nil {
		fmt.Fprintf(stdErr, "初始化 regen handler 失败: %v\n", err)
		return 1
	}

	fields["listen_port"] = cfg.Global.ListenPort
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, handler, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，flag 优先于 REGEN_CACHE_CONFIG 环境变量。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("regen-cache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 REGEN_CACHE_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("REGEN_CACHE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// startHTTPServer 监听端口直到收到 SIGINT/SIGTERM，停机时等待后台缓存写入完成。
func startHTTPServer(cfg *config.Config, handler *regen.Handler, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Pages:      handler,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnosticRoutes(app, routes.CacheInfo{
		Root:    cfg.Global.CacheRoot,
		TTL:     cfg.Global.CacheTTL.DurationValue(),
		Origin:  cfg.Origin.URL,
		Version: version.Full(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"action": "listen",
			"port":   port,
		}).Info("Fiber 服务启动")
		errCh <- app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.WithField("action", "shutdown").Info("收到停止信号")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.WithError(err).WithField("action", "shutdown").Warn("Fiber 停机超时")
	}
	handler.Wait()
	return nil
}
