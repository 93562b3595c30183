package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/onto-hub/onto-hub/internal/config"
	"github.com/onto-hub/onto-hub/internal/logging"
	"github.com/onto-hub/onto-hub/internal/provider"
	"github.com/onto-hub/onto-hub/internal/registry"
	"github.com/onto-hub/onto-hub/internal/server"
	"github.com/onto-hub/onto-hub/internal/server/routes"
	"github.com/onto-hub/onto-hub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	fetchSpec   string
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
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

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["pins"] = len(cfg.Pins)
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动遵循“配置 → 共享 HTTP 客户端 → 两个 provider → 注册表 → Fiber server”
	// 顺序，保证所有请求复用同一份注册表与上游连接池。
	httpClient := provider.NewUpstreamClient(cfg)
	metadata := provider.NewBioRegistry(cfg.Global.MetadataAPI, httpClient, cfg.Global.UserAgent)
	content := provider.NewOBOLibrary(cfg.Global.ContentBaseURL, httpClient, cfg.Global.UserAgent)

	reg, err := registry.New(cfg.Global.StoragePath, metadata, content, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化本体注册表失败: %v\n", err)
		return 1
	}

	if opts.fetchSpec != "" {
		return runFetch(reg, opts.fetchSpec)
	}

	prefetchPins(reg, cfg.Pins, logger)

	fields := logging.BaseFields("startup", opts.configPath)
	fields["storage_path"] = cfg.Global.StoragePath
	fields["pins"] = len(cfg.Pins)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, reg, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// runFetch 执行一次性注册并把本地路径打印到 stdout，供脚本消费。
func runFetch(reg *registry.Registry, spec string) int {
	ontologyID, selector, fileType, err := parseFetchSpec(spec)
	if err != nil {
		fmt.Fprintf(stdErr, "解析 fetch 参数失败: %v\n", err)
		return 2
	}

	path, err := reg.Register(context.Background(), ontologyID, selector, fileType)
	if err != nil {
		fmt.Fprintf(stdErr, "获取本体失败: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdOut, path)
	return 0
}

// prefetchPins 在启动时物化配置声明的条目；单条失败只告警，不阻止服务启动。
func prefetchPins(reg *registry.Registry, pins []config.PinConfig, logger *logrus.Logger) {
	for _, pin := range pins {
		path, err := reg.Register(context.Background(), pin.Ontology, pin.Selector(), pin.Format)
		fields := logging.FetchFields(pin.Ontology, pin.Selector().String(), string(pin.Format), false)
		fields["action"] = "prefetch"
		if err != nil {
			logger.WithFields(fields).Warnf("预取失败: %v", err)
			continue
		}
		fields["path"] = path
		logger.WithFields(fields).Info("预取完成")
	}
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("onto-hub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
		fetchSpec  string
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 ONTO_HUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")
	fs.StringVar(&fetchSpec, "fetch", "", "一次性获取本体并打印路径，格式 id[@version].format，例如 hp@2026-01-16.json")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("ONTO_HUB_CONFIG")
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
		fetchSpec:   fetchSpec,
	}, nil
}

// parseFetchSpec 解析 "id[@version].format" 形式的 fetch 参数，
// 未声明版本时使用 Latest。
func parseFetchSpec(spec string) (string, registry.Version, registry.FileType, error) {
	dot := strings.LastIndex(spec, ".")
	if dot <= 0 || dot == len(spec)-1 {
		return "", registry.Version{}, "", fmt.Errorf("缺少格式后缀: %q", spec)
	}

	fileType, err := registry.ParseFileType(spec[dot+1:])
	if err != nil {
		return "", registry.Version{}, "", err
	}

	ontologyID := spec[:dot]
	selector := registry.Latest
	if at := strings.Index(ontologyID, "@"); at >= 0 {
		selector = registry.ParseVersion(ontologyID[at+1:])
		ontologyID = ontologyID[:at]
	}
	if ontologyID == "" {
		return "", registry.Version{}, "", fmt.Errorf("缺少本体 id: %q", spec)
	}

	return ontologyID, selector, fileType, nil
}

func startHTTPServer(cfg *config.Config, reg *registry.Registry, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Registry:   reg,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnosticsRoutes(app, reg)

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
